// Package netutil expands scan targets from network notation.
package netutil

import (
	"fmt"
	"net/netip"
	"strings"
)

// ExpandTargets turns a CIDR range (or a single address) plus a
// comma-separated port list into base URLs. IPv4 network and broadcast
// addresses are skipped where the prefix has them, and the scheme's
// default port is left out of the URL.
func ExpandTargets(cidr, portList, scheme string) ([]string, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		addr, aerr := netip.ParseAddr(cidr)
		if aerr != nil {
			return nil, fmt.Errorf("invalid CIDR or IP: %q", cidr)
		}
		prefix = netip.PrefixFrom(addr, addr.BitLen())
	}
	prefix = prefix.Masked()

	ports := splitPorts(portList)
	if len(ports) == 0 {
		if scheme == "https" {
			ports = []string{"443"}
		} else {
			ports = []string{"80"}
		}
	}

	skipEdges := prefix.Addr().Is4() && prefix.Bits() < 31
	var edge netip.Addr
	if skipEdges {
		edge = broadcast(prefix)
	}

	var urls []string
	for addr := prefix.Addr(); prefix.Contains(addr); addr = addr.Next() {
		if skipEdges && (addr == prefix.Addr() || addr == edge) {
			continue
		}
		for _, port := range ports {
			urls = append(urls, targetURL(scheme, addr, port))
		}
	}
	return urls, nil
}

func splitPorts(s string) []string {
	if s == "" {
		return nil
	}
	var ports []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			ports = append(ports, p)
		}
	}
	return ports
}

// broadcast returns the highest address of an IPv4 prefix. The prefix
// must already be masked.
func broadcast(p netip.Prefix) netip.Addr {
	a := p.Addr().As4()
	hostBits := 32 - p.Bits()
	for i := 3; i >= 0 && hostBits > 0; i-- {
		n := hostBits
		if n > 8 {
			n = 8
		}
		a[i] |= byte(0xff >> (8 - n))
		hostBits -= n
	}
	return netip.AddrFrom4(a)
}

func targetURL(scheme string, addr netip.Addr, port string) string {
	host := addr.String()
	if addr.Is6() {
		host = "[" + host + "]"
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%s", scheme, host, port)
}
