package wordlist

import (
	"fmt"
	"os"
	"strings"
)

// read returns the trimmed, comment-stripped lines of path. An empty path
// falls back to the given embedded list.
func read(path, fallback string) ([]string, error) {
	raw := fallback
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading wordlist %s: %w", path, err)
		}
		raw = string(data)
	}

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Load returns the list of paths to scan. If path is empty, the embedded
// default wordlist is used. Extensions are expanded via %EXT% placeholders
// and optionally force-appended to every entry.
func Load(path string, extensions []string, forceExtensions bool) ([]string, error) {
	lines, err := read(path, embeddedWordlist)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(lines))
	var result []string
	add := func(entry string) {
		if entry == "" {
			return
		}
		if _, ok := seen[entry]; !ok {
			seen[entry] = struct{}{}
			result = append(result, entry)
		}
	}

	for _, line := range lines {
		switch {
		case strings.Contains(line, "%EXT%"):
			for _, ext := range extensions {
				add(strings.ReplaceAll(line, "%EXT%", strings.TrimPrefix(ext, ".")))
			}
			// Also the bare version without the placeholder.
			bare := strings.ReplaceAll(line, ".%EXT%", "")
			add(strings.ReplaceAll(bare, "%EXT%", ""))
		case forceExtensions && len(extensions) > 0:
			add(line)
			for _, ext := range extensions {
				add(line + "." + strings.TrimPrefix(ext, "."))
			}
		default:
			add(line)
		}
	}

	return result, nil
}

// LoadSimple reads a wordlist and returns de-duplicated entries with no
// extension expansion or placeholder processing. An empty path uses the
// embedded subdomain list.
func LoadSimple(path string) ([]string, error) {
	lines, err := read(path, embeddedVHostWordlist)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(lines))
	var result []string
	for _, line := range lines {
		if _, ok := seen[line]; !ok {
			seen[line] = struct{}{}
			result = append(result, line)
		}
	}
	return result, nil
}
