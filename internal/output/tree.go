package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

type treeNode struct {
	name     string
	children map[string]*treeNode
}

func (n *treeNode) child(name string) *treeNode {
	if n.children == nil {
		n.children = make(map[string]*treeNode)
	}
	c, ok := n.children[name]
	if !ok {
		c = &treeNode{name: name}
		n.children[name] = c
	}
	return c
}

func (n *treeNode) sortedChildren() []*treeNode {
	out := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// PrintTree renders discovered directory paths as a tree, e.g.
// ["admin", "admin/config", "js"] becomes a two-level listing under /.
func PrintTree(w io.Writer, dirs []string) {
	root := &treeNode{name: "/"}
	any := false
	for _, d := range dirs {
		d = strings.Trim(d, "/")
		if d == "" {
			continue
		}
		any = true
		node := root
		for _, part := range strings.Split(d, "/") {
			node = node.child(part)
		}
	}
	if !any {
		return
	}

	fmt.Fprintf(w, "\n  Discovered directories:\n")
	printChildren(w, root, "  ")
}

func printChildren(w io.Writer, node *treeNode, prefix string) {
	kids := node.sortedChildren()
	for i, child := range kids {
		connector := "├── "
		nextPrefix := prefix + "│   "
		if i == len(kids)-1 {
			connector = "└── "
			nextPrefix = prefix + "    "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, child.name)
		printChildren(w, child, nextPrefix)
	}
}
