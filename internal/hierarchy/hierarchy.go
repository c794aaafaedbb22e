// Package hierarchy groups notes into a Topic -> Tag -> ... -> Tag tree.
package hierarchy

import (
	"fmt"
	"strings"

	"github.com/hpungsan/focusflow/internal/note"
)

// Node is a bucket in the tree. The root has an empty Name and Depth 0;
// topics sit at depth 1 and each tag adds one level.
type Node struct {
	Name     string
	Depth    int
	Notes    []note.Note
	Children map[string]*Node

	path  []string
	order []string
}

func newNode(name string, depth int, path []string) *Node {
	return &Node{
		Name:     name,
		Depth:    depth,
		Children: make(map[string]*Node),
		path:     path,
	}
}

// Build places every note at the bucket reached by its topic and tag path.
// Topic and tag names merge case-sensitively; children keep first-seen order.
func Build(notes []note.Note) *Node {
	root := newNode("", 0, nil)
	for _, n := range notes {
		cur := root
		for _, name := range note.Path(&n) {
			cur = cur.child(name)
		}
		cur.Notes = append(cur.Notes, n)
	}
	return root
}

func (n *Node) child(name string) *Node {
	if c, ok := n.Children[name]; ok {
		return c
	}
	path := make([]string, len(n.path)+1)
	copy(path, n.path)
	path[len(n.path)] = name
	c := newNode(name, n.Depth+1, path)
	n.Children[name] = c
	n.order = append(n.order, name)
	return c
}

// Child returns the named child bucket, or nil.
func (n *Node) Child(name string) *Node {
	return n.Children[name]
}

// ChildNames lists children in first-seen order.
func (n *Node) ChildNames() []string {
	return append([]string(nil), n.order...)
}

// OrderedChildren lists child nodes in first-seen order.
func (n *Node) OrderedChildren() []*Node {
	out := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.Children[name])
	}
	return out
}

// Path is the bucket's position: topic first, then tags. Root returns nil.
func (n *Node) Path() []string {
	return append([]string(nil), n.path...)
}

// IsTopic reports whether the node is a first-level topic bucket.
func (n *Node) IsTopic() bool {
	return n.Depth == 1
}

// Count is the number of notes in this bucket and all of its descendants.
func (n *Node) Count() int {
	total := len(n.Notes)
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Find walks path from n and returns the bucket, or nil.
func Find(n *Node, path ...string) *Node {
	cur := n
	for _, name := range path {
		if cur = cur.Child(name); cur == nil {
			return nil
		}
	}
	return cur
}

// Walk visits n and its descendants depth-first in first-seen order.
// Returning false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.OrderedChildren() {
		Walk(c, fn)
	}
}

// Topics returns the distinct non-blank topics in first-seen order.
func Topics(notes []note.Note) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range notes {
		t := strings.TrimSpace(n.Topic)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Tags returns the distinct non-blank tags in first-seen order.
func Tags(notes []note.Note) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range notes {
		for _, tag := range n.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// Outline renders the tree as indented text with note counts.
func Outline(root *Node) string {
	var b strings.Builder
	Walk(root, func(n *Node) bool {
		if n.Depth == 0 {
			return true
		}
		indent := strings.Repeat("  ", n.Depth-1)
		fmt.Fprintf(&b, "%s%s (%d)\n", indent, n.Name, n.Count())
		for i := range n.Notes {
			fmt.Fprintf(&b, "%s  - %s\n", indent, note.DisplayTitle(&n.Notes[i]))
		}
		return true
	})
	return b.String()
}
