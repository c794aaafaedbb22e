// Package layout positions the note hierarchy as a left-to-right layered graph.
package layout

import (
	"fmt"

	"github.com/hpungsan/focusflow/internal/hierarchy"
	"github.com/hpungsan/focusflow/internal/note"
)

// NodeType distinguishes the three kinds of graph node.
type NodeType string

const (
	TypeTopic NodeType = "topic"
	TypeTag   NodeType = "tag"
	TypeNote  NodeType = "note"
)

// Node is a positioned box. X and Y are the top-left corner.
type Node struct {
	ID     string   `json:"id"`
	Type   NodeType `json:"type"`
	Label  string   `json:"label"`
	Count  int      `json:"count,omitempty"`
	NoteID string   `json:"noteId,omitempty"`
	Path   []string `json:"path,omitempty"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
}

// Edge connects a parent bucket to a child bucket or a leaf note.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the laid-out tree. An empty collection yields zero width and height.
type Graph struct {
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// NodeWidth and NodeHeight are the box size used for every node.
	NodeWidth  float64 `json:"nodeWidth"`
	NodeHeight float64 `json:"nodeHeight"`
}

// Options controls spacing. Zero fields take the defaults.
type Options struct {
	LevelSpacing float64
	RowHeight    float64
	NodeWidth    float64
	NodeHeight   float64
}

// DefaultOptions returns the standard spacing.
func DefaultOptions() Options {
	return Options{
		LevelSpacing: 200,
		RowHeight:    60,
		NodeWidth:    160,
		NodeHeight:   40,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LevelSpacing <= 0 {
		o.LevelSpacing = d.LevelSpacing
	}
	if o.RowHeight <= 0 {
		o.RowHeight = d.RowHeight
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.NodeHeight > o.RowHeight {
		o.NodeHeight = o.RowHeight
	}
	return o
}

// Compute lays out the tree rooted at root. Topics occupy column 0 and every
// level below adds a column. Each bucket owns a vertical band of
// Count()*RowHeight: child bands are stacked first, then its leaf notes one row
// each, and the bucket is centred in its band. Bands partition the canvas, so
// nodes in one column never overlap.
func Compute(root *hierarchy.Node, opts Options) *Graph {
	opts = opts.withDefaults()
	g := &Graph{
		Nodes:      []Node{},
		Edges:      []Edge{},
		NodeWidth:  opts.NodeWidth,
		NodeHeight: opts.NodeHeight,
	}
	if root == nil || root.Count() == 0 {
		return g
	}

	l := &builder{g: g, opts: opts}
	top := 0.0
	maxCol := 0
	for _, topic := range root.OrderedChildren() {
		l.place(topic, "", 0, top)
		top += float64(topic.Count()) * opts.RowHeight
	}
	for _, n := range g.Nodes {
		if col := int(n.X / opts.LevelSpacing); col > maxCol {
			maxCol = col
		}
	}

	g.Width = float64(maxCol)*opts.LevelSpacing + opts.NodeWidth
	g.Height = top
	return g
}

type builder struct {
	g       *Graph
	opts    Options
	counter int
}

func (b *builder) place(n *hierarchy.Node, parentID string, col int, top float64) {
	b.counter++
	id := fmt.Sprintf("node-%d", b.counter)
	band := float64(n.Count()) * b.opts.RowHeight

	typ := TypeTag
	if n.IsTopic() {
		typ = TypeTopic
	}
	b.g.Nodes = append(b.g.Nodes, Node{
		ID:    id,
		Type:  typ,
		Label: n.Name,
		Count: n.Count(),
		Path:  n.Path(),
		X:     float64(col) * b.opts.LevelSpacing,
		Y:     top + (band-b.opts.NodeHeight)/2,
	})
	if parentID != "" {
		b.edge(parentID, id)
	}

	cursor := top
	for _, c := range n.OrderedChildren() {
		b.place(c, id, col+1, cursor)
		cursor += float64(c.Count()) * b.opts.RowHeight
	}
	for i := range n.Notes {
		nt := &n.Notes[i]
		noteID := "note-" + nt.ID
		b.g.Nodes = append(b.g.Nodes, Node{
			ID:     noteID,
			Type:   TypeNote,
			Label:  note.DisplayTitle(nt),
			NoteID: nt.ID,
			X:      float64(col+1) * b.opts.LevelSpacing,
			Y:      cursor + (b.opts.RowHeight-b.opts.NodeHeight)/2,
		})
		b.edge(id, noteID)
		cursor += b.opts.RowHeight
	}
}

func (b *builder) edge(source, target string) {
	b.g.Edges = append(b.g.Edges, Edge{
		ID:     "edge-" + source + "-" + target,
		Source: source,
		Target: target,
	})
}

// Find returns the node with the given id, or nil.
func (g *Graph) Find(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}
