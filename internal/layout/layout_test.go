package layout

import (
	"bytes"
	"fmt"
	"image/png"
	"sort"
	"testing"

	"github.com/hpungsan/focusflow/internal/hierarchy"
	"github.com/hpungsan/focusflow/internal/note"
)

func mk(id, topic string, tags ...string) note.Note {
	return note.Note{ID: id, Title: id, Topic: topic, Tags: tags}
}

func mathTree() *hierarchy.Node {
	return hierarchy.Build([]note.Note{
		mk("A", "Math", "algebra", "ch1"),
		mk("B", "Math", "algebra", "ch2"),
		mk("C", "Math"),
	})
}

func TestCompute_Empty(t *testing.T) {
	g := Compute(hierarchy.Build(nil), Options{})
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("empty graph has %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
	if g.Width != 0 || g.Height != 0 {
		t.Errorf("empty graph size = %vx%v, want 0x0", g.Width, g.Height)
	}
	if Compute(nil, Options{}) == nil {
		t.Error("Compute(nil) returned nil")
	}
}

func TestCompute_MathExample(t *testing.T) {
	g := Compute(mathTree(), DefaultOptions())

	if len(g.Nodes) != 7 {
		t.Fatalf("nodes = %d, want 7", len(g.Nodes))
	}
	if len(g.Edges) != 6 {
		t.Fatalf("edges = %d, want 6", len(g.Edges))
	}

	want := map[string]struct {
		typ  NodeType
		x, y float64
	}{
		"Math":    {TypeTopic, 0, 70},
		"algebra": {TypeTag, 200, 40},
		"ch1":     {TypeTag, 400, 10},
		"ch2":     {TypeTag, 400, 70},
		"A":       {TypeNote, 600, 10},
		"B":       {TypeNote, 600, 70},
		"C":       {TypeNote, 200, 130},
	}
	for _, n := range g.Nodes {
		w, ok := want[n.Label]
		if !ok {
			t.Errorf("unexpected node %+v", n)
			continue
		}
		if n.Type != w.typ || n.X != w.x || n.Y != w.y {
			t.Errorf("node %s = {%s %v %v}, want {%s %v %v}", n.Label, n.Type, n.X, n.Y, w.typ, w.x, w.y)
		}
	}
	if g.Width != 760 || g.Height != 180 {
		t.Errorf("size = %vx%v, want 760x180", g.Width, g.Height)
	}

	math := g.Nodes[0]
	if math.Count != 3 {
		t.Errorf("Math count = %d, want 3", math.Count)
	}
	noteC := g.Find("note-C")
	if noteC == nil || noteC.NoteID != "C" {
		t.Fatalf("note-C = %+v", noteC)
	}
	found := false
	for _, e := range g.Edges {
		if e.Source == math.ID && e.Target == "note-C" {
			found = e.ID == "edge-"+math.ID+"-note-C"
		}
	}
	if !found {
		t.Error("missing edge from Math to note-C")
	}
}

func TestCompute_NoOverlapWithinColumn(t *testing.T) {
	var notes []note.Note
	topics := []string{"Math", "Bio", "History"}
	for i := 0; i < 30; i++ {
		topic := topics[i%3]
		switch i % 4 {
		case 0:
			notes = append(notes, mk(fmt.Sprint(i), topic))
		case 1:
			notes = append(notes, mk(fmt.Sprint(i), topic, "a"))
		case 2:
			notes = append(notes, mk(fmt.Sprint(i), topic, "a", "b"))
		default:
			notes = append(notes, mk(fmt.Sprint(i), topic, "c", fmt.Sprint(i%5)))
		}
	}

	g := Compute(hierarchy.Build(notes), DefaultOptions())

	columns := make(map[float64][]float64)
	noteNodes := 0
	for _, n := range g.Nodes {
		columns[n.X] = append(columns[n.X], n.Y)
		if n.Type == TypeNote {
			noteNodes++
		}
	}
	if noteNodes != len(notes) {
		t.Errorf("note nodes = %d, want %d", noteNodes, len(notes))
	}
	for x, ys := range columns {
		sort.Float64s(ys)
		for i := 1; i < len(ys); i++ {
			if ys[i]-ys[i-1] < g.NodeHeight {
				t.Errorf("column x=%v: nodes at y=%v and y=%v overlap", x, ys[i-1], ys[i])
			}
		}
	}
	if g.Height != float64(len(notes))*DefaultOptions().RowHeight {
		t.Errorf("height = %v", g.Height)
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	g := Compute(mathTree(), DefaultOptions())
	if err := RenderPNG(&buf, g, RenderOptions{}); err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 808 || b.Dy() != 228 {
		t.Errorf("image size = %dx%d, want 808x228", b.Dx(), b.Dy())
	}
}

func TestRenderPNG_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, Compute(nil, Options{}), RenderOptions{}); err != nil {
		t.Fatalf("RenderPNG(empty) error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("RenderPNG(empty) wrote nothing")
	}
}
