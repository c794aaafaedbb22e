package layout

import (
	"fmt"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// RenderOptions controls PNG output.
type RenderOptions struct {
	Margin   float64
	FontSize float64
}

var (
	colorBackground = color.RGBA{0xfa, 0xfa, 0xf9, 0xff}
	colorEdge       = color.RGBA{0xa8, 0xa2, 0x9e, 0xff}
	colorText       = color.RGBA{0x1c, 0x19, 0x17, 0xff}
	nodeFill        = map[NodeType]color.RGBA{
		TypeTopic: {0xdb, 0xea, 0xfe, 0xff},
		TypeTag:   {0xdc, 0xfc, 0xe7, 0xff},
		TypeNote:  {0xff, 0xff, 0xff, 0xff},
	}
	nodeStroke = map[NodeType]color.RGBA{
		TypeTopic: {0x25, 0x63, 0xeb, 0xff},
		TypeTag:   {0x16, 0xa3, 0x4a, 0xff},
		TypeNote:  {0x78, 0x71, 0x6c, 0xff},
	}
)

// RenderPNG draws g as a PNG. An empty graph renders a small blank canvas.
func RenderPNG(w io.Writer, g *Graph, opts RenderOptions) error {
	if opts.Margin <= 0 {
		opts.Margin = 24
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 13
	}

	width := int(g.Width + 2*opts.Margin)
	height := int(g.Height + 2*opts.Margin)
	if width < 1 || height < 1 || len(g.Nodes) == 0 {
		width, height = int(2*opts.Margin), int(2*opts.Margin)
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(colorBackground)
	dc.Clear()
	dc.Translate(opts.Margin, opts.Margin)
	dc.SetFontFace(labelFace(opts.FontSize))

	byID := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	dc.SetColor(colorEdge)
	dc.SetLineWidth(1.5)
	for _, e := range g.Edges {
		src, ok1 := byID[e.Source]
		dst, ok2 := byID[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		x1, y1 := src.X+g.NodeWidth, src.Y+g.NodeHeight/2
		x2, y2 := dst.X, dst.Y+g.NodeHeight/2
		mid := (x1 + x2) / 2
		dc.MoveTo(x1, y1)
		dc.CubicTo(mid, y1, mid, y2, x2, y2)
		dc.Stroke()
	}

	for _, n := range g.Nodes {
		dc.DrawRoundedRectangle(n.X, n.Y, g.NodeWidth, g.NodeHeight, 6)
		dc.SetColor(nodeFill[n.Type])
		dc.FillPreserve()
		dc.SetColor(nodeStroke[n.Type])
		dc.SetLineWidth(1)
		dc.Stroke()

		dc.SetColor(colorText)
		label := fitLabel(dc, boxLabel(n), g.NodeWidth-12)
		dc.DrawStringAnchored(label, n.X+g.NodeWidth/2, n.Y+g.NodeHeight/2, 0.5, 0.35)
	}

	return dc.EncodePNG(w)
}

func boxLabel(n Node) string {
	if n.Type == TypeNote {
		return n.Label
	}
	return fmt.Sprintf("%s (%d)", n.Label, n.Count)
}

// fitLabel shortens s with an ellipsis until it fits max pixels.
func fitLabel(dc *gg.Context, s string, max float64) string {
	if w, _ := dc.MeasureString(s); w <= max {
		return s
	}
	r := []rune(s)
	for len(r) > 1 {
		r = r[:len(r)-1]
		candidate := string(r) + "…"
		if w, _ := dc.MeasureString(candidate); w <= max {
			return candidate
		}
	}
	return string(r)
}

func labelFace(size float64) font.Face {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
