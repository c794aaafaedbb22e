package ops

import (
	"context"
	"database/sql"
	"io"

	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/hierarchy"
	"github.com/hpungsan/focusflow/internal/layout"
)

// TreeInput contains parameters for the Tree operation.
type TreeInput struct {
	Topic string
	Tag   string

	// PNGPath, if set, also renders the graph to this file.
	PNGPath string
}

// TreeOutput contains the result of the Tree operation.
type TreeOutput struct {
	Notes   int           `json:"notes"`
	Topics  []string      `json:"topics"`
	Tags    []string      `json:"tags"`
	Outline string        `json:"outline"`
	Graph   *layout.Graph `json:"graph"`
	PNGPath string        `json:"png_path,omitempty"`
}

// Tree builds the topic/tag hierarchy and its layout.
func Tree(ctx context.Context, database *sql.DB, cfg *config.Config, input TreeInput) (*TreeOutput, error) {
	if input.PNGPath != "" {
		if err := ValidatePath(input.PNGPath, ExtPNG, PathCheckWrite, cfg); err != nil {
			return nil, err
		}
	}

	notes, _, err := db.ListNotes(ctx, database, db.ListFilters{Topic: input.Topic, Tag: input.Tag}, 0, 0)
	if err != nil {
		return nil, err
	}
	root := hierarchy.Build(notes)
	graph := layout.Compute(root, layout.DefaultOptions())

	out := &TreeOutput{
		Notes:   len(notes),
		Topics:  emptyIfNil(hierarchy.Topics(notes)),
		Tags:    emptyIfNil(hierarchy.Tags(notes)),
		Outline: hierarchy.Outline(root),
		Graph:   graph,
	}

	if input.PNGPath != "" {
		err := writeFileAtomic(input.PNGPath, func(w io.Writer) error {
			return layout.RenderPNG(w, graph, layout.RenderOptions{})
		})
		if err != nil {
			return nil, err
		}
		out.PNGPath = input.PNGPath
	}
	return out, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
