package web

import (
	"bytes"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/layout"
	"github.com/hpungsan/focusflow/internal/logger"
	"github.com/hpungsan/focusflow/internal/ops"
	"github.com/hpungsan/focusflow/internal/quiz"
	"github.com/hpungsan/focusflow/internal/summarize"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db        *sql.DB
	cfg       *config.Config
	log       *logger.Logger
	renderer  *Renderer
	summaries *summarize.Pipeline
}

// HandleList handles GET /notes.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ListInput{
		Topic:  q.Get("topic"),
		Tag:    q.Get("tag"),
		Limit:  parseIntParam(r, "limit", 20),
		Offset: parseIntParam(r, "offset", 0),
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	result, err := ops.ListNotes(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData:   h.renderer.page("Notes", "notes"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Topic:      input.Topic,
		Tag:        input.Tag,
	})
}

// HandleDetail handles GET /notes/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("note ID is required"))
		return
	}

	data, err := h.detail(r, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, r, "detail", data)
}

func (h *Handlers) detail(r *http.Request, id string) (*DetailPageData, error) {
	n, err := ops.GetNote(r.Context(), h.db, id)
	if err != nil {
		return nil, err
	}
	return &DetailPageData{
		PageData:     h.renderer.page(n.DisplayTitle, "notes"),
		Note:         n,
		RenderedHTML: renderMarkdown(n.Content),
		Summary:      n.LatestSummary(),
		Progress:     quiz.Progress(n.Note),
	}, nil
}

// HandleSummarize handles POST /notes/{id}/summarize. A stored summary is
// reused unless the form sets force=true.
func (h *Handlers) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("note ID is required"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	run := h.summaries.Summarize
	if parseBool(r.FormValue("force")) {
		run = h.summaries.ForceRegenerate
	}
	result, err := run(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	if isHTMX(r) {
		data, err := h.detail(r, id)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		h.renderer.renderBlock(w, http.StatusOK, "detail", "summary", data)
		return
	}

	http.Redirect(w, r, "/notes/"+id, http.StatusSeeOther)
}

// HandleDelete handles DELETE /notes/{id}. Deletion is permanent.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("note ID is required"))
		return
	}

	result, err := ops.DeleteNote(r.Context(), h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.log.Info("note deleted", "id", id)

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/notes")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/notes", http.StatusFound)
}

// HandleTree handles GET /tree.
func (h *Handlers) HandleTree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.TreeInput{Topic: q.Get("topic"), Tag: q.Get("tag")}

	tree, err := ops.Tree(r.Context(), h.db, h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, tree)
		return
	}

	h.renderer.renderPage(w, r, "tree", TreePageData{
		PageData: h.renderer.page("Tree", "tree"),
		Tree:     tree,
		Topic:    input.Topic,
		Tag:      input.Tag,
	})
}

// HandleTreePNG handles GET /tree.png.
func (h *Handlers) HandleTreePNG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tree, err := ops.Tree(r.Context(), h.db, h.cfg, ops.TreeInput{Topic: q.Get("topic"), Tag: q.Get("tag")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := layout.RenderPNG(&buf, tree.Graph, layout.RenderOptions{}); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBool(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "true" || s == "1" || s == "on"
}
