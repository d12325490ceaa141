package playground

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/preview"
	"github.com/codegram/codegram/internal/sandbox"
)

// renderRequest is the JSON body of POST /api/preview/render.
type renderRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type renderResponse struct {
	Tag      preview.LanguageTag `json:"tag"`
	Document string              `json:"document"`
}

func (p *Playground) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	src := preview.NewSource(req.Code, req.Language)
	p.metrics.RecordDocument(string(src.Tag))
	writeJSON(w, http.StatusOK, renderResponse{
		Tag:      src.Tag,
		Document: preview.Generate(src),
	})
}

func handleViewports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, preview.Viewports())
}

func (p *Playground) handlePostPreview(w http.ResponseWriter, r *http.Request) {
	if p.opts.Posts == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	id := chi.URLParam(r, "id")
	code, language, ok, err := p.opts.Posts.PreviewSource(r.Context(), id)
	if err != nil {
		p.logger.Error("playground: post preview", zap.String("post_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}

	src := preview.NewSource(code, language)
	p.metrics.RecordDocument(string(src.Tag))
	sandbox.WriteDocument(w, []byte(preview.Generate(src)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
