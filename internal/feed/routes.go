package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/validate"
)

// Indexer is told about newly created posts so they become searchable.
type Indexer interface {
	IndexPost(ctx context.Context, p Post) error
}

// RegisterRoutes mounts the feed endpoints. idx may be nil.
func RegisterRoutes(r chi.Router, store *Store, idx Indexer, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.Get("/api/feed", handleList(store))
	r.Get("/api/categories", handleCategories(store))
	r.Post("/api/posts", handleCreate(store, idx, logger))
	r.Get("/api/posts/{id}", handleGet(store))
	r.Post("/api/posts/{id}/like", handleToggle(store.ToggleLike))
	r.Post("/api/posts/{id}/bookmark", handleToggle(store.ToggleBookmark))
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := ListFilter{
			Query:    q.Get("q"),
			Type:     q.Get("type"),
			Sort:     q.Get("sort"),
			Category: q.Get("category"),
			Author:   q.Get("author"),
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		posts, err := store.List(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, posts)
	}
}

func handleCategories(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := store.Categories(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := store.Detail(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleCreate(store *Store, idx Indexer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		p, err := store.Create(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		if idx != nil {
			if err := idx.IndexPost(r.Context(), *p); err != nil {
				logger.Warn("feed: indexing new post", zap.String("post_id", p.ID), zap.Error(err))
			}
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func handleToggle(toggle func(ctx context.Context, id string) (*Post, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := toggle(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, ErrInvalidFilter):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
