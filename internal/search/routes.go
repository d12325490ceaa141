package search

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/codegram/codegram/internal/feed"
)

// Result is a search hit with the full post.
type Result struct {
	Post       feed.Post `json:"post"`
	Similarity float32   `json:"similarity"`
}

// RegisterRoutes mounts GET /api/search.
func RegisterRoutes(r chi.Router, ix *Index, posts *feed.Store) {
	r.Get("/api/search", handleSearch(ix, posts))
}

func handleSearch(ix *Index, posts *feed.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := 10
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = min(n, 50)
			}
		}

		hits, err := ix.Search(r.Context(), q.Get("q"), limit, q.Get("type"))
		if errors.Is(err, ErrNothingToEmbed) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query must contain at least one word"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		results := []Result{}
		for _, h := range hits {
			p, err := posts.Get(r.Context(), h.PostID)
			if errors.Is(err, feed.ErrNotFound) {
				continue
			}
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			results = append(results, Result{Post: *p, Similarity: h.Similarity})
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
