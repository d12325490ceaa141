package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/codegram/codegram/internal/db"
	"github.com/codegram/codegram/internal/feed"
	"github.com/codegram/codegram/internal/profile"
)

var testPosts = []feed.Post{
	{ID: "hook", Type: feed.TypeSnippet, Title: "Custom Hook useLocalStorage", Tags: []string{"react", "hooks"},
		Content: "function useLocalStorage(key, initialValue) { const [value, setValue] = useState(initialValue) }"},
	{ID: "fib", Type: feed.TypeSnippet, Title: "Fibonacci generator", Tags: []string{"python"},
		Content: "def fibonacci(): a, b = 0, 1\n  while True: yield a; a, b = b, a + b"},
	{ID: "grid", Type: feed.TypeDocumentation, Title: "CSS Grid Layout Guide", Tags: []string{"css", "grid"},
		Content: "Grid layout makes two dimensional layout easy. Use grid-template-columns."},
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(NewHashEmbedder(128))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if err := ix.IndexAll(context.Background(), testPosts, 2); err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	return ix
}

func TestTokenize(t *testing.T) {
	got := Tokenize("useLocalStorage(key) — CSS-Grid 2024")
	want := []string{"uselocalstorage", "use", "local", "storage", "key", "css", "grid", "2024"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbedderNormalizedAndDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	a, err := e.Embed(context.Background(), "react hooks")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := e.Embed(context.Background(), "react hooks")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("expected identical vectors:\n%s", diff)
	}
	var sum float32
	for _, v := range a {
		sum += v * v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("expected unit vector, got squared norm %f", sum)
	}

	if _, err := e.Embed(context.Background(), "{} ();"); !errors.Is(err, ErrNothingToEmbed) {
		t.Errorf("expected ErrNothingToEmbed, got %v", err)
	}
}

func TestSearchRanksRelevantFirst(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	tests := []struct {
		query string
		want  string
	}{
		{"local storage hook", "hook"},
		{"fibonacci python", "fib"},
		{"grid layout", "grid"},
	}
	for _, tt := range tests {
		hits, err := ix.Search(ctx, tt.query, 3, "")
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.query, err)
		}
		if len(hits) == 0 || hits[0].PostID != tt.want {
			t.Errorf("query %q: expected %s first, got %+v", tt.query, tt.want, hits)
		}
	}
}

func TestSearchLimitAndType(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	hits, err := ix.Search(ctx, "layout", 50, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("expected limit clamped to collection size, got %d", len(hits))
	}

	hits, err = ix.Search(ctx, "layout", 3, "documentation")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].PostID != "grid" || hits[0].Type != "documentation" {
		t.Errorf("expected only the documentation post, got %+v", hits)
	}
}

func TestSearchEmpty(t *testing.T) {
	ix, err := NewIndex(NewHashEmbedder(0))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	hits, err := ix.Search(context.Background(), "anything", 5, "")
	if err != nil || len(hits) != 0 {
		t.Errorf("expected no hits on empty index, got %v %v", hits, err)
	}
	if _, err := ix.Search(context.Background(), "  ", 5, ""); !errors.Is(err, ErrNothingToEmbed) {
		t.Errorf("expected ErrNothingToEmbed for blank query, got %v", err)
	}
}

func TestIndexPostReplaces(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	updated := testPosts[1]
	updated.Title = "Memoized recursion"
	if err := ix.IndexPost(ctx, updated); err != nil {
		t.Fatalf("IndexPost: %v", err)
	}
	if ix.Count() != 3 {
		t.Errorf("expected 3 documents, got %d", ix.Count())
	}
	if err := ix.Remove(ctx, "fib"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ix.Count() != 2 {
		t.Errorf("expected 2 documents after remove, got %d", ix.Count())
	}
}

func TestHTTPSearch(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()
	ctx := context.Background()

	users := profile.NewStore(database)
	me, err := users.Create(ctx, profile.User{Username: "john_dev", Name: "John"}, true)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	posts := feed.NewStore(database, users)
	for _, p := range testPosts {
		p.Author = *me
		if _, err := posts.Insert(ctx, p); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	ix := newTestIndex(t)
	// Indexed but no longer in the feed.
	ix.IndexPost(ctx, feed.Post{ID: "gone", Type: feed.TypeSnippet, Title: "fibonacci ghost", Content: "fibonacci"})

	r := chi.NewRouter()
	RegisterRoutes(r, ix, posts)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/search?q=fibonacci&limit=4", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var results []Result
	json.NewDecoder(w.Body).Decode(&results)
	if len(results) != 3 {
		t.Fatalf("expected 3 results without the missing post, got %d", len(results))
	}
	if results[0].Post.ID != "fib" || results[0].Post.Author.Username != "john_dev" {
		t.Errorf("unexpected first result %+v", results[0].Post)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/search?q=", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty query, got %d", w.Code)
	}
}
