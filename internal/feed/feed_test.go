package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/codegram/codegram/internal/db"
	"github.com/codegram/codegram/internal/profile"
	"github.com/codegram/codegram/internal/validate"
)

var base = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) (*Store, *profile.User) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	users := profile.NewStore(database)
	me, err := users.Create(context.Background(), profile.User{Username: "john_dev", Name: "John Developer"}, true)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	store := NewStore(database, users)
	store.now = func() time.Time { return base.Add(48 * time.Hour) }
	return store, me
}

func seedPosts(t *testing.T, store *Store, author *profile.User) {
	t.Helper()
	posts := []Post{
		{ID: "button", Type: TypeSnippet, Title: "Beautiful React Button Component", Content: "const Button = () => <button/>",
			ComponentType: "react-tailwind", Language: "typescript", Category: "Components", Tags: []string{"React", "Tailwind"},
			Likes: 156, Comments: 23, Shares: 12, CreatedAt: base},
		{ID: "hooks", Type: TypeDocumentation, Title: "React Hooks Best Practices", Content: "# Hooks\n\nUse **hooks** wisely.",
			Category: "React", Tags: []string{"React", "Hooks"}, Likes: 234, Comments: 45, Shares: 18, Liked: true,
			CreatedAt: base.Add(-time.Hour)},
		{ID: "grid", Type: TypeSnippet, Title: "CSS Grid Layout Helper", Content: ".grid{display:grid}",
			ComponentType: "html-css", Language: "css", Category: "CSS", Tags: []string{"CSS", "Grid"},
			Likes: 89, Comments: 12, Shares: 8, CreatedAt: base.Add(time.Hour)},
		{ID: "trend", Type: TypeSnippet, Title: "Trending card", Content: "<div>card</div>",
			ComponentType: "html-css", Language: "html", Category: "Components",
			Likes: 150, Comments: 100, Shares: 50, CreatedAt: base.Add(-2 * time.Hour)},
	}
	for _, p := range posts {
		p.Author = *author
		if _, err := store.Insert(context.Background(), p); err != nil {
			t.Fatalf("Insert %s: %v", p.ID, err)
		}
	}
}

func ids(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestListSorts(t *testing.T) {
	store, me := setupTestStore(t)
	seedPosts(t, store, me)
	ctx := context.Background()

	tests := []struct {
		sort string
		want []string
	}{
		{"", []string{"grid", "button", "hooks", "trend"}},
		{"latest", []string{"grid", "button", "hooks", "trend"}},
		{"popular", []string{"hooks", "button", "trend", "grid"}},
		{"trending", []string{"trend", "hooks", "button", "grid"}},
	}
	for _, tt := range tests {
		posts, err := store.List(ctx, ListFilter{Sort: tt.sort})
		if err != nil {
			t.Fatalf("List(%q): %v", tt.sort, err)
		}
		if diff := cmp.Diff(tt.want, ids(posts)); diff != "" {
			t.Errorf("sort %q mismatch (-want +got):\n%s", tt.sort, diff)
		}
	}
}

func TestAllIgnoresLimit(t *testing.T) {
	store, me := setupTestStore(t)
	seedPosts(t, store, me)

	posts, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if diff := cmp.Diff([]string{"grid", "button", "hooks", "trend"}, ids(posts)); diff != "" {
		t.Errorf("All mismatch (-want +got):\n%s", diff)
	}
}

func TestListPopularTieBreaksByDate(t *testing.T) {
	store, me := setupTestStore(t)
	ctx := context.Background()
	for i, id := range []string{"old", "new"} {
		_, err := store.Insert(ctx, Post{ID: id, Type: TypeSnippet, Author: *me, Title: id, Content: "x",
			Likes: 10, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	posts, err := store.List(ctx, ListFilter{Sort: "popular"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"new", "old"}, ids(posts)); diff != "" {
		t.Errorf("tie order mismatch (-want +got):\n%s", diff)
	}
}

func TestListFilters(t *testing.T) {
	store, me := setupTestStore(t)
	seedPosts(t, store, me)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"query title", ListFilter{Query: "grid"}, []string{"grid"}},
		{"query case insensitive", ListFilter{Query: "HOOKS"}, []string{"hooks"}},
		{"query tag", ListFilter{Query: "tailwind"}, []string{"button"}},
		{"query content", ListFilter{Query: "display:grid"}, []string{"grid"}},
		{"query percent is literal", ListFilter{Query: "%"}, []string{}},
		{"type snippet", ListFilter{Type: "snippet"}, []string{"grid", "button", "trend"}},
		{"type all", ListFilter{Type: "all"}, []string{"grid", "button", "hooks", "trend"}},
		{"category", ListFilter{Category: "components"}, []string{"button", "trend"}},
		{"author", ListFilter{Author: "john_dev", Type: "documentation"}, []string{"hooks"}},
		{"unknown author", ListFilter{Author: "ghost"}, []string{}},
		{"limit offset", ListFilter{Limit: 2, Offset: 1}, []string{"button", "hooks"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(posts)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListInvalidFilter(t *testing.T) {
	store, _ := setupTestStore(t)
	if _, err := store.List(context.Background(), ListFilter{Type: "video"}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter for type, got %v", err)
	}
	if _, err := store.List(context.Background(), ListFilter{Sort: "random"}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter for sort, got %v", err)
	}
}

func TestGetDecoratesDocumentation(t *testing.T) {
	store, me := setupTestStore(t)
	seedPosts(t, store, me)

	p, err := store.Get(context.Background(), "hooks")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(p.HTML, "<strong>hooks</strong>") {
		t.Errorf("expected rendered html, got %q", p.HTML)
	}
	if p.Excerpt != "Hooks Use hooks wisely." {
		t.Errorf("unexpected excerpt %q", p.Excerpt)
	}
	if p.Age != "2 days ago" {
		t.Errorf("expected age \"2 days ago\", got %q", p.Age)
	}
	if p.Author.Username != "john_dev" {
		t.Errorf("expected author john_dev, got %q", p.Author.Username)
	}
	if !p.Liked {
		t.Error("expected liked flag")
	}

	snippet, err := store.Get(context.Background(), "grid")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snippet.HTML != "" {
		t.Error("expected no html for snippets")
	}
}

func TestGetNotFound(t *testing.T) {
	store, _ := setupTestStore(t)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRelated(t *testing.T) {
	store, me := setupTestStore(t)
	seedPosts(t, store, me)

	d, err := store.Detail(context.Background(), "button")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	// trend shares the category, hooks shares the React tag.
	if diff := cmp.Diff([]string{"trend", "hooks"}, ids(d.Related)); diff != "" {
		t.Errorf("related mismatch (-want +got):\n%s", diff)
	}

	doc, err := store.Detail(context.Background(), "hooks")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if len(doc.Headings) != 1 || doc.Headings[0].Text != "Hooks" {
		t.Errorf("unexpected headings %+v", doc.Headings)
	}
}

func TestToggleLikeIsSelfInverse(t *testing.T) {
	store, me := setupTestStore(t)
	seedPosts(t, store, me)
	ctx := context.Background()

	p, err := store.ToggleLike(ctx, "button")
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if !p.Liked || p.Likes != 157 {
		t.Errorf("expected liked with 157 likes, got %v %d", p.Liked, p.Likes)
	}
	p, err = store.ToggleLike(ctx, "button")
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if p.Liked || p.Likes != 156 {
		t.Errorf("expected unliked with 156 likes, got %v %d", p.Liked, p.Likes)
	}
}

func TestToggleBookmark(t *testing.T) {
	store, me := setupTestStore(t)
	seedPosts(t, store, me)

	p, err := store.ToggleBookmark(context.Background(), "grid")
	if err != nil {
		t.Fatalf("ToggleBookmark: %v", err)
	}
	if !p.Bookmarked || p.Bookmarks != 1 {
		t.Errorf("expected bookmarked with 1 bookmark, got %v %d", p.Bookmarked, p.Bookmarks)
	}
	if _, err := store.ToggleBookmark(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDefaults(t *testing.T) {
	store, me := setupTestStore(t)

	p, err := store.Create(context.Background(), CreateInput{
		Type:          "snippet",
		Content:       "<button>Hi</button>",
		ComponentType: "html-tailwind",
		Tags:          []string{" react ", "React", "", "ui"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Title != "Code Snippet" {
		t.Errorf("expected default title, got %q", p.Title)
	}
	if p.Language != "html" {
		t.Errorf("expected language html, got %q", p.Language)
	}
	if diff := cmp.Diff([]string{"react", "ui"}, p.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if p.Author.ID != me.ID {
		t.Errorf("expected author %s, got %s", me.ID, p.Author.ID)
	}

	doc, err := store.Create(context.Background(), CreateInput{Type: "documentation", Content: "# Intro"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if doc.Title != "Documentation" {
		t.Errorf("expected default title, got %q", doc.Title)
	}
}

func TestCreateValidation(t *testing.T) {
	store, _ := setupTestStore(t)

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"empty content", CreateInput{Type: "snippet", Content: "   "}, "content"},
		{"bad type", CreateInput{Type: "video", Content: "x"}, "type"},
		{"long title", CreateInput{Type: "snippet", Content: "x", Title: strings.Repeat("a", 121)}, "title"},
		{"too many tags", CreateInput{Type: "snippet", Content: "x", Tags: strings.Split("a,b,c,d,e,f,g,h,i,j,k", ",")}, "tags"},
		{"long tag", CreateInput{Type: "snippet", Content: "x", Tags: []string{strings.Repeat("t", 33)}}, "tags[0]"},
		{"bad component type", CreateInput{Type: "snippet", Content: "x", ComponentType: "vue"}, "component_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(context.Background(), tt.in)
			var verr *validate.Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Fields[0].Field != tt.field {
				t.Errorf("expected field %s, got %+v", tt.field, verr.Fields)
			}
		})
	}
}

func TestPreviewSource(t *testing.T) {
	store, me := setupTestStore(t)
	seedPosts(t, store, me)
	ctx := context.Background()

	code, lang, ok, err := store.PreviewSource(ctx, "grid")
	if err != nil || !ok {
		t.Fatalf("PreviewSource: ok=%v err=%v", ok, err)
	}
	if code != ".grid{display:grid}" || lang != "css" {
		t.Errorf("unexpected source %q %q", code, lang)
	}

	_, _, ok, err = store.PreviewSource(ctx, "missing")
	if err != nil || ok {
		t.Errorf("expected not found without error, got ok=%v err=%v", ok, err)
	}
}

type recordingIndexer struct {
	posts []Post
}

func (r *recordingIndexer) IndexPost(_ context.Context, p Post) error {
	r.posts = append(r.posts, p)
	return nil
}

func TestHTTPHandlers(t *testing.T) {
	store, me := setupTestStore(t)
	seedPosts(t, store, me)
	idx := &recordingIndexer{}

	r := chi.NewRouter()
	RegisterRoutes(r, store, idx, nil)

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/feed?type=snippet&sort=popular&limit=2", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var posts []Post
		json.NewDecoder(w.Body).Decode(&posts)
		if diff := cmp.Diff([]string{"button", "trend"}, ids(posts)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("list bad sort", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/feed?sort=random", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/posts/button", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var d Detail
		json.NewDecoder(w.Body).Decode(&d)
		if d.Title != "Beautiful React Button Component" || len(d.Related) == 0 {
			t.Errorf("unexpected detail %+v", d)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/posts/missing", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})

	t.Run("like", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/api/posts/grid/like", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var p Post
		json.NewDecoder(w.Body).Decode(&p)
		if !p.Liked || p.Likes != 90 {
			t.Errorf("unexpected like state %v %d", p.Liked, p.Likes)
		}
	})

	t.Run("create", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := strings.NewReader(`{"type":"snippet","content":"p{}","language":"css","tags":["css"]}`)
		r.ServeHTTP(w, httptest.NewRequest("POST", "/api/posts", body))
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		if len(idx.posts) != 1 || idx.posts[0].Content != "p{}" {
			t.Errorf("expected new post indexed, got %+v", idx.posts)
		}
	})

	t.Run("create invalid", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/api/posts", strings.NewReader(`{"type":"snippet"}`)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		var resp struct {
			Fields []validate.FieldError `json:"fields"`
		}
		json.NewDecoder(w.Body).Decode(&resp)
		if len(resp.Fields) != 1 || resp.Fields[0].Field != "content" {
			t.Errorf("unexpected fields %+v", resp.Fields)
		}
	})

	t.Run("categories", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/categories", nil))
		var cats []string
		json.NewDecoder(w.Body).Decode(&cats)
		if diff := cmp.Diff([]string{"CSS", "Components", "React"}, cats); diff != "" {
			t.Errorf("categories mismatch (-want +got):\n%s", diff)
		}
	})
}
