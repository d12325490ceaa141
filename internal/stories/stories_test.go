package stories

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codegram/codegram/internal/db"
	"github.com/codegram/codegram/internal/profile"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	users := profile.NewStore(database)
	ctx := context.Background()
	alex, err := users.Create(ctx, profile.User{Username: "alex_debug", Name: "Alex Turner"}, false)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	emma, err := users.Create(ctx, profile.User{Username: "emma_react", Name: "Emma Davis"}, false)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	store := NewStore(database)
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	seed := []Story{
		{ID: "grid", Author: *alex, Title: "CSS Grid Mystery", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "state", Author: *emma, Title: "State Management Nightmare", Viewed: true, CreatedAt: now},
		{ID: "fresh", Author: *emma, Title: "Flaky test", CreatedAt: now.Add(-time.Hour)},
	}
	for _, st := range seed {
		if _, err := store.Create(ctx, st); err != nil {
			t.Fatalf("Create story: %v", err)
		}
	}
	return store
}

func TestListUnviewedFirst(t *testing.T) {
	store := setupTestStore(t)

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []string
	for _, st := range list {
		got = append(got, st.ID)
	}
	want := []string{"fresh", "grid", "state"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if list[1].Author.Username != "alex_debug" {
		t.Errorf("expected author alex_debug, got %q", list[1].Author.Username)
	}
}

func TestMarkViewed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.MarkViewed(ctx, "grid"); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	list, _ := store.List(ctx)
	if list[0].ID != "fresh" || list[len(list)-1].Viewed != true {
		t.Errorf("unexpected order after view: %+v", list)
	}
	for _, st := range list {
		if st.ID == "grid" && !st.Viewed {
			t.Error("expected grid story viewed")
		}
	}

	if err := store.MarkViewed(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPHandlers(t *testing.T) {
	store := setupTestStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/stories", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []Story
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 3 {
		t.Errorf("expected 3 stories, got %d", len(list))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/stories/grid/view", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/stories/missing/view", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
