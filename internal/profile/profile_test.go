package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/codegram/codegram/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func seedUsers(t *testing.T, store *Store) (*User, *User) {
	t.Helper()
	ctx := context.Background()
	me, err := store.Create(ctx, User{Username: "john_dev", Name: "John Developer", Followers: 1234, Verified: true}, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, err := store.Create(ctx, User{Username: "sarah_codes", Name: "Sarah Wilson"}, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return me, other
}

func TestCurrentUser(t *testing.T) {
	store := setupTestStore(t)
	me, _ := seedUsers(t, store)

	got, err := store.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if diff := cmp.Diff(me, got); diff != "" {
		t.Errorf("current user mismatch (-want +got):\n%s", diff)
	}
}

func TestByUsernameNotFound(t *testing.T) {
	store := setupTestStore(t)
	seedUsers(t, store)

	_, err := store.ByUsername(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateUsername(t *testing.T) {
	store := setupTestStore(t)
	seedUsers(t, store)

	if _, err := store.Create(context.Background(), User{Username: "john_dev", Name: "Again"}, false); err == nil {
		t.Error("expected unique username violation")
	}
}

func TestProfileCounts(t *testing.T) {
	store := setupTestStore(t)
	me, _ := seedUsers(t, store)
	ctx := context.Background()

	for i, typ := range []string{"snippet", "snippet", "documentation"} {
		_, err := store.db.ExecContext(ctx, `INSERT INTO posts (id, type, author_id, title, content, created_at)
			VALUES (?, ?, ?, 't', 'c', '2024-01-15T00:00:00.000000000Z')`, string(rune('a'+i)), typ, me.ID)
		if err != nil {
			t.Fatalf("inserting post: %v", err)
		}
	}

	p, err := store.Profile(ctx, me)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Posts != 3 || p.Snippets != 2 || p.Docs != 1 {
		t.Errorf("unexpected counts %+v", p)
	}
	if !p.IsCurrent {
		t.Error("expected current user flag")
	}
}

func TestSettingsDefaultOn(t *testing.T) {
	store := setupTestStore(t)

	s, err := store.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	want := &Settings{
		Notifications: Notifications{Likes: true, Comments: true, Follows: true, Messages: true},
		Privacy:       Privacy{ProfilePublic: true, ShowActivity: true, AllowMessages: true},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	off := false
	var patch SettingsPatch
	patch.Notifications.Follows = &off
	patch.Privacy.ShowActivity = &off

	s, err := store.UpdateSettings(ctx, patch)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if s.Notifications.Follows || s.Privacy.ShowActivity {
		t.Error("expected patched toggles off")
	}
	if !s.Notifications.Likes || !s.Privacy.AllowMessages {
		t.Error("expected untouched toggles to stay on")
	}

	on := true
	patch = SettingsPatch{}
	patch.Notifications.Follows = &on
	s, err = store.UpdateSettings(ctx, patch)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if !s.Notifications.Follows || s.Privacy.ShowActivity {
		t.Errorf("unexpected settings after second patch %+v", s)
	}
}

func TestHTTPHandlers(t *testing.T) {
	store := setupTestStore(t)
	seedUsers(t, store)

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	t.Run("me", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/me", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var p Profile
		json.NewDecoder(w.Body).Decode(&p)
		if p.Username != "john_dev" || !p.IsCurrent {
			t.Errorf("unexpected profile %+v", p)
		}
	})

	t.Run("user not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/ghost", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})

	t.Run("user", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/sarah_codes", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var p Profile
		json.NewDecoder(w.Body).Decode(&p)
		if p.Name != "Sarah Wilson" || p.IsCurrent {
			t.Errorf("unexpected profile %+v", p)
		}
	})

	t.Run("update settings", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := strings.NewReader(`{"notifications":{"likes":false}}`)
		r.ServeHTTP(w, httptest.NewRequest("PUT", "/api/settings", body))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/api/settings", nil))
		var s Settings
		json.NewDecoder(w.Body).Decode(&s)
		if s.Notifications.Likes {
			t.Error("expected likes notifications off")
		}
		if !s.Notifications.Comments {
			t.Error("expected comments notifications on")
		}
	})

	t.Run("bad settings body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("PUT", "/api/settings", strings.NewReader("{")))
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}
