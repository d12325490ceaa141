// Package stories serves bug stories: short posts about a problem the
// author ran into, shown in a strip above the feed.
package stories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codegram/codegram/internal/db"
	"github.com/codegram/codegram/internal/profile"
)

// ErrNotFound is returned when a story does not exist.
var ErrNotFound = errors.New("story not found")

// Story is a bug story.
type Story struct {
	ID          string       `json:"id"`
	Author      profile.User `json:"author"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Image       string       `json:"image,omitempty"`
	Viewed      bool         `json:"viewed"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Store provides access to stories.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a story. If st.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, st Story) (*Story, error) {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stories (id, author_id, title, description, image, viewed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Author.ID, st.Title, st.Description, st.Image, db.Int(st.Viewed), db.FormatTime(st.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting story: %w", err)
	}
	return &st, nil
}

// List returns unviewed stories first, newest first within each group.
func (s *Store) List(ctx context.Context) ([]Story, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.description, s.image, s.viewed, s.created_at, `+profile.UserColumns("u")+`
		FROM stories s JOIN users u ON u.id = s.author_id
		ORDER BY s.viewed, s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying stories: %w", err)
	}
	defer rows.Close()

	out := []Story{}
	for rows.Next() {
		var (
			st     Story
			viewed int
			ts     string
		)
		userDest, finish := profile.UserDest(&st.Author)
		dest := append([]any{&st.ID, &st.Title, &st.Description, &st.Image, &viewed, &ts}, userDest...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning story: %w", err)
		}
		finish()
		st.Viewed = db.Bool(viewed)
		st.CreatedAt = db.ParseTime(ts)
		out = append(out, st)
	}
	return out, rows.Err()
}

// MarkViewed records that the current user opened the story.
func (s *Store) MarkViewed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE stories SET viewed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking story %s viewed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
