package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/codegram/codegram/internal/db"
)

// Store provides access to users and the current user's settings.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// UserColumns is the column list matching UserDest, qualified with the
// given table alias.
func UserColumns(alias string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.username, %[1]s.name, %[1]s.avatar, %[1]s.bio, %[1]s.followers, %[1]s.following, %[1]s.verified", alias)
}

// UserDest returns scan destinations for the columns of UserColumns.
// finish must be called after the scan.
func UserDest(u *User) (dest []any, finish func()) {
	var verified int
	dest = []any{&u.ID, &u.Username, &u.Name, &u.Avatar, &u.Bio, &u.Followers, &u.Following, &verified}
	return dest, func() { u.Verified = db.Bool(verified) }
}

// Create inserts a user. If u.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, u User, current bool) (*User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, name, avatar, bio, followers, following, verified, is_current)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Name, u.Avatar, u.Bio, u.Followers, u.Following,
		db.Int(u.Verified), db.Int(current),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting user %s: %w", u.Username, err)
	}
	return &u, nil
}

// Current returns the signed-in user.
func (s *Store) Current(ctx context.Context) (*User, error) {
	return s.getUser(ctx, "is_current = 1")
}

// CurrentID returns the id of the signed-in user.
func (s *Store) CurrentID(ctx context.Context) (string, error) {
	u, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// ByUsername returns the user with the given username.
func (s *Store) ByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, "username = ?", username)
}

// ByID returns the user with the given id.
func (s *Store) ByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, where string, args ...any) (*User, error) {
	var u User
	dest, finish := UserDest(&u)
	err := s.db.QueryRowContext(ctx, "SELECT "+UserColumns("users")+" FROM users WHERE "+where+" LIMIT 1", args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	finish()
	return &u, nil
}

// List returns all users ordered by username.
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+UserColumns("users")+" FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		dest, finish := UserDest(&u)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		finish()
		users = append(users, u)
	}
	return users, rows.Err()
}

// Profile returns the user with their post counts.
func (s *Store) Profile(ctx context.Context, u *User) (*Profile, error) {
	p := &Profile{User: *u}
	var current int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE author_id = ?),
			(SELECT COUNT(*) FROM posts WHERE author_id = ? AND type = 'snippet'),
			(SELECT COUNT(*) FROM posts WHERE author_id = ? AND type = 'documentation'),
			(SELECT is_current FROM users WHERE id = ?)`,
		u.ID, u.ID, u.ID, u.ID,
	).Scan(&p.Posts, &p.Snippets, &p.Docs, &current)
	if err != nil {
		return nil, fmt.Errorf("counting posts for %s: %w", u.Username, err)
	}
	p.IsCurrent = db.Bool(current)
	return p, nil
}

// Settings returns the current settings. Toggles that were never stored
// are on.
func (s *Store) Settings(ctx context.Context) (*Settings, error) {
	stored := make(map[string]bool)

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			value int
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		stored[key] = db.Bool(value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	settings := &Settings{}
	for key, field := range settings.fields() {
		v, ok := stored[key]
		*field = !ok || v
	}
	return settings, nil
}

// UpdateSettings applies patch and returns the resulting settings.
func (s *Store) UpdateSettings(ctx context.Context, patch SettingsPatch) (*Settings, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning settings update: %w", err)
	}
	defer tx.Rollback()

	fields := patch.fields()
	for _, key := range settingKeys {
		v := fields[key]
		if v == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, db.Int(*v),
		)
		if err != nil {
			return nil, fmt.Errorf("updating setting %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing settings: %w", err)
	}
	return s.Settings(ctx)
}
