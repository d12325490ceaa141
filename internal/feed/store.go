package feed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/codegram/codegram/internal/db"
	"github.com/codegram/codegram/internal/markdown"
	"github.com/codegram/codegram/internal/preview"
	"github.com/codegram/codegram/internal/profile"
	"github.com/codegram/codegram/internal/validate"
)

// Store provides access to feed posts.
type Store struct {
	db    *db.DB
	users *profile.Store
	md    *markdown.Renderer
	now   func() time.Time
}

// NewStore creates a Store backed by the given database. Authors are
// resolved through users.
func NewStore(database *db.DB, users *profile.Store) *Store {
	return &Store{
		db:    database,
		users: users,
		md:    markdown.New(),
		now:   time.Now,
	}
}

var postColumns = `p.id, p.type, p.title, p.content, p.caption, p.language, p.component_type,
	p.category, p.tags, p.likes, p.comments, p.shares, p.bookmarks, p.liked, p.bookmarked,
	p.created_at, ` + profile.UserColumns("u")

const postFrom = " FROM posts p JOIN users u ON u.id = p.author_id"

// Insert stores a fully populated post as-is. It is used for seeding; the
// author must exist.
func (s *Store) Insert(ctx context.Context, p Post) (*Post, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshalling tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (id, type, author_id, title, content, caption, language, component_type,
			category, tags, likes, comments, shares, bookmarks, liked, bookmarked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Type), p.Author.ID, p.Title, p.Content, p.Caption, p.Language, p.ComponentType,
		p.Category, string(tags), p.Likes, p.Comments, p.Shares, p.Bookmarks,
		db.Int(p.Liked), db.Int(p.Bookmarked), db.FormatTime(p.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}
	return s.Get(ctx, p.ID)
}

// Create validates in and publishes it as the current user.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Post, error) {
	in = normalize(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	authorID, err := s.users.CurrentID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving author: %w", err)
	}

	return s.Insert(ctx, Post{
		Type:          PostType(in.Type),
		Author:        profile.User{ID: authorID},
		Title:         in.Title,
		Content:       in.Content,
		Caption:       in.Caption,
		Language:      in.Language,
		ComponentType: in.ComponentType,
		Category:      in.Category,
		Tags:          in.Tags,
	})
}

// normalize fills defaults and tidies tags before validation.
func normalize(in CreateInput) CreateInput {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Title = strings.TrimSpace(in.Title)
	in.Caption = strings.TrimSpace(in.Caption)
	in.Category = strings.TrimSpace(in.Category)
	in.Language = strings.ToLower(strings.TrimSpace(in.Language))
	if strings.TrimSpace(in.Content) == "" {
		in.Content = ""
	}

	if in.Title == "" {
		switch PostType(in.Type) {
		case TypeSnippet:
			in.Title = "Code Snippet"
		case TypeDocumentation:
			in.Title = "Documentation"
		}
	}
	if in.Type == string(TypeSnippet) && in.Language == "" {
		in.Language = preview.LanguageForComponentType(in.ComponentType)
	}

	seen := make(map[string]bool)
	tags := []string{}
	for _, t := range in.Tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, t)
	}
	in.Tags = tags
	return in
}

// Get returns a single post.
func (s *Store) Get(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+postFrom+" WHERE p.id = ?", id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying post %s: %w", id, err)
	}
	s.decorate(p)
	return p, nil
}

// Detail returns a post with its outline and up to three related posts.
func (s *Store) Detail(ctx context.Context, id string) (*Detail, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	related, err := s.Related(ctx, p)
	if err != nil {
		return nil, err
	}
	d := &Detail{Post: *p, Related: related}
	if p.HTML != "" {
		d.Headings = markdown.Headings(p.HTML)
	}
	return d, nil
}

// Related returns other posts sharing p's category or one of its tags,
// same-category posts first.
func (s *Store) Related(ctx context.Context, p *Post) ([]Post, error) {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshalling tags: %w", err)
	}
	query := "SELECT " + postColumns + postFrom + `
		WHERE p.id != ?
		AND ((p.category != '' AND p.category = ?)
			OR EXISTS (SELECT 1 FROM json_each(p.tags) t WHERE t.value IN (SELECT value FROM json_each(?))))
		ORDER BY (p.category = ?) DESC, p.likes DESC, p.created_at DESC
		LIMIT ?`
	return s.query(ctx, query, p.ID, p.Category, string(tags), p.Category, relatedLimit)
}

// All returns every post, newest first.
func (s *Store) All(ctx context.Context) ([]Post, error) {
	return s.query(ctx, "SELECT "+postColumns+postFrom+" ORDER BY p.created_at DESC, p.id")
}

// List returns posts matching the filter.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Post, error) {
	var (
		clauses []string
		args    []any
	)

	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + escapeLike(q) + "%"
		clauses = append(clauses, `(LOWER(p.title) LIKE ? ESCAPE '\' OR LOWER(p.content) LIKE ? ESCAPE '\'
			OR LOWER(p.caption) LIKE ? ESCAPE '\' OR LOWER(p.tags) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like)
	}
	switch t := strings.ToLower(filter.Type); t {
	case "", "all":
	case string(TypeSnippet), string(TypeDocumentation):
		clauses = append(clauses, "p.type = ?")
		args = append(args, t)
	default:
		return nil, fmt.Errorf("%w: type %q", ErrInvalidFilter, filter.Type)
	}
	if c := strings.TrimSpace(filter.Category); c != "" && !strings.EqualFold(c, "all") {
		clauses = append(clauses, "LOWER(p.category) = LOWER(?)")
		args = append(args, c)
	}
	if filter.Author != "" {
		clauses = append(clauses, "u.username = ?")
		args = append(args, filter.Author)
	}

	var order string
	switch Sort(strings.ToLower(filter.Sort)) {
	case "", SortLatest:
		order = "p.created_at DESC"
	case SortPopular:
		order = "p.likes DESC, p.created_at DESC"
	case SortTrending:
		order = "(p.likes + p.comments + p.shares) DESC, p.created_at DESC"
	default:
		return nil, fmt.Errorf("%w: sort %q", ErrInvalidFilter, filter.Sort)
	}

	query := "SELECT " + postColumns + postFrom
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY " + order + ", p.id"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	query += fmt.Sprintf(" LIMIT %d", limit)
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return s.query(ctx, query, args...)
}

// ToggleLike flips the liked flag and moves the like counter with it.
func (s *Store) ToggleLike(ctx context.Context, id string) (*Post, error) {
	return s.toggle(ctx, id, "liked", "likes")
}

// ToggleBookmark flips the bookmarked flag and moves the bookmark counter
// with it.
func (s *Store) ToggleBookmark(ctx context.Context, id string) (*Post, error) {
	return s.toggle(ctx, id, "bookmarked", "bookmarks")
}

func (s *Store) toggle(ctx context.Context, id, flag, counter string) (*Post, error) {
	// The right-hand side sees the row before the update.
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE posts SET %[1]s = 1 - %[1]s,
			%[2]s = MAX(0, %[2]s + CASE WHEN %[1]s = 1 THEN -1 ELSE 1 END)
		WHERE id = ?`, flag, counter), id)
	if err != nil {
		return nil, fmt.Errorf("toggling %s on %s: %w", flag, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Categories returns the distinct non-empty categories in use.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT category FROM posts WHERE category != '' ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PreviewSource returns the code and editor language of a post for the
// live preview.
func (s *Store) PreviewSource(ctx context.Context, id string) (code, language string, ok bool, err error) {
	p, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return p.Content, p.PreviewLanguage(), true, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range posts {
		s.decorate(&posts[i])
	}
	return posts, nil
}

// decorate fills the derived fields.
func (s *Store) decorate(p *Post) {
	p.Age = humanize.RelTime(p.CreatedAt, s.now(), "ago", "from now")
	if p.Type != TypeDocumentation {
		return
	}
	html, err := s.md.Render(p.Content)
	if err != nil {
		return
	}
	p.HTML = html
	p.Excerpt = markdown.Excerpt(html, excerptRunes)
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(sc scanner) (*Post, error) {
	var (
		p                 Post
		typ, tagsJSON, ts string
		liked, bookmarked int
	)
	userDest, finish := profile.UserDest(&p.Author)
	dest := append([]any{
		&p.ID, &typ, &p.Title, &p.Content, &p.Caption, &p.Language, &p.ComponentType,
		&p.Category, &tagsJSON, &p.Likes, &p.Comments, &p.Shares, &p.Bookmarks, &liked, &bookmarked,
		&ts,
	}, userDest...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	finish()

	p.Type = PostType(typ)
	p.Liked = db.Bool(liked)
	p.Bookmarked = db.Bool(bookmarked)
	p.CreatedAt = db.ParseTime(ts)
	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil || p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
