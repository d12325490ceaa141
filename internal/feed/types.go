package feed

import (
	"errors"
	"time"

	"github.com/codegram/codegram/internal/markdown"
	"github.com/codegram/codegram/internal/preview"
	"github.com/codegram/codegram/internal/profile"
)

// ErrNotFound is returned when a post does not exist.
var ErrNotFound = errors.New("post not found")

// ErrInvalidFilter is returned for an unknown type or sort value.
var ErrInvalidFilter = errors.New("invalid filter")

// PostType distinguishes code snippets from documentation articles.
type PostType string

const (
	TypeSnippet       PostType = "snippet"
	TypeDocumentation PostType = "documentation"
)

// Sort orders the feed.
type Sort string

const (
	SortLatest   Sort = "latest"
	SortPopular  Sort = "popular"
	SortTrending Sort = "trending"
)

// Post is a feed entry.
type Post struct {
	ID            string       `json:"id"`
	Type          PostType     `json:"type"`
	Author        profile.User `json:"author"`
	Title         string       `json:"title"`
	Content       string       `json:"content"`
	Caption       string       `json:"caption,omitempty"`
	Language      string       `json:"language,omitempty"`
	ComponentType string       `json:"component_type,omitempty"`
	Category      string       `json:"category,omitempty"`
	Tags          []string     `json:"tags"`
	Likes         int          `json:"likes"`
	Comments      int          `json:"comments"`
	Shares        int          `json:"shares"`
	Bookmarks     int          `json:"bookmarks"`
	Liked         bool         `json:"liked"`
	Bookmarked    bool         `json:"bookmarked"`
	CreatedAt     time.Time    `json:"created_at"`
	Age           string       `json:"age"`

	// Set for documentation posts.
	HTML    string `json:"html,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

// PreviewLanguage is the editor language the post is previewed with. Posts
// without one fall back to their component type.
func (p Post) PreviewLanguage() string {
	if p.Language != "" {
		return p.Language
	}
	return preview.LanguageForComponentType(p.ComponentType)
}

// Detail is a post together with its outline and related posts.
type Detail struct {
	Post
	Headings []markdown.Heading `json:"headings,omitempty"`
	Related  []Post             `json:"related"`
}

// ListFilter controls which posts List returns. Empty fields, and "all"
// for Type and Category, do not filter.
type ListFilter struct {
	Query    string
	Type     string
	Sort     string
	Category string
	Author   string
	Limit    int
	Offset   int
}

// CreateInput is the body of a new post.
type CreateInput struct {
	Type          string   `json:"type" validate:"required,oneof=snippet documentation"`
	Title         string   `json:"title" validate:"max=120"`
	Content       string   `json:"content" validate:"required"`
	Caption       string   `json:"caption" validate:"max=500"`
	Language      string   `json:"language" validate:"max=32"`
	ComponentType string   `json:"component_type" validate:"omitempty,oneof=html-css html-tailwind react-tailwind"`
	Category      string   `json:"category" validate:"max=40"`
	Tags          []string `json:"tags" validate:"max=10,dive,max=32"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
	relatedLimit = 3
	excerptRunes = 160
)
