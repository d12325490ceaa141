package mockdata

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/codegram/codegram/internal/feed"
	"github.com/codegram/codegram/internal/profile"
	"github.com/codegram/codegram/internal/walker"
)

// Import publishes snippet files as posts by author. Files are
// timestamped one minute apart in walk order so the feed keeps that order.
// Files with identical content are imported once.
func Import(ctx context.Context, posts *feed.Store, author profile.User, files []walker.File, now time.Time) ([]feed.Post, error) {
	out := make([]feed.Post, 0, len(files))
	seen := make(map[string]bool, len(files))
	for i, f := range files {
		if seen[f.ContentHash] {
			continue
		}
		seen[f.ContentHash] = true

		typ := feed.TypeSnippet
		if f.Language == "markdown" {
			typ = feed.TypeDocumentation
		}
		category := path.Dir(filepath.ToSlash(f.RelPath))
		if category == "." {
			category = ""
		}
		p, err := posts.Insert(ctx, feed.Post{
			ID:            "import-" + f.ContentHash[:12],
			Type:          typ,
			Author:        author,
			Title:         f.Title(),
			Content:       f.Content,
			Caption:       filepath.ToSlash(f.RelPath),
			Language:      f.Language,
			ComponentType: walker.ComponentType(f.Language),
			Category:      category,
			Tags:          []string{f.Language},
			CreatedAt:     now.Add(-time.Duration(i) * time.Minute),
		})
		if err != nil {
			return out, fmt.Errorf("importing %s: %w", f.RelPath, err)
		}
		out = append(out, *p)
	}
	return out, nil
}
