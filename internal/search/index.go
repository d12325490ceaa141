// Package search keeps an in-memory vector index of feed posts.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/codegram/codegram/internal/feed"
)

const collectionName = "posts"

// Hit is one search result.
type Hit struct {
	PostID     string  `json:"post_id"`
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	Similarity float32 `json:"similarity"`
}

// Index is a chromem collection of posts.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewIndex creates an empty index using embedder.
func NewIndex(embedder *HashEmbedder) (*Index, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, embedder.Func())
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, collection: col}, nil
}

// IndexPost adds or replaces a post.
func (ix *Index) IndexPost(ctx context.Context, p feed.Post) error {
	return ix.collection.AddDocument(ctx, document(p))
}

// IndexAll adds posts using up to concurrency embedding workers.
func (ix *Index) IndexAll(ctx context.Context, posts []feed.Post, concurrency int) error {
	if len(posts) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	docs := make([]chromem.Document, len(posts))
	for i, p := range posts {
		docs[i] = document(p)
	}
	return ix.collection.AddDocuments(ctx, docs, concurrency)
}

// Remove drops a post from the index.
func (ix *Index) Remove(ctx context.Context, id string) error {
	return ix.collection.Delete(ctx, nil, nil, id)
}

// Count returns the number of indexed posts.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Search returns up to limit posts most similar to query. postType
// restricts the results to one post type when non-empty.
func (ix *Index) Search(ctx context.Context, query string, limit int, postType string) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrNothingToEmbed
	}
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := ix.collection.Count()
	if count == 0 {
		return []Hit{}, nil
	}
	if limit > count {
		limit = count
	}

	var where map[string]string
	if postType != "" && postType != "all" {
		where = map[string]string{"type": postType}
	}

	results, err := ix.collection.Query(ctx, query, limit, where, nil)
	if err != nil {
		if errors.Is(err, ErrNothingToEmbed) {
			return nil, ErrNothingToEmbed
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			PostID:     r.ID,
			Title:      r.Metadata["title"],
			Type:       r.Metadata["type"],
			Similarity: r.Similarity,
		}
	}
	return hits, nil
}

func document(p feed.Post) chromem.Document {
	text := strings.Join([]string{
		p.Title, p.Caption, p.Category, strings.Join(p.Tags, " "), p.Language, p.Content,
	}, "\n")
	return chromem.Document{
		ID:      p.ID,
		Content: text,
		Metadata: map[string]string{
			"title":    p.Title,
			"type":     string(p.Type),
			"category": p.Category,
			"author":   p.Author.Username,
		},
	}
}
