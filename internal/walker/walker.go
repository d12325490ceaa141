// Package walker finds snippet files on disk for import into the feed.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxFileSize is the largest snippet file imported (256 KB).
const DefaultMaxFileSize int64 = 256 << 10

// File is a snippet file found during a walk.
type File struct {
	Path        string // Absolute path on disk.
	RelPath     string // Slash-separated path relative to the root.
	Size        int64
	Language    string // Editor language name, "" when unknown.
	Content     string
	ContentHash string // SHA-256 hex digest of Content.
}

// Title derives a post title from the file name: "glass-card.html"
// becomes "Glass Card".
func (f File) Title() string {
	base := strings.TrimSuffix(filepath.Base(f.RelPath), filepath.Ext(f.RelPath))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Config controls a walk.
type Config struct {
	RootDir     string
	Include     []string // Glob patterns; empty includes everything.
	Exclude     []string // Glob patterns.
	MaxFileSize int64    // 0 uses DefaultMaxFileSize.
}

// Walk returns the snippet files under cfg.RootDir sorted by RelPath.
// Binary and non-UTF-8 files, files in default-excluded directories and
// files with an unknown language are skipped.
func Walk(cfg Config) ([]File, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("walker: %s is not a directory", root)
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		if !MatchesInclude(relPath, cfg.Include) || MatchesExclude(relPath, cfg.Exclude) {
			return nil
		}

		lang := DetectLanguage(relPath)
		if lang == "" {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize || info.Size() == 0 {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil || isBinary(data) {
			return nil
		}

		sum := sha256.Sum256(data)
		files = append(files, File{
			Path:        path,
			RelPath:     relPath,
			Size:        info.Size(),
			Language:    lang,
			Content:     string(data),
			ContentHash: hex.EncodeToString(sum[:]),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// isBinary reports NUL bytes in the first 512 bytes or invalid UTF-8.
func isBinary(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	for _, b := range head {
		if b == 0 {
			return true
		}
	}
	return !utf8.Valid(data)
}
