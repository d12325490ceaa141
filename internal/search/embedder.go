package search

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	chromem "github.com/philippgille/chromem-go"
)

// DefaultDimensions is the vector size of the hashing embedder.
const DefaultDimensions = 256

// ErrNothingToEmbed is returned for text without a single word.
var ErrNothingToEmbed = errors.New("nothing to embed")

// HashEmbedder maps text to a bag-of-words vector using feature hashing.
// It runs locally and needs no model.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns an embedder producing vectors of dims entries.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Dimensions returns the vector size.
func (e *HashEmbedder) Dimensions() int { return e.dims }

// Embed returns the normalized vector for text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	words := Tokenize(text)
	if len(words) == 0 {
		return nil, ErrNothingToEmbed
	}

	vec := make([]float32, e.dims)
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		sum := h.Sum32()
		// The top bit picks the sign so unrelated words cancel out on
		// average instead of piling up.
		if sum&(1<<31) != 0 {
			vec[int(sum%uint32(e.dims))] -= 1
		} else {
			vec[int(sum%uint32(e.dims))] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return nil, ErrNothingToEmbed
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Func adapts the embedder to chromem.
func (e *HashEmbedder) Func() chromem.EmbeddingFunc {
	return e.Embed
}

// Tokenize lowercases text and splits it into words. camelCase
// identifiers are split as well, so "useLocalStorage" yields "use",
// "local", "storage" and the whole identifier.
func Tokenize(text string) []string {
	var out []string
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		parts := splitCamel(f)
		if len(parts) > 1 {
			out = append(out, strings.ToLower(f))
		}
		for _, p := range parts {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func splitCamel(s string) []string {
	var (
		parts []string
		start int
	)
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}
