package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultHashDims is the bucket count of the fallback embedder.
const DefaultHashDims = 256

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// HashEmbedder is a deterministic bag-of-words embedder: each lowercase
// alphanumeric token hashes to a fixed bucket and the counts are
// L2-normalized. It needs no network access, so retrieval stays reproducible
// when no provider is configured.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates the fallback embedder. dims <= 0 means
// DefaultHashDims.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDims
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	vec := make(Vector, e.dims)
	for _, token := range Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%e.dims]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (e *HashEmbedder) Dims() int { return e.dims }

// Tokenize lowercases text and extracts alphanumeric runs.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
