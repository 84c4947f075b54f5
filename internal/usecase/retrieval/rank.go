package retrieval

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/domain/catalog"
)

// Hit is a single ranked catalog entry.
type Hit struct {
	Score  float64
	Record domain.ProductRecord
}

// Cosine returns the cosine similarity of a and b.
// It is 0 when either vector has zero magnitude. Vectors must have equal length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank scores every entry against query and returns the topK best, descending.
// Ties keep catalog order. topK <= 0 yields no hits; topK beyond the catalog size
// yields the whole catalog.
func Rank(query []float32, entries []catalog.Entry, topK int) ([]Hit, error) {
	if topK <= 0 || len(entries) == 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, len(entries))
	for i := range entries {
		if len(entries[i].Vector) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, entry %q has %d",
				domain.ErrVectorDimMismatch, len(query), entries[i].Record.Name, len(entries[i].Vector))
		}
		hits[i] = Hit{Score: Cosine(query, entries[i].Vector), Record: entries[i].Record}
	}

	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
