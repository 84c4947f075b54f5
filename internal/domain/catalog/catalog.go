// Package catalog holds the immutable, read-only product catalog used for retrieval.
package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/allerpredict/allerpredict/internal/domain"
)

// MatchMode selects how product identifiers are matched against names.
type MatchMode string

const (
	// MatchExact matches names case-insensitively and exactly.
	MatchExact MatchMode = "exact"
	// MatchSubstring falls back to the first name containing the identifier.
	MatchSubstring MatchMode = "substring"
)

// Valid reports whether m is a known match mode.
func (m MatchMode) Valid() bool {
	return m == MatchExact || m == MatchSubstring
}

// Entry pairs a product record with its precomputed embedding.
type Entry struct {
	Record domain.ProductRecord
	Vector []float32
}

// Catalog is an immutable snapshot of the product catalog.
// All vectors share one dimension; a catalog without vectors has dimension 0.
type Catalog struct {
	entries []Entry
	dim     int
	model   string
}

// New validates entries and creates a Catalog.
// Every record needs a name and every vector must have the same length.
func New(entries []Entry, model string) (*Catalog, error) {
	dim := -1
	copied := make([]Entry, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Record.Name) == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", domain.ErrCatalogLoad, i)
		}
		if dim == -1 {
			dim = len(e.Vector)
		} else if len(e.Vector) != dim {
			return nil, fmt.Errorf("%w: entry %d (%s) has %d dimensions, expected %d",
				domain.ErrVectorDimMismatch, i, e.Record.Name, len(e.Vector), dim)
		}
		copied[i] = Entry{Record: cloneRecord(e.Record), Vector: slices.Clone(e.Vector)}
	}
	if dim < 0 {
		dim = 0
	}
	return &Catalog{entries: copied, dim: dim, model: model}, nil
}

// Empty returns a catalog with no entries.
func Empty() *Catalog {
	return &Catalog{}
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Dimension returns the shared vector dimension.
func (c *Catalog) Dimension() int { return c.dim }

// Model returns the embedding model the vectors came from.
func (c *Catalog) Model() string { return c.model }

// Entries returns the entries in catalog order. Callers must not modify them.
func (c *Catalog) Entries() []Entry { return c.entries }

// Products returns copies of all records in catalog order.
func (c *Catalog) Products() []domain.ProductRecord {
	out := make([]domain.ProductRecord, len(c.entries))
	for i := range c.entries {
		out[i] = cloneRecord(c.entries[i].Record)
	}
	return out
}

// Lookup finds the product named by identifier.
// A numeric identifier matches the record id. Otherwise an exact case-insensitive
// name match wins; in substring mode the first record whose name contains the
// identifier is used. Blank identifiers never match.
func (c *Catalog) Lookup(identifier string, mode MatchMode) (domain.ProductRecord, bool) {
	q := strings.TrimSpace(identifier)
	if q == "" {
		return domain.ProductRecord{}, false
	}

	if id, err := strconv.ParseInt(q, 10, 64); err == nil {
		for i := range c.entries {
			if rid := c.entries[i].Record.ID; rid != nil && *rid == id {
				return cloneRecord(c.entries[i].Record), true
			}
		}
	}

	for i := range c.entries {
		if c.entries[i].Record.SameName(q) {
			return cloneRecord(c.entries[i].Record), true
		}
	}

	if mode != MatchSubstring {
		return domain.ProductRecord{}, false
	}
	lq := strings.ToLower(q)
	for i := range c.entries {
		if strings.Contains(strings.ToLower(c.entries[i].Record.Name), lq) {
			return cloneRecord(c.entries[i].Record), true
		}
	}
	return domain.ProductRecord{}, false
}

func cloneRecord(r domain.ProductRecord) domain.ProductRecord {
	out := r
	if r.ID != nil {
		id := *r.ID
		out.ID = &id
	}
	out.Ingredients = slices.Clone(r.Ingredients)
	out.AllergenWarnings = slices.Clone(r.AllergenWarnings)
	out.Recommendations = slices.Clone(r.Recommendations)
	return out
}
