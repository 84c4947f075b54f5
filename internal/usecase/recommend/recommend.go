// Package recommend finds allergen-safe substitutes within a product's category.
package recommend

import (
	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/domain/catalog"
)

// DefaultMaxAlternatives is used when no limit is configured.
const DefaultMaxAlternatives = 5

// Alternatives returns up to limit products from cat that share source's category,
// have a different name and share none of its allergen warnings. Catalog order is kept.
func Alternatives(source *domain.ProductRecord, cat *catalog.Catalog, limit int) []domain.ProductRecord {
	out := []domain.ProductRecord{}
	if source == nil || limit <= 0 {
		return out
	}

	for _, e := range cat.Entries() {
		if len(out) == limit {
			break
		}
		cand := e.Record
		if cand.SameName(source.Name) {
			continue
		}
		if !cand.SameCategory(source) {
			continue
		}
		if source.SharesAllergen(&cand) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// ForName looks up name in cat and returns its alternatives.
// An unknown product yields an empty result.
func ForName(name string, cat *catalog.Catalog, mode catalog.MatchMode, limit int) []domain.ProductRecord {
	source, ok := cat.Lookup(name, mode)
	if !ok {
		return []domain.ProductRecord{}
	}
	return Alternatives(&source, cat, limit)
}

// Names returns the product names of records.
func Names(records []domain.ProductRecord) []string {
	names := make([]string, len(records))
	for i := range records {
		names[i] = records[i].Name
	}
	return names
}
