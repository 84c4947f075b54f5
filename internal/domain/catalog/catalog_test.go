package catalog

import (
	"errors"
	"testing"

	"github.com/allerpredict/allerpredict/internal/domain"
)

func id(v int64) *int64 { return &v }

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New([]Entry{
		{Record: domain.ProductRecord{ID: id(1), Name: "Peanut Butter Cookies", Category: "snack"}, Vector: []float32{1, 0}},
		{Record: domain.ProductRecord{ID: id(2), Name: "Oat Milk", Category: "drink"}, Vector: []float32{0, 1}},
		{Record: domain.ProductRecord{ID: id(3), Name: "Butter", Category: "dairy"}, Vector: []float32{1, 1}},
	}, "test-model")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_DimensionMismatch(t *testing.T) {
	_, err := New([]Entry{
		{Record: domain.ProductRecord{Name: "a"}, Vector: []float32{1, 2}},
		{Record: domain.ProductRecord{Name: "b"}, Vector: []float32{1}},
	}, "m")
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestNew_MissingName(t *testing.T) {
	_, err := New([]Entry{{Record: domain.ProductRecord{Name: "  "}}}, "m")
	if !errors.Is(err, domain.ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	rec := domain.ProductRecord{Name: "a", AllergenWarnings: []string{"nuts"}}
	vec := []float32{1}
	c, err := New([]Entry{{Record: rec, Vector: vec}}, "m")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec.AllergenWarnings[0] = "soy"
	vec[0] = 9
	got := c.Entries()[0]
	if got.Record.AllergenWarnings[0] != "nuts" || got.Vector[0] != 1 {
		t.Errorf("catalog must not share memory with caller, got %+v", got)
	}
	if c.Dimension() != 1 {
		t.Errorf("expected dimension 1, got %d", c.Dimension())
	}
}

func TestLookup(t *testing.T) {
	c := testCatalog(t)
	tests := []struct {
		name       string
		identifier string
		mode       MatchMode
		want       string
		found      bool
	}{
		{"exact case-insensitive", "oat milk", MatchExact, "Oat Milk", true},
		{"exact wins over substring", "butter", MatchSubstring, "Butter", true},
		{"substring first in catalog order", "cook", MatchSubstring, "Peanut Butter Cookies", true},
		{"substring disabled in exact mode", "cook", MatchExact, "", false},
		{"numeric id", "2", MatchExact, "Oat Milk", true},
		{"blank", "   ", MatchSubstring, "", false},
		{"absent", "NonexistentProduct", MatchSubstring, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := c.Lookup(tc.identifier, tc.mode)
			if ok != tc.found {
				t.Fatalf("found = %v, want %v", ok, tc.found)
			}
			if ok && p.Name != tc.want {
				t.Errorf("got %q, want %q", p.Name, tc.want)
			}
		})
	}
}

func TestProducts_ReturnsCopies(t *testing.T) {
	c := testCatalog(t)
	products := c.Products()
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	products[0].Name = "changed"
	*products[0].ID = 99
	if c.Entries()[0].Record.Name != "Peanut Butter Cookies" || *c.Entries()[0].Record.ID != 1 {
		t.Error("Products must return copies")
	}
}

func TestEmpty(t *testing.T) {
	c := Empty()
	if c.Len() != 0 || c.Dimension() != 0 {
		t.Errorf("unexpected empty catalog: len=%d dim=%d", c.Len(), c.Dimension())
	}
	if _, ok := c.Lookup("anything", MatchSubstring); ok {
		t.Error("empty catalog must not match")
	}
}
