// Package catalogfile reads the product catalog written by the ingestion step.
//
// Accepted layouts are a top-level list of products or {"products": [...]}.
// List fields may be JSON arrays or comma-joined strings.
package catalogfile

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/domain/catalog"
)

// Reader loads catalog entries from a JSON file.
type Reader struct {
	path string
}

// NewReader creates a reader for the catalog file at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the catalog file path.
func (r *Reader) Path() string { return r.path }

// Read loads and parses the catalog file.
func (r *Reader) Read() ([]catalog.Entry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrCatalogLoad, r.path, err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	return entries, nil
}

// Parse decodes catalog entries from JSON.
func Parse(data []byte) ([]catalog.Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", domain.ErrCatalogLoad)
	}

	root := gjson.ParseBytes(data)
	items := root
	if root.IsObject() {
		items = root.Get("products")
	}
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: expected a list of products or {\"products\": [...]}", domain.ErrCatalogLoad)
	}

	arr := items.Array()
	entries := make([]catalog.Entry, 0, len(arr))
	for i, item := range arr {
		e, err := parseEntry(item)
		if err != nil {
			return nil, fmt.Errorf("%w: product %d: %w", domain.ErrCatalogLoad, i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseEntry(item gjson.Result) (catalog.Entry, error) {
	if !item.IsObject() {
		return catalog.Entry{}, fmt.Errorf("expected object, got %s", item.Type)
	}

	name := strings.TrimSpace(item.Get("name").String())
	if name == "" {
		return catalog.Entry{}, errors.New("missing name")
	}

	id, err := parseID(item.Get("id"))
	if err != nil {
		return catalog.Entry{}, err
	}
	vec, err := parseVector(item.Get("embedding"))
	if err != nil {
		return catalog.Entry{}, err
	}

	return catalog.Entry{
		Record: domain.ProductRecord{
			ID:               id,
			Name:             name,
			Category:         item.Get("category").String(),
			Brand:            item.Get("brand").String(),
			Description:      item.Get("description").String(),
			Ingredients:      stringList(item.Get("ingredients")),
			AllergenWarnings: stringList(item.Get("allergen_warnings")),
			EthicalNotes:     item.Get("ethical_notes").String(),
			Recommendations:  stringList(item.Get("recommendations")),
		},
		Vector: vec,
	}, nil
}

// stringList accepts an array of strings or a comma-joined string.
func stringList(v gjson.Result) []string {
	switch {
	case v.IsArray():
		out := []string{}
		for _, it := range v.Array() {
			if s := strings.TrimSpace(it.String()); s != "" && it.Type != gjson.Null {
				out = append(out, s)
			}
		}
		return out
	case v.Type == gjson.String:
		return domain.SplitList(v.Str)
	default:
		return []string{}
	}
}

func parseID(v gjson.Result) (*int64, error) {
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.Number:
		if v.Num != math.Trunc(v.Num) {
			return nil, fmt.Errorf("id %v is not an integer", v.Num)
		}
		id := v.Int()
		return &id, nil
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return nil, nil
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("id %q is not an integer", v.Str)
		}
		return &id, nil
	default:
		return nil, fmt.Errorf("unsupported id type %s", v.Type)
	}
}

func parseVector(v gjson.Result) ([]float32, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, errors.New("embedding must be an array")
	}
	arr := v.Array()
	vec := make([]float32, len(arr))
	for i, x := range arr {
		if x.Type != gjson.Number {
			return nil, fmt.Errorf("embedding[%d] is not a number", i)
		}
		vec[i] = float32(x.Num)
	}
	return vec, nil
}
