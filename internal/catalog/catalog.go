// Package catalog is the read-only product index: category → brand → model.
// A Catalog value is an immutable snapshot; stores hand out snapshots and never
// mutate one that has been published.
package catalog

import (
	"errors"
	"time"
)

// Categories the storefront knows how to present.
const (
	Keyboards  = "keyboards"
	Mice       = "mice"
	Headphones = "headphones"
)

// KnownCategories is the fixed category set in menu order.
var KnownCategories = []string{Keyboards, Mice, Headphones}

// IsKnownCategory reports whether name belongs to the fixed category set.
func IsKnownCategory(name string) bool {
	for _, c := range KnownCategories {
		if c == name {
			return true
		}
	}
	return false
}

var (
	// ErrUnavailable means the catalog document could not be loaded.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrNotFound means a category, brand or model is absent, or a model
	// lacks one of the required fields.
	ErrNotFound = errors.New("not found")
	// ErrMalformed means a model entry is present but structurally invalid.
	ErrMalformed = errors.New("malformed product")
)

// Spec is one display attribute of a product.
type Spec struct {
	Name  string
	Value string
}

// Specs keeps product attributes in document order.
type Specs []Spec

// Spec returns the value stored under name.
func (s Specs) Spec(name string) (string, bool) {
	for _, sp := range s {
		if sp.Name == name {
			return sp.Value, true
		}
	}
	return "", false
}

// Key identifies a product inside a catalog.
type Key struct {
	Category string
	Brand    string
	Model    string
}

// Product is a catalog entry. Fields absent from the document are zero.
type Product struct {
	Key
	Description string
	Specs       Specs
	Price       string
	PhotoURL    string
}

type entry struct {
	product Product
	// err is set when the entry cannot be shown as a detail card.
	err error
	// scorable is false when the entry is not even a JSON object.
	scorable bool
}

type brandIndex struct {
	models  []string
	entries map[string]*entry
}

type categoryIndex struct {
	brands []string
	byName map[string]*brandIndex
}

// Catalog is an immutable, insertion-ordered snapshot of the product index.
type Catalog struct {
	categories []string
	byName     map[string]*categoryIndex
	loadedAt   time.Time
	source     string
}

// Empty returns a catalog with no categories.
func Empty() *Catalog {
	return &Catalog{byName: map[string]*categoryIndex{}}
}

// Categories returns category names in document order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Brands returns the brand names of a category in document order. The flag is
// false when the category is absent; an empty category yields an empty slice.
func (c *Catalog) Brands(category string) ([]string, bool) {
	ci, ok := c.byName[category]
	if !ok {
		return nil, false
	}
	return append([]string{}, ci.brands...), true
}

// Models returns the model names of a brand in document order.
func (c *Catalog) Models(category, brand string) ([]string, bool) {
	ci, ok := c.byName[category]
	if !ok {
		return nil, false
	}
	bi, ok := ci.byName[brand]
	if !ok {
		return nil, false
	}
	return append([]string{}, bi.models...), true
}

// Resolve looks a product up by its full key. The returned error wraps
// ErrNotFound or ErrMalformed.
func (c *Catalog) Resolve(category, brand, model string) (Product, error) {
	ci, ok := c.byName[category]
	if !ok {
		return Product{}, &LookupError{Key: Key{Category: category}, Err: ErrNotFound}
	}
	bi, ok := ci.byName[brand]
	if !ok {
		return Product{}, &LookupError{Key: Key{Category: category, Brand: brand}, Err: ErrNotFound}
	}
	e, ok := bi.entries[model]
	if !ok {
		return Product{}, &LookupError{Key: Key{category, brand, model}, Err: ErrNotFound}
	}
	if e.err != nil {
		return Product{}, &LookupError{Key: e.product.Key, Err: e.err}
	}
	return e.product, nil
}

// Products returns the products of a category in brand, then model order.
// Incomplete entries are included with their missing fields left zero;
// entries that are not objects at all are skipped.
func (c *Catalog) Products(category string) []Product {
	ci, ok := c.byName[category]
	if !ok {
		return nil
	}
	var out []Product
	for _, b := range ci.brands {
		bi := ci.byName[b]
		for _, m := range bi.models {
			if e := bi.entries[m]; e.scorable {
				out = append(out, e.product)
			}
		}
	}
	return out
}

// LoadedAt is when the snapshot was decoded.
func (c *Catalog) LoadedAt() time.Time { return c.loadedAt }

// Source is the path the snapshot was decoded from, if any.
func (c *Catalog) Source() string { return c.source }

// IsEmpty reports whether the catalog has no categories.
func (c *Catalog) IsEmpty() bool { return len(c.categories) == 0 }

// Stats summarises a snapshot.
type Stats struct {
	Categories int       `json:"categories"`
	Brands     int       `json:"brands"`
	Models     int       `json:"models"`
	Defective  int       `json:"defective"`
	LoadedAt   time.Time `json:"loaded_at"`
	Source     string    `json:"source,omitempty"`
}

// Stats counts categories, brands, models and defective entries.
func (c *Catalog) Stats() Stats {
	st := Stats{Categories: len(c.categories), LoadedAt: c.loadedAt, Source: c.source}
	for _, ci := range c.byName {
		st.Brands += len(ci.brands)
		for _, bi := range ci.byName {
			st.Models += len(bi.models)
			for _, e := range bi.entries {
				if e.err != nil {
					st.Defective++
				}
			}
		}
	}
	return st
}

// LookupError reports which part of a key failed to resolve.
type LookupError struct {
	Key Key
	Err error
}

func (e *LookupError) Error() string {
	switch {
	case e.Key.Brand == "":
		return "category " + quote(e.Key.Category) + ": " + e.Err.Error()
	case e.Key.Model == "":
		return "brand " + quote(e.Key.Brand) + " in " + quote(e.Key.Category) + ": " + e.Err.Error()
	default:
		return "model " + quote(e.Key.Model) + " (" + e.Key.Brand + ", " + e.Key.Category + "): " + e.Err.Error()
	}
}

func (e *LookupError) Unwrap() error { return e.Err }

func quote(s string) string { return "'" + s + "'" }
