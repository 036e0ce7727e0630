package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gearbot/internal/obs"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type (
	modelMap    = orderedmap.OrderedMap[string, json.RawMessage]
	brandMap    = orderedmap.OrderedMap[string, *modelMap]
	categoryMap = orderedmap.OrderedMap[string, *brandMap]
)

// productDoc is one model entry as written in the document. Raw fields let
// absence be told apart from a value of the wrong type.
type productDoc struct {
	Description json.RawMessage `json:"description"`
	Specs       json.RawMessage `json:"specs"`
	Price       json.RawMessage `json:"price"`
	PhotoURL    json.RawMessage `json:"photo_url"`
}

// Parse decodes a catalog document, keeping insertion order at every level.
// Only the category → brand → model skeleton must be well formed; a broken
// model entry is indexed as defective and reported when it is resolved.
func Parse(data []byte) (*Catalog, error) {
	raw := orderedmap.New[string, *brandMap]()
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := &Catalog{byName: make(map[string]*categoryIndex), loadedAt: time.Now()}
	for cp := raw.Oldest(); cp != nil; cp = cp.Next() {
		if !IsKnownCategory(cp.Key) {
			obs.Logger.Warn("catalog_unknown_category", "category", cp.Key)
			continue
		}
		ci := &categoryIndex{byName: make(map[string]*brandIndex)}
		c.categories = append(c.categories, cp.Key)
		c.byName[cp.Key] = ci
		if cp.Value == nil {
			continue
		}
		for bp := cp.Value.Oldest(); bp != nil; bp = bp.Next() {
			if bp.Key == "" {
				obs.Logger.Warn("catalog_empty_brand", "category", cp.Key)
				continue
			}
			bi := &brandIndex{entries: make(map[string]*entry)}
			ci.brands = append(ci.brands, bp.Key)
			ci.byName[bp.Key] = bi
			if bp.Value == nil {
				continue
			}
			for mp := bp.Value.Oldest(); mp != nil; mp = mp.Next() {
				bi.models = append(bi.models, mp.Key)
				bi.entries[mp.Key] = decodeEntry(Key{cp.Key, bp.Key, mp.Key}, mp.Value)
			}
		}
	}
	return c, nil
}

func decodeEntry(key Key, raw json.RawMessage) *entry {
	e := &entry{product: Product{Key: key}}
	var doc productDoc
	if err := json.Unmarshal(raw, &doc); err != nil || isNull(raw) {
		e.err = fmt.Errorf("%w: entry is not an object", ErrMalformed)
		return e
	}
	e.scorable = true

	var missing []string
	if isNull(doc.Description) {
		missing = append(missing, "description")
	} else if err := json.Unmarshal(doc.Description, &e.product.Description); err != nil {
		e.err = fmt.Errorf("%w: description: %v", ErrMalformed, err)
	}
	if isNull(doc.Price) {
		missing = append(missing, "price")
	} else {
		e.product.Price = scalarText(doc.Price)
	}
	if isNull(doc.Specs) {
		missing = append(missing, "specs")
	} else if specs, err := decodeSpecs(doc.Specs); err != nil {
		if e.err == nil {
			e.err = fmt.Errorf("%w: specs: %v", ErrMalformed, err)
		}
	} else {
		e.product.Specs = specs
	}
	if !isNull(doc.PhotoURL) {
		var photo string
		if json.Unmarshal(doc.PhotoURL, &photo) == nil {
			e.product.PhotoURL = photo
		}
	}
	if len(missing) > 0 {
		e.err = fmt.Errorf("%w: incomplete product data, missing %v", ErrNotFound, missing)
	}
	return e
}

func decodeSpecs(raw json.RawMessage) (Specs, error) {
	m := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, err
	}
	specs := make(Specs, 0, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		specs = append(specs, Spec{Name: p.Key, Value: scalarText(p.Value)})
	}
	return specs, nil
}

// scalarText renders a JSON value as display text: strings unquoted,
// anything else as compact JSON.
func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
