// Package setup assembles a peripheral bundle from three questionnaire
// answers. Selection is deliberately simple: the first product in catalog
// order whose spec text carries the wanted marker.
package setup

import (
	"gearbot/internal/catalog"
	"gearbot/internal/markers"
)

// Answers are the setup questionnaire answers. Any of them may be empty or
// outside the offered options.
type Answers struct {
	Genre      string
	HandSize   string
	SwitchType string
}

// Bundle is one pick per peripheral type plus genre advice. A nil pick means
// nothing in the catalog matched.
type Bundle struct {
	Mouse      *catalog.Product
	Keyboard   *catalog.Product
	Headphones *catalog.Product
	Advice     Advice
}

// Match builds a bundle. It never fails.
func Match(a Answers, c *catalog.Catalog) Bundle {
	b := Bundle{Advice: AdviceFor(a.Genre)}
	if c == nil {
		return b
	}
	if set, ok := markers.HandSize[a.HandSize]; ok {
		b.Mouse = firstWith(c.Products(catalog.Mice), markers.Size, set)
	}
	if set, ok := markers.SwitchFeel[a.SwitchType]; ok {
		b.Keyboard = firstWith(c.Products(catalog.Keyboards), markers.SwitchType, set)
	}
	// Headphones ignore the genre: the first pair listed is offered.
	if hp := c.Products(catalog.Headphones); len(hp) > 0 {
		b.Headphones = &hp[0]
	}
	return b
}

func firstWith(products []catalog.Product, attr markers.Attribute, set markers.Set) *catalog.Product {
	for i := range products {
		if v, ok := markers.Value(products[i].Specs, attr); ok && set.In(v) {
			return &products[i]
		}
	}
	return nil
}
