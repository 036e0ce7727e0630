// Package scoring ranks catalog products against a user's stated usage.
package scoring

import (
	"math"
	"sort"
	"strconv"

	"gearbot/internal/catalog"
)

// Usage tags offered by the preference questionnaire.
const (
	UsageGaming = "gaming"
	UsageWork   = "work"
	UsageBudget = "budget"
)

// Dimension is the secondary axis a profile weighs besides price.
type Dimension string

const (
	DimensionSpecs      Dimension = "specs"
	DimensionErgonomics Dimension = "ergonomics"
	DimensionValue      Dimension = "value"
)

// Profile weighs price against one secondary dimension. Only DimensionSpecs
// has a scoring rule; the other dimensions contribute nothing.
type Profile struct {
	PriceWeight     float64
	SecondaryWeight float64
	Secondary       Dimension
}

var profiles = map[string]Profile{
	UsageGaming: {PriceWeight: 0.3, SecondaryWeight: 0.7, Secondary: DimensionSpecs},
	UsageWork:   {PriceWeight: 0.5, SecondaryWeight: 0.5, Secondary: DimensionErgonomics},
	UsageBudget: {PriceWeight: 0.8, SecondaryWeight: 0.2, Secondary: DimensionValue},
}

// ProfileFor returns the weight profile of a usage tag, falling back to the
// gaming profile for unknown or empty tags.
func ProfileFor(usage string) Profile {
	if p, ok := profiles[usage]; ok {
		return p
	}
	return profiles[UsageGaming]
}

// Preferences are the questionnaire answers the engine scores against.
type Preferences struct {
	Usage string
}

// Recommendation is one ranked product.
type Recommendation struct {
	catalog.Key
	Score    float64
	Price    string
	PhotoURL string
}

// Default configuration.
const (
	DefaultTopK         = 3
	DefaultPriceCeiling = 300.0
)

// Config tunes the engine.
type Config struct {
	TopK int
	// PriceCeiling is the price at and above which the price component is 0.
	PriceCeiling float64
}

// DefaultConfig returns the storefront's ranking configuration.
func DefaultConfig() Config {
	return Config{TopK: DefaultTopK, PriceCeiling: DefaultPriceCeiling}
}

// Engine scores products. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine, filling zero config fields with defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.PriceCeiling <= 0 {
		cfg.PriceCeiling = DefaultPriceCeiling
	}
	return &Engine{cfg: cfg}
}

// Recommend scores every product of category (all categories when empty)
// and returns the best TopK, highest score first. Equal scores keep catalog
// order. An empty result is not an error.
func (e *Engine) Recommend(prefs Preferences, c *catalog.Catalog, category string) []Recommendation {
	if c == nil {
		return nil
	}
	profile := ProfileFor(prefs.Usage)
	categories := c.Categories()
	if category != "" {
		categories = []string{category}
	}

	var recs []Recommendation
	for _, cat := range categories {
		for _, p := range c.Products(cat) {
			recs = append(recs, Recommendation{
				Key:      p.Key,
				Score:    e.Score(p, profile),
				Price:    p.Price,
				PhotoURL: p.PhotoURL,
			})
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > e.cfg.TopK {
		recs = recs[:e.cfg.TopK]
	}
	return recs
}

// Score computes one product's score under profile, rounded to 2 decimals.
func (e *Engine) Score(p catalog.Product, profile Profile) float64 {
	var score float64
	if price, ok := ParsePrice(p.Price); ok {
		score += (1 - math.Min(price/e.cfg.PriceCeiling, 1)) * profile.PriceWeight
	}
	if profile.Secondary == DimensionSpecs && p.Specs != nil {
		score += SpecsScore(p.Category, p.Specs) * profile.SecondaryWeight
	}
	return round2(score)
}

// round2 rounds the shortest decimal form half to even, so 0.125 becomes 0.12.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
