// Package event defines the inbound selection events the navigator consumes
// and the compact token form they travel in as button payloads.
package event

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags an Event.
type Kind int

const (
	Start Kind = iota + 1
	BackToRoot
	SelectCategory
	SelectBrand
	BackToBrands
	SelectModel
	BackFromDetail
	Similar
	GetRecommendations
	SelectUsage
	RecommendCategory
	RecommendSkip
	StartSetup
	SelectGenre
	SelectHand
	SelectSwitch
)

// Event is one user selection. Which fields are set depends on Kind:
//   - SelectCategory, BackToBrands, RecommendCategory: Category
//   - SelectBrand: Category, Brand
//   - SelectModel, Similar: Category, Brand, Model
//   - SelectUsage, SelectGenre, SelectHand, SelectSwitch: Value
type Event struct {
	Kind     Kind
	Category string
	Brand    string
	Model    string
	Value    string
}

// ErrMalformed is returned for tokens that do not match any pattern.
var ErrMalformed = errors.New("malformed event token")

const sep = "|"

type pattern struct {
	prefix string
	params int
	build  func(p []string) Event
}

var kindPatterns = map[Kind]pattern{
	BackToRoot:         {"back_to_categories", 0, func([]string) Event { return Event{Kind: BackToRoot} }},
	SelectCategory:     {"category", 1, func(p []string) Event { return Event{Kind: SelectCategory, Category: p[0]} }},
	SelectBrand:        {"brand", 2, func(p []string) Event { return Event{Kind: SelectBrand, Category: p[0], Brand: p[1]} }},
	BackToBrands:       {"back_to_brands", 1, func(p []string) Event { return Event{Kind: BackToBrands, Category: p[0]} }},
	SelectModel:        {"model", 3, func(p []string) Event { return Event{Kind: SelectModel, Category: p[0], Brand: p[1], Model: p[2]} }},
	BackFromDetail:     {"back_to_models", 0, func([]string) Event { return Event{Kind: BackFromDetail} }},
	Similar:            {"similar", 3, func(p []string) Event { return Event{Kind: Similar, Category: p[0], Brand: p[1], Model: p[2]} }},
	GetRecommendations: {"get_recommendations", 0, func([]string) Event { return Event{Kind: GetRecommendations} }},
	SelectUsage:        {"pref", 1, func(p []string) Event { return Event{Kind: SelectUsage, Value: p[0]} }},
	RecommendCategory:  {"rec_category", 1, func(p []string) Event { return Event{Kind: RecommendCategory, Category: p[0]} }},
	RecommendSkip:      {"rec_skip", 0, func([]string) Event { return Event{Kind: RecommendSkip} }},
	StartSetup:         {"gaming_setup_start", 0, func([]string) Event { return Event{Kind: StartSetup} }},
	SelectGenre:        {"gs_genre", 1, func(p []string) Event { return Event{Kind: SelectGenre, Value: p[0]} }},
	SelectHand:         {"gs_hand", 1, func(p []string) Event { return Event{Kind: SelectHand, Value: p[0]} }},
	SelectSwitch:       {"gs_switch", 1, func(p []string) Event { return Event{Kind: SelectSwitch, Value: p[0]} }},
}

var byPrefix = func() map[string]pattern {
	m := make(map[string]pattern, len(kindPatterns))
	for _, p := range kindPatterns {
		m[p.prefix] = p
	}
	return m
}()

// Parse decodes a token. Parameter count and non-emptiness are checked here
// so the navigator only ever sees well-formed events. The last parameter may
// itself contain the separator.
func Parse(token string) (Event, error) {
	head, rest, hasParams := strings.Cut(token, sep)
	p, ok := byPrefix[head]
	if !ok {
		return Event{}, fmt.Errorf("%w: unknown prefix %q", ErrMalformed, head)
	}
	if p.params == 0 {
		if hasParams {
			return Event{}, fmt.Errorf("%w: %q takes no parameters", ErrMalformed, head)
		}
		return p.build(nil), nil
	}
	if !hasParams {
		return Event{}, fmt.Errorf("%w: %q needs %d parameters", ErrMalformed, head, p.params)
	}
	params := strings.SplitN(rest, sep, p.params)
	if len(params) != p.params {
		return Event{}, fmt.Errorf("%w: %q needs %d parameters, got %d", ErrMalformed, head, p.params, len(params))
	}
	for _, v := range params {
		if v == "" {
			return Event{}, fmt.Errorf("%w: %q has an empty parameter", ErrMalformed, head)
		}
	}
	return p.build(params), nil
}

// MaxTokenLen is the largest payload, in bytes, a messenger button accepts.
const MaxTokenLen = 64

// Token encodes e for use as a button payload. Start has no token form.
func (e Event) Token() string {
	p, ok := kindPatterns[e.Kind]
	if !ok {
		return ""
	}
	var params []string
	switch p.params {
	case 1:
		if e.Value != "" {
			params = []string{e.Value}
		} else {
			params = []string{e.Category}
		}
	case 2:
		params = []string{e.Category, e.Brand}
	case 3:
		params = []string{e.Category, e.Brand, e.Model}
	}
	return strings.Join(append([]string{p.prefix}, params...), sep)
}

func (k Kind) String() string {
	if k == Start {
		return "start"
	}
	if p, ok := kindPatterns[k]; ok {
		return p.prefix
	}
	return fmt.Sprintf("kind(%d)", int(k))
}
