// Package markers holds the lookup tables used to recognise product
// attributes in free-form spec text. Spec names and values in the catalog are
// written in the shop's locale, so every rule is expressed as a table of
// aliases and marker substrings instead of inline text checks.
package markers

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Attribute names a logical spec field independent of its display name.
type Attribute string

const (
	Size           Attribute = "size"
	SwitchType     Attribute = "switch_type"
	DPI            Attribute = "dpi"
	PollingRate    Attribute = "polling_rate"
	FrequencyRange Attribute = "frequency_range"
	HeadphoneType  Attribute = "headphone_type"
)

// attributeNames lists the display names a catalog may use per attribute,
// source locale first.
var attributeNames = map[Attribute][]string{
	Size:           {"Размер", "Size"},
	SwitchType:     {"Тип переключателей", "Switch type", "Switches"},
	DPI:            {"DPI"},
	PollingRate:    {"Частота опроса", "Polling rate"},
	FrequencyRange: {"Частотный диапазон", "Frequency range"},
	HeadphoneType:  {"Тип", "Type"},
}

// Specs is anything that can answer a spec lookup by display name.
type Specs interface {
	Spec(name string) (string, bool)
}

// Value returns the first spec value stored under one of attr's names.
func Value(specs Specs, attr Attribute) (string, bool) {
	if specs == nil {
		return "", false
	}
	for _, name := range attributeNames[attr] {
		if v, ok := specs.Spec(name); ok {
			return v, true
		}
	}
	return "", false
}

// Set is a group of normalised marker substrings; a text matches the set when
// it contains any of them.
type Set struct {
	words []string
}

// NewSet normalises the given marker words.
func NewSet(words ...string) Set {
	s := Set{words: make([]string, 0, len(words))}
	for _, w := range words {
		if n := Normalize(w); n != "" {
			s.words = append(s.words, n)
		}
	}
	return s
}

// In reports whether text contains one of the markers.
func (s Set) In(text string) bool {
	return s.InNormalized(Normalize(text))
}

// InNormalized is In for text that already went through Normalize.
func (s Set) InNormalized(normalized string) bool {
	for _, w := range s.words {
		if strings.Contains(normalized, w) {
			return true
		}
	}
	return false
}

// Empty reports whether the set has no markers.
func (s Set) Empty() bool { return len(s.words) == 0 }

// Normalize performs text normalisation for marker comparison:
//   - Unicode NFKC
//   - unicode spaces folded to ' ' and runs collapsed
//   - case folding
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)
	text = strings.Join(strings.Fields(text), " ")
	// Casers are stateful, so one per call.
	return cases.Fold().String(text)
}
