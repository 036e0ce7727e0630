package scoring

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"gearbot/internal/catalog"
	"gearbot/internal/markers"
)

// Per-category spec rule weights. A rule whose spec is absent or does not
// parse contributes 0 without affecting the other rules.
const (
	dpiWeight       = 0.4
	dpiCeiling      = 16000.0
	pollingWeight   = 0.3
	pollingCeiling  = 8000.0
	mechanicalBonus = 0.5
	opticalBonus    = 0.7
	frequencyBonus  = 0.4
	overEarBonus    = 0.3
)

// SpecsScore is the unweighted spec component for a product of category.
func SpecsScore(category string, specs markers.Specs) float64 {
	var s float64
	switch category {
	case catalog.Mice:
		if v, ok := markers.Value(specs, markers.DPI); ok {
			if dpi, ok := ParseLeadingInt(v); ok {
				s += math.Min(float64(dpi)/dpiCeiling, 1) * dpiWeight
			}
		}
		if v, ok := markers.Value(specs, markers.PollingRate); ok {
			if rate, ok := ParsePollingRate(v); ok {
				s += float64(rate) / pollingCeiling * pollingWeight
			}
		}
	case catalog.Keyboards:
		if v, ok := markers.Value(specs, markers.SwitchType); ok {
			n := markers.Normalize(v)
			switch {
			case markers.Mechanical.InNormalized(n):
				s += mechanicalBonus
			case markers.Optical.InNormalized(n):
				s += opticalBonus
			}
		}
	case catalog.Headphones:
		if v, ok := markers.Value(specs, markers.FrequencyRange); ok {
			n := markers.Normalize(v)
			if markers.FrequencyLowUnit.InNormalized(n) && markers.FrequencyHighUnit.InNormalized(n) {
				s += frequencyBonus
			}
		}
		if v, ok := markers.Value(specs, markers.HeadphoneType); ok && markers.OverEar.In(v) {
			s += overEarBonus
		}
	}
	return s
}

// ParsePrice reads a price such as "$129" or "129.99 ₽".
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.Is(unicode.Sc, r)
	})
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseLeadingInt reads the first whitespace separated token as an integer,
// as in "16000 dpi".
func ParseLeadingInt(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParsePollingRate reads a rate such as "1000Hz" or "1000 Гц".
func ParsePollingRate(s string) (int, bool) {
	n := markers.Normalize(s)
	for _, unit := range markers.PollingUnit {
		n = strings.TrimSuffix(n, unit)
	}
	v, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil {
		return 0, false
	}
	return v, true
}
