package markers

// Hand sizes offered by the setup builder, mapped to mouse size markers.
var HandSize = map[string]Set{
	"small":  NewSet("компактн", "compact", "small"),
	"medium": NewSet("средн", "medium"),
	"large":  NewSet("больш", "large"),
}

// Switch preferences offered by the setup builder, mapped to keyboard
// switch markers.
var SwitchFeel = map[string]Set{
	"linear":  NewSet("красн", "линейн", "red", "linear"),
	"tactile": NewSet("коричнев", "тактильн", "brown", "tactile"),
	"clicky":  NewSet("сини", "кликающ", "blue", "clicky"),
}

// Keyboard switch technology, checked in this order by the scorer.
var (
	Mechanical = NewSet("механическ", "mechanical")
	Optical    = NewSet("оптическ", "optical")
)

// Polling rate unit suffixes.
var PollingUnit = []string{"hz", "гц"}

// Frequency range units and headphone form factor.
var (
	FrequencyLowUnit  = NewSet("hz", "гц")
	FrequencyHighUnit = NewSet("khz", "кгц")
	OverEar           = NewSet("накладн", "over-ear")
)
