package setup

// Option is one answer offered by a setup question.
type Option struct {
	ID    string
	Label string
}

// Genres offered by the setup builder, in menu order.
var Genres = []Option{
	{ID: "shooter", Label: "Shooters (CS2, Valorant, Call of Duty)"},
	{ID: "moba", Label: "MOBA (Dota 2, League of Legends)"},
	{ID: "strategy", Label: "Strategy (StarCraft, Age of Empires)"},
	{ID: "rpg", Label: "RPG (MMORPG, Action RPG)"},
}

// HandSizes offered by the setup builder, in menu order.
var HandSizes = []Option{
	{ID: "small", Label: "Small (under 17 cm)"},
	{ID: "medium", Label: "Medium (17-19 cm)"},
	{ID: "large", Label: "Large (over 19 cm)"},
}

// SwitchTypes offered by the setup builder, in menu order.
var SwitchTypes = []Option{
	{ID: "linear", Label: "Linear (red, fast and smooth)"},
	{ID: "tactile", Label: "Tactile (brown, with a bump)"},
	{ID: "clicky", Label: "Clicky (blue, with a click)"},
}

// Advice is the static per-genre guidance attached to a bundle.
type Advice struct {
	Mouse      string
	Keyboard   string
	Headphones string
	Remark     string
}

// DefaultGenre is used when a genre has no advice entry.
const DefaultGenre = "shooter"

var advice = map[string]Advice{
	"shooter": {
		Mouse:      "High DPI (16000+) and a light shell for fast flicks",
		Keyboard:   "Fast switches (optical or silver) for instant response",
		Headphones: "7.1 virtual surround to place every footstep",
		Remark:     "You'll spin like a top and hear enemies through three walls!",
	},
	"moba": {
		Mouse:      "Precise sensor and a comfortable grip for long sessions",
		Keyboard:   "Tactile switches for accurate command input",
		Headphones: "Clear mids so voice callouts always cut through",
		Remark:     "Now every skillshot lands exactly where you aimed it!",
	},
	"strategy": {
		Mouse:      "Ergonomic shape with extra buttons for macros",
		Keyboard:   "Comfortable switches with good feedback for long presses",
		Headphones: "Comfortable enough for marathon matches",
		Remark:     "Your APM is about to rival the Korean pros!",
	},
	"rpg": {
		Mouse:      "Plenty of programmable buttons for macros",
		Keyboard:   "Comfortable switches for long key holds",
		Headphones: "Immersive sound with deep bass",
		Remark:     "Now you can wreck bosses with your eyes closed!",
	},
}

// AdviceFor returns the advice for genre, falling back to DefaultGenre.
func AdviceFor(genre string) Advice {
	if a, ok := advice[genre]; ok {
		return a
	}
	return advice[DefaultGenre]
}
