package bot

import (
	"fmt"
	"html"
	"strings"

	"gearbot/internal/catalog"
	"gearbot/internal/event"
	"gearbot/internal/scoring"
	"gearbot/internal/setup"
)

// User-facing texts.
const (
	textRoot            = "🖥 Choose a peripheral type:"
	textBrands          = "🏷 Choose a brand:"
	textUsageQuestion   = "📝 Answer two questions to get personal recommendations:\n\n1. How do you plan to use the device?"
	textCategoryFilter  = "2. Which category are you interested in?"
	textRecsHeader      = "✅ Here are the best options for you:"
	textNoRecs          = "😢 Could not find suitable recommendations"
	textGenreQuestion   = "🎮 Pick your favourite game genre:"
	textHandQuestion    = "✋ What is your hand size? (measure from the tip of the middle finger to the wrist):"
	textSwitchQuestion  = "⌨️ Which keyboard switch type do you prefer?"
	textSetupReady      = "🎮 Your setup is ready!"
	textUnavailable     = "⚠️ The catalog is not loaded. Please try again later."
	textProductNotFound = "⚠️ This product is no longer available. Pick another model."
	textLoadError       = "⚠️ Something went wrong while loading this product.\nTry another product or come back later."
	photoFallbackPrefix = "🖼 "
)

var categoryLabels = map[string]string{
	catalog.Keyboards:  "⌨️ Keyboards",
	catalog.Mice:       "🖱 Mice",
	catalog.Headphones: "🎧 Headphones",
}

func categoryLabel(cat string) string {
	if l, ok := categoryLabels[cat]; ok {
		return l
	}
	return cat
}

var usageOptions = []setup.Option{
	{ID: scoring.UsageGaming, Label: "🎮 Gaming"},
	{ID: scoring.UsageWork, Label: "💼 Work"},
	{ID: scoring.UsageBudget, Label: "💰 Budget"},
}

func mainMenuRow() []Button {
	return Row("🔙 Main menu", event.Event{Kind: event.BackToRoot})
}

func rootMenu() (string, Keyboard) {
	var kb Keyboard
	for _, cat := range catalog.KnownCategories {
		kb = append(kb, Row(categoryLabel(cat), event.Event{Kind: event.SelectCategory, Category: cat}))
	}
	kb = append(kb,
		Row("🌟 Get recommendations", event.Event{Kind: event.GetRecommendations}),
		Row("🎮 Build an esports setup", event.Event{Kind: event.StartSetup}),
	)
	return textRoot, kb
}

func brandMenu(cat string, brands []string) (string, Keyboard) {
	kb := make(Keyboard, 0, len(brands)+1)
	for _, b := range brands {
		kb = append(kb, Row(b, event.Event{Kind: event.SelectBrand, Category: cat, Brand: b}))
	}
	kb = append(kb, Row("🔙 Back", event.Event{Kind: event.BackToRoot}))
	return textBrands, kb
}

func modelMenu(cat, brand string, models []string) (string, Keyboard) {
	kb := make(Keyboard, 0, len(models)+1)
	for _, m := range models {
		kb = append(kb, Row(m, event.Event{Kind: event.SelectModel, Category: cat, Brand: brand, Model: m}))
	}
	kb = append(kb, Row("🔙 Back", event.Event{Kind: event.BackToBrands, Category: cat}))
	return "📋 " + html.EscapeString(brand) + " models:", kb
}

func detailText(p catalog.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔹 <b>%s</b> (%s)\n\n", html.EscapeString(p.Model), html.EscapeString(p.Brand))
	fmt.Fprintf(&b, "📝 <b>Description:</b> %s\n\n", html.EscapeString(p.Description))
	b.WriteString("⚙️ <b>Specs:</b>\n")
	for _, s := range p.Specs {
		fmt.Fprintf(&b, "• %s: %s\n", html.EscapeString(s.Name), html.EscapeString(s.Value))
	}
	fmt.Fprintf(&b, "\n💰 <b>Price:</b> %s", html.EscapeString(p.Price))
	return b.String()
}

func detailKeyboard(p catalog.Product) Keyboard {
	return Keyboard{
		Row("🔙 Back", event.Event{Kind: event.BackFromDetail}),
		Row("🌟 Similar products", event.Event{Kind: event.Similar, Category: p.Category, Brand: p.Brand, Model: p.Model}),
	}
}

func usageMenu() (string, Keyboard) {
	kb := make(Keyboard, 0, len(usageOptions)+1)
	for _, o := range usageOptions {
		kb = append(kb, Row(o.Label, event.Event{Kind: event.SelectUsage, Value: o.ID}))
	}
	kb = append(kb, mainMenuRow())
	return textUsageQuestion, kb
}

func categoryFilterMenu() (string, Keyboard) {
	var kb Keyboard
	for _, cat := range catalog.KnownCategories {
		kb = append(kb, Row(categoryLabel(cat), event.Event{Kind: event.RecommendCategory, Category: cat}))
	}
	kb = append(kb, Row("❌ Skip", event.Event{Kind: event.RecommendSkip}))
	return textCategoryFilter, kb
}

func recommendationCard(rank int, r scoring.Recommendation) (string, Keyboard) {
	text := fmt.Sprintf("🏆 Recommendation #%d\n\n"+
		"🔹 <b>%s</b> (%s)\n"+
		"🏷 Category: %s\n"+
		"⭐ Rating: %.2f/1.0\n"+
		"💰 Price: %s",
		rank,
		html.EscapeString(r.Model), html.EscapeString(r.Brand),
		html.EscapeString(r.Category),
		r.Score,
		html.EscapeString(orUnknown(r.Price)))
	kb := Keyboard{Row("🔍 View", event.Event{Kind: event.SelectModel, Category: r.Category, Brand: r.Brand, Model: r.Model})}
	return text, kb
}

func optionMenu(question string, options []setup.Option, kind event.Kind) (string, Keyboard) {
	kb := make(Keyboard, 0, len(options)+1)
	for _, o := range options {
		kb = append(kb, Row(o.Label, event.Event{Kind: kind, Value: o.ID}))
	}
	kb = append(kb, mainMenuRow())
	return question, kb
}

func setupText(b setup.Bundle) string {
	var sb strings.Builder
	sb.WriteString("🎮 <b>Your ideal esports setup:</b>\n\n")
	writePick(&sb, "🖱 <b>Mouse:</b>", b.Mouse)
	writePick(&sb, "⌨️ <b>Keyboard:</b>", b.Keyboard)
	writePick(&sb, "🎧 <b>Headphones:</b>", b.Headphones)

	sb.WriteString("💡 <b>Pro tip:</b>\n")
	fmt.Fprintf(&sb, "• Mouse: %s\n", html.EscapeString(b.Advice.Mouse))
	fmt.Fprintf(&sb, "• Keyboard: %s\n", html.EscapeString(b.Advice.Keyboard))
	fmt.Fprintf(&sb, "• Headphones: %s\n\n", html.EscapeString(b.Advice.Headphones))
	fmt.Fprintf(&sb, "😄 <i>%s</i>", html.EscapeString(b.Advice.Remark))
	return sb.String()
}

// writePick omits absent picks entirely.
func writePick(sb *strings.Builder, title string, p *catalog.Product) {
	if p == nil {
		return
	}
	fmt.Fprintf(sb, "%s %s %s\n", title, html.EscapeString(p.Brand), html.EscapeString(p.Model))
	fmt.Fprintf(sb, "   Description: %s\n", html.EscapeString(p.Description))
	fmt.Fprintf(sb, "   Price: %s\n\n", html.EscapeString(orUnknown(p.Price)))
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func categoryNotFound(cat string) string {
	return fmt.Sprintf("⚠️ Category '%s' not found", html.EscapeString(cat))
}

func brandNotFound(cat, brand string) string {
	return fmt.Sprintf("⚠️ Brand '%s' not found in category '%s'", html.EscapeString(brand), html.EscapeString(cat))
}

func noModels(brand string) string {
	return fmt.Sprintf("⚠️ No models for brand '%s'", html.EscapeString(brand))
}
