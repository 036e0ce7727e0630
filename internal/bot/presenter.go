package bot

import (
	"context"

	"gearbot/internal/event"
	"gearbot/internal/obs"
)

// Mode selects whether a presentation replaces the current surface or adds
// a new one after it.
type Mode int

const (
	// Edit replaces the content of the target message.
	Edit Mode = iota
	// Append sends a new message to the target chat.
	Append
)

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "edit"
}

// Target addresses a presentation surface. MessageID is zero when there is
// no message to edit yet; presenters then append.
type Target struct {
	ChatID    int64
	MessageID int
}

// Button is one selectable option. Data is an encoded event token.
type Button struct {
	Text string
	Data string
}

// Keyboard is a grid of buttons, one slice per row.
type Keyboard [][]Button

// Row builds a single-button row for ev. Tokens over event.MaxTokenLen are
// kept but logged, since the messenger rejects the whole keyboard.
func Row(text string, ev event.Event) []Button {
	data := ev.Token()
	if len(data) > event.MaxTokenLen {
		obs.Logger.Warn("callback_token_too_long", "kind", ev.Kind.String(), "bytes", len(data), "token", data)
	}
	return []Button{{Text: text, Data: data}}
}

// Presenter is the outbound messaging contract. Texts are HTML formatted.
type Presenter interface {
	PresentMenu(ctx context.Context, t Target, mode Mode, text string, kb Keyboard) error
	// PresentDetail shows text with an optional image. Implementations may
	// fail on the image; callers retry without it.
	PresentDetail(ctx context.Context, t Target, mode Mode, text, imageURL string, kb Keyboard) error
	PresentError(ctx context.Context, t Target, mode Mode, text string) error
}
