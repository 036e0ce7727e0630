package telegram

import (
	"context"

	"gearbot/internal/bot"
	"gearbot/internal/obs"
)

// Presenter renders navigator output as Bot API messages.
type Presenter struct {
	client *Client
}

// NewPresenter returns a presenter sending through c.
func NewPresenter(c *Client) *Presenter {
	return &Presenter{client: c}
}

var _ bot.Presenter = (*Presenter)(nil)

// PresentMenu edits the target message or sends a new one.
func (p *Presenter) PresentMenu(ctx context.Context, t bot.Target, mode bot.Mode, text string, kb bot.Keyboard) error {
	markup := keyboardMarkup(kb)
	if mode == bot.Edit && t.MessageID != 0 {
		err := p.client.EditMessageText(ctx, t.ChatID, t.MessageID, text, markup)
		if !IsNoTextToEdit(err) {
			return err
		}
		// Photo messages have no text to replace; continue below them.
		obs.Logger.Debug("edit_photo_message_as_new", "chat_id", t.ChatID, "message_id", t.MessageID)
	}
	_, err := p.client.SendMessage(ctx, t.ChatID, text, markup)
	return err
}

// PresentDetail sends a photo with text as caption when imageURL is set.
// Photos are always new messages: a text message cannot become a photo.
func (p *Presenter) PresentDetail(ctx context.Context, t bot.Target, mode bot.Mode, text, imageURL string, kb bot.Keyboard) error {
	if imageURL == "" {
		return p.PresentMenu(ctx, t, mode, text, kb)
	}
	_, err := p.client.SendPhoto(ctx, t.ChatID, imageURL, text, keyboardMarkup(kb))
	return err
}

// PresentError shows text without options.
func (p *Presenter) PresentError(ctx context.Context, t bot.Target, mode bot.Mode, text string) error {
	return p.PresentMenu(ctx, t, mode, text, nil)
}

func keyboardMarkup(kb bot.Keyboard) *InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		rows = append(rows, buttons)
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
