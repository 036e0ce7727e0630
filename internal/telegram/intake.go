package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gearbot/internal/bot"
	"gearbot/internal/dispatch"
	"gearbot/internal/event"
	"gearbot/internal/obs"
)

// Submitter accepts decoded user actions.
type Submitter interface {
	Submit(in dispatch.Inbound) error
}

// Decode maps an update to dispatch input. Updates the bot does not react to
// report false.
func Decode(u Update) (dispatch.Inbound, bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.Message == nil {
			return dispatch.Inbound{}, false
		}
		return dispatch.Inbound{
			SessionID: strconv.FormatInt(cq.From.ID, 10),
			Target:    bot.Target{ChatID: cq.Message.Chat.ID, MessageID: cq.Message.MessageID},
			Token:     cq.Data,
		}, true
	}
	if m := u.Message; m != nil && isStart(m.Text) {
		id := m.Chat.ID
		if m.From != nil {
			id = m.From.ID
		}
		return dispatch.Inbound{
			SessionID: strconv.FormatInt(id, 10),
			Target:    bot.Target{ChatID: m.Chat.ID},
			Event:     event.Event{Kind: event.Start},
		}, true
	}
	return dispatch.Inbound{}, false
}

// isStart matches "/start", "/start@botname" and "/start payload".
func isStart(text string) bool {
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == "/start"
}

// Intake feeds updates to the dispatcher and acknowledges button presses.
type Intake struct {
	client *Client
	sink   Submitter
}

// NewIntake returns an intake submitting to sink.
func NewIntake(c *Client, sink Submitter) *Intake {
	return &Intake{client: c, sink: sink}
}

// Process handles one update. Callback queries are always answered, even
// when the press is rejected, so the client stops its spinner.
func (in *Intake) Process(ctx context.Context, u Update) {
	msg, ok := Decode(u)
	if !ok {
		obs.Logger.Debug("update_ignored", "update_id", u.UpdateID)
		return
	}
	err := in.sink.Submit(msg)
	if err != nil && !errors.Is(err, event.ErrMalformed) && !errors.Is(err, dispatch.ErrThrottled) {
		obs.Logger.Error("update_submit_failed", "update_id", u.UpdateID, "error", err)
	}
	if u.CallbackQuery == nil {
		return
	}
	toast := ""
	if errors.Is(err, dispatch.ErrThrottled) {
		toast = "Too many taps, slow down a little"
	}
	actx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := in.client.AnswerCallbackQuery(actx, u.CallbackQuery.ID, toast); err != nil {
		obs.Logger.Warn("callback_answer_failed", "update_id", u.UpdateID, "error", err)
	}
}
