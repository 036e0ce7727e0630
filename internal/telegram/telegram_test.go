package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gearbot/internal/bot"
	"gearbot/internal/dispatch"
	"gearbot/internal/event"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123:abc"

type apiCall struct {
	Method  string
	Payload map[string]any
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
	reply func(method string, n int) (int, string)
}

func (f *fakeAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method)
	}
	return out
}

func (f *fakeAPI) call(i int) apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

const okMessage = `{"ok":true,"result":{"message_id":5,"chat":{"id":1}}}`

func newFakeAPI(t *testing.T, failures int, reply func(method string, n int) (int, string)) (*fakeAPI, *Client) {
	t.Helper()
	f := &fakeAPI{reply: reply}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, ok := strings.CutPrefix(r.URL.Path, "/bot"+testToken+"/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.mu.Lock()
		f.calls = append(f.calls, apiCall{Method: method, Payload: payload})
		n := len(f.calls)
		f.mu.Unlock()

		status, body := http.StatusOK, okMessage
		if f.reply != nil {
			status, body = f.reply(method, n)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return f, NewClient(ClientConfig{BaseURL: srv.URL, Token: testToken, Timeout: 5 * time.Second, BreakerFailures: failures, BreakerOpen: time.Minute})
}

func badRequest(description string) (int, string) {
	return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: ` + description + `"}`
}

func TestSendMessagePayload(t *testing.T) {
	api, c := newFakeAPI(t, 0, nil)
	markup := keyboardMarkup(bot.Keyboard{{{Text: "🖱 Mice", Data: "category|mice"}}})

	m, err := c.SendMessage(context.Background(), 1, "<b>hi</b>", markup)

	require.NoError(t, err)
	assert.Equal(t, 5, m.MessageID)
	got := api.call(0)
	assert.Equal(t, "sendMessage", got.Method)
	assert.Equal(t, float64(1), got.Payload["chat_id"])
	assert.Equal(t, "HTML", got.Payload["parse_mode"])
	rows := got.Payload["reply_markup"].(map[string]any)["inline_keyboard"].([]any)
	button := rows[0].([]any)[0].(map[string]any)
	assert.Equal(t, "category|mice", button["callback_data"])
}

func TestEditNotModifiedIsSuccess(t *testing.T) {
	_, c := newFakeAPI(t, 0, func(string, int) (int, string) {
		return badRequest("message is not modified: specified new message content and reply markup are exactly the same")
	})
	assert.NoError(t, c.EditMessageText(context.Background(), 1, 2, "same", nil))
}

func TestAPIError(t *testing.T) {
	_, c := newFakeAPI(t, 0, func(string, int) (int, string) { return badRequest("chat not found") })

	_, err := c.SendMessage(context.Background(), 1, "x", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "sendMessage", apiErr.Method)
	assert.Contains(t, apiErr.Description, "chat not found")
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	api, c := newFakeAPI(t, 2, func(string, int) (int, string) {
		return http.StatusBadGateway, `{"ok":false,"error_code":502,"description":"Bad Gateway"}`
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.SendMessage(ctx, 1, "x", nil)
		require.Error(t, err)
	}
	_, err := c.SendMessage(ctx, 1, "x", nil)

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, api.methods(), 2)
	assert.Equal(t, "open", c.BreakerState())
}

func TestBreakerIgnoresRejectedRequests(t *testing.T) {
	_, c := newFakeAPI(t, 2, func(string, int) (int, string) {
		return badRequest("wrong file identifier/HTTP URL specified")
	})
	for i := 0; i < 5; i++ {
		_, err := c.SendPhoto(context.Background(), 1, "https://img.example/x.jpg", "x", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, "closed", c.BreakerState())
}

func TestPresenterModes(t *testing.T) {
	ctx := context.Background()
	kb := bot.Keyboard{{{Text: "🔙 Back", Data: "back_to_categories"}}}

	t.Run("edit", func(t *testing.T) {
		api, c := newFakeAPI(t, 0, nil)
		p := NewPresenter(c)
		require.NoError(t, p.PresentMenu(ctx, bot.Target{ChatID: 1, MessageID: 9}, bot.Edit, "menu", kb))
		assert.Equal(t, []string{"editMessageText"}, api.methods())
		assert.Equal(t, float64(9), api.call(0).Payload["message_id"])
	})
	t.Run("edit without message appends", func(t *testing.T) {
		api, c := newFakeAPI(t, 0, nil)
		require.NoError(t, NewPresenter(c).PresentMenu(ctx, bot.Target{ChatID: 1}, bot.Edit, "menu", kb))
		assert.Equal(t, []string{"sendMessage"}, api.methods())
	})
	t.Run("edit of photo message appends", func(t *testing.T) {
		api, c := newFakeAPI(t, 0, func(method string, _ int) (int, string) {
			if method == "editMessageText" {
				return badRequest("there is no text in the message to edit")
			}
			return http.StatusOK, okMessage
		})
		require.NoError(t, NewPresenter(c).PresentMenu(ctx, bot.Target{ChatID: 1, MessageID: 9}, bot.Edit, "menu", kb))
		assert.Equal(t, []string{"editMessageText", "sendMessage"}, api.methods())
	})
	t.Run("append", func(t *testing.T) {
		api, c := newFakeAPI(t, 0, nil)
		require.NoError(t, NewPresenter(c).PresentMenu(ctx, bot.Target{ChatID: 1, MessageID: 9}, bot.Append, "card", kb))
		assert.Equal(t, []string{"sendMessage"}, api.methods())
	})
	t.Run("detail with image", func(t *testing.T) {
		api, c := newFakeAPI(t, 0, nil)
		require.NoError(t, NewPresenter(c).PresentDetail(ctx, bot.Target{ChatID: 1, MessageID: 9}, bot.Edit, "detail", "https://img.example/a.jpg", kb))
		require.Equal(t, []string{"sendPhoto"}, api.methods())
		assert.Equal(t, "detail", api.call(0).Payload["caption"])
		assert.Equal(t, "https://img.example/a.jpg", api.call(0).Payload["photo"])
	})
	t.Run("error has no keyboard", func(t *testing.T) {
		api, c := newFakeAPI(t, 0, nil)
		require.NoError(t, NewPresenter(c).PresentError(ctx, bot.Target{ChatID: 1, MessageID: 9}, bot.Edit, "oops"))
		assert.NotContains(t, api.call(0).Payload, "reply_markup")
	})
}

func TestDecode(t *testing.T) {
	in, ok := Decode(Update{Message: &Message{MessageID: 3, From: &User{ID: 77}, Chat: Chat{ID: 55}, Text: "/start@gear_bot"}})
	require.True(t, ok)
	assert.Equal(t, dispatch.Inbound{SessionID: "77", Target: bot.Target{ChatID: 55}, Event: event.Event{Kind: event.Start}}, in)

	in, ok = Decode(Update{CallbackQuery: &CallbackQuery{
		ID: "q", From: User{ID: 77}, Data: "category|mice",
		Message: &Message{MessageID: 8, Chat: Chat{ID: 55}},
	}})
	require.True(t, ok)
	assert.Equal(t, dispatch.Inbound{SessionID: "77", Target: bot.Target{ChatID: 55, MessageID: 8}, Token: "category|mice"}, in)

	_, ok = Decode(Update{Message: &Message{Chat: Chat{ID: 55}, Text: "hello"}})
	assert.False(t, ok)
	_, ok = Decode(Update{CallbackQuery: &CallbackQuery{ID: "inline", Data: "rec_skip"}})
	assert.False(t, ok)
}

type fakeSink struct {
	mu  sync.Mutex
	got []dispatch.Inbound
	err error
}

func (s *fakeSink) Submit(in dispatch.Inbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, in)
	return s.err
}

func callbackUpdate(id int64, data string) Update {
	return Update{UpdateID: id, CallbackQuery: &CallbackQuery{
		ID: "cq", From: User{ID: 7}, Data: data, Message: &Message{MessageID: 1, Chat: Chat{ID: 7}},
	}}
}

func TestIntakeAnswersEveryCallback(t *testing.T) {
	for _, tc := range []struct {
		name  string
		err   error
		toast string
	}{
		{"accepted", nil, ""},
		{"malformed", event.ErrMalformed, ""},
		{"throttled", dispatch.ErrThrottled, "Too many taps, slow down a little"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			api, c := newFakeAPI(t, 0, func(string, int) (int, string) { return http.StatusOK, `{"ok":true,"result":true}` })
			sink := &fakeSink{err: tc.err}

			NewIntake(c, sink).Process(context.Background(), callbackUpdate(1, "rec_skip"))

			assert.Len(t, sink.got, 1)
			require.Equal(t, []string{"answerCallbackQuery"}, api.methods())
			assert.Equal(t, "cq", api.call(0).Payload["callback_query_id"])
			assert.Equal(t, tc.toast, api.call(0).Payload["text"])
		})
	}
}

func TestPollerAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var polls atomic.Int32
	api, c := newFakeAPI(t, 0, func(method string, _ int) (int, string) {
		if method != "getUpdates" {
			return http.StatusOK, `{"ok":true,"result":true}`
		}
		if polls.Add(1) == 1 {
			body, _ := json.Marshal(map[string]any{"ok": true, "result": []Update{
				callbackUpdate(10, "category|mice"),
				{UpdateID: 11, Message: &Message{From: &User{ID: 7}, Chat: Chat{ID: 7}, Text: "/start"}},
			}})
			return http.StatusOK, string(body)
		}
		cancel()
		return http.StatusOK, `{"ok":true,"result":[]}`
	})
	sink := &fakeSink{}
	p := NewPoller(c, NewIntake(c, sink), time.Second)

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	require.Len(t, sink.got, 2)
	assert.Equal(t, "category|mice", sink.got[0].Token)
	assert.Equal(t, event.Start, sink.got[1].Event.Kind)
	assert.Equal(t, int64(12), p.Offset())

	var offsets []float64
	for i, m := range api.methods() {
		if m == "getUpdates" {
			offsets = append(offsets, api.call(i).Payload["offset"].(float64))
		}
	}
	assert.Equal(t, []float64{0, 12}, offsets)
}

func TestFloodControlRetryAfter(t *testing.T) {
	_, c := newFakeAPI(t, 0, func(string, int) (int, string) {
		return http.StatusTooManyRequests, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`
	})

	_, err := c.GetUpdates(context.Background(), 0, 0)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Code)
	assert.Equal(t, 3, apiErr.RetryAfter)
	assert.Equal(t, 3*time.Second, retryDelay(err, time.Second))
	assert.Equal(t, 5*time.Second, retryDelay(err, 5*time.Second))
	assert.Equal(t, time.Second, retryDelay(errors.New("connection reset"), time.Second))
	assert.Equal(t, time.Second, retryDelay(&APIError{Code: 502}, time.Second))
}

func TestIsNotModified(t *testing.T) {
	assert.False(t, IsNotModified(errors.New("message is not modified")), "only API errors count")
	assert.True(t, IsNotModified(&APIError{Description: "Bad Request: message is not modified"}))
}
