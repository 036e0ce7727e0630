package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gearbot/internal/bot"
	"gearbot/internal/event"
	"gearbot/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	seen    map[string][]string
	active  map[string]*atomic.Int32
	overlap atomic.Bool
}

func newRecorder() *recorder {
	return &recorder{seen: map[string][]string{}, active: map[string]*atomic.Int32{}}
}

func (r *recorder) counter(id string) *atomic.Int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.active[id]
	if !ok {
		c = &atomic.Int32{}
		r.active[id] = c
	}
	return c
}

func (r *recorder) Handle(_ context.Context, s *session.Session, _ bot.Target, ev event.Event) error {
	c := r.counter(s.ID)
	if c.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer c.Add(-1)
	time.Sleep(time.Millisecond)
	s.CurrentCategory = ev.Category
	r.mu.Lock()
	r.seen[s.ID] = append(r.seen[s.ID], ev.Category)
	r.mu.Unlock()
	return nil
}

func start(t *testing.T, cfg Config, h Handler) (*Dispatcher, *session.Store) {
	t.Helper()
	sessions := session.NewStore()
	d, err := New(cfg, h, sessions)
	require.NoError(t, err)
	d.Start(context.Background())
	t.Cleanup(d.Stop)
	return d, sessions
}

func drain(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.True(t, d.DrainUntil(ctx))
}

func TestPerSessionOrderIsPreserved(t *testing.T) {
	rec := newRecorder()
	d, sessions := start(t, Config{Shards: 4}, rec)

	const n = 30
	users := []string{"100", "200", "300"}
	for i := 0; i < n; i++ {
		for _, u := range users {
			require.NoError(t, d.Submit(Inbound{SessionID: u, Token: fmt.Sprintf("category|c%02d", i)}))
		}
	}
	drain(t, d)

	assert.False(t, rec.overlap.Load(), "events of one session must not overlap")
	for _, u := range users {
		want := make([]string, n)
		for i := range want {
			want[i] = fmt.Sprintf("c%02d", i)
		}
		assert.Equal(t, want, rec.seen[u], "user %s", u)
		snap, ok := sessions.Get(u)
		require.True(t, ok)
		assert.Equal(t, want[n-1], snap.CurrentCategory)
	}
	enq, handled := d.Metrics()
	assert.Equal(t, uint64(n*len(users)), enq)
	assert.Equal(t, enq, handled)
}

func TestSubmitRejectsMalformedTokens(t *testing.T) {
	var calls atomic.Int32
	d, _ := start(t, Config{}, HandlerFunc(func(context.Context, *session.Session, bot.Target, event.Event) error {
		calls.Add(1)
		return nil
	}))

	err := d.Submit(Inbound{SessionID: "1", Token: "brand|mice"})
	assert.ErrorIs(t, err, event.ErrMalformed)

	require.NoError(t, d.Submit(Inbound{SessionID: "1", Event: event.Event{Kind: event.Start}}))
	drain(t, d)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmitThrottlesFloods(t *testing.T) {
	d, _ := start(t, Config{RatePerSec: 1, Burst: 2}, HandlerFunc(func(context.Context, *session.Session, bot.Target, event.Event) error {
		return nil
	}))

	throttled := 0
	for i := 0; i < 20; i++ {
		if err := d.Submit(Inbound{SessionID: "flood", Token: "rec_skip"}); err != nil {
			require.ErrorIs(t, err, ErrThrottled)
			throttled++
		}
	}
	assert.GreaterOrEqual(t, throttled, 18)
}

func TestHandlerErrorsDoNotStopWorkers(t *testing.T) {
	var calls atomic.Int32
	d, _ := start(t, Config{Shards: 1}, HandlerFunc(func(context.Context, *session.Session, bot.Target, event.Event) error {
		calls.Add(1)
		return fmt.Errorf("presentation failed")
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Submit(Inbound{SessionID: "1", Token: "rec_skip"}))
	}
	drain(t, d)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClosedIntake(t *testing.T) {
	d, _ := start(t, Config{}, HandlerFunc(func(context.Context, *session.Session, bot.Target, event.Event) error {
		return nil
	}))
	d.CloseIntake()
	assert.ErrorIs(t, d.Submit(Inbound{SessionID: "1", Token: "rec_skip"}), ErrClosed)
}

func TestShardOfIsStable(t *testing.T) {
	d, err := New(Config{Shards: 8}, nil, session.NewStore())
	require.NoError(t, err)
	for _, id := range []string{"1", "42", "987654321"} {
		s := d.shardOf(id)
		assert.Equal(t, s, d.shardOf(id))
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 8)
	}
}
