// Package dispatch validates inbound selections and runs them on a fixed set
// of workers. Events are partitioned by session so one user's events run one
// at a time in arrival order while other users proceed in parallel.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"gearbot/internal/bot"
	"gearbot/internal/event"
	"gearbot/internal/obs"
	"gearbot/internal/session"

	"github.com/google/uuid"
	"github.com/yasserelgammal/rate-limiter/limiter"
	"github.com/yasserelgammal/rate-limiter/store"
)

var (
	// ErrThrottled is returned when a user exceeds the inbound rate.
	ErrThrottled = errors.New("too many events")
	// ErrClosed is returned once intake has been closed.
	ErrClosed = errors.New("dispatcher is not accepting events")
)

// Handler applies one event to a session held exclusively for the call.
type Handler interface {
	Handle(ctx context.Context, sess *session.Session, t bot.Target, ev event.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, sess *session.Session, t bot.Target, ev event.Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, sess *session.Session, t bot.Target, ev event.Event) error {
	return f(ctx, sess, t, ev)
}

// Inbound is one user action. Either Event is set (commands) or Token holds
// an encoded event still to be validated.
type Inbound struct {
	SessionID string
	Target    bot.Target
	Event     event.Event
	Token     string
}

// Config tunes the dispatcher.
type Config struct {
	Shards int
	// QueueSize is the buffer of each shard.
	QueueSize int
	// RatePerSec and Burst configure the per-session throttle; a zero rate
	// disables it.
	RatePerSec int
	Burst      int
}

type job struct {
	in    Inbound
	ev    event.Event
	trace string
	at    time.Time
}

// Dispatcher owns the shard workers.
type Dispatcher struct {
	cfg      Config
	handler  Handler
	sessions *session.Store
	limiter  *limiter.TokenBucket

	shards []chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	intake   sync.RWMutex
	closed   bool
	enqueued atomic.Uint64
	handled  atomic.Uint64
}

// New builds a dispatcher. Workers run after Start.
func New(cfg Config, h Handler, sessions *session.Store) (*Dispatcher, error) {
	if cfg.Shards < 1 {
		cfg.Shards = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 64
	}
	d := &Dispatcher{cfg: cfg, handler: h, sessions: sessions}
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = cfg.RatePerSec
		}
		tb, err := limiter.NewTokenBucket(limiter.Config{
			Rate:     int64(cfg.RatePerSec),
			Duration: time.Second,
			Burst:    int64(burst),
		}, store.NewMemoryStore(time.Minute))
		if err != nil {
			return nil, fmt.Errorf("create rate limiter: %w", err)
		}
		d.limiter = tb
	}
	d.shards = make([]chan job, cfg.Shards)
	for i := range d.shards {
		d.shards[i] = make(chan job, cfg.QueueSize)
	}
	return d, nil
}

// Start launches one worker per shard.
func (d *Dispatcher) Start(parent context.Context) {
	d.ctx, d.cancel = context.WithCancel(parent)
	for i, ch := range d.shards {
		d.wg.Add(1)
		go d.worker(i, ch)
	}
	obs.Logger.Info("dispatch_started", "shards", len(d.shards))
}

// Submit validates in and queues it on its session's shard. It blocks while
// the shard is full.
func (d *Dispatcher) Submit(in Inbound) error {
	ev := in.Event
	if ev.Kind == 0 {
		parsed, err := event.Parse(in.Token)
		if err != nil {
			obs.Logger.Warn("event_rejected", "session", in.SessionID, "token", in.Token, "error", err)
			return err
		}
		ev = parsed
	}
	if d.limiter != nil && !d.limiter.Allow(in.SessionID) {
		obs.Logger.Warn("event_throttled", "session", in.SessionID, "kind", ev.Kind.String())
		return ErrThrottled
	}

	d.intake.RLock()
	defer d.intake.RUnlock()
	if d.closed || d.ctx == nil {
		return ErrClosed
	}
	j := job{in: in, ev: ev, trace: uuid.NewString(), at: time.Now()}
	d.enqueued.Add(1)
	select {
	case d.shards[d.shardOf(in.SessionID)] <- j:
		return nil
	case <-d.ctx.Done():
		d.enqueued.Add(^uint64(0))
		return ErrClosed
	}
}

func (d *Dispatcher) shardOf(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % uint32(len(d.shards)))
}

func (d *Dispatcher) worker(shard int, ch <-chan job) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case j := <-ch:
			d.run(shard, j)
			d.handled.Add(1)
		}
	}
}

func (d *Dispatcher) run(shard int, j job) {
	log := obs.Logger.With("trace_id", j.trace, "session", j.in.SessionID, "kind", j.ev.Kind.String())
	err := d.sessions.Do(j.in.SessionID, func(s *session.Session) error {
		return d.handler.Handle(d.ctx, s, j.in.Target, j.ev)
	})
	if err != nil {
		log.Error("event_failed", "shard", shard, "error", err)
		return
	}
	log.Debug("event_handled", "shard", shard, "latency_ms", time.Since(j.at).Milliseconds())
}

// CloseIntake rejects future submissions.
func (d *Dispatcher) CloseIntake() {
	d.intake.Lock()
	d.closed = true
	d.intake.Unlock()
}

// DrainUntil blocks until every queued event has been handled or ctx is done.
func (d *Dispatcher) DrainUntil(ctx context.Context) bool {
	for {
		if d.handled.Load() >= d.enqueued.Load() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// Stop cancels in-flight work and waits for the workers to exit.
func (d *Dispatcher) Stop() {
	d.CloseIntake()
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

// Metrics reports counters for the admin surface.
func (d *Dispatcher) Metrics() (enqueued, handled uint64) {
	return d.enqueued.Load(), d.handled.Load()
}
