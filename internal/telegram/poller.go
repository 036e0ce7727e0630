package telegram

import (
	"context"
	"errors"
	"time"

	"gearbot/internal/obs"
)

// Poller long-polls getUpdates and hands every update to an Intake.
type Poller struct {
	client  *Client
	intake  *Intake
	timeout time.Duration
	backoff time.Duration
	offset  int64
}

// NewPoller builds a poller with the given long-poll timeout.
func NewPoller(c *Client, in *Intake, timeout time.Duration) *Poller {
	return &Poller{client: c, intake: in, timeout: timeout, backoff: time.Second}
}

// Run polls until ctx is cancelled. Failed polls are retried after a pause.
func (p *Poller) Run(ctx context.Context) {
	obs.Logger.Info("poller_started", "timeout_s", int(p.timeout/time.Second))
	for {
		if ctx.Err() != nil {
			obs.Logger.Info("poller_stopped", "offset", p.offset)
			return
		}
		updates, err := p.client.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			wait := retryDelay(err, p.backoff)
			obs.Logger.Warn("poll_failed", "error", err, "retry_in_ms", wait.Milliseconds())
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			p.intake.Process(ctx, u)
		}
	}
}

// retryDelay honours a flood-control retry_after hint when it exceeds base.
func retryDelay(err error, base time.Duration) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		if hint := time.Duration(apiErr.RetryAfter) * time.Second; hint > base {
			return hint
		}
	}
	return base
}

// Offset returns the next update id the poller will ask for.
func (p *Poller) Offset() int64 { return p.offset }
