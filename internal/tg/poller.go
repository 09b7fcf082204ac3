package tg

import (
	"context"
	"errors"
	"time"

	"kinotut-bot/pkg/logger"
)

// UpdateSource is the part of Client the poller needs.
type UpdateSource interface {
	GetUpdates(ctx context.Context, req GetUpdatesRequest) ([]Update, error)
}

// Poller long-polls getUpdates and hands updates to Handle one at a time.
type Poller struct {
	Source  UpdateSource
	Handle  func(ctx context.Context, upd Update)
	Log     *logger.Logger
	Timeout int
	Backoff time.Duration
}

var AllowedUpdates = []string{"message", "callback_query"}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		updates, err := p.Source.GetUpdates(ctx, GetUpdatesRequest{Offset: offset, Timeout: timeout, AllowedUpdates: AllowedUpdates})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			p.Log.Warnw("polling error", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}
		if len(updates) > 0 {
			p.Log.Debugw("polling received updates", "count", len(updates))
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			p.Handle(ctx, upd)
		}
	}
}
