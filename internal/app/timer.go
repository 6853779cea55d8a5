package app

import (
	"context"
	"time"
)

// Ticker is the part of time.Ticker the countdown depends on.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) Chan() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()                  { s.t.Stop() }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// countdown is the cancellable one-second task owned by a session.
// Every tick carries the generation it was started with; the session
// discards ticks whose generation is no longer current.
type countdown struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func startCountdown(newTicker TickerFactory, gen uint64, tick func(gen uint64)) *countdown {
	ctx, cancel := context.WithCancel(context.Background())
	t := newTicker(time.Second)
	c := &countdown{gen: gen, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(c.done)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.Chan():
				if ctx.Err() != nil {
					return
				}
				tick(gen)
			}
		}
	}()
	return c
}

// stop cancels the task. It never blocks: the goroutine may be waiting on the
// session lock held by the caller, and the generation check covers that tick.
func (c *countdown) stop() {
	if c == nil {
		return
	}
	c.cancel()
}
