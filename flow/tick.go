package flow

import (
	"time"
)

// A Ticker drives a Context from a fixed-interval timer, one Step per
// interval. It substitutes for a host engine's frame scheduler; hosts with
// their own scheduler call Context.Step directly instead.
//
// Steps run on the Ticker's goroutine. A Step that overruns its interval
// simply delays the next one; ticks are never reentered.
type Ticker struct {
	ctx      *Context
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewTicker creates a Ticker that steps c every interval once started.
func NewTicker(c *Context, interval time.Duration) *Ticker {
	return &Ticker{
		ctx:      c,
		interval: interval,
	}
}

// Start begins ticking on a new goroutine.
func (t *Ticker) Start() {
	if t.stop != nil {
		t.ctx.logger.Panic("ticker is already started")
	}

	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	go t.run()
}

func (t *Ticker) run() {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if err := t.ctx.Step(); err != nil {
				t.ctx.logger.Printf("tick failed: %v", err)
			}
		}
	}
}

// Stop halts the Ticker and waits for the in-flight tick, if any, to
// finish.
func (t *Ticker) Stop() {
	if t.stop == nil {
		return
	}

	close(t.stop)
	<-t.done

	t.stop = nil
	t.done = nil
}
