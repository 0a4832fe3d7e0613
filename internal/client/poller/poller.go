// Package poller runs a function on a fixed period while a consumer holds
// it. Release stops the ticker and waits for the goroutine to exit, so no
// tick runs after it returns.
package poller

import (
	"context"
	"sync"
	"time"
)

type Poller struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped Poller. fn must not call Release.
func New(interval time.Duration, fn func(ctx context.Context)) *Poller {
	return &Poller{interval: interval, fn: fn}
}

// Acquire starts polling: fn runs once right away and then on every tick
// until Release is called or ctx is done. Acquiring a running Poller is a
// no-op.
func (p *Poller) Acquire(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	go func() {
		defer close(done)
		defer p.stopped(done)
		t := time.NewTicker(p.interval)
		defer t.Stop()

		p.fn(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if ctx.Err() != nil {
					return
				}
				p.fn(ctx)
			}
		}
	}()
}

// stopped resets the Poller once the loop owning done has returned, so a
// Poller whose context ended can be acquired again.
func (p *Poller) stopped(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != done {
		return
	}
	p.cancel()
	p.cancel, p.done = nil, nil
}

// Release stops polling and blocks until the goroutine has exited.
// Releasing a stopped Poller is a no-op.
func (p *Poller) Release() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}
