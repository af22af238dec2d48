package usecase

import (
	"context"
	"sync"
	"time"
)

// Ticker is the part of time.Ticker the clock depends on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a periodic ticker.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// SessionClock drives elapsed-time ticks and rotation boundaries with two
// independent timers.
type SessionClock struct {
	tickInterval     time.Duration
	rotationInterval time.Duration
	newTicker        TickerFactory

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSessionClock(tickInterval, rotationInterval time.Duration, factory TickerFactory) *SessionClock {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	if rotationInterval <= 0 {
		rotationInterval = defaultTicksPerSegment * tickInterval
	}
	if factory == nil {
		factory = NewRealTicker
	}
	return &SessionClock{
		tickInterval:     tickInterval,
		rotationInterval: rotationInterval,
		newTicker:        factory,
	}
}

// Start begins ticking. A running clock is stopped first. Both callbacks
// receive a context that is cancelled when the clock stops.
func (c *SessionClock) Start(onSecond func(ctx context.Context), onRotation func(ctx context.Context)) {
	c.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.run(ctx, c.newTicker(c.tickInterval), onSecond)
	c.run(ctx, c.newTicker(c.rotationInterval), onRotation)
}

func (c *SessionClock) run(ctx context.Context, ticker Ticker, fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				// Stop may have raced the tick.
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()
}

// Stop cancels both timers and waits for a callback that is already running.
// It is safe to call on a stopped clock.
func (c *SessionClock) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// Running reports whether the clock is ticking.
func (c *SessionClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}
