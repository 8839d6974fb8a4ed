package exam

import (
	"sync"
	"time"
)

// Countdown is the per-session timer resource. It is owned one-to-one by a
// Session: started when the session enters the question loop and stopped on
// every path that leaves it, so a stale tick can never fire into a session
// that has already moved on.
type Countdown struct {
	interval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool
}

func newCountdown(interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// start launches the tick loop in its own goroutine. onTick is invoked once
// per interval; when it returns false the loop exits. start is a no-op on a
// stopped countdown.
func (c *Countdown) start(onTick func() bool) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	stopCh := c.stopCh
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				// Re-check stop before delivering: a stop racing the
				// ticker must win, otherwise a terminated session could
				// receive one extra tick.
				select {
				case <-stopCh:
					return
				default:
				}
				if !onTick() {
					return
				}
			}
		}
	}()
}

// stop halts the tick loop. Idempotent and safe to call from any goroutine.
func (c *Countdown) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped {
		c.stopped = true
		close(c.stopCh)
	}
}
