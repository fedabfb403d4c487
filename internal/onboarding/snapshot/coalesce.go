package snapshot

import (
	"context"
	"sync"
	"time"

	"onboarding-orchestrator/internal/common/logger"
)

// Coalescer debounces saves: rapid successive saves for one session collapse
// into a single write of the latest snapshot. One goroutine does the writing.
type Coalescer struct {
	next   Persister
	delay  time.Duration
	logger logger.Logger

	mu      sync.Mutex
	pending map[string]*Snapshot

	// writeMu orders background writes against Clear so a cleared session
	// is never rewritten by a write that was already queued.
	writeMu sync.Mutex

	dirty  chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

func NewCoalescer(next Persister, delay time.Duration, log logger.Logger) *Coalescer {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coalescer{
		next:    next,
		delay:   delay,
		logger:  log,
		pending: map[string]*Snapshot{},
		dirty:   make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go c.run(ctx)
	return c
}

// Save queues snap as the latest state for sessionID. It never fails.
func (c *Coalescer) Save(_ context.Context, sessionID string, snap *Snapshot) error {
	c.mu.Lock()
	c.pending[sessionID] = snap
	c.mu.Unlock()

	select {
	case c.dirty <- struct{}{}:
	default:
	}
	return nil
}

// Load prefers a queued snapshot over the stored one.
func (c *Coalescer) Load(ctx context.Context, sessionID string) *Snapshot {
	c.mu.Lock()
	snap, ok := c.pending[sessionID]
	c.mu.Unlock()
	if ok {
		return snap
	}
	return c.next.Load(ctx, sessionID)
}

// Clear drops any queued write and clears the stored snapshot.
func (c *Coalescer) Clear(ctx context.Context, sessionID string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	delete(c.pending, sessionID)
	c.mu.Unlock()

	return c.next.Clear(ctx, sessionID)
}

// Flush writes every queued snapshot now and returns the first error.
func (c *Coalescer) Flush(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	batch := c.pending
	c.pending = map[string]*Snapshot{}
	c.mu.Unlock()

	var firstErr error
	for sessionID, snap := range batch {
		if err := c.next.Save(ctx, sessionID, snap); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Coalescer) run(ctx context.Context) {
	defer close(c.done)

	timer := time.NewTimer(c.delay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			c.flushOnExit()
			return
		case <-c.dirty:
			timer.Reset(c.delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				c.flushOnExit()
				return
			}
			_ = c.Flush(context.Background())
		}
	}
}

func (c *Coalescer) flushOnExit() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		c.logger.Warn("final snapshot flush failed", map[string]interface{}{"error": err})
	}
}

// Close stops the writer after flushing queued snapshots.
func (c *Coalescer) Close() error {
	c.cancel()
	<-c.done
	return nil
}
