package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// State is the lifecycle state of a collection subscription.
type State int32

// Collection states
const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateSubscribed
	StateRefreshing
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUnsubscribed:
		return "unsubscribed"
	case StateSubscribing:
		return "subscribing"
	case StateSubscribed:
		return "subscribed"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// FetchFunc loads the full current snapshot of a collection.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Collection keeps a live, company-scoped snapshot of one table: a
// full fetch on subscribe, then a refetch on every change notification
// from the hub, swapping the snapshot atomically.
//
// Concurrency is last-writer-wins by fetch epoch: every issued fetch
// takes the next epoch number, and a completion whose epoch is no
// longer the latest issued is discarded. Rapid changes v1 -> v2 -> v3
// therefore always settle on the snapshot of v3, regardless of how the
// fetch completions interleave.
//
// A failed refetch preserves the previous snapshot (stale-preserve):
// readers keep seeing last-good data until the next notification or
// manual refresh succeeds.
type Collection[T any] struct {
	table     string
	companyID string
	fetch     FetchFunc[T]
	hub       *Hub
	logger    *logger.Logger

	epoch atomic.Uint64 // latest issued fetch epoch

	mu         sync.RWMutex
	state      State
	refreshing int // change-triggered refetches in flight
	items      []T
	cancel     func()
	stopped    chan struct{}
}

// NewCollection creates an unsubscribed collection
func NewCollection[T any](companyID, table string, fetch FetchFunc[T], hub *Hub, log *logger.Logger) *Collection[T] {
	return &Collection[T]{
		table:     table,
		companyID: companyID,
		fetch:     fetch,
		hub:       hub,
		logger:    log,
		state:     StateUnsubscribed,
	}
}

// Subscribe opens the change subscription and loads the initial
// snapshot. Idempotent: a subscribed collection stays subscribed.
func (c *Collection[T]) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUnsubscribed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateSubscribing
	c.stopped = make(chan struct{})
	stopped := c.stopped
	c.mu.Unlock()

	// Register with the hub before the initial fetch so a change
	// arriving mid-fetch still triggers a refetch.
	ch, cancel := c.hub.Subscribe(c.companyID, c.table)

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	if err := c.refetch(ctx); err != nil {
		// Initial load failed: stay subscribed with an empty snapshot;
		// the next notification retries.
		c.logger.Error().Err(err).
			Str("table", c.table).
			Str("company_id", c.companyID).
			Msg("initial collection fetch failed")
	}

	c.mu.Lock()
	c.state = StateSubscribed
	c.mu.Unlock()

	go c.run(ctx, ch, stopped)
	return nil
}

// run consumes change notifications until unsubscribe
func (c *Collection[T]) run(ctx context.Context, ch <-chan Notification, stopped chan struct{}) {
	for {
		select {
		case <-stopped:
			return
		case <-ctx.Done():
			c.Unsubscribe()
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			c.markRefreshing()
			// Each notification gets its own fetch; the epoch guard
			// resolves interleaved completions.
			go func() {
				if err := c.refetch(ctx); err != nil {
					c.logger.Warn().Err(err).
						Str("table", c.table).
						Str("company_id", c.companyID).
						Msg("collection refetch failed, keeping stale snapshot")
				}
				c.clearRefreshing()
			}()
		}
	}
}

func (c *Collection[T]) markRefreshing() {
	c.mu.Lock()
	c.refreshing++
	if c.state == StateSubscribed {
		c.state = StateRefreshing
	}
	c.mu.Unlock()
}

// clearRefreshing retires one in-flight fetch. With overlapping
// refetches the refreshing flag drops only when the last one lands,
// so IsUpdating transitions strictly false -> true -> false.
func (c *Collection[T]) clearRefreshing() {
	c.mu.Lock()
	if c.refreshing > 0 {
		c.refreshing--
	}
	if c.refreshing == 0 && c.state == StateRefreshing {
		c.state = StateSubscribed
	}
	c.mu.Unlock()
}

// refetch loads a snapshot under a fresh epoch and applies it only if
// no newer fetch was issued meanwhile.
func (c *Collection[T]) refetch(ctx context.Context) error {
	epoch := c.epoch.Add(1)

	items, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch.Load() {
		// A newer fetch is in flight or already applied; this result
		// is stale. Discard it.
		return nil
	}
	c.items = items
	return nil
}

// Refresh forces a refetch outside the notification path
func (c *Collection[T]) Refresh(ctx context.Context) error {
	return c.refetch(ctx)
}

// Unsubscribe tears the subscription down. Idempotent.
func (c *Collection[T]) Unsubscribe() {
	c.mu.Lock()
	if c.state == StateUnsubscribed {
		c.mu.Unlock()
		return
	}
	c.state = StateUnsubscribed
	c.refreshing = 0
	cancel := c.cancel
	c.cancel = nil
	if c.stopped != nil {
		close(c.stopped)
		c.stopped = nil
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Snapshot returns a copy of the current items
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the size of the current snapshot
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// State returns the current subscription state
func (c *Collection[T]) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsUpdating reports whether any change-triggered refetch is in flight
func (c *Collection[T]) IsUpdating() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshing > 0
}
