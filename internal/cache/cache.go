// Package cache provides the process-wide store of live trading state. It is
// the single source of truth for rendering: the feed connector and the
// mutation coordinator both write here, and every consumer reads from here.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/boomslang777/ram2/internal/logging"
	"github.com/boomslang777/ram2/internal/models"
)

// Key identifies a cached entity.
type Key string

const (
	KeyPositions      Key = "positions"
	KeyOrders         Key = "orders"
	KeyPnL            Key = "pnl"
	KeyReferencePrice Key = "referencePrice"
	KeySettings       Key = "settings"
)

// Refresher is the pull path for one key: it fetches the authoritative value
// and writes it back through the cache setter.
type Refresher func(ctx context.Context) error

// Subscriber is notified synchronously after a key's value is replaced.
type Subscriber func(Key)

// Cache holds the latest known trading state. The cache itself performs no
// I/O; a set is the only path that triggers subscriber notification, and an
// invalidation hands refresh work to the registered pull path.
type Cache struct {
	mu         sync.RWMutex
	positions  []models.Position
	hasPos     bool
	orders     []models.Order
	hasOrders  bool
	pnl        models.PnL
	hasPnL     bool
	refPrice   float64
	hasRef     bool
	settings   models.Settings
	hasSet     bool
	stale      map[Key]bool
	refreshers map[Key]Refresher

	subMu  sync.Mutex
	subs   []subscription
	nextID int

	refreshTimeout time.Duration
	log            zerolog.Logger
}

// subscription ties a subscriber to its registration id so notification
// order follows registration order.
type subscription struct {
	id int
	fn Subscriber
}

// New creates an empty cache.
func New(log zerolog.Logger) *Cache {
	return &Cache{
		stale:          make(map[Key]bool),
		refreshers:     make(map[Key]Refresher),
		refreshTimeout: 10 * time.Second,
		log:            logging.WithComponent(log, "cache"),
	}
}

// Subscribe registers a subscriber and returns its unsubscribe func.
// Subscribers are invoked synchronously from the goroutine performing the set,
// after the value is committed, in registration order.
func (c *Cache) Subscribe(fn Subscriber) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
		c.subMu.Unlock()
	}
}

func (c *Cache) notify(key Key) {
	c.subMu.Lock()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()
	for _, s := range subs {
		s.fn(key)
	}
}

// RegisterRefresher installs the pull path for a key. Invalidate uses it to
// fetch a fresh authoritative value.
func (c *Cache) RegisterRefresher(key Key, fn Refresher) {
	c.mu.Lock()
	c.refreshers[key] = fn
	c.mu.Unlock()
}

// Invalidate marks a key stale and triggers its refresher out of band. The
// cached value stays visible until the refresh replaces it; a refresh failure
// is logged and leaves the key stale for the next invalidation.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	c.stale[key] = true
	fn := c.refreshers[key]
	c.mu.Unlock()

	if fn == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			c.log.Warn().Err(err).Str("key", string(key)).Msg("cache refresh failed")
		}
	}()
}

// IsStale reports whether a key has been invalidated since its last set.
func (c *Cache) IsStale(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale[key]
}

// Positions returns the latest known positions.
func (c *Cache) Positions() ([]models.Position, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.positions, c.hasPos
}

// PositionByConID resolves a position from the cache by contract id. Dialogs
// re-resolve through this instead of holding live references.
func (c *Cache) PositionByConID(conID int) (models.Position, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.positions {
		if p.Contract.ConID == conID {
			return p, true
		}
	}
	return models.Position{}, false
}

// Orders returns the latest known orders.
func (c *Cache) Orders() ([]models.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orders, c.hasOrders
}

// PnL returns the latest P&L snapshot.
func (c *Cache) PnL() (models.PnL, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pnl, c.hasPnL
}

// ReferencePrice returns the latest underlying price.
func (c *Cache) ReferencePrice() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refPrice, c.hasRef
}

// Settings returns the latest settings record.
func (c *Cache) Settings() (models.Settings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings, c.hasSet
}

// SetPositions replaces the cached positions and notifies subscribers.
func (c *Cache) SetPositions(positions []models.Position) {
	c.mu.Lock()
	c.positions = positions
	c.hasPos = true
	delete(c.stale, KeyPositions)
	c.mu.Unlock()
	c.notify(KeyPositions)
}

// SetOrders replaces the cached orders and notifies subscribers.
func (c *Cache) SetOrders(orders []models.Order) {
	c.mu.Lock()
	c.orders = orders
	c.hasOrders = true
	delete(c.stale, KeyOrders)
	c.mu.Unlock()
	c.notify(KeyOrders)
}

// SetPnL replaces the cached P&L snapshot and notifies subscribers.
func (c *Cache) SetPnL(pnl models.PnL) {
	c.mu.Lock()
	c.pnl = pnl
	c.hasPnL = true
	delete(c.stale, KeyPnL)
	c.mu.Unlock()
	c.notify(KeyPnL)
}

// SetReferencePrice replaces the cached underlying price and notifies
// subscribers.
func (c *Cache) SetReferencePrice(price float64) {
	c.mu.Lock()
	c.refPrice = price
	c.hasRef = true
	delete(c.stale, KeyReferencePrice)
	c.mu.Unlock()
	c.notify(KeyReferencePrice)
}

// SetSettings replaces the cached settings record and notifies subscribers.
func (c *Cache) SetSettings(s models.Settings) {
	c.mu.Lock()
	c.settings = s
	c.hasSet = true
	delete(c.stale, KeySettings)
	c.mu.Unlock()
	c.notify(KeySettings)
}

// ApplyUpdate merges a pushed payload into the cache by presence: only fields
// carried by the payload replace cached values, and the P&L section merges
// field by field. Applying the same payload twice leaves the cache unchanged
// after the first application.
func (c *Cache) ApplyUpdate(data models.FeedData) {
	if data.Positions != nil {
		c.SetPositions(data.Positions)
	}
	if data.Orders != nil {
		c.SetOrders(data.Orders)
	}
	if data.PnL != nil {
		prev, _ := c.PnL()
		c.SetPnL(data.PnL.Merge(prev))
	}
	if data.SpyPrice != nil {
		c.SetReferencePrice(*data.SpyPrice)
	}
}
