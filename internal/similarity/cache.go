// Package similarity suppresses near-duplicate listings that reappear under
// a new identity (reposts, price edits) within a retention window.
package similarity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultRetention is how long a title/address pair is remembered.
const DefaultRetention = time.Hour

// Timer is the subset of *time.Timer the cache needs.
type Timer interface {
	Stop() bool
}

// TimerFunc schedules f to run after d.
type TimerFunc func(d time.Duration, f func()) Timer

// Cache is a retention-bounded set of listing fingerprints. A single timer
// is kept pending for the earliest expiry.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	retention time.Duration
	now       func() time.Time
	afterFunc TimerFunc
	log       *slog.Logger

	running bool
	timer   Timer
	timerAt time.Time
	gen     uint64
}

// Option configures the Cache.
type Option func(*Cache)

// WithRetention sets how long entries live.
func WithRetention(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.retention = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithTimerFunc overrides how the purge timer is scheduled.
func WithTimerFunc(f TimerFunc) Option {
	return func(c *Cache) {
		c.afterFunc = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.log = l
	}
}

// New creates an empty cache. The purge timer is only armed between Start
// and Stop; lookups honor expiry regardless.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:   make(map[string]time.Time),
		retention: DefaultRetention,
		now:       time.Now,
		afterFunc: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key fingerprints a title/address pair. Empty parts are left out of the
// digest, so a missing address and an empty one produce the same key. Each
// part is length-prefixed so no title can spell out another pair.
func Key(title, address string) string {
	h := sha256.New()
	if title != "" {
		fmt.Fprintf(h, "title:%d:%s", len(title), title)
	}
	if address != "" {
		fmt.Fprintf(h, "address:%d:%s", len(address), address)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Add records the pair, refreshing its expiry if already present.
func (c *Cache) Add(title, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[Key(title, address)] = c.now().Add(c.retention)
	c.reschedule()
}

// Check reports whether the pair was added within the retention window.
// An expired entry found here is removed.
func (c *Cache) Check(title, address string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(title, address)
	expiry, ok := c.entries[key]
	if !ok {
		return false
	}
	if expiry.After(c.now()) {
		return true
	}

	delete(c.entries, key)
	c.reschedule()
	return false
}

// Claim records the pair unless it is already live and reports whether it
// did. Check and Add in one step, so concurrent callers claim a pair once.
func (c *Cache) Claim(title, address string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(title, address)
	now := c.now()
	if expiry, ok := c.entries[key]; ok && expiry.After(now) {
		return false
	}
	c.entries[key] = now.Add(c.retention)
	c.reschedule()
	return true
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.reschedule()
}

// Start arms the purge timer.
func (c *Cache) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = true
	c.reschedule()
}

// Stop cancels the purge timer. Entries are kept.
func (c *Cache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = false
	c.cancelTimer()
}

// reschedule keeps exactly one timer pending for the earliest expiry.
// Callers hold c.mu.
func (c *Cache) reschedule() {
	if !c.running || len(c.entries) == 0 {
		c.cancelTimer()
		return
	}

	var earliest time.Time
	for _, exp := range c.entries {
		if earliest.IsZero() || exp.Before(earliest) {
			earliest = exp
		}
	}

	if c.timer != nil && c.timerAt.Equal(earliest) {
		return
	}
	c.cancelTimer()

	d := max(earliest.Sub(c.now()), 0)
	c.gen++
	gen := c.gen
	c.timerAt = earliest
	c.timer = c.afterFunc(d, func() { c.fire(gen) })
}

func (c *Cache) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerAt = time.Time{}
	c.gen++
}

func (c *Cache) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	c.timer = nil
	c.timerAt = time.Time{}

	now := c.now()
	purged := 0
	for k, exp := range c.entries {
		if !exp.After(now) {
			delete(c.entries, k)
			purged++
		}
	}
	if purged > 0 {
		c.log.Debug("purged expired similarity entries", "count", purged)
	}
	c.reschedule()
}
