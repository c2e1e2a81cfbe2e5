// Package cache memoises DVA runs keyed by their exact inputs.
//
// The pipeline is deterministic, so two requests with bit-identical samples
// and parameters always produce the same Result. Cache keeps the most
// recently used results in memory and can fall through to a Store for runs
// evicted or computed by another process.
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/racetime/internal/dva"
	"github.com/banshee-data/racetime/internal/monitoring"
)

// ErrNotFound is returned by a Store that holds no run for a key.
var ErrNotFound = errors.New("run not found")

// Key identifies a run by the SHA-256 of its inputs.
type Key [sha256.Size]byte

// String returns the key as lowercase hex.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyFor hashes the IEEE-754 bits of every parameter and sample field, so
// 0 and -0 or two NaN payloads produce distinct keys.
func KeyFor(series []dva.Sample, p dva.Params) Key {
	h := sha256.New()
	var buf [8]byte
	put := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	put(p.VehicleMass)
	put(p.FrictionCoefficient)
	binary.LittleEndian.PutUint64(buf[:], uint64(len(series)))
	h.Write(buf[:])
	for _, s := range series {
		put(s.Time)
		put(s.Force)
		put(s.CO2Mass)
		put(s.Drag)
	}
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Store persists finished runs.
type Store interface {
	// Get returns the run id and result for key, or ErrNotFound.
	Get(ctx context.Context, key Key) (string, *dva.Result, error)
	// Put records a run and returns its id.
	Put(ctx context.Context, key Key, p dva.Params, res *dva.Result) (string, error)
}

// Run is a computed or recalled result.
type Run struct {
	ID     string
	Key    Key
	Result *dva.Result
	Cached bool
}

// Stats counts cache activity.
type Stats struct {
	Hits      uint64 `json:"hits"`
	StoreHits uint64 `json:"store_hits"`
	Misses    uint64 `json:"misses"`
	Entries   int    `json:"entries"`
}

type entry struct {
	key   Key
	runID string
	res   *dva.Result
}

// Cache is a size-bounded LRU of results. It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[Key]*list.Element
	store    Store
	stats    Stats
}

// New returns a cache holding up to capacity results in memory. A capacity
// of zero disables the memory tier; store may be nil.
func New(capacity int, store Store) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element),
		store:    store,
	}
}

// Compute returns the result for series and p, running the pipeline only on
// a miss. Pipeline errors are returned unchanged and never cached. Returned
// results are copies and may be modified by the caller.
func (c *Cache) Compute(ctx context.Context, series []dva.Sample, p dva.Params) (*Run, error) {
	key := KeyFor(series, p)

	if run, ok := c.lookup(key); ok {
		return run, nil
	}

	if c.store != nil {
		id, res, err := c.store.Get(ctx, key)
		switch {
		case err == nil:
			c.mu.Lock()
			c.stats.StoreHits++
			c.mu.Unlock()
			c.add(key, id, res)
			return &Run{ID: id, Key: key, Result: res.Clone(), Cached: true}, nil
		case !errors.Is(err, ErrNotFound):
			monitoring.Logger().WithComponent("cache").WithError(err).Warn("store lookup failed, recomputing")
		}
	}

	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()

	res, err := dva.Run(series, p)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if c.store != nil {
		storedID, err := c.store.Put(ctx, key, p, res)
		if err != nil {
			monitoring.Logger().WithComponent("cache").WithError(err).Warn("failed to persist run")
		} else {
			id = storedID
		}
	}

	c.add(key, id, res)
	return &Run{ID: id, Key: key, Result: res.Clone()}, nil
}

func (c *Cache) lookup(key Key) (*Run, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	c.stats.Hits++
	e := el.Value.(*entry)
	return &Run{ID: e.runID, Key: key, Result: e.res.Clone(), Cached: true}, true
}

func (c *Cache) add(key Key, runID string, res *dva.Result) {
	if c.capacity == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, runID: runID, res: res.Clone()})
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}
}

// Len returns the number of results held in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.ll.Len()
	return s
}
