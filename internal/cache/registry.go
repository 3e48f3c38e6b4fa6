// Package cache keeps the named schema models served by the MCP server.
package cache

import (
	"log/slog"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/docschema/pkg/schema"
)

// Collection is a named model. All access goes through the collection so
// concurrent tool calls never race on the model.
type Collection struct {
	name    string
	mu      sync.Mutex
	model   *schema.Model
	version uint64
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Update runs fn with exclusive access to the model.
func (c *Collection) Update(fn func(m *schema.Model) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	return fn(c.model)
}

// Version returns a counter that grows with every Update. A snapshot taken
// after Version returned v reflects at least every update up to v.
func (c *Collection) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Snapshot returns a snapshot of the model.
func (c *Collection) Snapshot() (*schema.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Snapshot()
}

// Stats returns the document and field counts of the model.
func (c *Collection) Stats() (documents int64, fields int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.DocumentCount(), c.model.FieldCount()
}

// Registry is a bounded set of collections. When full, the least recently
// used collection is evicted.
type Registry struct {
	mu        sync.Mutex
	cache     *lru.Cache[string, *Collection]
	capacity  int
	opts      []schema.Option
	dropping  string
	evictions int
}

// NewRegistry creates a registry holding at most maxCollections models built
// with opts.
func NewRegistry(maxCollections int, opts ...schema.Option) (*Registry, error) {
	r := &Registry{capacity: maxCollections, opts: opts}
	c, err := lru.NewWithEvict[string, *Collection](maxCollections, r.onEvict)
	if err != nil {
		return nil, err
	}
	r.cache = c
	return r, nil
}

// onEvict runs under the lru lock, from calls made while r.mu is held.
func (r *Registry) onEvict(name string, c *Collection) {
	if name == r.dropping {
		return
	}
	r.evictions++
	docs, fields := c.Stats()
	slog.Warn("collection evicted",
		slog.String("collection", name),
		slog.Int64("documents", docs),
		slog.Int("fields", fields),
		slog.Int("capacity", r.capacity),
	)
}

// GetOrCreate returns the named collection, creating an empty one if needed.
// created reports whether the collection is new.
func (r *Registry) GetOrCreate(name string) (c *Collection, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache.Get(name); ok {
		return c, false
	}
	c = &Collection{name: name, model: schema.New(r.opts...)}
	r.cache.Add(name, c)
	return c, true
}

// Get returns the named collection and marks it recently used.
func (r *Registry) Get(name string) (*Collection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Get(name)
}

// Remove drops the named collection. It reports whether it existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dropping = name
	defer func() { r.dropping = "" }()
	return r.cache.Remove(name)
}

// Collections returns the collections sorted by name, without touching
// their recency.
func (r *Registry) Collections() []*Collection {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := r.cache.Keys()
	sort.Strings(names)
	out := make([]*Collection, 0, len(names))
	for _, name := range names {
		if c, ok := r.cache.Peek(name); ok {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of collections.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Cap returns the maximum number of collections.
func (r *Registry) Cap() int { return r.capacity }

// Evictions returns how many collections were evicted for capacity.
func (r *Registry) Evictions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictions
}
