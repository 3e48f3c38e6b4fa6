package tools

import (
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/usestring/docschema/internal/cache"
	"github.com/usestring/docschema/internal/config"
	"github.com/usestring/docschema/pkg/schema"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config      *config.Config
	Collections *cache.Registry

	// snapshots deduplicates concurrent snapshot computations per
	// collection version.
	snapshots singleflight.Group
}

// NewDeps builds the tool dependencies from cfg.
func NewDeps(cfg *config.Config) (*Deps, error) {
	reg, err := cache.NewRegistry(cfg.MaxCollections, cfg.ModelOptions()...)
	if err != nil {
		return nil, err
	}
	return &Deps{Config: cfg, Collections: reg}, nil
}

// Snapshot returns a snapshot of the named collection. Concurrent callers
// share one computation only while no update lands between their calls, so
// a snapshot always includes every ingest that completed before the call.
func (d *Deps) Snapshot(collection string) (*schema.Snapshot, error) {
	c, ok := d.Collections.Get(collection)
	if !ok {
		return nil, ErrNotFound("collection", collection)
	}
	key := fmt.Sprintf("%p@%d", c, c.Version())
	v, err, _ := d.snapshots.Do(key, func() (any, error) {
		return c.Snapshot()
	})
	if err != nil {
		return nil, WrapSchemaError(err)
	}
	return v.(*schema.Snapshot), nil
}
