package mcpsrv

import (
	"github.com/usestring/docschema/internal/cache"
	"github.com/usestring/docschema/internal/config"
	"github.com/usestring/docschema/internal/mcp/tools"
	"github.com/usestring/docschema/pkg/schema"
)

// Deps contains all dependencies available to custom tools.
// Custom tools see the same collections as the builtin tools.
type Deps struct {
	Config      *config.Config
	Collections *cache.Registry

	tools *tools.Deps
}

// Snapshot returns a snapshot of the named collection. Errors are coded the
// same way builtin tool errors are.
func (d *Deps) Snapshot(collection string) (*schema.Snapshot, error) {
	return d.tools.Snapshot(collection)
}
