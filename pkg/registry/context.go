package registry

import (
	"coldstore/pkg/anticache"
	"coldstore/pkg/primitives"
)

// ExecutorContext describes the execution context a catalog is applied in:
// which site and partition own the tuple data, which database is being
// compiled, and the engine-wide anti-cache switches. It is read-only to the
// table compiler.
type ExecutorContext struct {
	siteID      primitives.SiteID
	partitionID primitives.PartitionID
	databaseID  primitives.DatabaseID

	antiCacheEnabled bool
	layout           anticache.LayoutMode
}

// Option configures an ExecutorContext.
type Option func(*ExecutorContext)

// WithAntiCache enables the anti-cache with the given directory layout.
func WithAntiCache(layout anticache.LayoutMode) Option {
	return func(ec *ExecutorContext) {
		ec.antiCacheEnabled = true
		ec.layout = layout
	}
}

// NewExecutorContext creates a context for one partition. The anti-cache is
// disabled unless WithAntiCache is passed.
func NewExecutorContext(
	siteID primitives.SiteID,
	partitionID primitives.PartitionID,
	databaseID primitives.DatabaseID,
	opts ...Option,
) *ExecutorContext {
	ec := &ExecutorContext{
		siteID:      siteID,
		partitionID: partitionID,
		databaseID:  databaseID,
		layout:      anticache.LayoutTuple,
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

func (ec *ExecutorContext) SiteID() primitives.SiteID {
	return ec.siteID
}

func (ec *ExecutorContext) PartitionID() primitives.PartitionID {
	return ec.partitionID
}

func (ec *ExecutorContext) DatabaseID() primitives.DatabaseID {
	return ec.databaseID
}

func (ec *ExecutorContext) AntiCacheEnabled() bool {
	return ec.antiCacheEnabled
}

// EvictionLayout is meaningful only when AntiCacheEnabled is true.
func (ec *ExecutorContext) EvictionLayout() anticache.LayoutMode {
	return ec.layout
}
