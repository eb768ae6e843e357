// Package delegate turns one catalog table definition into a live table.
//
// A Delegate is the long-lived owner of the table it compiled. Other
// components get non-owning *tables.PersistentTable references from it and
// must not keep them past Teardown.
package delegate

import (
	"coldstore/pkg/catalog"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/logging"
	"coldstore/pkg/registry"
	"coldstore/pkg/tables"
)

// Delegate compiles a catalog table and owns the resulting table object.
// It is not safe for concurrent use; the engine serializes catalog applies
// per partition.
type Delegate struct {
	factory tables.Factory

	handle     *tables.Handle
	descriptor *tables.Descriptor
}

// New creates a delegate that builds tables with factory.
func New(factory tables.Factory) *Delegate {
	return &Delegate{factory: factory}
}

// Init compiles table and installs the result. When the delegate already owns
// a table, that table is released only after the new one was built; a failed
// Init leaves the previous table in place.
func (d *Delegate) Init(ec *registry.ExecutorContext, db *catalog.Database, table *catalog.Table) error {
	if table == nil {
		return dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidDefinition, "table definition is nil").
			At("Init", component)
	}
	log := logging.WithTable(table.Name)
	log.Info().
		Int32("partition", int32(ec.PartitionID())).
		Bool("evictable", table.Evictable).
		Msg("initializing table")

	res, err := Build(ec, d.factory, db, table)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize table")
		return err
	}

	previous := d.handle
	d.handle = res.Handle
	d.descriptor = res.Descriptor

	if previous != nil {
		if err := previous.Release(); err != nil {
			log.Warn().Err(err).Msg("releasing replaced table")
		}
	}

	log.Debug().
		Str("table_id", res.Handle.Table().ID()).
		Int("columns", res.Descriptor.Schema.ColumnCount()).
		Int("indexes", len(res.Descriptor.Indexes)).
		Bool("primary_key", res.Descriptor.HasPrimaryKey()).
		Msg("table initialized")
	return nil
}

// Table returns the owned table, or nil before Init and after Teardown.
func (d *Delegate) Table() *tables.PersistentTable {
	if d.handle == nil {
		return nil
	}
	return d.handle.Table()
}

// Descriptor returns the descriptor of the current table.
func (d *Delegate) Descriptor() *tables.Descriptor {
	return d.descriptor
}

// ExportEnabled reports whether the current table is streamed to an export connector.
func (d *Delegate) ExportEnabled() bool {
	return d.descriptor != nil && d.descriptor.ExportEnabled
}

// Teardown releases the owned table. It is a no-op when nothing is owned.
func (d *Delegate) Teardown() error {
	if d.handle == nil {
		return nil
	}
	h := d.handle
	d.handle = nil
	d.descriptor = nil
	return h.Release()
}
