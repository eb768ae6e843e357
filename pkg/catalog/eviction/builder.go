// Package eviction derives the eviction directory of an evictable table and
// attaches it to the table object.
//
// Check runs before the table factory is called and decides whether the
// table gets a directory at all. Attach runs after, builds the directory
// through the same factory and hands it to the table, which owns it from then
// on. The directory layout is picked once per compile from the execution
// context.
package eviction

import (
	"coldstore/pkg/anticache"
	"coldstore/pkg/catalog"
	"coldstore/pkg/catalog/schema"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/logging"
	"coldstore/pkg/registry"
	"coldstore/pkg/tables"
	"coldstore/pkg/tuple"
)

const component = "EvictionSchemaBuilder"

// Check reports whether table gets an eviction directory in ec. In vertical
// layout it also validates the evict column positions, so Attach only fails
// on a table object that contradicts its own definition.
//
// Materialized views and map/reduce output tables are derived data, so
// marking one evictable is INVALID_ANTICACHE_USAGE whether or not the
// anti-cache is enabled.
func Check(ec *registry.ExecutorContext, table *catalog.Table) (bool, error) {
	if !table.Evictable {
		return false, nil
	}
	if table.IsMaterializedView() {
		return false, invalidUsage(table, "Trying to use the anti-caching feature on materialized view '%s'", table.Name)
	}
	if table.MapReduce {
		return false, invalidUsage(table, "Trying to use the anti-caching feature on map/reduce output table '%s'", table.Name)
	}
	if !ec.AntiCacheEnabled() {
		return false, nil
	}
	if ec.EvictionLayout() == anticache.LayoutVertical {
		if _, _, err := schema.CompileEvicted(table.Name, table.EvictColumns); err != nil {
			return false, err
		}
	}
	return true, nil
}

func invalidUsage(table *catalog.Table, format string, args ...any) error {
	err := dberror.Newf(dberror.ErrCategoryUser, dberror.CodeInvalidAntiCacheUsage, format, args...).
		WithTable(table.Name).
		At("Check", component)
	logging.WithTable(table.Name).Error().Str("code", err.Code).Msg(err.Message)
	return err
}

// Attach builds the eviction directory of table and attaches it to pt.
// Check must have returned true for table.
func Attach(ec *registry.ExecutorContext, factory tables.Factory, table *catalog.Table, pt *tables.PersistentTable) error {
	log := logging.WithTable(table.Name)
	log.Info().
		Str("directory", anticache.DirectoryName(table.Name)).
		Stringer("layout", ec.EvictionLayout()).
		Msg("creating eviction table")

	switch ec.EvictionLayout() {
	case anticache.LayoutTuple:
		return attachWholeTuple(ec, factory, table, pt)
	case anticache.LayoutVertical:
		return attachVertical(ec, factory, table, pt)
	default:
		return dberror.Newf(dberror.ErrCategorySystem, dberror.CodeInvalidAntiCacheUsage,
			"unknown eviction layout %s for table '%s'", ec.EvictionLayout(), table.Name).
			WithTable(table.Name).
			At("Attach", component)
	}
}

// attachWholeTuple builds an address-only directory. Evicted tuples are
// restored from the raw block, so no column data is kept.
func attachWholeTuple(ec *registry.ExecutorContext, factory tables.Factory, table *catalog.Table, pt *tables.PersistentTable) error {
	sch, err := tuple.NewEvictedSchema(nil, nil, nil, nil)
	if err != nil {
		return dberror.Wrap(err, dberror.CodeMalformedSchema, "attachWholeTuple", component)
	}

	dir := factory.CreateEvictionDirectoryTable(ec, anticache.DirectoryName(table.Name), sch)
	if err := pt.SetEvictedTable(dir); err != nil {
		dir.Finalize()
		return err
	}
	pt.SetBatchEvicted(table.BatchEvicted)
	return nil
}

// attachVertical builds a directory holding the table's cold columns after
// the addressing columns, and records the hot/cold mapping on the table.
func attachVertical(ec *registry.ExecutorContext, factory tables.Factory, table *catalog.Table, pt *tables.PersistentTable) error {
	sch, coldColumns, err := schema.CompileEvicted(table.Name, table.EvictColumns)
	if err != nil {
		return err
	}

	for i, c := range coldColumns {
		def, err := pt.Schema().Column(int(c))
		if err != nil || def.Name != sch.Columns()[tuple.EvictedAddressColumns+i].Name {
			return dberror.Newf(dberror.ErrCategoryUser, dberror.CodeMalformedSchema,
				"evicted column at position %d of table '%s' is not part of the table", i, table.Name).
				WithTable(table.Name).
				At("attachVertical", component)
		}
	}

	partitions, err := anticache.NewVerticalPartitions(pt.Schema().ColumnCount(), coldColumns)
	if err != nil {
		return dberror.Wrap(err, dberror.CodeMalformedSchema, "attachVertical", component).WithTable(table.Name)
	}

	dir := factory.CreateEvictionDirectoryTable(ec, anticache.DirectoryName(table.Name), sch)
	if err := pt.SetEvictedTable(dir); err != nil {
		dir.Finalize()
		return err
	}
	pt.SetVerticalPartitions(partitions)
	return nil
}
