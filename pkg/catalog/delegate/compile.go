package delegate

import (
	"coldstore/pkg/catalog"
	"coldstore/pkg/catalog/constraints"
	"coldstore/pkg/catalog/eviction"
	"coldstore/pkg/catalog/indexes"
	"coldstore/pkg/catalog/schema"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/primitives"
	"coldstore/pkg/registry"
	"coldstore/pkg/tables"
	"coldstore/pkg/tuple"
)

const component = "TableDelegate"

// Result is a successful compilation: the descriptor and the owning handle
// of the table built from it.
type Result struct {
	Descriptor *tables.Descriptor
	Handle     *tables.Handle
}

// Compile builds the descriptor of table without creating any table object.
// It runs every validation step, including the anti-cache usage check, so a
// nil error guarantees Build will not reject the table before the factory call.
func Compile(ec *registry.ExecutorContext, db *catalog.Database, table *catalog.Table) (*tables.Descriptor, bool, error) {
	if err := table.Validate(); err != nil {
		return nil, false, err
	}

	sch, err := schema.Compile(table.Name, table.Columns)
	if err != nil {
		return nil, false, err
	}

	schemes, err := indexes.Build(table, sch)
	if err != nil {
		return nil, false, err
	}

	res, err := constraints.Resolve(table)
	if err != nil {
		return nil, false, err
	}

	evictable, err := eviction.Check(ec, table)
	if err != nil {
		return nil, false, err
	}

	partitionColumn, err := resolvePartitionColumn(table, sch)
	if err != nil {
		return nil, false, err
	}

	pk, secondary := indexes.Split(schemes, res.PrimaryKeyIndex)
	exportEnabled, exportOnly := exportFlags(db, table.Name)

	desc := &tables.Descriptor{
		DatabaseID:      ec.DatabaseID(),
		TableID:         table.RelativeIndex,
		Name:            table.Name,
		Schema:          sch,
		PrimaryKey:      pk,
		Indexes:         secondary,
		UniqueIndexes:   res.UniqueIndexes,
		Unenforced:      res.Unenforced,
		PartitionColumn: partitionColumn,
		ExportEnabled:   exportEnabled,
		ExportOnly:      exportOnly,
	}
	return desc, evictable, nil
}

// Build compiles table and, on success, creates the table object through
// factory and attaches its eviction directory. The caller owns the returned
// handle. On failure nothing stays reachable: the factory is not called when
// validation fails, and a table whose directory cannot be attached is released.
func Build(ec *registry.ExecutorContext, factory tables.Factory, db *catalog.Database, table *catalog.Table) (*Result, error) {
	desc, evictable, err := Compile(ec, db, table)
	if err != nil {
		return nil, err
	}

	handle := tables.Own(factory.CreatePersistentTable(ec, desc))

	if evictable {
		if err := eviction.Attach(ec, factory, table, handle.Table()); err != nil {
			handle.Release()
			return nil, err
		}
	}
	return &Result{Descriptor: desc, Handle: handle}, nil
}

func resolvePartitionColumn(table *catalog.Table, sch *tuple.Schema) (primitives.ColumnID, error) {
	col := table.PartitionColumn
	if col == nil {
		return primitives.NoPartitionColumn, nil
	}

	def, err := sch.Column(int(col.Index))
	if err != nil || def.Name != col.Name {
		return 0, dberror.Newf(dberror.ErrCategoryUser, dberror.CodeMalformedSchema,
			"partition column '%s' is not a column of table '%s'", col.Name, table.Name).
			WithTable(table.Name).
			At("Compile", component)
	}
	return def.Ordinal, nil
}

// exportFlags reports whether the database streams the table to an export
// connector, and whether the table is export-only.
func exportFlags(db *catalog.Database, name string) (enabled, only bool) {
	if db == nil {
		return false, false
	}
	exp, ok := db.Exports[name]
	if !ok || exp == nil {
		return false, false
	}
	return true, exp.AppendOnly
}
