package schema

import (
	"coldstore/pkg/catalog"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/primitives"
	"coldstore/pkg/tuple"
	"coldstore/pkg/types"
)

const component = "SchemaCompiler"

// columnArrays are the parallel arrays a schema is built from. Slot i
// describes the column whose declared position is i.
type columnArrays struct {
	types     []types.ValueType
	lengths   []int32
	allowNull []bool
	names     []string
	ordinals  []primitives.ColumnID
	filled    []bool
}

func newColumnArrays(n int) *columnArrays {
	return &columnArrays{
		types:     make([]types.ValueType, n),
		lengths:   make([]int32, n),
		allowNull: make([]bool, n),
		names:     make([]string, n),
		ordinals:  make([]primitives.ColumnID, n),
		filled:    make([]bool, n),
	}
}

// place writes col into slot pos. Out-of-range and repeated positions are
// rejected rather than trusted, so a sparse or duplicated ordinal set can
// never produce a schema with holes.
func (a *columnArrays) place(table, what string, pos int32, col *catalog.Column) *dberror.DBError {
	n := len(a.types)
	if pos < 0 || int(pos) >= n {
		return dberror.Newf(dberror.ErrCategoryUser, dberror.CodeMalformedSchema,
			"%s '%s' in table '%s' has position %d outside [0, %d)", what, col.Name, table, pos, n).
			WithTable(table)
	}
	if a.filled[pos] {
		return dberror.Newf(dberror.ErrCategoryUser, dberror.CodeMalformedSchema,
			"%ss '%s' and '%s' in table '%s' both declare position %d", what, a.names[pos], col.Name, table, pos).
			WithTable(table)
	}

	a.types[pos] = col.Type
	a.lengths[pos] = types.ColumnLength(col.Type, col.Size)
	a.allowNull[pos] = col.Nullable
	a.names[pos] = col.Name
	a.ordinals[pos] = primitives.ColumnID(col.Index)
	a.filled[pos] = true
	return nil
}

// Compile turns a table's name-keyed column definitions into an ordinal schema.
// Each column lands at the slot given by its own Index, so the result does not
// depend on map iteration order. Positions must form a dense 0..N-1 permutation.
//
// Parameters:
//   - table: table name, used in error messages
//   - columns: column definitions keyed by name
//
// Returns:
//   - *tuple.Schema: compiled schema with columns in ordinal order
//   - error: MALFORMED_SCHEMA on a missing, duplicate or out-of-range ordinal
func Compile(table string, columns map[string]*catalog.Column) (*tuple.Schema, error) {
	if len(columns) == 0 {
		return nil, dberror.Newf(dberror.ErrCategoryUser, dberror.CodeMalformedSchema,
			"table '%s' does not declare any columns", table).
			WithTable(table).At("Compile", component)
	}

	arrays := newColumnArrays(len(columns))
	for _, col := range columns {
		if err := arrays.place(table, "column", col.Index, col); err != nil {
			return nil, err.At("Compile", component)
		}
	}

	sch, err := tuple.NewSchema(arrays.types, arrays.lengths, arrays.allowNull, arrays.names)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeMalformedSchema, "Compile", component)
	}
	return sch, nil
}

// CompileEvicted compiles the cold column slice of a vertically partitioned
// table. Refs are placed by their position within the evict set; the resulting
// schema starts with the two addressing columns, so cold column i has
// directory ordinal i+2.
//
// Returns the directory schema and, parallel to its cold columns, the table
// ordinal each cold column was taken from.
func CompileEvicted(table string, refs map[string]*catalog.ColumnRef) (*tuple.Schema, []primitives.ColumnID, error) {
	arrays := newColumnArrays(len(refs))
	for _, ref := range refs {
		if err := arrays.place(table, "evicted column", ref.Index, ref.Column); err != nil {
			return nil, nil, err.At("CompileEvicted", component)
		}
	}

	sch, err := tuple.NewEvictedSchema(arrays.types, arrays.lengths, arrays.allowNull, arrays.names)
	if err != nil {
		return nil, nil, dberror.Wrap(err, dberror.CodeMalformedSchema, "CompileEvicted", component)
	}
	return sch, arrays.ordinals, nil
}
