package indexes

import (
	"maps"
	"slices"

	"coldstore/pkg/catalog"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/logging"
	"coldstore/pkg/primitives"
	"coldstore/pkg/storage/index"
	"coldstore/pkg/tuple"
	"coldstore/pkg/types"
)

const component = "IndexBuilder"

// Build compiles every index of table into an index scheme keyed by index name.
// Indexes are visited in name order so the first reported error is stable.
//
// A reference's own Index field decides where its column lands in the key,
// independent of map iteration order. An index fails with MALFORMED_INDEX when
// it has no column references, when a reference position is negative, out of
// range or repeated, or when a reference points at a column the compiled
// schema does not contain.
func Build(table *catalog.Table, sch *tuple.Schema) (map[string]*index.Scheme, error) {
	schemes := make(map[string]*index.Scheme, len(table.Indexes))

	for _, name := range slices.Sorted(maps.Keys(table.Indexes)) {
		scheme, err := buildScheme(table.Name, table.Indexes[name], sch)
		if err != nil {
			return nil, err
		}
		schemes[scheme.Name] = scheme
	}
	return schemes, nil
}

func buildScheme(table string, idx *catalog.Index, sch *tuple.Schema) (*index.Scheme, error) {
	log := logging.WithIndex(idx.Name)

	n := len(idx.Columns)
	if n == 0 {
		return nil, malformed(table, "index '%s' in table '%s' does not declare any columns to use", idx.Name, table)
	}

	columnIndices := make([]primitives.ColumnID, n)
	columnTypes := make([]types.ValueType, n)
	filled := make([]bool, n)
	intsOnly := true

	for _, ref := range idx.Columns {
		pos := ref.Index
		if pos < 0 {
			return nil, malformed(table, "invalid column '%d' for index '%s' in table '%s'", pos, idx.Name, table)
		}
		if int(pos) >= n || filled[pos] {
			return nil, malformed(table, "column reference '%s' of index '%s' in table '%s' has position %d, which is repeated or outside [0, %d)",
				ref.Name, idx.Name, table, pos, n)
		}

		col := ref.Column
		def, err := sch.Column(int(col.Index))
		if err != nil || def.Name != col.Name {
			return nil, malformed(table, "index '%s' in table '%s' references column '%s', which is not part of the table",
				idx.Name, table, col.Name)
		}

		if !col.Type.IsIntegral() {
			intsOnly = false
		}
		columnIndices[pos] = primitives.ColumnID(col.Index)
		columnTypes[pos] = col.Type
		filled[pos] = true
	}

	log.Debug().
		Str("type", string(idx.Type)).
		Bool("unique", idx.Unique).
		Bool("ints_only", intsOnly).
		Int("columns", n).
		Msg("compiled index scheme")

	return &index.Scheme{
		Name:          idx.Name,
		Type:          idx.Type,
		ColumnIndices: columnIndices,
		ColumnTypes:   columnTypes,
		Unique:        idx.Unique,
		IntsOnly:      intsOnly,
		TupleSchema:   sch,
	}, nil
}

func malformed(table, format string, args ...any) *dberror.DBError {
	err := dberror.Newf(dberror.ErrCategoryUser, dberror.CodeMalformedIndex, format, args...).
		WithTable(table).
		At("Build", component)
	logging.WithTable(table).Error().Str("code", err.Code).Msg(err.Message)
	return err
}

// Split separates the primary key scheme, named pkName, from the secondary
// schemes. Secondary schemes are returned in index name order. An empty
// pkName yields a nil primary key.
func Split(schemes map[string]*index.Scheme, pkName string) (*index.Scheme, []*index.Scheme) {
	var pk *index.Scheme
	secondary := make([]*index.Scheme, 0, len(schemes))

	for _, name := range slices.Sorted(maps.Keys(schemes)) {
		if pkName != "" && name == pkName {
			pk = schemes[name]
			continue
		}
		secondary = append(secondary, schemes[name])
	}
	return pk, secondary
}
