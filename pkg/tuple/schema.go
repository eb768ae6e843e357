package tuple

import (
	"fmt"
	"strings"

	"coldstore/pkg/primitives"
	"coldstore/pkg/types"
)

// Names of the two addressing columns every eviction directory schema starts with.
const (
	BlockIDColumn     = "BLOCK_ID"
	TupleOffsetColumn = "TUPLE_OFFSET"

	// EvictedAddressColumns is the number of reserved addressing columns.
	EvictedAddressColumns = 2
)

// ColumnDef describes one compiled column: its ordinal position, storage type,
// resolved storage length, nullability and name.
type ColumnDef struct {
	Ordinal   primitives.ColumnID
	Type      types.ValueType
	Length    int32
	AllowNull bool
	Name      string
}

func (c ColumnDef) String() string {
	null := "NOT NULL"
	if c.AllowNull {
		null = "NULL"
	}
	return fmt.Sprintf("%d:%s %s(%d) %s", c.Ordinal, c.Name, c.Type, c.Length, null)
}

// Schema is the ordinal, fixed-layout column list a table stores tuples with.
// It is immutable once built; accessors hand out copies.
type Schema struct {
	columns []ColumnDef
	evicted bool
}

// NewSchema builds a schema from parallel column arrays, the i-th entry of each
// describing the column with ordinal i.
//
// Parameters:
//   - columnTypes: storage type of each column (must contain at least one element)
//   - lengths: resolved storage length of each column
//   - allowNull: nullability of each column
//   - names: name of each column
//
// Returns:
//   - *Schema: newly created schema
//   - error: if the arrays are empty or their lengths differ
func NewSchema(columnTypes []types.ValueType, lengths []int32, allowNull []bool, names []string) (*Schema, error) {
	if len(columnTypes) < 1 {
		return nil, fmt.Errorf("must provide at least one column type")
	}
	columns, err := zipColumns(0, columnTypes, lengths, allowNull, names)
	if err != nil {
		return nil, err
	}
	return &Schema{columns: columns}, nil
}

// NewEvictedSchema builds an eviction directory schema: the BLOCK_ID and
// TUPLE_OFFSET addressing columns followed by the given cold columns, whose
// ordinals are shifted by EvictedAddressColumns. All cold arrays may be empty.
func NewEvictedSchema(columnTypes []types.ValueType, lengths []int32, allowNull []bool, names []string) (*Schema, error) {
	cold, err := zipColumns(EvictedAddressColumns, columnTypes, lengths, allowNull, names)
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnDef, 0, EvictedAddressColumns+len(cold))
	columns = append(columns,
		ColumnDef{Ordinal: 0, Type: types.IntegerType, Length: types.IntegerType.StorageSize(), Name: BlockIDColumn},
		ColumnDef{Ordinal: 1, Type: types.IntegerType, Length: types.IntegerType.StorageSize(), Name: TupleOffsetColumn},
	)
	columns = append(columns, cold...)
	return &Schema{columns: columns, evicted: true}, nil
}

func zipColumns(offset int, columnTypes []types.ValueType, lengths []int32, allowNull []bool, names []string) ([]ColumnDef, error) {
	n := len(columnTypes)
	if len(lengths) != n || len(allowNull) != n || len(names) != n {
		return nil, fmt.Errorf("column arrays must have equal length: types=%d lengths=%d nulls=%d names=%d",
			n, len(lengths), len(allowNull), len(names))
	}

	columns := make([]ColumnDef, n)
	for i := range columnTypes {
		columns[i] = ColumnDef{
			Ordinal:   primitives.ColumnID(offset + i),
			Type:      columnTypes[i],
			Length:    lengths[i],
			AllowNull: allowNull[i],
			Name:      names[i],
		}
	}
	return columns, nil
}

// ColumnCount returns the number of columns in this schema.
func (s *Schema) ColumnCount() int {
	return len(s.columns)
}

// IsEvicted reports whether this schema belongs to an eviction directory.
func (s *Schema) IsEvicted() bool {
	return s.evicted
}

// Column returns the column with ordinal i.
func (s *Schema) Column(i int) (ColumnDef, error) {
	if i < 0 || i >= len(s.columns) {
		return ColumnDef{}, fmt.Errorf("column index %d out of bounds [0, %d)", i, len(s.columns))
	}
	return s.columns[i], nil
}

// Columns returns a copy of all columns in ordinal order.
func (s *Schema) Columns() []ColumnDef {
	out := make([]ColumnDef, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in ordinal order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Types returns the column types in ordinal order.
func (s *Schema) Types() []types.ValueType {
	out := make([]types.ValueType, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Type
	}
	return out
}

// TupleLength is the sum of all column storage lengths.
func (s *Schema) TupleLength() int32 {
	var size int32
	for _, c := range s.columns {
		size += c.Length
	}
	return size
}

// FindColumn returns the ordinal of the column with the given name, or -1.
func (s *Schema) FindColumn(name string) primitives.ColumnID {
	for _, c := range s.columns {
		if c.Name == name {
			return c.Ordinal
		}
	}
	return -1
}

// Equals reports whether both schemas have the same columns in the same order.
func (s *Schema) Equals(other *Schema) bool {
	if other == nil || s.evicted != other.evicted || len(s.columns) != len(other.columns) {
		return false
	}
	for i := range s.columns {
		if s.columns[i] != other.columns[i] {
			return false
		}
	}
	return true
}

// String returns "TYPE(name),TYPE(name),..." in ordinal order.
func (s *Schema) String() string {
	parts := make([]string, len(s.columns))
	for i, c := range s.columns {
		parts[i] = fmt.Sprintf("%s(%s)", c.Type, c.Name)
	}
	return strings.Join(parts, ",")
}
