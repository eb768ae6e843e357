package anticache

import (
	"fmt"
	"slices"

	"coldstore/pkg/primitives"
	"coldstore/pkg/tuple"
)

// VerticalPartitions maps a vertically partitioned table's columns onto the
// resident (hot) tuple and the directory row holding the evicted (cold) columns.
type VerticalPartitions struct {
	// ColdColumns holds, in directory order, the table ordinal of each cold column.
	ColdColumns []primitives.ColumnID

	// DirectoryColumns holds the directory ordinal of each cold column,
	// parallel to ColdColumns.
	DirectoryColumns []primitives.ColumnID

	// HotColumns holds the table ordinals that stay resident, ascending.
	HotColumns []primitives.ColumnID

	tableColumns int
}

// NewVerticalPartitions derives the hot/cold mapping of a table with
// tableColumns columns whose cold columns are cold, in directory order.
func NewVerticalPartitions(tableColumns int, cold []primitives.ColumnID) (*VerticalPartitions, error) {
	isCold := make([]bool, tableColumns)
	dirCols := make([]primitives.ColumnID, len(cold))

	for i, c := range cold {
		if c < 0 || int(c) >= tableColumns {
			return nil, fmt.Errorf("cold column %d outside table columns [0, %d)", c, tableColumns)
		}
		if isCold[c] {
			return nil, fmt.Errorf("cold column %d listed twice", c)
		}
		isCold[c] = true
		dirCols[i] = primitives.ColumnID(tuple.EvictedAddressColumns + i)
	}

	hot := make([]primitives.ColumnID, 0, tableColumns-len(cold))
	for c := 0; c < tableColumns; c++ {
		if !isCold[c] {
			hot = append(hot, primitives.ColumnID(c))
		}
	}

	return &VerticalPartitions{
		ColdColumns:      slices.Clone(cold),
		DirectoryColumns: dirCols,
		HotColumns:       hot,
		tableColumns:     tableColumns,
	}, nil
}

// TableColumns is the column count of the full logical row.
func (v *VerticalPartitions) TableColumns() int {
	return v.tableColumns
}

// IsCold reports whether table column c is evicted to the directory.
func (v *VerticalPartitions) IsCold(c primitives.ColumnID) bool {
	return slices.Contains(v.ColdColumns, c)
}

// Split divides a full row into its hot values (HotColumns order) and cold
// values (ColdColumns order, i.e. directory order).
func (v *VerticalPartitions) Split(row []any) (hot, cold []any, err error) {
	if len(row) != v.tableColumns {
		return nil, nil, fmt.Errorf("row has %d values, table has %d columns", len(row), v.tableColumns)
	}
	hot = make([]any, len(v.HotColumns))
	for i, c := range v.HotColumns {
		hot[i] = row[c]
	}
	cold = make([]any, len(v.ColdColumns))
	for i, c := range v.ColdColumns {
		cold[i] = row[c]
	}
	return hot, cold, nil
}

// Reconstruct rebuilds the full logical row from a hot-only tuple and the
// cold values of its directory entry.
func (v *VerticalPartitions) Reconstruct(hot, cold []any) ([]any, error) {
	if len(hot) != len(v.HotColumns) {
		return nil, fmt.Errorf("expected %d hot values, got %d", len(v.HotColumns), len(hot))
	}
	if len(cold) != len(v.ColdColumns) {
		return nil, fmt.Errorf("expected %d cold values, got %d", len(v.ColdColumns), len(cold))
	}

	row := make([]any, v.tableColumns)
	for i, c := range v.HotColumns {
		row[c] = hot[i]
	}
	for i, c := range v.ColdColumns {
		row[c] = cold[i]
	}
	return row, nil
}
