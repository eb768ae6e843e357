package tables

import (
	"fmt"
	"slices"

	"coldstore/pkg/primitives"
	"coldstore/pkg/storage/index"
	"coldstore/pkg/tuple"
)

// Descriptor is the compiled form of one catalog table: everything the table
// factory needs to build the table object. It is built once per catalog apply
// and owned by the table it is compiled into.
type Descriptor struct {
	DatabaseID primitives.DatabaseID
	TableID    primitives.TableID
	Name       string

	Schema *tuple.Schema

	// PrimaryKey is nil when the table has no primary key constraint.
	PrimaryKey *index.Scheme

	// Indexes holds the secondary indexes in index name order.
	Indexes []*index.Scheme

	// UniqueIndexes names the indexes backing unique constraints, in
	// constraint name order.
	UniqueIndexes []string

	// Unenforced names the accepted CHECK, FOREIGN_KEY and MAIN constraints.
	Unenforced []string

	// PartitionColumn is primitives.NoPartitionColumn for replicated tables.
	PartitionColumn primitives.ColumnID

	ExportEnabled bool
	ExportOnly    bool
}

// ColumnNames returns the schema's column names in ordinal order.
func (d *Descriptor) ColumnNames() []string {
	return d.Schema.Names()
}

// IsReplicated reports whether the table has no partition column.
func (d *Descriptor) IsReplicated() bool {
	return d.PartitionColumn == primitives.NoPartitionColumn
}

// HasPrimaryKey reports whether the table has a primary key index.
func (d *Descriptor) HasPrimaryKey() bool {
	return d.PrimaryKey != nil
}

// SameStructure reports whether two descriptors have the same identity,
// columns, indexes, constraints and flags. Pointer identity of schemas is ignored.
func (d *Descriptor) SameStructure(other *Descriptor) bool {
	if other == nil {
		return false
	}
	if d.DatabaseID != other.DatabaseID || d.TableID != other.TableID || d.Name != other.Name {
		return false
	}
	if d.PartitionColumn != other.PartitionColumn ||
		d.ExportEnabled != other.ExportEnabled || d.ExportOnly != other.ExportOnly {
		return false
	}
	if !d.Schema.Equals(other.Schema) {
		return false
	}
	if !slices.Equal(d.UniqueIndexes, other.UniqueIndexes) || !slices.Equal(d.Unenforced, other.Unenforced) {
		return false
	}
	if (d.PrimaryKey == nil) != (other.PrimaryKey == nil) {
		return false
	}
	if d.PrimaryKey != nil && !d.PrimaryKey.SameStructure(other.PrimaryKey) {
		return false
	}
	if len(d.Indexes) != len(other.Indexes) {
		return false
	}
	for i := range d.Indexes {
		if !d.Indexes[i].SameStructure(other.Indexes[i]) {
			return false
		}
	}
	return true
}

func (d *Descriptor) String() string {
	pk := "none"
	if d.PrimaryKey != nil {
		pk = d.PrimaryKey.Name
	}
	return fmt.Sprintf("Table(%s, db=%d, id=%d, schema=%s, pk=%s, indexes=%d, partition=%d)",
		d.Name, d.DatabaseID, d.TableID, d.Schema, pk, len(d.Indexes), d.PartitionColumn)
}
