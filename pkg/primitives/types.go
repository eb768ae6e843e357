package primitives

import "fmt"

// DatabaseID is the catalog-relative index of a database.
type DatabaseID int32

// TableID is the catalog-relative index of a table within its database.
type TableID int32

// ColumnID identifies a column by its ordinal position within a table (0-indexed)
type ColumnID int32

// PartitionID identifies the partition owned by one execution context.
type PartitionID int32

// SiteID identifies the host-level site an execution context belongs to.
type SiteID int64

// BlockID identifies a block on secondary storage that holds evicted tuples.
type BlockID int32

// TupleOffset is the position of an evicted tuple inside its block.
type TupleOffset int32

// Sentinel values for invalid/unset identifiers
const (
	// NoPartitionColumn marks a replicated table, which has no partition column.
	NoPartitionColumn ColumnID = -1

	InvalidBlockID BlockID = -1
)

// IsValid reports whether the column ordinal is non-negative.
func (c ColumnID) IsValid() bool {
	return c >= 0
}

func (c ColumnID) String() string {
	return fmt.Sprintf("ColumnID(%d)", int32(c))
}

func (p PartitionID) String() string {
	return fmt.Sprintf("Partition(%d)", int32(p))
}
