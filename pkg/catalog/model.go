package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"coldstore/pkg/primitives"
	"coldstore/pkg/storage/index"
	"coldstore/pkg/types"
)

// ConstraintType is the kind of a catalog constraint. The numbering follows the
// catalog encoding; values outside the declared set are carried through as-is
// and rejected by the constraint resolver.
type ConstraintType int

const (
	ForeignKeyConstraint ConstraintType = iota
	MainConstraint
	UniqueConstraint
	CheckConstraint
	PrimaryKeyConstraint
)

func (c ConstraintType) String() string {
	switch c {
	case ForeignKeyConstraint:
		return "FOREIGN_KEY"
	case MainConstraint:
		return "MAIN"
	case UniqueConstraint:
		return "UNIQUE"
	case CheckConstraint:
		return "CHECK"
	case PrimaryKeyConstraint:
		return "PRIMARY_KEY"
	default:
		return fmt.Sprintf("INVALID(%d)", int(c))
	}
}

// ParseConstraintType accepts a constraint name ("PRIMARY_KEY", "unique", ...)
// or a raw catalog number.
func ParseConstraintType(s string) (ConstraintType, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")) {
	case "FOREIGN_KEY", "FOREIGNKEY":
		return ForeignKeyConstraint, nil
	case "MAIN":
		return MainConstraint, nil
	case "UNIQUE":
		return UniqueConstraint, nil
	case "CHECK":
		return CheckConstraint, nil
	case "PRIMARY_KEY", "PRIMARYKEY":
		return PrimaryKeyConstraint, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("unknown constraint type %q", s)
	}
	return ConstraintType(n), nil
}

// Database is the catalog entry for one database.
type Database struct {
	Name          string                `validate:"required"`
	RelativeIndex primitives.DatabaseID `validate:"min=0"`
	Tables        map[string]*Table     `validate:"dive,required"`

	// Exports lists the tables streamed to an export connector, keyed by table name.
	Exports map[string]*ExportTable `validate:"dive"`
}

// ExportTable marks a table as exported. AppendOnly tables are export-only:
// rows are streamed out and never stored.
type ExportTable struct {
	Table      string `validate:"required"`
	AppendOnly bool
}

// Table is the declarative definition of a table. Every map is keyed by the
// element's name and has unspecified iteration order; elements carry their
// own ordinal positions.
type Table struct {
	Name          string             `validate:"required"`
	RelativeIndex primitives.TableID `validate:"min=0"`

	Columns     map[string]*Column     `validate:"required,min=1,dive,required"`
	Indexes     map[string]*Index      `validate:"dive,required"`
	Constraints map[string]*Constraint `validate:"dive,required"`

	// PartitionColumn is nil for replicated tables.
	PartitionColumn *Column `validate:"-"`

	Evictable    bool
	BatchEvicted bool

	// Materializer is the source table of a materialized view, nil otherwise.
	Materializer *Table `validate:"-"`

	// MapReduce marks the output table of a map/reduce procedure.
	MapReduce bool

	// EvictColumns names the cold columns evicted in vertical-partition mode.
	EvictColumns map[string]*ColumnRef `validate:"dive,required"`
}

// IsMaterializedView reports whether the table is derived from another table.
func (t *Table) IsMaterializedView() bool {
	return t.Materializer != nil
}

// Column is the catalog definition of a table column.
type Column struct {
	Name string `validate:"required"`

	// Index is the column's ordinal position in the table.
	Index    int32
	Type     types.ValueType `validate:"required"`
	Size     int32           `validate:"min=0"`
	Nullable bool
}

// ColumnRef references a table column from an index or the evict column set.
// Index is the position of the reference within its owner, not the column ordinal.
type ColumnRef struct {
	Name   string
	Index  int32
	Column *Column `validate:"required"`
}

// Index is the catalog definition of an index.
type Index struct {
	Name    string          `validate:"required"`
	Type    index.IndexType `validate:"required"`
	Unique  bool
	Columns map[string]*ColumnRef `validate:"dive,required"`
}

// Constraint is the catalog definition of a table constraint. Index is the
// backing index for primary key and unique constraints.
type Constraint struct {
	Name  string `validate:"required"`
	Type  ConstraintType
	Index *Index `validate:"-"`
}
