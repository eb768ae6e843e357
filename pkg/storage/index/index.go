package index

import (
	"fmt"
	"strings"

	"coldstore/pkg/primitives"
	"coldstore/pkg/tuple"
	"coldstore/pkg/types"
)

type IndexType string

const (
	BTreeIndex       IndexType = "BTREE"
	HashIndex        IndexType = "HASH"
	ArrayIndex       IndexType = "ARRAY"
	InvalidIndexType IndexType = ""
)

func ParseIndexType(str string) (IndexType, error) {
	switch strings.ToUpper(strings.TrimSpace(str)) {

	case "BTREE", "TREE", "BALANCED_TREE":
		return BTreeIndex, nil

	case "HASH", "HASH_TABLE":
		return HashIndex, nil

	case "ARRAY":
		return ArrayIndex, nil

	default:
		return InvalidIndexType, fmt.Errorf("unknown index type %q", str)
	}
}

// Scheme is the compiled description of one index: the table columns it
// covers in index key order, their types, and how keys compare.
type Scheme struct {
	Name string
	Type IndexType

	// ColumnIndices holds table column ordinals in index key order.
	ColumnIndices []primitives.ColumnID

	// ColumnTypes holds the type of each key column, parallel to ColumnIndices.
	ColumnTypes []types.ValueType

	Unique bool

	// IntsOnly is true iff every key column is a fixed-width signed integer.
	IntsOnly bool

	// TupleSchema is the schema of the table the index belongs to.
	TupleSchema *tuple.Schema
}

// KeyWidth is the number of key columns.
func (s *Scheme) KeyWidth() int {
	return len(s.ColumnIndices)
}

// SameStructure compares everything except the table schema pointer.
func (s *Scheme) SameStructure(other *Scheme) bool {
	if other == nil {
		return false
	}
	if s.Name != other.Name || s.Type != other.Type || s.Unique != other.Unique || s.IntsOnly != other.IntsOnly {
		return false
	}
	if len(s.ColumnIndices) != len(other.ColumnIndices) || len(s.ColumnTypes) != len(other.ColumnTypes) {
		return false
	}
	for i := range s.ColumnIndices {
		if s.ColumnIndices[i] != other.ColumnIndices[i] {
			return false
		}
	}
	for i := range s.ColumnTypes {
		if s.ColumnTypes[i] != other.ColumnTypes[i] {
			return false
		}
	}
	return true
}

func (s *Scheme) String() string {
	cols := make([]string, len(s.ColumnIndices))
	for i, c := range s.ColumnIndices {
		cols[i] = fmt.Sprintf("%d:%s", c, s.ColumnTypes[i])
	}
	return fmt.Sprintf("Index(%s, %s, unique=%t, intsOnly=%t, [%s])",
		s.Name, s.Type, s.Unique, s.IntsOnly, strings.Join(cols, ","))
}
