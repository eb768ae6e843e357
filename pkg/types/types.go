package types

import (
	"fmt"
	"strings"
)

// ValueType identifies the storage type of a column.
type ValueType int

const (
	InvalidType ValueType = iota
	TinyIntType
	SmallIntType
	IntegerType
	BigIntType
	DoubleType
	TimestampType
	DecimalType
	VarcharType
	BooleanType
	VarbinaryType
)

// storageSizes maps every fixed-width type to its inline tuple storage size in bytes.
// Variable-length types are absent: their length comes from the declared column size.
var storageSizes = map[ValueType]int32{
	TinyIntType:   1,
	SmallIntType:  2,
	IntegerType:   4,
	BigIntType:    8,
	DoubleType:    8,
	TimestampType: 8,
	DecimalType:   16,
	BooleanType:   1,
}

var typeNames = map[ValueType]string{
	InvalidType:   "INVALID",
	TinyIntType:   "TINYINT",
	SmallIntType:  "SMALLINT",
	IntegerType:   "INTEGER",
	BigIntType:    "BIGINT",
	DoubleType:    "FLOAT",
	TimestampType: "TIMESTAMP",
	DecimalType:   "DECIMAL",
	VarcharType:   "VARCHAR",
	BooleanType:   "BOOLEAN",
	VarbinaryType: "VARBINARY",
}

// String returns a string representation of the type
func (t ValueType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN_TYPE"
}

// IsValid reports whether t is one of the known storable types.
func (t ValueType) IsValid() bool {
	return t > InvalidType && t <= VarbinaryType
}

// IsVariableLength reports whether the storage length of t is taken from the
// declared column size rather than from the type itself.
func (t ValueType) IsVariableLength() bool {
	return t == VarcharType || t == VarbinaryType
}

// IsIntegral reports whether t is one of the four fixed-width signed integer types.
// Indexes over integral columns only can use packed integer key comparison.
func (t ValueType) IsIntegral() bool {
	switch t {
	case TinyIntType, SmallIntType, IntegerType, BigIntType:
		return true
	default:
		return false
	}
}

// StorageSize returns the fixed tuple storage size of t.
// It returns 0 for variable-length and invalid types.
func (t ValueType) StorageSize() int32 {
	return storageSizes[t]
}

// ColumnLength resolves the storage length of a column of type t.
// Variable-length types use the declared size, all others the type-derived size.
func ColumnLength(t ValueType, declaredSize int32) int32 {
	if t.IsVariableLength() {
		return declaredSize
	}
	return t.StorageSize()
}

// ParseValueType parses a catalog type name such as "BIGINT" or "varchar".
func ParseValueType(name string) (ValueType, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	switch upper {
	case "INT", "INT4":
		return IntegerType, nil
	case "INT8":
		return BigIntType, nil
	case "DOUBLE", "REAL":
		return DoubleType, nil
	case "STRING", "TEXT":
		return VarcharType, nil
	case "BOOL":
		return BooleanType, nil
	}

	for t, n := range typeNames {
		if t != InvalidType && n == upper {
			return t, nil
		}
	}
	return InvalidType, fmt.Errorf("unknown value type %q", name)
}
