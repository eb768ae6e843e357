package catalog

import (
	"errors"
	"testing"

	dberror "coldstore/pkg/error"
	"coldstore/pkg/storage/index"
	"coldstore/pkg/types"
)

func validTable() *Table {
	id := &Column{Name: "ID", Index: 0, Type: types.BigIntType}
	pk := &Index{Name: "PK", Type: index.HashIndex, Unique: true,
		Columns: map[string]*ColumnRef{"ID": {Name: "ID", Index: 0, Column: id}}}
	return &Table{
		Name:        "USERS",
		Columns:     map[string]*Column{"ID": id},
		Indexes:     map[string]*Index{"PK": pk},
		Constraints: map[string]*Constraint{"C_PK": {Name: "C_PK", Type: PrimaryKeyConstraint, Index: pk}},
	}
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *Table)
		wantErr bool
	}{
		{"Valid", func(*Table) {}, false},
		{"Missing name", func(t *Table) { t.Name = "" }, true},
		{"No columns", func(t *Table) { t.Columns = map[string]*Column{} }, true},
		{"Nil column", func(t *Table) { t.Columns["X"] = nil }, true},
		{"Invalid column type", func(t *Table) { t.Columns["ID"].Type = types.InvalidType }, true},
		{"Negative size", func(t *Table) { t.Columns["ID"].Size = -1 }, true},
		{"Index without type", func(t *Table) { t.Indexes["PK"].Type = index.InvalidIndexType }, true},
		{"Column ref without column", func(t *Table) { t.Indexes["PK"].Columns["ID"].Column = nil }, true},
		{"Nil constraint", func(t *Table) { t.Constraints["C_X"] = nil }, true},
		{"Negative relative index", func(t *Table) { t.RelativeIndex = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := validTable()
			tt.mutate(table)
			err := table.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, dberror.ErrInvalidDefinition) {
				t.Fatalf("expected INVALID_DEFINITION, got %v", err)
			}
		})
	}
}

func TestNilValidate(t *testing.T) {
	var table *Table
	if err := table.Validate(); !errors.Is(err, dberror.ErrInvalidDefinition) {
		t.Errorf("nil table: expected INVALID_DEFINITION, got %v", err)
	}
	var db *Database
	if err := db.Validate(); !errors.Is(err, dberror.ErrInvalidDefinition) {
		t.Errorf("nil database: expected INVALID_DEFINITION, got %v", err)
	}
}

func TestDatabaseValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(db *Database)
		wantErr bool
	}{
		{"Valid", func(*Database) {}, false},
		{"Nested table error", func(db *Database) { db.Tables["USERS"].Columns["ID"].Type = types.InvalidType }, true},
		{"Nil table", func(db *Database) { db.Tables["GHOST"] = nil }, true},
		{"Stored under another name", func(db *Database) { db.Tables["ALIAS"] = db.Tables["USERS"] }, true},
		{"Shared table id", func(db *Database) {
			other := validTable()
			other.Name = "ORDERS"
			db.Tables["ORDERS"] = other
		}, true},
		{"Distinct table ids", func(db *Database) {
			other := validTable()
			other.Name = "ORDERS"
			other.RelativeIndex = 1
			db.Tables["ORDERS"] = other
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{Name: "tpcc", Tables: map[string]*Table{"USERS": validTable()}}
			tt.mutate(db)
			err := db.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, dberror.ErrInvalidDefinition) {
				t.Fatalf("expected INVALID_DEFINITION, got %v", err)
			}
		})
	}
}

func TestParseConstraintType(t *testing.T) {
	tests := []struct {
		input   string
		want    ConstraintType
		wantErr bool
	}{
		{"PRIMARY_KEY", PrimaryKeyConstraint, false},
		{"primary key", PrimaryKeyConstraint, false},
		{"unique", UniqueConstraint, false},
		{"FOREIGN_KEY", ForeignKeyConstraint, false},
		{"check", CheckConstraint, false},
		{"MAIN", MainConstraint, false},
		{"4", PrimaryKeyConstraint, false},
		{"42", ConstraintType(42), false},
		{"SOMETHING", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConstraintType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConstraintType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseConstraintType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if ConstraintType(42).String() != "INVALID(42)" {
		t.Errorf("unexpected String() for unknown type: %s", ConstraintType(42))
	}
}
