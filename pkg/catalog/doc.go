// Package catalog holds the declarative object model the table compiler reads:
// databases, tables, columns, indexes, column references and constraints.
//
// The model mirrors how an external catalog stores schema metadata. Columns,
// indexes and constraints are kept in maps keyed by name, so iteration order
// carries no meaning; every element describes its own position instead
// (Column.Index for the table ordinal, ColumnRef.Index for the position of a
// column inside an index or the evict column set).
//
// The model is read-only input. Compilation never mutates it, which is what
// makes compiling the same definition twice produce identical structures.
//
// Usage Example:
//
//	id := &catalog.Column{Name: "ID", Index: 0, Type: types.BigIntType}
//	name := &catalog.Column{Name: "NAME", Index: 1, Type: types.VarcharType, Size: 64, Nullable: true}
//	pk := &catalog.Index{Name: "PK_USERS", Type: index.HashIndex, Unique: true,
//		Columns: map[string]*catalog.ColumnRef{"ID": {Name: "ID", Index: 0, Column: id}}}
//	users := &catalog.Table{
//		Name:    "USERS",
//		Columns: map[string]*catalog.Column{"ID": id, "NAME": name},
//		Indexes: map[string]*catalog.Index{"PK_USERS": pk},
//		Constraints: map[string]*catalog.Constraint{
//			"C_PK": {Name: "C_PK", Type: catalog.PrimaryKeyConstraint, Index: pk},
//		},
//	}
//	if err := users.Validate(); err != nil {
//		log.Fatal(err)
//	}
package catalog
