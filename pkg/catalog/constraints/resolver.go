package constraints

import (
	"maps"
	"slices"

	"coldstore/pkg/catalog"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/logging"
)

const component = "ConstraintResolver"

// Resolution is what the table assembler needs to know about a table's constraints.
type Resolution struct {
	// PrimaryKeyIndex names the index backing the primary key, "" if none.
	PrimaryKeyIndex string

	// UniqueIndexes names the indexes backing unique constraints, in constraint name order.
	UniqueIndexes []string

	// Unenforced names the accepted CHECK, FOREIGN_KEY and MAIN constraints.
	// They are reported as warnings and not enforced anywhere.
	Unenforced []string
}

// HasPrimaryKey reports whether a primary key index was claimed.
func (r Resolution) HasPrimaryKey() bool {
	return r.PrimaryKeyIndex != ""
}

// Resolve validates the constraints of table, visiting them in name order.
//
// Returns:
//   - MALFORMED_CONSTRAINT if a primary key or unique constraint has no backing index
//   - DUPLICATE_PRIMARY_KEY if a second primary key constraint appears
//   - UNSUPPORTED_CONSTRAINT_TYPE for a constraint kind outside the known set
func Resolve(table *catalog.Table) (Resolution, error) {
	var res Resolution
	log := logging.WithTable(table.Name)

	for _, name := range slices.Sorted(maps.Keys(table.Constraints)) {
		c := table.Constraints[name]

		switch c.Type {
		case catalog.PrimaryKeyConstraint:
			if err := checkBackingIndex(table, c); err != nil {
				return Resolution{}, err
			}
			if res.PrimaryKeyIndex != "" {
				err := dberror.Newf(dberror.ErrCategoryUser, dberror.CodeDuplicatePrimaryKey,
					"trying to declare a primary key on table '%s' using index '%s' but '%s' was already set as the primary key",
					table.Name, c.Index.Name, res.PrimaryKeyIndex).
					WithTable(table.Name).
					At("Resolve", component)
				log.Error().Str("code", err.Code).Msg(err.Message)
				return Resolution{}, err
			}
			res.PrimaryKeyIndex = c.Index.Name

		case catalog.UniqueConstraint:
			if err := checkBackingIndex(table, c); err != nil {
				return Resolution{}, err
			}
			res.UniqueIndexes = append(res.UniqueIndexes, c.Index.Name)

		case catalog.CheckConstraint, catalog.ForeignKeyConstraint, catalog.MainConstraint:
			log.Warn().
				Str("constraint", c.Name).
				Str("type", c.Type.String()).
				Msgf("unsupported type '%s' for constraint '%s.%s'", c.Type, table.Name, c.Name)
			res.Unenforced = append(res.Unenforced, c.Name)

		default:
			err := dberror.Newf(dberror.ErrCategoryUser, dberror.CodeUnsupportedConstraint,
				"invalid constraint type '%s' for '%s.%s'", c.Type, table.Name, c.Name).
				WithTable(table.Name).
				At("Resolve", component)
			log.Error().Str("code", err.Code).Msg(err.Message)
			return Resolution{}, err
		}
	}

	return res, nil
}

// checkBackingIndex requires c to name an index that belongs to table.
func checkBackingIndex(table *catalog.Table, c *catalog.Constraint) error {
	var err *dberror.DBError
	switch {
	case c.Index == nil:
		err = dberror.Newf(dberror.ErrCategoryUser, dberror.CodeMalformedConstraint,
			"the '%s' constraint '%s' on table '%s' does not specify an index", c.Type, c.Name, table.Name)
	case table.Indexes[c.Index.Name] == nil:
		err = dberror.Newf(dberror.ErrCategoryUser, dberror.CodeMalformedConstraint,
			"the '%s' constraint '%s' on table '%s' uses index '%s', which is not defined on the table",
			c.Type, c.Name, table.Name, c.Index.Name)
	default:
		return nil
	}

	err.WithTable(table.Name).At("Resolve", component)
	logging.WithTable(table.Name).Error().Str("code", err.Code).Msg(err.Message)
	return err
}
