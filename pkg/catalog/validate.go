package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	dberror "coldstore/pkg/error"
	"coldstore/pkg/primitives"
	"coldstore/pkg/utils/validation"

	"github.com/go-playground/validator/v10"
)

// Validate checks the structural tags of a table definition: required names,
// known column types, non-negative sizes, non-nil map entries and column refs.
// It does not check ordinals or constraint semantics; the compiler does.
func (t *Table) Validate() error {
	if t == nil {
		return dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidDefinition, "table definition is nil")
	}
	if err := validation.Struct(t); err != nil {
		return definitionError(t.Name, err)
	}
	return nil
}

// Validate checks the database definition and every table in it. Beyond the
// struct tags, each table must be stored under its own name and table ids
// must be unique within the database.
func (d *Database) Validate() error {
	if d == nil {
		return dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidDefinition, "database definition is nil")
	}
	if err := validation.Struct(d); err != nil {
		return definitionError("", err)
	}

	owners := make(map[primitives.TableID]string, len(d.Tables))
	for _, key := range slices.Sorted(maps.Keys(d.Tables)) {
		t := d.Tables[key]
		if t.Name != key {
			return dberror.Newf(dberror.ErrCategoryUser, dberror.CodeInvalidDefinition,
				"table '%s' is registered under the name '%s'", t.Name, key).
				WithTable(t.Name).
				At("Validate", "Catalog")
		}
		if other, dup := owners[t.RelativeIndex]; dup {
			return dberror.Newf(dberror.ErrCategoryUser, dberror.CodeInvalidDefinition,
				"tables '%s' and '%s' both use table id %d", other, t.Name, t.RelativeIndex).
				WithTable(t.Name).
				At("Validate", "Catalog")
		}
		owners[t.RelativeIndex] = t.Name
	}
	return nil
}

func definitionError(table string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dberror.Wrap(err, dberror.CodeInvalidDefinition, "Validate", "Catalog")
	}

	msg := "invalid table definition"
	if table != "" {
		msg = fmt.Sprintf("invalid definition for table '%s'", table)
	}
	e := dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidDefinition, msg).
		WithDetail("%s", validation.Describe(verrs)).
		WithTable(table).
		At("Validate", "Catalog")
	e.Cause = err
	return e
}
