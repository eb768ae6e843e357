// Package catalogio reads catalog definitions and procedure column usage
// from YAML files.
//
// The loader only translates text into the catalog model and resolves
// references by name. It performs no schema validation beyond that: the
// table compiler is the single place definitions are checked.
package catalogio

import (
	"fmt"
	"io"
	"strings"

	"coldstore/pkg/anticache"
	"coldstore/pkg/catalog"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/logging"
	"coldstore/pkg/primitives"
	"coldstore/pkg/storage/index"
	"coldstore/pkg/types"
	"coldstore/pkg/utils/functools"

	"github.com/spf13/viper"
)

const component = "CatalogLoader"

// LoadFile reads a catalog document from path. The file format is taken from
// the extension (yaml, json and toml all work).
func LoadFile(path string) (*catalog.Database, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeInvalidDefinition, "LoadFile", component)
	}
	return decodeDatabase(v)
}

// Load reads a YAML catalog document from r.
func Load(r io.Reader) (*catalog.Database, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeInvalidDefinition, "Load", component)
	}
	return decodeDatabase(v)
}

func decodeDatabase(v *viper.Viper) (*catalog.Database, error) {
	var doc databaseDoc
	if err := v.UnmarshalKey("database", &doc); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeInvalidDefinition, "Load", component)
	}
	if doc.Name == "" {
		return nil, invalid("", "catalog document has no database name")
	}

	db := &catalog.Database{
		Name:          doc.Name,
		RelativeIndex: primitives.DatabaseID(doc.ID),
		Tables:        make(map[string]*catalog.Table, len(doc.Tables)),
		Exports:       make(map[string]*catalog.ExportTable, len(doc.Exports)),
	}

	for i, td := range doc.Tables {
		if _, dup := db.Tables[td.Name]; dup {
			return nil, invalid(td.Name, "table '%s' is defined twice", td.Name)
		}
		t, err := buildTable(i, td)
		if err != nil {
			return nil, err
		}
		db.Tables[t.Name] = t
	}

	// Materializers may point forward, so they are linked once every table exists.
	for _, td := range doc.Tables {
		if td.Materializer == "" {
			continue
		}
		src, ok := db.Tables[td.Materializer]
		if !ok {
			return nil, invalid(td.Name, "materialized view '%s' reads from unknown table '%s'", td.Name, td.Materializer)
		}
		db.Tables[td.Name].Materializer = src
	}

	for _, ed := range doc.Exports {
		if _, ok := db.Tables[ed.Table]; !ok {
			return nil, invalid(ed.Table, "export of unknown table '%s'", ed.Table)
		}
		db.Exports[ed.Table] = &catalog.ExportTable{Table: ed.Table, AppendOnly: ed.AppendOnly}
	}

	logging.GetLogger().Debug().
		Str("database", db.Name).
		Int("tables", len(db.Tables)).
		Int("exports", len(db.Exports)).
		Msg("catalog loaded")
	return db, nil
}

func buildTable(position int, td tableDoc) (*catalog.Table, error) {
	t := &catalog.Table{
		Name:          td.Name,
		RelativeIndex: primitives.TableID(position),
		Columns:       make(map[string]*catalog.Column, len(td.Columns)),
		Indexes:       make(map[string]*catalog.Index, len(td.Indexes)),
		Constraints:   make(map[string]*catalog.Constraint, len(td.Constraints)),
		Evictable:     td.Evictable,
		BatchEvicted:  td.BatchEvicted,
		MapReduce:     td.MapReduce,
	}
	if td.ID != nil {
		t.RelativeIndex = primitives.TableID(*td.ID)
	}

	for i, cd := range td.Columns {
		typ, err := types.ParseValueType(cd.Type)
		if err != nil {
			return nil, invalid(td.Name, "column '%s.%s': %v", td.Name, cd.Name, err)
		}
		ordinal := int32(i)
		if cd.Index != nil {
			ordinal = *cd.Index
		}
		t.Columns[cd.Name] = &catalog.Column{
			Name:     cd.Name,
			Index:    ordinal,
			Type:     typ,
			Size:     cd.Size,
			Nullable: cd.Nullable,
		}
	}

	for _, id := range td.Indexes {
		typ, err := index.ParseIndexType(id.Type)
		if err != nil {
			return nil, invalid(td.Name, "index '%s.%s': %v", td.Name, id.Name, err)
		}
		refs, err := columnRefs(t, id.Columns)
		if err != nil {
			return nil, err
		}
		t.Indexes[id.Name] = &catalog.Index{Name: id.Name, Type: typ, Unique: id.Unique, Columns: refs}
	}

	for _, cd := range td.Constraints {
		typ, err := catalog.ParseConstraintType(cd.Type)
		if err != nil {
			return nil, invalid(td.Name, "constraint '%s.%s': %v", td.Name, cd.Name, err)
		}
		c := &catalog.Constraint{Name: cd.Name, Type: typ}
		if cd.Index != "" {
			idx, ok := t.Indexes[cd.Index]
			if !ok {
				return nil, invalid(td.Name, "constraint '%s.%s' uses unknown index '%s'", td.Name, cd.Name, cd.Index)
			}
			c.Index = idx
		}
		t.Constraints[cd.Name] = c
	}

	if td.PartitionColumn != "" {
		col, ok := t.Columns[td.PartitionColumn]
		if !ok {
			return nil, invalid(td.Name, "partition column '%s' is not a column of table '%s'", td.PartitionColumn, td.Name)
		}
		t.PartitionColumn = col
	}

	if len(td.EvictColumns) > 0 {
		refs, err := columnRefs(t, td.EvictColumns)
		if err != nil {
			return nil, err
		}
		t.EvictColumns = refs
	}
	return t, nil
}

// columnRefs turns an ordered column name list into position-carrying references.
func columnRefs(t *catalog.Table, names []string) (map[string]*catalog.ColumnRef, error) {
	refs := make(map[string]*catalog.ColumnRef, len(names))
	for pos, name := range names {
		col, ok := t.Columns[name]
		if !ok {
			return nil, invalid(t.Name, "unknown column '%s' in table '%s'", name, t.Name)
		}
		if _, dup := refs[name]; dup {
			return nil, invalid(t.Name, "column '%s' listed twice in table '%s'", name, t.Name)
		}
		refs[name] = &catalog.ColumnRef{Name: name, Index: int32(pos), Column: col}
	}
	return refs, nil
}

// LoadProceduresFile reads procedure column usage from path.
func LoadProceduresFile(path string) (map[string][]anticache.ColumnUse, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeInvalidDefinition, "LoadProceduresFile", component)
	}
	return decodeProcedures(v)
}

// LoadProcedures reads YAML procedure column usage from r:
//
//	procedures:
//	  - name: NewOrder
//	    columns: [ORDERS.O_ID, ORDERS.O_C_ID]
func LoadProcedures(r io.Reader) (map[string][]anticache.ColumnUse, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeInvalidDefinition, "LoadProcedures", component)
	}
	return decodeProcedures(v)
}

func decodeProcedures(v *viper.Viper) (map[string][]anticache.ColumnUse, error) {
	var docs []procedureDoc
	if err := v.UnmarshalKey("procedures", &docs); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeInvalidDefinition, "LoadProcedures", component)
	}

	procs := make(map[string][]anticache.ColumnUse, len(docs))
	for _, pd := range docs {
		uses, err := functools.MapWithError(pd.Columns, func(qualified string) (anticache.ColumnUse, error) {
			table, column, ok := strings.Cut(qualified, ".")
			if !ok || table == "" || column == "" {
				return anticache.ColumnUse{}, invalid("", "procedure '%s': column '%s' is not of the form TABLE.COLUMN", pd.Name, qualified)
			}
			return anticache.ColumnUse{Table: table, Column: column}, nil
		})
		if err != nil {
			return nil, err
		}
		procs[pd.Name] = append(procs[pd.Name], uses...)
	}
	return procs, nil
}

func invalid(table, format string, args ...any) error {
	return dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidDefinition, fmt.Sprintf(format, args...)).
		WithTable(table).
		At("Load", component)
}
