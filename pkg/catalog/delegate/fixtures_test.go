package delegate

import (
	"fmt"
	"testing"

	"coldstore/pkg/anticache"
	"coldstore/pkg/catalog"
	"coldstore/pkg/registry"
	"coldstore/pkg/storage/index"
	"coldstore/pkg/types"

	"github.com/brianvoe/gofakeit/v6"
)

// newOrdersTable builds ORDERS(O_ID BIGINT, O_W_ID SMALLINT, O_C_ID INTEGER,
// O_NOTE VARCHAR(64) NULL) with a two column primary key and one secondary
// index over the customer and note columns.
func newOrdersTable() *catalog.Table {
	id := &catalog.Column{Name: "O_ID", Index: 0, Type: types.BigIntType}
	wid := &catalog.Column{Name: "O_W_ID", Index: 1, Type: types.SmallIntType}
	cid := &catalog.Column{Name: "O_C_ID", Index: 2, Type: types.IntegerType}
	note := &catalog.Column{Name: "O_NOTE", Index: 3, Type: types.VarcharType, Size: 64, Nullable: true}

	pk := &catalog.Index{
		Name:   "PK_ORDERS",
		Type:   index.HashIndex,
		Unique: true,
		Columns: map[string]*catalog.ColumnRef{
			"O_W_ID": {Name: "O_W_ID", Index: 0, Column: wid},
			"O_ID":   {Name: "O_ID", Index: 1, Column: id},
		},
	}
	byCustomer := &catalog.Index{
		Name: "IDX_ORDERS_CUSTOMER",
		Type: index.BTreeIndex,
		Columns: map[string]*catalog.ColumnRef{
			"O_C_ID": {Name: "O_C_ID", Index: 0, Column: cid},
			"O_NOTE": {Name: "O_NOTE", Index: 1, Column: note},
		},
	}

	return &catalog.Table{
		Name:          "ORDERS",
		RelativeIndex: 3,
		Columns: map[string]*catalog.Column{
			"O_ID": id, "O_W_ID": wid, "O_C_ID": cid, "O_NOTE": note,
		},
		Indexes: map[string]*catalog.Index{
			pk.Name:         pk,
			byCustomer.Name: byCustomer,
		},
		Constraints: map[string]*catalog.Constraint{
			"C_PK_ORDERS": {Name: "C_PK_ORDERS", Type: catalog.PrimaryKeyConstraint, Index: pk},
		},
		PartitionColumn: wid,
	}
}

func newDatabase(tables ...*catalog.Table) *catalog.Database {
	db := &catalog.Database{
		Name:    "tpcc",
		Tables:  make(map[string]*catalog.Table),
		Exports: make(map[string]*catalog.ExportTable),
	}
	for _, t := range tables {
		db.Tables[t.Name] = t
	}
	return db
}

func plainContext() *registry.ExecutorContext {
	return registry.NewExecutorContext(1, 0, 0)
}

func antiCacheContext(layout anticache.LayoutMode) *registry.ExecutorContext {
	return registry.NewExecutorContext(1, 0, 0, registry.WithAntiCache(layout))
}

var intTypes = []types.ValueType{types.TinyIntType, types.SmallIntType, types.IntegerType, types.BigIntType}

// randomTable builds a table with n columns whose ordinals are a random
// permutation of 0..n-1, and returns the column names in ordinal order.
func randomTable(t *testing.T, faker *gofakeit.Faker, n int) (*catalog.Table, []string) {
	t.Helper()

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	faker.ShuffleInts(perm)

	names := make([]string, n)
	columns := make(map[string]*catalog.Column, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s_%d", faker.LetterN(6), i)
		col := &catalog.Column{
			Name:     name,
			Index:    int32(perm[i]),
			Type:     intTypes[faker.Number(0, len(intTypes)-1)],
			Nullable: faker.Bool(),
		}
		columns[name] = col
		names[perm[i]] = name
	}

	return &catalog.Table{Name: faker.LetterN(8), Columns: columns}, names
}
