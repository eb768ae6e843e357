package delegate

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"coldstore/pkg/anticache"
	"coldstore/pkg/catalog"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/logging"
	"coldstore/pkg/primitives"
	"coldstore/pkg/storage/index"
	"coldstore/pkg/tables"
	"coldstore/pkg/tuple"
	"coldstore/pkg/types"

	"github.com/brianvoe/gofakeit/v6"
)

func TestCompile_ColumnOrderFollowsOrdinals(t *testing.T) {
	faker := gofakeit.New(42)

	for round := 0; round < 25; round++ {
		n := faker.Number(1, 12)
		table, want := randomTable(t, faker, n)

		desc, _, err := Compile(plainContext(), nil, table)
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", round, err)
		}

		got := desc.ColumnNames()
		if len(got) != n {
			t.Fatalf("round %d: expected %d columns, got %d", round, n, len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("round %d: column %d = %s, want %s", round, i, got[i], want[i])
			}
			def, _ := desc.Schema.Column(i)
			if def.Ordinal != primitives.ColumnID(i) {
				t.Errorf("round %d: column %s has ordinal %d, want %d", round, def.Name, def.Ordinal, i)
			}
		}
	}
}

func TestCompile_IndexOrderFollowsReferencePositions(t *testing.T) {
	faker := gofakeit.New(7)

	for round := 0; round < 25; round++ {
		n := faker.Number(2, 10)
		table, names := randomTable(t, faker, n)

		m := faker.Number(1, n)
		picked := make([]int, n)
		for i := range picked {
			picked[i] = i
		}
		faker.ShuffleInts(picked)
		picked = picked[:m]

		refs := make(map[string]*catalog.ColumnRef, m)
		for pos, ordinal := range picked {
			col := table.Columns[names[ordinal]]
			refs[col.Name] = &catalog.ColumnRef{Name: col.Name, Index: int32(pos), Column: col}
		}
		table.Indexes = map[string]*catalog.Index{
			"IDX": {Name: "IDX", Type: index.BTreeIndex, Columns: refs},
		}

		desc, _, err := Compile(plainContext(), nil, table)
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", round, err)
		}
		if len(desc.Indexes) != 1 {
			t.Fatalf("round %d: expected one secondary index, got %d", round, len(desc.Indexes))
		}

		scheme := desc.Indexes[0]
		for pos, ordinal := range picked {
			if scheme.ColumnIndices[pos] != primitives.ColumnID(ordinal) {
				t.Fatalf("round %d: key column %d = %d, want %d", round, pos, scheme.ColumnIndices[pos], ordinal)
			}
		}
		if !scheme.IntsOnly {
			t.Errorf("round %d: index over integer columns should be ints-only", round)
		}
	}
}

func TestCompile_Orders(t *testing.T) {
	db := newDatabase(newOrdersTable())
	db.Exports["ORDERS"] = &catalog.ExportTable{Table: "ORDERS", AppendOnly: true}

	desc, evictable, err := Compile(plainContext(), db, db.Tables["ORDERS"])
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if evictable {
		t.Error("ORDERS is not evictable")
	}

	if desc.TableID != 3 || desc.Name != "ORDERS" {
		t.Errorf("Unexpected identity: %v", desc)
	}
	if desc.PartitionColumn != 1 {
		t.Errorf("Expected partition column 1, got %d", desc.PartitionColumn)
	}
	if !desc.ExportEnabled || !desc.ExportOnly {
		t.Errorf("Expected export-only table, got enabled=%v only=%v", desc.ExportEnabled, desc.ExportOnly)
	}

	if desc.PrimaryKey == nil || desc.PrimaryKey.Name != "PK_ORDERS" {
		t.Fatalf("Expected primary key PK_ORDERS, got %v", desc.PrimaryKey)
	}
	wantKey := []primitives.ColumnID{1, 0}
	for i, c := range wantKey {
		if desc.PrimaryKey.ColumnIndices[i] != c {
			t.Errorf("Primary key column %d = %d, want %d", i, desc.PrimaryKey.ColumnIndices[i], c)
		}
	}
	if !desc.PrimaryKey.IntsOnly {
		t.Error("Primary key over SMALLINT and BIGINT should be ints-only")
	}

	if len(desc.Indexes) != 1 {
		t.Fatalf("Expected 1 secondary index, got %d", len(desc.Indexes))
	}
	if desc.Indexes[0].IntsOnly {
		t.Error("Index including a VARCHAR column must not be ints-only")
	}

	note, _ := desc.Schema.Column(3)
	if note.Length != 64 || !note.AllowNull {
		t.Errorf("Expected nullable VARCHAR(64), got %v", note)
	}
	id, _ := desc.Schema.Column(0)
	if id.Length != 8 {
		t.Errorf("Expected BIGINT storage size 8, got %d", id.Length)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(tbl *catalog.Table)
		wantErr error
		wantMsg string
	}{
		{
			name: "Index without columns",
			modify: func(tbl *catalog.Table) {
				tbl.Indexes["IDX_EMPTY"] = &catalog.Index{Name: "IDX_EMPTY", Type: index.HashIndex}
			},
			wantErr: dberror.ErrMalformedIndex,
			wantMsg: "index 'IDX_EMPTY' in table 'ORDERS' does not declare any columns to use",
		},
		{
			name: "Negative reference position",
			modify: func(tbl *catalog.Table) {
				ref := tbl.Indexes["IDX_ORDERS_CUSTOMER"].Columns["O_C_ID"]
				ref.Index = -1
			},
			wantErr: dberror.ErrMalformedIndex,
			wantMsg: "invalid column '-1'",
		},
		{
			name: "Duplicate column ordinal",
			modify: func(tbl *catalog.Table) {
				tbl.Columns["O_NOTE"].Index = 0
			},
			wantErr: dberror.ErrMalformedSchema,
		},
		{
			name: "Duplicate primary key",
			modify: func(tbl *catalog.Table) {
				tbl.Constraints["C_PK_SECOND"] = &catalog.Constraint{
					Name: "C_PK_SECOND", Type: catalog.PrimaryKeyConstraint, Index: tbl.Indexes["IDX_ORDERS_CUSTOMER"],
				}
			},
			wantErr: dberror.ErrDuplicatePrimaryKey,
			wantMsg: "but 'PK_ORDERS' was already set as the primary key",
		},
		{
			name: "Primary key without index",
			modify: func(tbl *catalog.Table) {
				tbl.Constraints["C_PK_ORDERS"].Index = nil
			},
			wantErr: dberror.ErrMalformedConstraint,
		},
		{
			name: "Unique without index",
			modify: func(tbl *catalog.Table) {
				tbl.Constraints["C_UNIQUE"] = &catalog.Constraint{Name: "C_UNIQUE", Type: catalog.UniqueConstraint}
			},
			wantErr: dberror.ErrMalformedConstraint,
		},
		{
			name: "Unknown constraint kind",
			modify: func(tbl *catalog.Table) {
				tbl.Constraints["C_ODD"] = &catalog.Constraint{Name: "C_ODD", Type: catalog.ConstraintType(17)}
			},
			wantErr: dberror.ErrUnsupportedConstraint,
		},
		{
			name: "Evictable materialized view",
			modify: func(tbl *catalog.Table) {
				tbl.Evictable = true
				tbl.Materializer = newOrdersTable()
			},
			wantErr: dberror.ErrInvalidAntiCacheUsage,
			wantMsg: "Trying to use the anti-caching feature on materialized view 'ORDERS'",
		},
		{
			name: "Evictable map/reduce output",
			modify: func(tbl *catalog.Table) {
				tbl.Evictable = true
				tbl.MapReduce = true
			},
			wantErr: dberror.ErrInvalidAntiCacheUsage,
		},
		{
			name: "Partition column outside the table",
			modify: func(tbl *catalog.Table) {
				tbl.PartitionColumn = &catalog.Column{Name: "W_ID", Index: 1, Type: types.SmallIntType}
			},
			wantErr: dberror.ErrMalformedSchema,
		},
		{
			name: "Missing column type",
			modify: func(tbl *catalog.Table) {
				tbl.Columns["O_NOTE"].Type = types.InvalidType
			},
			wantErr: dberror.ErrInvalidDefinition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newOrdersTable()
			tt.modify(tbl)

			factory := tables.NewMemoryFactory()
			res, err := Build(plainContext(), factory, newDatabase(tbl), tbl)
			if err == nil {
				t.Fatalf("Expected error, got result %v", res)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected message containing %q, got %q", tt.wantMsg, err.Error())
			}
			if factory.Created() != 0 {
				t.Errorf("Factory must not be called on a failed compile, created %d tables", factory.Created())
			}
		})
	}
}

func TestCompile_MaterializedViewRejectedWithAntiCacheEnabled(t *testing.T) {
	tbl := newOrdersTable()
	tbl.Evictable = true
	tbl.Materializer = newOrdersTable()

	for _, layout := range []anticache.LayoutMode{anticache.LayoutTuple, anticache.LayoutVertical} {
		_, _, err := Compile(antiCacheContext(layout), nil, tbl)
		if !errors.Is(err, dberror.ErrInvalidAntiCacheUsage) {
			t.Errorf("%s: expected INVALID_ANTICACHE_USAGE, got %v", layout, err)
		}
	}
}

func TestCompile_UnenforcedConstraintsWarn(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf, logging.LevelWarn)
	defer logging.Close()

	tbl := newOrdersTable()
	tbl.Constraints["C_CHECK"] = &catalog.Constraint{Name: "C_CHECK", Type: catalog.CheckConstraint}
	tbl.Constraints["C_FK"] = &catalog.Constraint{Name: "C_FK", Type: catalog.ForeignKeyConstraint}

	if _, _, err := Compile(plainContext(), nil, tbl); err != nil {
		t.Fatalf("Unenforced constraints must not fail compilation: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "C_CHECK") || !strings.Contains(out, "C_FK") {
		t.Errorf("Expected warnings for both constraints, got %s", out)
	}
}

func TestBuild_WholeTupleDirectory(t *testing.T) {
	tbl := newOrdersTable()
	tbl.Evictable = true
	tbl.BatchEvicted = true

	factory := tables.NewMemoryFactory()
	res, err := Build(antiCacheContext(anticache.LayoutTuple), factory, nil, tbl)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer res.Handle.Release()

	pt := res.Handle.Table()
	dir, ok := pt.EvictedTable()
	if !ok {
		t.Fatal("Evictable table should have an eviction directory")
	}
	if dir.Name() != "ORDERS__EVICTED" {
		t.Errorf("Expected directory ORDERS__EVICTED, got %s", dir.Name())
	}

	names := dir.Schema().Names()
	if len(names) != 2 || names[0] != tuple.BlockIDColumn || names[1] != tuple.TupleOffsetColumn {
		t.Errorf("Expected [BLOCK_ID TUPLE_OFFSET], got %v", names)
	}
	for _, typ := range dir.Schema().Types() {
		if typ != types.IntegerType {
			t.Errorf("Addressing columns must be INTEGER, got %s", typ)
		}
	}
	if !pt.IsBatchEvicted() {
		t.Error("Batch evicted flag should be copied to the table")
	}
	if pt.VerticalPartitions() != nil {
		t.Error("Whole-tuple layout must not record vertical partitions")
	}
}

func TestBuild_AntiCacheDisabled(t *testing.T) {
	tbl := newOrdersTable()
	tbl.Evictable = true

	res, err := Build(plainContext(), tables.NewMemoryFactory(), nil, tbl)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer res.Handle.Release()

	if _, ok := res.Handle.Table().EvictedTable(); ok {
		t.Error("No directory should be attached while the anti-cache is disabled")
	}
}

func TestBuild_VerticalDirectory(t *testing.T) {
	tests := []struct {
		name string
		cold []string
	}{
		{name: "No cold columns", cold: nil},
		{name: "One cold column", cold: []string{"O_NOTE"}},
		{name: "Two cold columns", cold: []string{"O_NOTE", "O_C_ID"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newOrdersTable()
			tbl.Evictable = true
			tbl.EvictColumns = make(map[string]*catalog.ColumnRef)
			for i, name := range tt.cold {
				tbl.EvictColumns[name] = &catalog.ColumnRef{Name: name, Index: int32(i), Column: tbl.Columns[name]}
			}

			res, err := Build(antiCacheContext(anticache.LayoutVertical), tables.NewMemoryFactory(), nil, tbl)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer res.Handle.Release()

			pt := res.Handle.Table()
			dir, ok := pt.EvictedTable()
			if !ok {
				t.Fatal("Expected an eviction directory")
			}

			names := dir.Schema().Names()
			if len(names) != 2+len(tt.cold) {
				t.Fatalf("Expected %d directory columns, got %v", 2+len(tt.cold), names)
			}
			if names[0] != tuple.BlockIDColumn || names[1] != tuple.TupleOffsetColumn {
				t.Errorf("Addressing columns must come first, got %v", names)
			}
			for i, name := range tt.cold {
				if names[2+i] != name {
					t.Errorf("Directory column %d = %s, want %s", 2+i, names[2+i], name)
				}
			}

			vp := pt.VerticalPartitions()
			if vp == nil {
				t.Fatal("Expected vertical partitions on the table")
			}
			if len(vp.HotColumns)+len(vp.ColdColumns) != 4 {
				t.Errorf("Hot and cold columns must cover the table, got %v / %v", vp.HotColumns, vp.ColdColumns)
			}
		})
	}
}

func TestBuild_VerticalRejectsBadEvictColumns(t *testing.T) {
	tbl := newOrdersTable()
	tbl.Evictable = true
	tbl.EvictColumns = map[string]*catalog.ColumnRef{
		"O_NOTE": {Name: "O_NOTE", Index: 1, Column: tbl.Columns["O_NOTE"]},
	}

	factory := tables.NewMemoryFactory()
	_, err := Build(antiCacheContext(anticache.LayoutVertical), factory, nil, tbl)
	if !errors.Is(err, dberror.ErrMalformedSchema) {
		t.Fatalf("Expected MALFORMED_SCHEMA, got %v", err)
	}
	if factory.Created() != 0 {
		t.Errorf("Factory must not be called, created %d tables", factory.Created())
	}
}

func TestCompile_RoundTrip(t *testing.T) {
	db := newDatabase(newOrdersTable())
	tbl := db.Tables["ORDERS"]
	byCustomer := tbl.Indexes["IDX_ORDERS_CUSTOMER"]
	tbl.Constraints["C_UQ_CUSTOMER"] = &catalog.Constraint{Name: "C_UQ_CUSTOMER", Type: catalog.UniqueConstraint, Index: byCustomer}
	tbl.Constraints["C_CHECK_NOTE"] = &catalog.Constraint{Name: "C_CHECK_NOTE", Type: catalog.CheckConstraint}
	factory := tables.NewMemoryFactory()

	first, err := Build(plainContext(), factory, db, tbl)
	if err != nil {
		t.Fatalf("First compile failed: %v", err)
	}
	second, err := Build(plainContext(), factory, db, tbl)
	if err != nil {
		t.Fatalf("Second compile failed: %v", err)
	}

	if !first.Descriptor.SameStructure(second.Descriptor) {
		t.Errorf("Descriptors differ:\n%v\n%v", first.Descriptor, second.Descriptor)
	}

	desc := first.Descriptor
	if len(desc.UniqueIndexes) != 1 || desc.UniqueIndexes[0] != "IDX_ORDERS_CUSTOMER" {
		t.Errorf("Expected unique index IDX_ORDERS_CUSTOMER, got %v", desc.UniqueIndexes)
	}
	if len(desc.Unenforced) != 1 || desc.Unenforced[0] != "C_CHECK_NOTE" {
		t.Errorf("Expected unenforced C_CHECK_NOTE, got %v", desc.Unenforced)
	}

	delete(tbl.Constraints, "C_UQ_CUSTOMER")
	third, err := Build(plainContext(), factory, db, tbl)
	if err != nil {
		t.Fatalf("Third compile failed: %v", err)
	}
	if first.Descriptor.SameStructure(third.Descriptor) {
		t.Error("Dropping a unique constraint must change the compiled structure")
	}
	third.Handle.Release()
	if first.Handle.Table().ID() == second.Handle.Table().ID() {
		t.Error("Each compile should create a distinct table object")
	}

	first.Handle.Release()
	second.Handle.Release()
}

func TestDelegate_Lifecycle(t *testing.T) {
	factory := tables.NewMemoryFactory()
	d := New(factory)
	ec := antiCacheContext(anticache.LayoutTuple)

	tbl := newOrdersTable()
	tbl.Evictable = true
	db := newDatabase(tbl)
	db.Exports["ORDERS"] = &catalog.ExportTable{Table: "ORDERS"}

	if d.Table() != nil {
		t.Fatal("New delegate should own no table")
	}

	if err := d.Init(ec, db, tbl); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	first := d.Table()
	if first.RefCount() != 1 {
		t.Errorf("Installed table should have exactly one owner, got %d", first.RefCount())
	}
	if !d.ExportEnabled() {
		t.Error("Expected export to be enabled")
	}
	firstDir, _ := first.EvictedTable()

	if err := d.Init(ec, db, tbl); err != nil {
		t.Fatalf("Re-init failed: %v", err)
	}
	if !first.IsDestroyed() || first.RefCount() != 0 {
		t.Errorf("Replaced table should be destroyed, refs=%d", first.RefCount())
	}
	if !firstDir.Finalized() {
		t.Error("Replaced table's directory should be finalized")
	}

	second := d.Table()
	if err := d.Teardown(); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}
	if second.RefCount() != 0 || !second.IsDestroyed() {
		t.Errorf("Teardown should destroy the table, refs=%d", second.RefCount())
	}
	if len(factory.LiveTables()) != 0 || len(factory.LiveDirectories()) != 0 {
		t.Errorf("Leaked tables=%d directories=%d", len(factory.LiveTables()), len(factory.LiveDirectories()))
	}
	if err := d.Teardown(); err != nil {
		t.Errorf("Second teardown should be a no-op, got %v", err)
	}
}

func TestDelegate_FailedInitKeepsPreviousTable(t *testing.T) {
	d := New(tables.NewMemoryFactory())
	tbl := newOrdersTable()

	if err := d.Init(plainContext(), nil, tbl); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	installed := d.Table()

	broken := newOrdersTable()
	broken.Indexes["IDX_EMPTY"] = &catalog.Index{Name: "IDX_EMPTY", Type: index.HashIndex}
	if err := d.Init(plainContext(), nil, broken); !errors.Is(err, dberror.ErrMalformedIndex) {
		t.Fatalf("Expected MALFORMED_INDEX, got %v", err)
	}

	if d.Table() != installed || installed.IsDestroyed() {
		t.Error("Failed init must leave the previous table installed")
	}
	d.Teardown()
}

func TestDelegate_InitNilTable(t *testing.T) {
	factory := tables.NewMemoryFactory()
	d := New(factory)

	if err := d.Init(plainContext(), nil, nil); !errors.Is(err, dberror.ErrInvalidDefinition) {
		t.Fatalf("Expected INVALID_DEFINITION, got %v", err)
	}
	if d.Table() != nil {
		t.Error("Nil definition must not install a table")
	}
	if factory.Created() != 0 {
		t.Errorf("Factory must not be called, created %d tables", factory.Created())
	}
}
