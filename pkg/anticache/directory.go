package anticache

import (
	dberror "coldstore/pkg/error"
	"coldstore/pkg/primitives"
	"coldstore/pkg/tuple"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const directoryComponent = "EvictionDirectory"

// idAlphabet avoids characters that are easy to mistype when reading logs.
const idAlphabet = "abcdefghikmonpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ0123456789"

// EntryID identifies one evicted tuple inside a directory. The owning table
// keeps it in place of the tuple it evicted.
type EntryID uint64

type entry struct {
	locator BlockTupleLocator
	cold    []any
}

// Directory records where the evicted tuples of one table went. Each entry is
// a row of the directory schema: BLOCK_ID, TUPLE_OFFSET and, in vertical
// layout, the values of the cold columns.
//
// A directory is partition-local and used only from the execution context
// that owns the table's tuples, so it does no locking.
type Directory struct {
	id         string
	databaseID primitives.DatabaseID
	name       string
	schema     *tuple.Schema

	entries   map[EntryID]*entry
	byLocator map[BlockTupleLocator]EntryID
	nextID    EntryID
	finalized bool
}

// NewDirectory creates an empty eviction directory with the given schema,
// which must be an evicted schema (see tuple.NewEvictedSchema).
func NewDirectory(databaseID primitives.DatabaseID, name string, schema *tuple.Schema) *Directory {
	return &Directory{
		id:         gonanoid.MustGenerate(idAlphabet, 8),
		databaseID: databaseID,
		name:       name,
		schema:     schema,
		entries:    make(map[EntryID]*entry),
		byLocator:  make(map[BlockTupleLocator]EntryID),
		nextID:     1,
	}
}

// ID is a short random identifier used to tell directory instances apart in diagnostics.
func (d *Directory) ID() string { return d.id }

func (d *Directory) Name() string { return d.name }

func (d *Directory) DatabaseID() primitives.DatabaseID { return d.databaseID }

func (d *Directory) Schema() *tuple.Schema { return d.schema }

// ColdColumnCount is the number of directory columns after the two addressing columns.
func (d *Directory) ColdColumnCount() int {
	return d.schema.ColumnCount() - tuple.EvictedAddressColumns
}

// Len returns the number of live entries.
func (d *Directory) Len() int { return len(d.entries) }

// Finalized reports whether the directory has been torn down.
func (d *Directory) Finalized() bool { return d.finalized }

// Insert records an evicted tuple at loc, together with its cold column values
// in vertical layout. cold must hold exactly ColdColumnCount values.
func (d *Directory) Insert(loc BlockTupleLocator, cold []any) (EntryID, error) {
	if d.finalized {
		return 0, d.finalizedError("Insert")
	}
	if !loc.IsValid() {
		return 0, dberror.Newf(dberror.ErrCategoryData, dberror.CodeInvalidEntry,
			"invalid locator %s for directory '%s'", loc, d.name).At("Insert", directoryComponent)
	}
	if len(cold) != d.ColdColumnCount() {
		return 0, dberror.Newf(dberror.ErrCategoryData, dberror.CodeInvalidEntry,
			"directory '%s' expects %d cold values, got %d", d.name, d.ColdColumnCount(), len(cold)).
			At("Insert", directoryComponent)
	}
	if existing, ok := d.byLocator[loc]; ok {
		return 0, dberror.Newf(dberror.ErrCategoryData, dberror.CodeDuplicateLocator,
			"locator %s is already used by entry %d of directory '%s'", loc, existing, d.name).
			At("Insert", directoryComponent)
	}

	id := d.nextID
	d.nextID++

	values := make([]any, len(cold))
	copy(values, cold)
	d.entries[id] = &entry{locator: loc, cold: values}
	d.byLocator[loc] = id
	return id, nil
}

// Lookup returns where the entry's tuple was evicted to and its cold values.
func (d *Directory) Lookup(id EntryID) (BlockTupleLocator, []any, error) {
	e, ok := d.entries[id]
	if !ok {
		return BlockTupleLocator{}, nil, d.notFound("Lookup", id)
	}
	cold := make([]any, len(e.cold))
	copy(cold, e.cold)
	return e.locator, cold, nil
}

// Find returns the entry recorded for loc.
func (d *Directory) Find(loc BlockTupleLocator) (EntryID, bool) {
	id, ok := d.byLocator[loc]
	return id, ok
}

// Row returns the entry as a directory schema row: block id, tuple offset, cold values.
func (d *Directory) Row(id EntryID) ([]any, error) {
	e, ok := d.entries[id]
	if !ok {
		return nil, d.notFound("Row", id)
	}
	row := make([]any, 0, tuple.EvictedAddressColumns+len(e.cold))
	row = append(row, int32(e.locator.BlockID), int32(e.locator.TupleOffset))
	row = append(row, e.cold...)
	return row, nil
}

// Delete removes an entry once its tuple has been brought back in.
// The locator becomes free for reuse.
func (d *Directory) Delete(id EntryID) error {
	if d.finalized {
		return d.finalizedError("Delete")
	}
	e, ok := d.entries[id]
	if !ok {
		return d.notFound("Delete", id)
	}
	delete(d.byLocator, e.locator)
	delete(d.entries, id)
	return nil
}

// Finalize drops every entry. The owning table calls it before it is destroyed.
func (d *Directory) Finalize() {
	d.entries = make(map[EntryID]*entry)
	d.byLocator = make(map[BlockTupleLocator]EntryID)
	d.finalized = true
}

func (d *Directory) notFound(op string, id EntryID) error {
	return dberror.Newf(dberror.ErrCategoryData, dberror.CodeEntryNotFound,
		"entry %d not found in directory '%s'", id, d.name).At(op, directoryComponent)
}

func (d *Directory) finalizedError(op string) error {
	return dberror.Newf(dberror.ErrCategorySystem, dberror.CodeTableReleased,
		"directory '%s' has been finalized", d.name).At(op, directoryComponent)
}
