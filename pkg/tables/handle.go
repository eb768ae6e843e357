package tables

import (
	"sync/atomic"

	dberror "coldstore/pkg/error"
)

// Handle is the single owning reference to a table. The table compiler hands
// one out per successful compile; the catalog delegate keeps it for the
// table's lifetime and releases it on teardown. Everybody else works with the
// non-owning *PersistentTable returned by Table.
type Handle struct {
	table    *PersistentTable
	released atomic.Bool
}

// Own takes an owning reference to t.
func Own(t *PersistentTable) *Handle {
	t.acquire()
	return &Handle{table: t}
}

// Table returns the owned table.
func (h *Handle) Table() *PersistentTable {
	return h.table
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	return h.released.Load()
}

// Release gives up the reference. When it was the last one the table and its
// eviction directory are destroyed. A second Release is an error and leaves
// the reference count untouched.
func (h *Handle) Release() error {
	if !h.released.CompareAndSwap(false, true) {
		return dberror.Newf(dberror.ErrCategorySystem, dberror.CodeTableReleased,
			"handle to table '%s' was already released", h.table.Name()).
			At("Release", "TableHandle")
	}
	h.table.release()
	return nil
}
