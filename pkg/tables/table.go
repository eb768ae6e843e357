package tables

import (
	"fmt"
	"sync/atomic"

	"coldstore/pkg/anticache"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/primitives"
	"coldstore/pkg/storage/index"
	"coldstore/pkg/tuple"

	"github.com/segmentio/ksuid"
)

// PersistentTable is the table object a compiled descriptor is installed as.
// An evictable table additionally carries its eviction directory; a table
// without one simply leaves the field nil.
type PersistentTable struct {
	id         string
	partition  primitives.PartitionID
	descriptor *Descriptor

	evicted      *anticache.Directory
	batchEvicted bool
	vertical     *anticache.VerticalPartitions

	refs      atomic.Int32
	destroyed atomic.Bool
}

func newPersistentTable(partition primitives.PartitionID, desc *Descriptor) *PersistentTable {
	return &PersistentTable{
		id:         "tbl_" + ksuid.New().String(),
		partition:  partition,
		descriptor: desc,
	}
}

// ID is a k-sorted identifier unique to this table object. Compiling the same
// definition twice yields two tables with different ids.
func (t *PersistentTable) ID() string { return t.id }

func (t *PersistentTable) Name() string { return t.descriptor.Name }

func (t *PersistentTable) TableID() primitives.TableID { return t.descriptor.TableID }

func (t *PersistentTable) Partition() primitives.PartitionID { return t.partition }

func (t *PersistentTable) Descriptor() *Descriptor { return t.descriptor }

func (t *PersistentTable) Schema() *tuple.Schema { return t.descriptor.Schema }

func (t *PersistentTable) PrimaryKey() *index.Scheme { return t.descriptor.PrimaryKey }

func (t *PersistentTable) Indexes() []*index.Scheme { return t.descriptor.Indexes }

// RefCount returns the number of owning references currently held.
func (t *PersistentTable) RefCount() int32 { return t.refs.Load() }

// IsDestroyed reports whether the last owner released the table.
func (t *PersistentTable) IsDestroyed() bool { return t.destroyed.Load() }

// SetEvictedTable attaches the eviction directory. The table becomes
// responsible for finalizing it when destroyed.
func (t *PersistentTable) SetEvictedTable(dir *anticache.Directory) error {
	if t.destroyed.Load() {
		return t.releasedError("SetEvictedTable")
	}
	if t.evicted != nil {
		return dberror.Newf(dberror.ErrCategorySystem, dberror.CodeInvalidAntiCacheUsage,
			"table '%s' already has eviction directory '%s'", t.Name(), t.evicted.Name()).
			At("SetEvictedTable", "PersistentTable")
	}
	t.evicted = dir
	return nil
}

// EvictedTable returns the attached eviction directory, if any.
func (t *PersistentTable) EvictedTable() (*anticache.Directory, bool) {
	return t.evicted, t.evicted != nil
}

// SetBatchEvicted records whether tuples are evicted in batches.
func (t *PersistentTable) SetBatchEvicted(batch bool) { t.batchEvicted = batch }

func (t *PersistentTable) IsBatchEvicted() bool { return t.batchEvicted }

// SetVerticalPartitions records the hot/cold column mapping of a vertically
// partitioned evictable table.
func (t *PersistentTable) SetVerticalPartitions(v *anticache.VerticalPartitions) { t.vertical = v }

// VerticalPartitions returns the hot/cold mapping, nil unless the table uses vertical layout.
func (t *PersistentTable) VerticalPartitions() *anticache.VerticalPartitions { return t.vertical }

func (t *PersistentTable) acquire() {
	t.refs.Add(1)
}

// release drops one owning reference and destroys the table at zero.
func (t *PersistentTable) release() {
	if t.refs.Add(-1) == 0 {
		t.destroy()
	}
}

// destroy finalizes the eviction directory before the table itself, so no
// directory outlives its owner.
func (t *PersistentTable) destroy() {
	if !t.destroyed.CompareAndSwap(false, true) {
		return
	}
	if t.evicted != nil {
		t.evicted.Finalize()
		t.evicted = nil
	}
	t.vertical = nil
}

func (t *PersistentTable) releasedError(op string) error {
	return dberror.Newf(dberror.ErrCategorySystem, dberror.CodeTableReleased,
		"table '%s' has been destroyed", t.Name()).At(op, "PersistentTable")
}

func (t *PersistentTable) String() string {
	dir := "none"
	if t.evicted != nil {
		dir = t.evicted.Name()
	}
	return fmt.Sprintf("PersistentTable(%s, id=%s, partition=%d, evicted=%s, refs=%d)",
		t.Name(), t.id, t.partition, dir, t.RefCount())
}
