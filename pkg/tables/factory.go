package tables

import (
	"sync"

	"coldstore/pkg/anticache"
	"coldstore/pkg/registry"
	"coldstore/pkg/tuple"
)

// Factory builds table objects from compiled descriptors. Both methods trust
// their input: the compiler validates everything before calling them.
type Factory interface {
	// CreatePersistentTable builds the table for desc. The primary key index is
	// built only when desc.PrimaryKey is set.
	CreatePersistentTable(ec *registry.ExecutorContext, desc *Descriptor) *PersistentTable

	// CreateEvictionDirectoryTable builds an eviction directory. It skips
	// primary key and index construction.
	CreateEvictionDirectoryTable(ec *registry.ExecutorContext, name string, schema *tuple.Schema) *anticache.Directory
}

// MemoryFactory creates in-memory tables and remembers every table it built,
// which lets callers check that compile/teardown cycles leak nothing.
type MemoryFactory struct {
	mu          sync.Mutex
	tables      []*PersistentTable
	directories []*anticache.Directory
}

// NewMemoryFactory creates an empty factory.
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{}
}

func (f *MemoryFactory) CreatePersistentTable(ec *registry.ExecutorContext, desc *Descriptor) *PersistentTable {
	t := newPersistentTable(ec.PartitionID(), desc)

	f.mu.Lock()
	f.tables = append(f.tables, t)
	f.mu.Unlock()
	return t
}

func (f *MemoryFactory) CreateEvictionDirectoryTable(ec *registry.ExecutorContext, name string, schema *tuple.Schema) *anticache.Directory {
	d := anticache.NewDirectory(ec.DatabaseID(), name, schema)

	f.mu.Lock()
	f.directories = append(f.directories, d)
	f.mu.Unlock()
	return d
}

// Created returns the number of persistent tables built so far.
func (f *MemoryFactory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables)
}

// LiveTables returns the tables that are still owned and not destroyed.
func (f *MemoryFactory) LiveTables() []*PersistentTable {
	f.mu.Lock()
	defer f.mu.Unlock()

	var live []*PersistentTable
	for _, t := range f.tables {
		if !t.IsDestroyed() && t.RefCount() > 0 {
			live = append(live, t)
		}
	}
	return live
}

// LiveDirectories returns the directories that have not been finalized.
func (f *MemoryFactory) LiveDirectories() []*anticache.Directory {
	f.mu.Lock()
	defer f.mu.Unlock()

	var live []*anticache.Directory
	for _, d := range f.directories {
		if !d.Finalized() {
			live = append(live, d)
		}
	}
	return live
}
