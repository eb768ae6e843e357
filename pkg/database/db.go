package database

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"coldstore/pkg/catalog"
	"coldstore/pkg/catalog/delegate"
	"coldstore/pkg/config"
	dberror "coldstore/pkg/error"
	"coldstore/pkg/logging"
	"coldstore/pkg/primitives"
	"coldstore/pkg/registry"
	"coldstore/pkg/tables"

	"golang.org/x/sync/errgroup"
)

// Database applies catalogs to every partition of one site and owns the
// resulting tables. Each partition has its own execution context, table
// manager and delegates; partitions are compiled concurrently, tables within
// a partition one after another.
type Database struct {
	name    string
	factory tables.Factory

	partitions []*partition

	mutex sync.RWMutex
	stats *DatabaseStats
	// catalog is the last applied catalog, nil before the first apply.
	catalog *catalog.Database
	closed  bool
}

type partition struct {
	ec        *registry.ExecutorContext
	tables    *tables.TableManager
	delegates map[string]*delegate.Delegate
}

// DatabaseStats tracks catalog apply outcomes.
type DatabaseStats struct {
	CatalogApplies int64
	TablesCompiled int64
	CompileErrors  int64
	mutex          sync.RWMutex
}

// DatabaseInfo contains database metadata
type DatabaseInfo struct {
	Name           string
	Partitions     int
	Tables         []string
	TableCount     int
	CatalogApplies int64
	TablesCompiled int64
	CompileErrors  int64
}

// NewDatabase creates an engine with one execution context per configured
// partition. Tables are built with factory.
func NewDatabase(name string, cfg *config.Config, factory tables.Factory) (*Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if factory == nil {
		return nil, fmt.Errorf("table factory cannot be nil")
	}

	var opts []registry.Option
	if cfg.AntiCache.Enabled {
		layout, _ := cfg.AntiCache.LayoutMode()
		opts = append(opts, registry.WithAntiCache(layout))
	}

	db := &Database{
		name:       name,
		factory:    factory,
		partitions: make([]*partition, cfg.Engine.Partitions),
		stats:      &DatabaseStats{},
	}
	for i := range db.partitions {
		db.partitions[i] = &partition{
			ec: registry.NewExecutorContext(
				primitives.SiteID(cfg.Engine.SiteID),
				primitives.PartitionID(i),
				primitives.DatabaseID(cfg.Engine.DatabaseID),
				opts...,
			),
			tables:    tables.NewTableManager(),
			delegates: make(map[string]*delegate.Delegate),
		}
	}
	return db, nil
}

// ApplyCatalog makes cat the set of tables on every partition. The catalog is
// validated as a whole first; an invalid definition (nil table, table stored
// under another name, two tables sharing an id) rejects the apply before
// anything is built. Installed tables that cat no longer contains are dropped.
//
// A table that fails to compile is skipped on that partition and its error is
// returned joined with the others; tables that compiled stay installed. A
// table that was already installed keeps its previous version when
// recompiling fails.
//
// Cancelling ctx stops each partition before its next table.
func (db *Database) ApplyCatalog(ctx context.Context, cat *catalog.Database) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if db.closed {
		return fmt.Errorf("database %s is closed", db.name)
	}
	if err := cat.Validate(); err != nil {
		return err
	}

	names := slices.Sorted(maps.Keys(cat.Tables))
	partErrs := make([]error, len(db.partitions))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range db.partitions {
		g.Go(func() error {
			compiled, err := p.apply(gctx, db.factory, cat, names)
			db.recordApply(compiled, err)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			partErrs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	db.stats.mutex.Lock()
	db.stats.CatalogApplies++
	db.stats.mutex.Unlock()
	db.catalog = cat

	return errors.Join(partErrs...)
}

func (p *partition) apply(ctx context.Context, factory tables.Factory, cat *catalog.Database, names []string) (int, error) {
	log := logging.WithPartition(int32(p.ec.PartitionID()))

	var errs []error
	if err := p.dropMissing(cat); err != nil {
		errs = append(errs, err)
	}

	compiled := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return compiled, err
		}

		d, exists := p.delegates[name]
		if !exists {
			d = delegate.New(factory)
		}
		if err := d.Init(p.ec, cat, cat.Tables[name]); err != nil {
			errs = append(errs, fmt.Errorf("partition %d: %w", p.ec.PartitionID(), err))
			continue
		}
		p.delegates[name] = d

		if _, err := p.tables.AddTable(d.Table()); err != nil {
			errs = append(errs, err)
			continue
		}
		compiled++
	}

	if err := p.dropDisplaced(); err != nil {
		errs = append(errs, err)
	}

	log.Info().Int("tables", compiled).Int("errors", len(errs)).Msg("catalog applied")
	return compiled, errors.Join(errs...)
}

// dropMissing tears down the tables whose definitions are absent from cat.
func (p *partition) dropMissing(cat *catalog.Database) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(p.delegates)) {
		if _, ok := cat.Tables[name]; ok {
			continue
		}
		if err := p.drop(name); err != nil {
			errs = append(errs, err)
		}
		logging.WithTable(name).Info().
			Int32("partition", int32(p.ec.PartitionID())).
			Msg("table removed from catalog")
	}
	return errors.Join(errs...)
}

// dropDisplaced tears down tables that kept their previous version after a
// failed recompile but lost their id to another table of the new catalog.
// Such a table can no longer be installed next to the table now owning its id.
func (p *partition) dropDisplaced() error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(p.delegates)) {
		owned := p.delegates[name].Table()
		if installed, err := p.tables.GetTable(name); err == nil && installed == owned {
			continue
		}
		holder, _ := p.tables.GetTableName(owned.TableID())
		errs = append(errs, dberror.Newf(dberror.ErrCategoryUser, dberror.CodeInvalidDefinition,
			"partition %d: table '%s' was dropped because its id %d is now used by '%s'",
			p.ec.PartitionID(), name, owned.TableID(), holder).
			WithTable(name).
			At("ApplyCatalog", "Database"))
		if err := p.drop(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// drop uninstalls the named table and releases it.
func (p *partition) drop(name string) error {
	d, ok := p.delegates[name]
	if !ok {
		return nil
	}
	if installed, err := p.tables.GetTable(name); err == nil && installed == d.Table() {
		p.tables.RemoveTable(name)
	}
	delete(p.delegates, name)
	return d.Teardown()
}

func (db *Database) recordApply(compiled int, err error) {
	failed := 0
	if err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			failed = len(joined.Unwrap())
		} else {
			failed = 1
		}
	}

	db.stats.mutex.Lock()
	db.stats.TablesCompiled += int64(compiled)
	db.stats.CompileErrors += int64(failed)
	db.stats.mutex.Unlock()
}

func (db *Database) partitionAt(id primitives.PartitionID) (*partition, error) {
	if id < 0 || int(id) >= len(db.partitions) {
		return nil, fmt.Errorf("partition %d does not exist (have %d)", id, len(db.partitions))
	}
	return db.partitions[id], nil
}

// Table returns a non-owning reference to the named table on a partition.
// It must not be used after the table is dropped or the database closed.
func (db *Database) Table(id primitives.PartitionID, name string) (*tables.PersistentTable, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	p, err := db.partitionAt(id)
	if err != nil {
		return nil, err
	}
	return p.tables.GetTable(name)
}

// Descriptor returns the compiled descriptor of the named table on a partition.
func (db *Database) Descriptor(id primitives.PartitionID, name string) (*tables.Descriptor, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	p, err := db.partitionAt(id)
	if err != nil {
		return nil, err
	}
	d, ok := p.delegates[name]
	if !ok || d.Descriptor() == nil {
		return nil, fmt.Errorf("table '%s' not found", name)
	}
	return d.Descriptor(), nil
}

// GetTables returns the names of the tables installed on partition 0, sorted.
// Every partition holds the same tables unless a compile failed on one of them.
func (db *Database) GetTables() []string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if len(db.partitions) == 0 {
		return nil
	}
	return db.partitions[0].tables.GetAllTableNames()
}

// Catalog returns the last applied catalog, or nil.
func (db *Database) Catalog() *catalog.Database {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.catalog
}

// ExecutorContext returns the execution context of a partition.
func (db *Database) ExecutorContext(id primitives.PartitionID) (*registry.ExecutorContext, error) {
	p, err := db.partitionAt(id)
	if err != nil {
		return nil, err
	}
	return p.ec, nil
}

// DropTable removes the named table from every partition and releases it.
func (db *Database) DropTable(name string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	found := false
	var errs []error
	for _, p := range db.partitions {
		if _, ok := p.delegates[name]; !ok {
			continue
		}
		found = true
		if err := p.drop(name); err != nil {
			errs = append(errs, err)
		}
	}
	if !found {
		return fmt.Errorf("table '%s' not found", name)
	}

	logging.WithTable(name).Info().Msg("table dropped")
	return errors.Join(errs...)
}

// GetStatistics returns current database statistics.
func (db *Database) GetStatistics() DatabaseInfo {
	names := db.GetTables()

	db.stats.mutex.RLock()
	defer db.stats.mutex.RUnlock()

	return DatabaseInfo{
		Name:           db.name,
		Partitions:     len(db.partitions),
		Tables:         names,
		TableCount:     len(names),
		CatalogApplies: db.stats.CatalogApplies,
		TablesCompiled: db.stats.TablesCompiled,
		CompileErrors:  db.stats.CompileErrors,
	}
}

// ValidateIntegrity checks that every partition's table manager agrees with
// its delegates.
func (db *Database) ValidateIntegrity() error {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, p := range db.partitions {
		if err := p.tables.ValidateIntegrity(); err != nil {
			return fmt.Errorf("partition %d: %w", p.ec.PartitionID(), err)
		}
		for name, d := range p.delegates {
			installed, err := p.tables.GetTable(name)
			if err != nil || installed != d.Table() {
				return fmt.Errorf("partition %d: table '%s' is owned but not installed", p.ec.PartitionID(), name)
			}
		}
	}
	return nil
}

// Close tears down every table on every partition. The database cannot be
// used afterwards; closing twice is a no-op.
func (db *Database) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true

	var errs []error
	for _, p := range db.partitions {
		p.tables.Clear()
		for _, name := range slices.Sorted(maps.Keys(p.delegates)) {
			if err := p.delegates[name].Teardown(); err != nil {
				errs = append(errs, dberror.Wrap(err, dberror.CodeTableReleased, "Close", "Database"))
			}
		}
		p.delegates = make(map[string]*delegate.Delegate)
	}
	return errors.Join(errs...)
}
