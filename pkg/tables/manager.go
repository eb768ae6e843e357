package tables

import (
	"fmt"
	"sort"
	"sync"

	"coldstore/pkg/primitives"
)

// TableManager indexes the tables installed on one partition by name and by
// catalog table id. It holds non-owning references: the catalog delegates own
// the tables and must remove them here before releasing them.
type TableManager struct {
	nameToTable map[string]*PersistentTable
	idToTable   map[primitives.TableID]*PersistentTable
	mutex       sync.RWMutex
}

// NewTableManager creates an empty table manager.
func NewTableManager() *TableManager {
	return &TableManager{
		nameToTable: make(map[string]*PersistentTable),
		idToTable:   make(map[primitives.TableID]*PersistentTable),
	}
}

// AddTable installs t, replacing any existing table with the same name or id.
// The replaced table is returned so the caller can release it.
func (tm *TableManager) AddTable(t *PersistentTable) (*PersistentTable, error) {
	if t == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	if t.Name() == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if t.IsDestroyed() {
		return nil, t.releasedError("AddTable")
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	var replaced *PersistentTable
	if old, exists := tm.nameToTable[t.Name()]; exists {
		delete(tm.idToTable, old.TableID())
		replaced = old
	}
	if old, exists := tm.idToTable[t.TableID()]; exists {
		delete(tm.nameToTable, old.Name())
		replaced = old
	}

	tm.nameToTable[t.Name()] = t
	tm.idToTable[t.TableID()] = t
	return replaced, nil
}

// RemoveTable drops the table with the given name and returns it.
func (tm *TableManager) RemoveTable(name string) (*PersistentTable, bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	t, exists := tm.nameToTable[name]
	if !exists {
		return nil, false
	}
	delete(tm.nameToTable, name)
	delete(tm.idToTable, t.TableID())
	return t, true
}

// GetTable returns the table with the specified name.
func (tm *TableManager) GetTable(name string) (*PersistentTable, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	t, exists := tm.nameToTable[name]
	if !exists {
		return nil, fmt.Errorf("table '%s' not found", name)
	}
	return t, nil
}

// GetTableByID returns the table with the specified catalog id.
func (tm *TableManager) GetTableByID(id primitives.TableID) (*PersistentTable, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	t, exists := tm.idToTable[id]
	if !exists {
		return nil, fmt.Errorf("table with ID %d not found", id)
	}
	return t, nil
}

// GetTableID returns the catalog id of the table with the specified name.
func (tm *TableManager) GetTableID(name string) (primitives.TableID, error) {
	t, err := tm.GetTable(name)
	if err != nil {
		return 0, err
	}
	return t.TableID(), nil
}

// GetTableName returns the name of the table with the specified id.
func (tm *TableManager) GetTableName(id primitives.TableID) (string, error) {
	t, err := tm.GetTableByID(id)
	if err != nil {
		return "", err
	}
	return t.Name(), nil
}

// Clear forgets every table and returns them in name order.
func (tm *TableManager) Clear() []*PersistentTable {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	all := make([]*PersistentTable, 0, len(tm.nameToTable))
	for _, t := range tm.nameToTable {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })

	tm.nameToTable = make(map[string]*PersistentTable)
	tm.idToTable = make(map[primitives.TableID]*PersistentTable)
	return all
}

// Len returns the number of installed tables.
func (tm *TableManager) Len() int {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return len(tm.nameToTable)
}

// ValidateIntegrity performs basic integrity checks on the two indexes and
// rejects destroyed tables that are still installed.
func (tm *TableManager) ValidateIntegrity() error {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	if len(tm.nameToTable) != len(tm.idToTable) {
		return fmt.Errorf("table manager integrity violation: map size mismatch")
	}

	for name, table := range tm.nameToTable {
		if t, exists := tm.idToTable[table.TableID()]; !exists {
			return fmt.Errorf("table manager integrity violation: table %s missing from ID map", name)
		} else if t != table {
			return fmt.Errorf("table manager integrity violation: table %s reference mismatch", name)
		}
		if table.IsDestroyed() {
			return fmt.Errorf("table manager integrity violation: table %s is destroyed", name)
		}
	}

	for id, table := range tm.idToTable {
		if other, exists := tm.nameToTable[table.Name()]; !exists {
			return fmt.Errorf("table manager integrity violation: table ID %d missing from name map", id)
		} else if other != table {
			return fmt.Errorf("table manager integrity violation: table ID %d reference mismatch", id)
		}
	}

	return nil
}

// GetAllTableNames returns all installed table names in sorted order.
func (tm *TableManager) GetAllTableNames() []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.nameToTable))
	for name := range tm.nameToTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
