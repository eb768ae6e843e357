package anticache

import (
	"cmp"
	"maps"
	"slices"

	"coldstore/pkg/catalog"
)

// ColumnUse is one column a stored procedure reads or writes.
type ColumnUse struct {
	Table  string
	Column string
}

// CountReferences counts, per table and column, how many procedures use the
// column. A procedure touching a column several times counts once.
func CountReferences(procedures map[string][]ColumnUse) map[string]map[string]int {
	counts := make(map[string]map[string]int)
	for _, uses := range procedures {
		seen := make(map[ColumnUse]bool, len(uses))
		for _, u := range uses {
			if seen[u] {
				continue
			}
			seen[u] = true
			if counts[u.Table] == nil {
				counts[u.Table] = make(map[string]int)
			}
			counts[u.Table][u.Column]++
		}
	}
	return counts
}

// SelectColdColumns picks the evict column set of an evictable table: its
// columns ranked by reference count, most referenced first, stopping at the
// first column nobody references and keeping at most limit columns. Ties go
// to the lower column ordinal. Non-evictable tables get no cold columns.
func SelectColdColumns(table *catalog.Table, refCounts map[string]int, limit int) map[string]*catalog.ColumnRef {
	selected := make(map[string]*catalog.ColumnRef)
	if !table.Evictable || limit <= 0 {
		return selected
	}

	columns := slices.Collect(maps.Values(table.Columns))
	slices.SortFunc(columns, func(a, b *catalog.Column) int {
		if c := cmp.Compare(refCounts[b.Name], refCounts[a.Name]); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	for i, col := range columns {
		if i >= limit || refCounts[col.Name] == 0 {
			break
		}
		selected[col.Name] = &catalog.ColumnRef{Name: col.Name, Index: int32(i), Column: col}
	}
	return selected
}

// AssignColdColumns fills EvictColumns of every evictable table in db from
// per-table reference counts. It returns the names of the tables it changed.
func AssignColdColumns(db *catalog.Database, refCounts map[string]map[string]int, limit int) []string {
	var changed []string
	for _, name := range slices.Sorted(maps.Keys(db.Tables)) {
		t := db.Tables[name]
		if !t.Evictable {
			continue
		}
		t.EvictColumns = SelectColdColumns(t, refCounts[t.Name], limit)
		changed = append(changed, t.Name)
	}
	return changed
}
