package anticache

import (
	"fmt"
	"strings"
)

// LayoutMode selects how an evictable table's directory is laid out.
// It is chosen once per table compile.
type LayoutMode int

const (
	// LayoutTuple keeps only the block address of each evicted tuple. The full
	// tuple is reconstructed from the raw block.
	LayoutTuple LayoutMode = iota

	// LayoutVertical also keeps the designated cold columns in the directory,
	// so a resident hot-only tuple plus a directory row form the full row.
	LayoutVertical
)

// DefaultColdColumnLimit is the number of cold columns chosen per table when
// cold columns are selected from procedure references.
const DefaultColdColumnLimit = 2

// DirectorySuffix is appended to a table name to name its eviction directory.
const DirectorySuffix = "__EVICTED"

func (m LayoutMode) String() string {
	switch m {
	case LayoutTuple:
		return "tuple"
	case LayoutVertical:
		return "vertical"
	default:
		return fmt.Sprintf("LayoutMode(%d)", int(m))
	}
}

// ParseLayoutMode parses "tuple" (also "", "whole", "whole-tuple") or "vertical".
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tuple", "whole", "whole-tuple":
		return LayoutTuple, nil
	case "vertical", "vertical-partition":
		return LayoutVertical, nil
	default:
		return LayoutTuple, fmt.Errorf("unknown anti-cache layout %q", s)
	}
}

// DirectoryName returns the name of the eviction directory of table.
func DirectoryName(table string) string {
	return table + DirectorySuffix
}
