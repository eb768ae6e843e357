package anticache

import (
	"fmt"

	"coldstore/pkg/primitives"
)

// BlockTupleLocator is the address of an evicted tuple on secondary storage.
// The block manager hands one out per eviction and never gives the same
// locator to two live tuples of one directory.
type BlockTupleLocator struct {
	BlockID     primitives.BlockID
	TupleOffset primitives.TupleOffset
}

// NewLocator builds a locator.
func NewLocator(block primitives.BlockID, offset primitives.TupleOffset) BlockTupleLocator {
	return BlockTupleLocator{BlockID: block, TupleOffset: offset}
}

// IsValid reports whether both parts of the address are non-negative.
func (l BlockTupleLocator) IsValid() bool {
	return l.BlockID >= 0 && l.TupleOffset >= 0
}

func (l BlockTupleLocator) String() string {
	return fmt.Sprintf("Block(%d)@%d", l.BlockID, l.TupleOffset)
}
