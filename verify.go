package reftable

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/zeebo/errs/v2"
)

// Verify checks the internal consistency of the table and returns an error
// describing the first problem found.
func (t *T[V]) Verify() error {
	if len(t.free) > len(t.slots) {
		return errs.Errorf("reftable: %d free slots with only %d slots", len(t.free), len(t.slots))
	}
	if len(t.slots) > 0 && len(t.free) == len(t.slots) {
		return errs.Errorf("reftable: all %d slots free but storage retained", len(t.slots))
	}

	seen := roaring.New()
	for _, idx := range t.free {
		switch {
		case uint64(idx) >= uint64(len(t.slots)):
			return errs.Errorf("reftable: free slot %d out of range [0, %d)", idx, len(t.slots))
		case !seen.CheckedAdd(idx):
			return errs.Errorf("reftable: free slot %d listed twice", idx)
		case t.slots[idx].ok:
			return errs.Errorf("reftable: free slot %d is occupied", idx)
		}
	}

	empty := 0
	for i := range t.slots {
		if !t.slots[i].ok {
			empty++
		}
	}
	if empty != len(t.free) {
		return errs.Errorf("reftable: %d empty slots but %d free slots", empty, len(t.free))
	}

	return nil
}
