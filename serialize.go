package reftable

import (
	"math/bits"

	"github.com/zeebo/errs/v2"

	"github.com/histdb/reftable/rwutils"
)

const version = 0

// AppendTo encodes t into w. The encoding keeps slot positions and the free
// slot order, so handles into t are valid handles into the decoded table and
// it will hand out the same handles on subsequent inserts.
//
// The trailing checksum covers everything written to w since it was
// initialized, so the table should be read back from the same offset.
func AppendTo[V any, RWV rwutils.RWPtr[V]](t *T[V], w *rwutils.W) {
	w.Uint64(version)

	w.Varint(uint64(len(t.slots)))
	for i := range t.slots {
		s := &t.slots[i]
		if !s.ok {
			w.Uint8(0)
			continue
		}
		w.Uint8(1)
		RWV(&s.v).AppendTo(w)
	}

	w.Varint(uint64(len(t.free)))
	for _, idx := range t.free {
		w.Uint32(idx)
	}

	w.Uint64(w.Sum64())
}

// ReadFrom replaces the contents of t with a table decoded from r. Malformed
// input is reported through r and leaves t empty.
func ReadFrom[V any, RWV rwutils.RWPtr[V]](t *T[V], r *rwutils.R) {
	t.RemoveAll()

	if v := r.Uint64(); v != version {
		r.Invalid(errs.Errorf("reftable: unknown version %d", v))
		return
	}

	// every slot takes at least its occupancy byte
	n := r.Varint()
	if n > uint64(r.Remaining()) || n > maxSlots {
		r.Invalid(errs.Errorf("reftable: too many slots: %d", n))
		return
	}

	slots := make([]slot[V], n)
	for i := range slots {
		switch occ := r.Uint8(); occ {
		case 0:
		case 1:
			slots[i].ok = true
			RWV(&slots[i].v).ReadFrom(r)
		default:
			r.Invalid(errs.Errorf("reftable: invalid occupancy %d for slot %d", occ, i))
			return
		}
	}

	f := r.Varint()
	if hi, lo := bits.Mul64(f, 4); hi > 0 || lo > uint64(r.Remaining()) || f > n {
		r.Invalid(errs.Errorf("reftable: too many free slots: %d", f))
		return
	}

	free := make([]uint32, f, n)
	for i := range free {
		free[i] = r.Uint32()
	}

	sum := r.Sum64()
	if got := r.Uint64(); r.Err() == nil && got != sum {
		r.Invalid(errs.Errorf("reftable: checksum mismatch: %016x != %016x", got, sum))
	}
	if r.Err() != nil {
		return
	}

	next := T[V]{slots: slots, free: free}
	if err := next.Verify(); err != nil {
		r.Invalid(err)
		return
	}

	t.slots, t.free = next.slots, next.free
}
