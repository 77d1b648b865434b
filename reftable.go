// Package reftable implements a table that hands out stable handles to the
// values it stores. Lookup and update by handle are O(1), and insertion and
// removal are amortized O(1), but callers cannot choose the keys.
//
// Handles are bare slot indexes with no generation. Once a handle's value is
// removed the slot may be handed out again by Insert, and the old handle will
// then silently refer to the new value. Using a handle after removing it is a
// programming error the table cannot detect.
//
// A T is not safe for concurrent use.
package reftable

import (
	"math"

	"github.com/zeebo/errs/v2"

	"github.com/histdb/reftable/sizeof"
)

const maxSlots = math.MaxUint32 + 1

type tag[V any] struct{}

// K is a handle to a value stored in a T[V].
type K[V any] struct {
	_ tag[V]
	v uint32
}

func Raw[V any](v uint32) K[V] { return K[V]{v: v} }
func (k K[V]) Raw() uint32     { return k.v }
func (k K[V]) Digest() uint64  { return uint64(k.v) }

type slot[V any] struct {
	v  V
	ok bool
}

// T is a table of values addressed by K[V]. The zero value is an empty table
// ready to use.
type T[V any] struct {
	_ [0]func() // no equality

	slots []slot[V]
	free  []uint32
}

func (t *T[V]) Len() int    { return len(t.slots) - len(t.free) }
func (t *T[V]) Empty() bool { return t.Len() == 0 }
func (t *T[V]) Cap() int    { return len(t.slots) }

func (t *T[V]) Size() uint64 {
	return 0 +
		/* slots */ sizeof.Cap(t.slots) +
		/* free  */ sizeof.Cap(t.free) +
		0
}

func (t *T[V]) Contains(k K[V]) bool {
	return t.slot(k).ok
}

func (t *T[V]) Get(k K[V]) V {
	s := t.slot(k)
	if !s.ok {
		panic(errs.Errorf("reftable: get of removed key %d", k.v))
	}
	return s.v
}

// Set replaces the value for k. It never creates an entry.
func (t *T[V]) Set(k K[V], v V) {
	s := t.slot(k)
	if !s.ok {
		panic(errs.Errorf("reftable: set of removed key %d", k.v))
	}
	s.v = v
}

func (t *T[V]) Insert(v V) (k K[V]) {
	if len(t.free) == 0 {
		t.grow()
	}

	n := len(t.free) - 1
	k.v, t.free = t.free[n], t.free[:n]

	t.slots[k.v] = slot[V]{v: v, ok: true}
	return k
}

// Remove frees the slot for k. Freeing the last occupied slot releases all of
// the table's storage, after which every handle previously returned by Insert
// is out of range and passing it to any method, Contains included, panics.
func (t *T[V]) Remove(k K[V]) {
	s := t.slot(k)
	if !s.ok {
		panic(errs.Errorf("reftable: remove of removed key %d", k.v))
	}
	*s = slot[V]{}
	t.free = append(t.free, k.v)

	if len(t.free) == len(t.slots) {
		t.RemoveAll()
	}
}

func (t *T[V]) RemoveAll() {
	t.slots = nil
	t.free = nil
}

func (t *T[V]) slot(k K[V]) *slot[V] {
	if uint64(k.v) >= uint64(len(t.slots)) {
		panic(errs.Errorf("reftable: invalid key %d for table with %d slots", k.v, len(t.slots)))
	}
	return &t.slots[k.v]
}

//go:noinline
func (t *T[V]) grow() {
	n, c := len(t.slots), cap(t.slots)

	switch {
	case c == 0:
		c = 1
	case n < c:
		// fill the reserved space before reallocating
	case n == 0:
		c = 1
	default:
		c = 2 * n
	}

	if uint64(c) > maxSlots {
		panic(errs.Errorf("reftable: table full at %d slots", n))
	}

	if c > cap(t.slots) {
		slots := make([]slot[V], n, c)
		copy(slots, t.slots)
		t.slots = slots
	}
	if c > cap(t.free) {
		free := make([]uint32, len(t.free), c)
		copy(free, t.free)
		t.free = free
	}

	t.slots = t.slots[:c]
	clear(t.slots[n:])
	for i := n; i < c; i++ {
		t.free = append(t.free, uint32(i))
	}
}
