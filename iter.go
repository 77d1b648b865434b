package reftable

import (
	"iter"
	"slices"
)

// All returns the entries of the table as of the call. Later changes to the
// table are not observed, and the sequence can be ranged over more than once.
// The order of entries is unspecified.
func (t *T[V]) All() iter.Seq2[K[V], V] {
	snap := slices.Clone(t.slots)

	return func(yield func(K[V], V) bool) {
		for i := range snap {
			if s := &snap[i]; s.ok && !yield(K[V]{v: uint32(i)}, s.v) {
				return
			}
		}
	}
}

func (t *T[V]) Keys() iter.Seq[K[V]] {
	all := t.All()
	return func(yield func(K[V]) bool) {
		for k := range all {
			if !yield(k) {
				return
			}
		}
	}
}

func (t *T[V]) Values() iter.Seq[V] {
	all := t.All()
	return func(yield func(V) bool) {
		for _, v := range all {
			if !yield(v) {
				return
			}
		}
	}
}
