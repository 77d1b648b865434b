package sizeof

import "unsafe"

const sliceHeader = 24

// Cap counts every element the backing array holds, in use or reserved.
func Cap[T any](v []T) uint64 {
	return sliceHeader + uint64(unsafe.Sizeof(*new(T)))*uint64(cap(v))
}
