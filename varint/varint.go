package varint

import (
	"encoding/binary"
	"math/bits"
)

var le = binary.LittleEndian

// MaxLen is the largest number of bytes Append produces.
const MaxLen = 9

// Len returns the number of bytes used to encode val.
func Len(val uint64) int {
	return 575*bits.Len64(val)/4096 + 1
}

// Append encodes val with a length prefix in the low bits of the first byte:
// n-1 set bits followed by a clear bit for n < 9, or 0xff for n == 9.
func Append(buf []byte, val uint64) []byte {
	n := Len(val)

	if n < MaxLen {
		var tmp [8]byte
		le.PutUint64(tmp[:], val<<uint(n)|(1<<uint(n-1)-1))
		return append(buf, tmp[:n]...)
	}

	buf = append(buf, 0xff)
	return le.AppendUint64(buf, val)
}

// Consume decodes a value from the front of src and reports how many bytes
// it used. It returns false if src is too short.
func Consume(src []byte) (val uint64, n int, ok bool) {
	if len(src) == 0 {
		return 0, 0, false
	}

	n = bits.TrailingZeros8(^src[0]) + 1
	if len(src) < n {
		return 0, 0, false
	}

	if n == MaxLen {
		return le.Uint64(src[1:MaxLen]), n, true
	}

	var tmp [8]byte
	copy(tmp[:], src[:n])
	return le.Uint64(tmp[:]) >> uint(n), n, true
}
