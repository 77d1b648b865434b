package rwutils

import (
	"encoding/binary"
	"io"

	"github.com/zeebo/errs/v2"
	"github.com/zeebo/xxh3"

	"github.com/histdb/reftable/varint"
)

var le = binary.LittleEndian

type RW interface {
	AppendTo(w *W)
	ReadFrom(r *R)
}

// RWPtr is satisfied by *T when *T knows how to encode and decode a T.
type RWPtr[T any] interface {
	*T
	RW
}

//
// writer
//

type W struct {
	buf []byte
	err error
	w   io.Writer
	h   *xxh3.Hasher
}

func (w *W) Init(wr io.Writer, buf []byte) {
	*w = W{
		buf: buf[:0],
		w:   wr,
		h:   xxh3.New(),
	}
}

func (w *W) Done() error {
	w.flush()
	return w.err
}

// Sum64 returns the xxh3 hash of every byte written since Init.
func (w *W) Sum64() uint64 {
	w.flush()
	return w.hasher().Sum64()
}

func (w *W) hasher() *xxh3.Hasher {
	if w.h == nil {
		w.h = xxh3.New()
	}
	return w.h
}

func (w *W) reserve(n int) {
	if len(w.buf)+n > cap(w.buf) {
		w.flush()
	}
}

func (w *W) Uint64(x uint64) {
	w.reserve(8)
	w.buf = le.AppendUint64(w.buf, x)
}

func (w *W) Uint32(x uint32) {
	w.reserve(4)
	w.buf = le.AppendUint32(w.buf, x)
}

func (w *W) Uint16(x uint16) {
	w.reserve(2)
	w.buf = le.AppendUint16(w.buf, x)
}

func (w *W) Uint8(x uint8) {
	w.reserve(1)
	w.buf = append(w.buf, x)
}

func (w *W) Varint(x uint64) {
	w.reserve(9)
	w.buf = varint.Append(w.buf, x)
}

func (w *W) Bytes(buf []byte) {
	if len(w.buf)+len(buf) > cap(w.buf) {
		w.flush()
		if len(buf) > cap(w.buf) {
			w.write(buf)
			return
		}
	}
	w.buf = append(w.buf, buf...)
}

//go:noinline
func (w *W) flush() {
	w.write(w.buf)
	w.buf = w.buf[:0]
}

func (w *W) write(buf []byte) {
	if len(buf) == 0 {
		return
	}
	_, _ = w.hasher().Write(buf)
	if w.err == nil {
		_, w.err = w.w.Write(buf)
	}
}

//
// reader
//

type R struct {
	buf []byte
	pos int
	err error
}

func (r *R) Init(buf []byte) {
	*r = R{buf: buf}
}

// Done returns the unconsumed input and the first error encountered.
func (r *R) Done() ([]byte, error) {
	return r.buf[r.pos:], r.err
}

func (r *R) Err() error     { return r.err }
func (r *R) Remaining() int { return len(r.buf) - r.pos }

// Sum64 returns the xxh3 hash of every byte consumed since Init.
func (r *R) Sum64() uint64 { return xxh3.Hash(r.buf[:r.pos]) }

// Invalid records err, if no error has been recorded yet, and discards the
// rest of the input.
func (r *R) Invalid(err error) {
	if r.err == nil {
		r.err = err
	}
	r.pos = len(r.buf)
}

func (r *R) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.Invalid(errs.Errorf("short buffer: needed %d bytes", n))
		return nil
	}
	b := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b
}

func (r *R) Uint64() (x uint64) {
	if b := r.take(8); b != nil {
		x = le.Uint64(b)
	}
	return
}

func (r *R) Uint32() (x uint32) {
	if b := r.take(4); b != nil {
		x = le.Uint32(b)
	}
	return
}

func (r *R) Uint16() (x uint16) {
	if b := r.take(2); b != nil {
		x = le.Uint16(b)
	}
	return
}

func (r *R) Uint8() (x uint8) {
	if b := r.take(1); b != nil {
		x = b[0]
	}
	return
}

func (r *R) Varint() (x uint64) {
	if r.err != nil {
		return
	}
	x, n, ok := varint.Consume(r.buf[r.pos:])
	if !ok {
		r.Invalid(errs.Errorf("short buffer: truncated varint"))
		return 0
	}
	r.pos += n
	return x
}

func (r *R) Bytes(n int) []byte {
	if n < 0 {
		r.Invalid(errs.Errorf("invalid byte count: %d", n))
		return nil
	}
	return r.take(n)
}
