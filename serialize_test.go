package reftable

import (
	"bytes"
	"testing"

	"github.com/zeebo/assert"
	"github.com/zeebo/mwc"

	"github.com/histdb/reftable/num"
	"github.com/histdb/reftable/rwutils"
)

func encode[V any, RWV rwutils.RWPtr[V]](t *testing.T, tb *T[V]) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w rwutils.W
	w.Init(&buf, make([]byte, 0, 256))
	AppendTo[V, RWV](tb, &w)
	assert.NoError(t, w.Done())
	return buf.Bytes()
}

func decode[V any, RWV rwutils.RWPtr[V]](data []byte) (*T[V], []byte, error) {
	var tb T[V]
	var r rwutils.R
	r.Init(data)
	ReadFrom[V, RWV](&tb, &r)
	rem, err := r.Done()
	return &tb, rem, err
}

func TestSerialize(t *testing.T) {
	rng := mwc.New(3, 3)

	var tb T[num.F32]
	var keys []K[num.F32]
	for range 1000 {
		keys = append(keys, tb.Insert(num.F32(rng.Float32())))
	}
	for i := 0; i < len(keys); i += 3 {
		tb.Remove(keys[i])
	}

	data := encode(t, &tb)
	got, rem, err := decode[num.F32](data)
	assert.NoError(t, err)
	assert.Equal(t, len(rem), 0)
	assert.NoError(t, got.Verify())

	assert.Equal(t, got.Len(), tb.Len())
	assert.Equal(t, got.Cap(), tb.Cap())
	for i, k := range keys {
		assert.Equal(t, got.Contains(k), i%3 != 0)
		if i%3 != 0 {
			assert.Equal(t, got.Get(k), tb.Get(k))
		}
	}

	// both tables hand out the same handles from here on
	for i := range 500 {
		assert.Equal(t, got.Insert(num.F32(i)), tb.Insert(num.F32(i)))
	}
}

func TestSerializeHandlesOnly(t *testing.T) {
	var tb T[num.E]
	var keys []K[num.E]
	for range 10 {
		keys = append(keys, tb.Insert(num.E{}))
	}
	tb.Remove(keys[2])
	tb.Remove(keys[5])

	data := encode(t, &tb)

	// one occupancy byte per slot and no value bytes
	free := tb.Cap() - tb.Len()
	assert.Equal(t, len(data), 8+1+tb.Cap()+1+4*free+8)

	got, _, err := decode[num.E](data)
	assert.NoError(t, err)
	assert.Equal(t, got.Len(), 8)
	for i, k := range keys {
		assert.Equal(t, got.Contains(k), i != 2 && i != 5)
	}
	assert.Equal(t, got.Insert(num.E{}), keys[5])
	assert.Equal(t, got.Insert(num.E{}), keys[2])
}

func TestSerializeFloat64(t *testing.T) {
	rng := mwc.New(4, 4)

	var tb T[num.F64]
	exp := make(map[K[num.F64]]num.F64)
	for range 300 {
		v := num.F64(rng.Uint64()) / 7
		exp[tb.Insert(v)] = v
	}

	got, _, err := decode[num.F64](encode(t, &tb))
	assert.NoError(t, err)
	assert.Equal(t, got.Len(), len(exp))
	for k, v := range exp {
		assert.Equal(t, got.Get(k), v)
	}
}

func TestSerializeEmpty(t *testing.T) {
	var tb T[num.U64]

	got, _, err := decode[num.U64](encode(t, &tb))
	assert.NoError(t, err)
	assert.That(t, got.Empty())
	assert.Equal(t, got.Cap(), 0)

	k := got.Insert(7)
	assert.Equal(t, k.Raw(), 0)
	assert.Equal(t, got.Get(k), num.U64(7))
}

func TestSerializeTrailing(t *testing.T) {
	var tb T[num.U32]
	for i := range 10 {
		tb.Insert(num.U32(i))
	}

	data := append(encode(t, &tb), 1, 2, 3)
	got, rem, err := decode[num.U32](data)
	assert.NoError(t, err)
	assert.Equal(t, rem, []byte{1, 2, 3})
	assert.Equal(t, got.Len(), 10)
}

func TestSerializeTruncated(t *testing.T) {
	var tb T[num.U16]
	for i := range 20 {
		tb.Insert(num.U16(i))
	}
	tb.Remove(Raw[num.U16](4))

	data := encode(t, &tb)
	for n := range len(data) {
		got, _, err := decode[num.U16](data[:n])
		assert.Error(t, err)
		assert.That(t, got.Empty())
		assert.Equal(t, got.Cap(), 0)
	}
}

func TestSerializeCorrupt(t *testing.T) {
	var tb T[num.U8]
	for i := range 20 {
		tb.Insert(num.U8(i))
	}
	tb.Remove(Raw[num.U8](2))
	tb.Remove(Raw[num.U8](9))

	data := encode(t, &tb)
	for i := range data {
		bad := bytes.Clone(data)
		bad[i] ^= 0x10

		got, _, err := decode[num.U8](bad)
		assert.Error(t, err)
		assert.That(t, got.Empty())
	}
}

func TestSerializeInvalidTable(t *testing.T) {
	var buf bytes.Buffer
	var w rwutils.W

	// a well formed encoding whose free list names the same slot twice
	w.Init(&buf, nil)
	w.Uint64(version)
	w.Varint(2)
	w.Uint8(1)
	num.U64(5).AppendTo(&w)
	w.Uint8(0)
	w.Varint(2)
	w.Uint32(1)
	w.Uint32(1)
	w.Uint64(w.Sum64())
	assert.NoError(t, w.Done())

	got, _, err := decode[num.U64](buf.Bytes())
	assert.Error(t, err)
	assert.That(t, got.Empty())
}

func TestSerializeReplaces(t *testing.T) {
	var src T[num.U64]
	src.Insert(1)
	data := encode(t, &src)

	var dst T[num.U64]
	for i := range 5 {
		dst.Insert(num.U64(i))
	}

	var r rwutils.R
	r.Init(data)
	ReadFrom(&dst, &r)
	_, err := r.Done()
	assert.NoError(t, err)
	assert.Equal(t, dst.Len(), 1)
	assert.Equal(t, dst.Get(Raw[num.U64](0)), num.U64(1))
}
