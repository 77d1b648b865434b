package num

import (
	"math"

	"github.com/histdb/reftable/rwutils"
)

// E is an empty value for tables used only as handle allocators.
type E struct{}

func (E) AppendTo(w *rwutils.W)  {}
func (*E) ReadFrom(r *rwutils.R) {}

type U64 uint64

func (u *U64) ReadFrom(r *rwutils.R) { *u = U64(r.Uint64()) }
func (u U64) AppendTo(w *rwutils.W)  { w.Uint64(uint64(u)) }

type U32 uint32

func (u *U32) ReadFrom(r *rwutils.R) { *u = U32(r.Uint32()) }
func (u U32) AppendTo(w *rwutils.W)  { w.Uint32(uint32(u)) }

type U16 uint16

func (u *U16) ReadFrom(r *rwutils.R) { *u = U16(r.Uint16()) }
func (u U16) AppendTo(w *rwutils.W)  { w.Uint16(uint16(u)) }

type U8 uint8

func (u *U8) ReadFrom(r *rwutils.R) { *u = U8(r.Uint8()) }
func (u U8) AppendTo(w *rwutils.W)  { w.Uint8(uint8(u)) }

// F32 and F64 encode their IEEE 754 bits, so NaN payloads survive a round
// trip.

type F32 float32

func (f *F32) ReadFrom(r *rwutils.R) { *f = F32(math.Float32frombits(r.Uint32())) }
func (f F32) AppendTo(w *rwutils.W)  { w.Uint32(math.Float32bits(float32(f))) }

type F64 float64

func (f *F64) ReadFrom(r *rwutils.R) { *f = F64(math.Float64frombits(r.Uint64())) }
func (f F64) AppendTo(w *rwutils.W)  { w.Uint64(math.Float64bits(float64(f))) }
