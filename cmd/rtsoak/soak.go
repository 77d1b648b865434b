package main

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"
	"github.com/zeebo/errs/v2"
	"github.com/zeebo/mwc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/histdb/reftable"
	"github.com/histdb/reftable/num"
	"github.com/histdb/reftable/rwutils"
)

type config struct {
	Ops         int
	Seed        uint64
	MaxLive     int
	VerifyEvery int
	Snapshot    string
}

type stats struct {
	Inserts  int
	Sets     int
	Gets     int
	Removes  int
	Clears   int
	Checks   int
	PeakLive int
	PeakCap  int
	Size     uint64
}

func (s stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("inserts", s.Inserts)
	enc.AddInt("sets", s.Sets)
	enc.AddInt("gets", s.Gets)
	enc.AddInt("removes", s.Removes)
	enc.AddInt("clears", s.Clears)
	enc.AddInt("checks", s.Checks)
	enc.AddInt("peak_live", s.PeakLive)
	enc.AddInt("peak_cap", s.PeakCap)
	enc.AddUint64("size", s.Size)
	return nil
}

type (
	table = reftable.T[num.U64]
	key   = reftable.K[num.U64]
)

func run(cfg config, log *zap.Logger) (st stats, err error) {
	if cfg.MaxLive <= 0 {
		return st, errs.Errorf("max-live must be positive: %d", cfg.MaxLive)
	}

	rng := mwc.New(cfg.Seed, 1)

	var tb table
	shadow := make(map[key]uint64)
	live := make([]key, 0, cfg.MaxLive)

	pick := func() (int, key) {
		i := int(rng.Uint64n(uint64(len(live))))
		return i, live[i]
	}

	for i := range cfg.Ops {
		switch op := rng.Uint64n(1000); {
		case op == 0:
			tb.RemoveAll()
			clear(shadow)
			live = live[:0]
			st.Clears++

		case len(live) == 0 || (op < 450 && len(live) < cfg.MaxLive):
			v := rng.Uint64()
			k := tb.Insert(num.U64(v))
			if _, ok := shadow[k]; ok {
				return st, errs.Errorf("insert returned live key %d", k.Raw())
			}
			shadow[k] = v
			live = append(live, k)
			st.Inserts++

		case op < 600:
			_, k := pick()
			v := rng.Uint64()
			tb.Set(k, num.U64(v))
			shadow[k] = v
			st.Sets++

		case op < 800:
			_, k := pick()
			if got := uint64(tb.Get(k)); got != shadow[k] {
				return st, errs.Errorf("key %d: got %d want %d", k.Raw(), got, shadow[k])
			}
			st.Gets++

		default:
			j, k := pick()
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
			delete(shadow, k)
			tb.Remove(k)

			// draining the table drops its slots, so k is out of range
			switch {
			case tb.Cap() == 0:
				if tb.Len() != 0 || len(live) != 0 {
					return st, errs.Errorf("table released storage with %d live keys", len(live))
				}
			case tb.Contains(k):
				return st, errs.Errorf("key %d present after remove", k.Raw())
			}
			st.Removes++
		}

		st.PeakLive = max(st.PeakLive, tb.Len())
		st.PeakCap = max(st.PeakCap, tb.Cap())

		if cfg.VerifyEvery > 0 && (i+1)%cfg.VerifyEvery == 0 {
			if err := check(&tb, shadow); err != nil {
				return st, errs.Errorf("after %d ops: %v", i+1, err)
			}
			st.Checks++
			log.Debug("checked", zap.Int("ops", i+1), zap.Int("live", tb.Len()), zap.Int("cap", tb.Cap()))
		}
	}

	if err := check(&tb, shadow); err != nil {
		return st, err
	}
	st.Checks++
	st.Size = tb.Size()

	if cfg.Snapshot != "" {
		if err := snapshot(cfg.Snapshot, &tb, shadow); err != nil {
			return st, err
		}
		log.Info("snapshot verified", zap.String("path", cfg.Snapshot), zap.Int("live", tb.Len()))
	}

	return st, nil
}

func check(tb *table, shadow map[key]uint64) error {
	if err := tb.Verify(); err != nil {
		return err
	}
	if tb.Len() != len(shadow) {
		return errs.Errorf("length mismatch: table=%d shadow=%d", tb.Len(), len(shadow))
	}

	n := 0
	for k, v := range tb.All() {
		want, ok := shadow[k]
		if !ok {
			return errs.Errorf("unexpected key %d", k.Raw())
		}
		if uint64(v) != want {
			return errs.Errorf("key %d: got %d want %d", k.Raw(), uint64(v), want)
		}
		n++
	}
	if n != len(shadow) {
		return errs.Errorf("iterated %d entries, want %d", n, len(shadow))
	}

	return nil
}

func snapshot(path string, tb *table, shadow map[key]uint64) error {
	var buf bytes.Buffer
	var w rwutils.W

	w.Init(&buf, make([]byte, 0, 4096))
	reftable.AppendTo(tb, &w)
	if err := w.Done(); err != nil {
		return errs.Wrap(err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return errs.Wrap(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(err)
	}

	var loaded table
	var r rwutils.R
	r.Init(data)
	reftable.ReadFrom(&loaded, &r)

	rem, err := r.Done()
	if err != nil {
		return err
	}
	if len(rem) > 0 {
		return errs.Errorf("snapshot has %d trailing bytes", len(rem))
	}

	return check(&loaded, shadow)
}
