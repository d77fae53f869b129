// Package ring implements the fixed-layout circular sample files: the slot
// value codec, the reconstruction of per-slot timestamps from a subset's
// geometry, and the rotation-tolerant search the merge depends on.
package ring

import (
	"math"

	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/schema"
)

// UnfilledInt marks an integer slot the appliance has not written yet.
const UnfilledInt = math.MaxInt32

// UnfilledFloat marks a floating slot the appliance has not written yet.
var UnfilledFloat = math.NaN()

// Values is a slot vector of one sample kind. The kind is selected once per
// device and threaded through reader, writer and merge unchanged; exactly
// one of the two backing slices is in use.
type Values struct {
	Kind   schema.SampleKind
	ints   []int32
	floats []float64
}

// NewValues returns an empty Values of the given kind with room for n slots.
func NewValues(kind schema.SampleKind, n int) *Values {
	v := &Values{Kind: kind}
	if kind == schema.KindInteger {
		v.ints = make([]int32, 0, n)
	} else {
		v.floats = make([]float64, 0, n)
	}
	return v
}

// Len returns the number of slots.
func (v *Values) Len() int {
	if v.Kind == schema.KindInteger {
		return len(v.ints)
	}
	return len(v.floats)
}

// Clone returns an independent copy. Merges always start from a clone so
// the caller's vector is never mutated.
func (v *Values) Clone() *Values {
	c := &Values{Kind: v.Kind}
	if v.Kind == schema.KindInteger {
		c.ints = append([]int32(nil), v.ints...)
	} else {
		c.floats = append([]float64(nil), v.floats...)
	}
	return c
}

// AppendInt appends an integer slot. Panics on a float vector; the kind is
// fixed at construction.
func (v *Values) AppendInt(x int32) {
	v.ints = append(v.ints, x)
}

// AppendFloat appends a floating slot.
func (v *Values) AppendFloat(x float64) {
	v.floats = append(v.floats, x)
}

// Int returns integer slot i.
func (v *Values) Int(i int) int32 {
	return v.ints[i]
}

// Float returns floating slot i.
func (v *Values) Float(i int) float64 {
	return v.floats[i]
}

// Number returns slot i widened to float64, for statistics.
func (v *Values) Number(i int) float64 {
	if v.Kind == schema.KindInteger {
		return float64(v.ints[i])
	}
	return v.floats[i]
}

// Unfilled reports whether slot i holds the not-yet-written sentinel for
// its kind.
func (v *Values) Unfilled(i int) bool {
	if v.Kind == schema.KindInteger {
		return v.ints[i] == UnfilledInt
	}
	return math.IsNaN(v.floats[i])
}

// CopyFrom overwrites slot i with slot j of src. The kinds must match.
func (v *Values) CopyFrom(i int, src *Values, j int) error {
	if v.Kind != src.Kind {
		return errors.Wrapf(errors.ErrSampleKindMismatch, "%s vs %s", v.Kind, src.Kind)
	}
	if v.Kind == schema.KindInteger {
		v.ints[i] = src.ints[j]
	} else {
		v.floats[i] = src.floats[j]
	}
	return nil
}

// Equal reports whether two vectors hold the same slots. Unfilled float
// slots compare equal to each other.
func (v *Values) Equal(o *Values) bool {
	if v.Kind != o.Kind || v.Len() != o.Len() {
		return false
	}
	if v.Kind == schema.KindInteger {
		for i := range v.ints {
			if v.ints[i] != o.ints[i] {
				return false
			}
		}
		return true
	}
	for i := range v.floats {
		a, b := v.floats[i], o.floats[i]
		if math.IsNaN(a) && math.IsNaN(b) {
			continue
		}
		if a != b {
			return false
		}
	}
	return true
}
