// Package merge combines a ring buffer's reconstructed series with imported
// interchange samples under the cutoff-window policy, producing the new
// physical-order slot vector.
package merge

import (
	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/interchange"
	"github.com/marcelr/ringmigrate/internal/ring"
)

// Run merges imported samples into a ring.
//
// ringTimes and ringVals are the ring's reconstructed slot times and current
// slot values, both in physical order. imported is the cutoff-filtered
// interchange series. offset is the ring's write head.
//
// Every slot starts as its current value. A slot is overwritten only when
// its own timestamp lies inside the span the ring can physically represent
// and the imported series holds a sample with exactly that timestamp;
// matching is by equal timestamp, never by position, through the
// rotation-tolerant search. The window is taken from the ring's own times
// only - imported samples older than the ring's span stay ineligible even
// when they are inside the cutoff, so the set of overwritable slots never
// widens. Unfilled sentinels get no special treatment: they are copied like
// any value and may legitimately be overwritten by a matched sample.
//
// The result is a fresh vector; neither input is mutated, and the ring
// geometry (capacity, offset) is unchanged by construction. The returned
// slot indices are the slots an imported sample was written into, for the
// run report.
func Run(ringTimes []int32, ringVals *ring.Values, imported *interchange.Series, offset int32) (*ring.Values, []int, error) {
	n := len(ringTimes)
	if n == 0 || n != ringVals.Len() {
		return nil, nil, errors.Wrapf(errors.ErrInvalidGeometry,
			"%d times for %d values", n, ringVals.Len())
	}
	if int(offset) < 0 || int(offset) >= n {
		return nil, nil, errors.Wrapf(errors.ErrInvalidGeometry,
			"offset %d, capacity %d", offset, n)
	}
	if imported.Values.Kind != ringVals.Kind {
		return nil, nil, errors.Wrapf(errors.ErrSampleKindMismatch,
			"ring %s, import %s", ringVals.Kind, imported.Values.Kind)
	}

	out := ringVals.Clone()
	if imported.Len() == 0 {
		return out, nil, nil
	}

	tMin, tMax := ring.Window(ringTimes, offset)

	var written []int
	for i := 0; i < n; i++ {
		t := ringTimes[i]
		if t < tMin || t > tMax {
			continue
		}
		idx := ring.Search(imported.Times, t)
		if idx < 0 {
			continue
		}
		if err := out.CopyFrom(i, imported.Values, idx); err != nil {
			return nil, nil, err
		}
		written = append(written, i)
	}

	return out, written, nil
}
