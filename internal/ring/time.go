package ring

import (
	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/schema"
)

// SlotTimes reconstructs the absolute timestamp of every physical slot of a
// subset's ring from its geometry alone.
//
// The slot at Offset holds the newest sample, timestamped TLast. Walking
// physically downward from there, each slot is one interval older, down to
// slot 0. The physically last slot is adjacent to slot 0 across the wrap,
// so it is one interval older than slot 0, and the walk continues downward
// from there until slot Offset+1, the physically oldest sample.
//
// The result is a rotated view of a strictly ascending sequence with the
// rotation point at Offset+1, which is why consumers must use Search rather
// than a plain binary search.
func SlotTimes(sub *schema.Subset) ([]int32, error) {
	n := int(sub.NSamples)
	off := int(sub.Offset)
	if n <= 0 || off < 0 || off >= n {
		return nil, errors.Wrapf(errors.ErrInvalidGeometry,
			"offset %d, capacity %d", sub.Offset, sub.NSamples)
	}

	interval := sub.SampleInterval()
	times := make([]int32, n)

	times[off] = sub.TLast
	for j := off; j > 0; j-- {
		times[j-1] = times[j] - interval
	}

	for j := n - 1; j > off; j-- {
		if j == n-1 {
			times[j] = times[0] - interval
		} else {
			times[j] = times[j+1] - interval
		}
	}

	return times, nil
}

// Window returns the time span the ring can physically represent: the
// timestamps of the oldest slot (just past the wrap) and the newest slot.
// Only interchange samples inside [tMin, tMax] are merge candidates.
func Window(times []int32, offset int32) (tMin, tMax int32) {
	n := len(times)
	oldest := (int(offset) + 1) % n
	return times[oldest], times[offset]
}
