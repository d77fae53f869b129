package merge

import (
	"path/filepath"
	"testing"

	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/interchange"
	"github.com/marcelr/ringmigrate/internal/ring"
	"github.com/marcelr/ringmigrate/internal/schema"
)

func intValues(xs ...int32) *ring.Values {
	v := ring.NewValues(schema.KindInteger, len(xs))
	for _, x := range xs {
		v.AppendInt(x)
	}
	return v
}

func series(times []int32, vals *ring.Values) *interchange.Series {
	return &interchange.Series{Times: times, Values: vals}
}

func TestRun_OverwritesMatchedSlots(t *testing.T) {
	// Capacity 5, offset 2: physical times [90,100,110,70,80], window
	// [70,110]. The import carries samples for 110 and 100; both slots are
	// overwritten and reported, the rest stay as they were.
	ringTimes := []int32{90, 100, 110, 70, 80}
	ringVals := intValues(5, 7, 9, ring.UnfilledInt, ring.UnfilledInt)
	imp := series([]int32{110, 100}, intValues(99, 7))

	out, written, err := Run(ringTimes, ringVals, imp, 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []int32{5, 7, 99, ring.UnfilledInt, ring.UnfilledInt}
	for i, w := range want {
		if out.Int(i) != w {
			t.Errorf("slot %d = %d, want %d", i, out.Int(i), w)
		}
	}
	if len(written) != 2 {
		t.Fatalf("written = %v, want slots 1 and 2", written)
	}
	if written[0] != 1 || written[1] != 2 {
		t.Errorf("written = %v, want [1 2]", written)
	}

	// Inputs untouched.
	if ringVals.Int(2) != 9 {
		t.Error("input ring mutated")
	}
}

func TestRun_OutOfWindowNoOp(t *testing.T) {
	ringTimes := []int32{90, 100, 110, 70, 80}
	ringVals := intValues(5, 7, 9, 1, 3)

	// Samples older than the ring's span and newer than its head are both
	// ineligible even though they parse fine.
	imp := series([]int32{60, 120}, intValues(42, 43))

	out, written, err := Run(ringTimes, ringVals, imp, 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.Equal(ringVals) {
		t.Error("out-of-window samples changed the ring")
	}
	if len(written) != 0 {
		t.Errorf("written = %v, want none", written)
	}
}

func TestRun_EmptyImport(t *testing.T) {
	ringTimes := []int32{100, 110, 90}
	ringVals := intValues(1, 2, 3)
	imp := series(nil, intValues())

	out, written, err := Run(ringTimes, ringVals, imp, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.Equal(ringVals) || len(written) != 0 {
		t.Error("empty import must leave the ring unchanged")
	}
}

func TestRun_SentinelSlotsOverwritable(t *testing.T) {
	// An unfilled slot whose timestamp matches an imported sample gets the
	// imported value; sentinels carry no protection.
	ringTimes := []int32{90, 100, 110, 70, 80}
	ringVals := intValues(5, 7, 9, ring.UnfilledInt, ring.UnfilledInt)
	imp := series([]int32{80}, intValues(4))

	out, _, err := Run(ringTimes, ringVals, imp, 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Int(4) != 4 {
		t.Errorf("slot 4 = %d, want 4", out.Int(4))
	}
	if !out.Unfilled(3) {
		t.Error("unmatched sentinel slot must stay unfilled")
	}
}

func TestRun_KindMismatch(t *testing.T) {
	ringTimes := []int32{100}
	ringVals := intValues(1)
	fv := ring.NewValues(schema.KindFloat, 1)
	fv.AppendFloat(1.0)
	imp := series([]int32{100}, fv)

	_, _, err := Run(ringTimes, ringVals, imp, 0)
	if !errors.Is(err, errors.ErrSampleKindMismatch) {
		t.Fatalf("expected ErrSampleKindMismatch, got %v", err)
	}
}

func TestRun_BadGeometry(t *testing.T) {
	imp := series(nil, intValues())

	if _, _, err := Run(nil, intValues(), imp, 0); !errors.Is(err, errors.ErrInvalidGeometry) {
		t.Errorf("empty ring: got %v", err)
	}
	if _, _, err := Run([]int32{10, 20}, intValues(1), imp, 0); !errors.Is(err, errors.ErrInvalidGeometry) {
		t.Errorf("length mismatch: got %v", err)
	}
	if _, _, err := Run([]int32{10, 20}, intValues(1, 2), imp, 2); !errors.Is(err, errors.ErrInvalidGeometry) {
		t.Errorf("offset out of range: got %v", err)
	}
}

func TestRun_ExportImportIdempotent(t *testing.T) {
	// Exporting a ring and importing its own projection back must reproduce
	// the ring exactly, sentinels included: exported rows match their own
	// slots, and sentinel slots have no row to match.
	sub := &schema.Subset{TPrev: 1000, TLast: 1100, Offset: 3, NSamples: 6}
	times, err := ring.SlotTimes(sub)
	if err != nil {
		t.Fatalf("slot times: %v", err)
	}
	vals := intValues(10, ring.UnfilledInt, 30, 40, ring.UnfilledInt, 60)

	path := filepath.Join(t.TempDir(), "loop.csv")
	if err := interchange.ProjectFile(path, times, vals); err != nil {
		t.Fatalf("project: %v", err)
	}
	imp, err := interchange.ReadFile(path, schema.KindInteger, 1<<31-1)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	out, _, err := Run(times, vals, imp, sub.Offset)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.Equal(vals) {
		t.Error("round trip changed the ring")
	}
}
