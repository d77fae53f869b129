package importer

import (
	"testing"
	"time"

	"github.com/marcelr/ringmigrate/internal/errors"
)

func TestParseCutoff_Empty(t *testing.T) {
	cutoff, err := ParseCutoff("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cutoff != NoLimit {
		t.Errorf("cutoff = %d, want NoLimit", cutoff)
	}
}

func TestParseCutoff_InclusiveDay(t *testing.T) {
	cutoff, err := ParseCutoff("2020-06-15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// The cutoff is the end of the named day in local time, so a sample
	// stamped anywhere on 2020-06-15 stays importable.
	dayStart := time.Date(2020, time.June, 15, 0, 0, 0, 0, time.Local).Unix()
	if int64(cutoff) != dayStart+86400 {
		t.Errorf("cutoff = %d, want %d", cutoff, dayStart+86400)
	}
}

func TestParseCutoff_Invalid(t *testing.T) {
	for _, date := range []string{"15-06-2020", "2020/06/15", "yesterday", "2020-13-01"} {
		if _, err := ParseCutoff(date); !errors.Is(err, errors.ErrInvalidDate) {
			t.Errorf("%q: expected ErrInvalidDate, got %v", date, err)
		}
	}
}
