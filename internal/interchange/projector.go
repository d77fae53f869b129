package interchange

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/ring"
	"github.com/marcelr/ringmigrate/internal/schema"
)

// Project renders a ring's contents as interchange rows: one row per slot
// whose value has actually been written, in physical slot order. Unfilled
// slots are never emitted, so a later import cannot mistake the sentinel
// for a sample.
func Project(w io.Writer, times []int32, vals *ring.Values) error {
	if len(times) != vals.Len() {
		return errors.Wrapf(errors.ErrInvalidGeometry,
			"%d times for %d values", len(times), vals.Len())
	}

	bw := bufio.NewWriter(w)
	for i := range times {
		if vals.Unfilled(i) {
			continue
		}
		var err error
		if vals.Kind == schema.KindInteger {
			_, err = fmt.Fprintf(bw, "%d,%d\n", times[i], vals.Int(i))
		} else {
			_, err = fmt.Fprintf(bw, "%d,%.3f\n", times[i], vals.Float(i))
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ProjectFile writes the projection of one ring to path, fully replacing
// any existing file.
func ProjectFile(path string, times []int32, vals *ring.Values) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create interchange %s", path)
	}
	if err := Project(f, times, vals); err != nil {
		f.Close()
		return errors.Wrapf(err, "project interchange %s", path)
	}
	return f.Close()
}
