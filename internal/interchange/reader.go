// Package interchange reads and writes the row-oriented text form of a
// sample series: one "timestamp,value" line per sample, integer values as
// plain integers and floating values with three decimals.
package interchange

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/ring"
	"github.com/marcelr/ringmigrate/internal/schema"
)

// Series is one parsed interchange file: parallel value and time sequences
// of equal length.
type Series struct {
	Values *ring.Values
	Times  []int32
}

// Len returns the number of rows kept.
func (s *Series) Len() int {
	return len(s.Times)
}

// ReadFile reads an interchange file, keeping only rows whose timestamp is
// at or before cutoff. Rows beyond the cutoff are data newer than the
// import boundary and are dropped silently. Lines that do not parse are
// skipped; the appliance's own exporter pads values with a space and older
// firmwares occasionally wrote partial lines.
func ReadFile(path string, kind schema.SampleKind, cutoff int32) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open interchange %s", path)
	}
	defer f.Close()

	s := &Series{Values: ring.NewValues(kind, 0)}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		tsField, valField, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}

		ts, err := strconv.ParseInt(strings.TrimSpace(tsField), 10, 32)
		if err != nil {
			continue
		}
		if int32(ts) > cutoff {
			continue
		}

		valField = strings.TrimSpace(valField)
		if kind == schema.KindInteger {
			v, err := strconv.ParseInt(valField, 10, 32)
			if err != nil {
				continue
			}
			s.Values.AppendInt(int32(v))
		} else {
			v, err := strconv.ParseFloat(valField, 64)
			if err != nil {
				continue
			}
			s.Values.AppendFloat(v)
		}
		s.Times = append(s.Times, int32(ts))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan interchange %s", path)
	}

	return s, nil
}
