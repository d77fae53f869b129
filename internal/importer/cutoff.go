package importer

import (
	"math"
	"time"

	"github.com/marcelr/ringmigrate/internal/errors"
)

// NoLimit is the cutoff meaning "import everything". It is the maximum
// 32-bit timestamp, which also keeps it clear of the integer unfilled
// sentinel comparison in callers.
const NoLimit int32 = math.MaxInt32

// ParseCutoff converts a YYYY-MM-DD date to the import cutoff timestamp:
// the end of the named day, local time, so samples recorded on that day are
// still included. An empty date means no limit.
func ParseCutoff(date string) (int32, error) {
	if date == "" {
		return NoLimit, nil
	}

	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidDate, "%q (want YYYY-MM-DD)", date)
	}

	cutoff := t.Unix() + 86400
	if cutoff > int64(NoLimit) {
		return 0, errors.Wrapf(errors.ErrInvalidDate, "%q out of range", date)
	}
	return int32(cutoff), nil
}
