package ring

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/schema"
)

// Ring buffer file layout: a flat array of n fixed-width values in physical
// slot order, 4-byte little-endian integers or 8-byte IEEE-754 doubles per
// the device's sample kind. No header, no footer. Physical position is the
// invariant the appliance's own offset-relative appends depend on, so the
// codec never reorders slots.

// Decode reads exactly n slots of the given kind from raw file contents.
// Trailing bytes beyond the n slots are ignored.
func Decode(data []byte, kind schema.SampleKind, n int) (*Values, error) {
	width := kind.SlotSize()
	if len(data) < n*width {
		return nil, errors.Wrapf(errors.ErrShortRead,
			"%d bytes for %d %s slots", len(data), n, kind)
	}

	v := NewValues(kind, n)
	for i := 0; i < n; i++ {
		b := data[i*width:]
		if kind == schema.KindInteger {
			v.AppendInt(int32(binary.LittleEndian.Uint32(b)))
		} else {
			v.AppendFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		}
	}
	return v, nil
}

// Encode serializes the slot vector in physical order.
func Encode(v *Values) []byte {
	buf := make([]byte, 0, v.Len()*v.Kind.SlotSize())
	for i := 0; i < v.Len(); i++ {
		if v.Kind == schema.KindInteger {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Int(i)))
		} else {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.Float(i)))
		}
	}
	return buf
}

// ReadFile reads a ring buffer file of n slots.
func ReadFile(path string, kind schema.SampleKind, n int) (*Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read ring %s", path)
	}
	return Decode(data, kind, n)
}

// WriteFile replaces a ring buffer file with the given slot vector. The new
// contents are staged in a temp file in the same directory and renamed into
// place, so a crash never leaves a half-written ring behind.
func WriteFile(path string, v *Values) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrapf(err, "stage ring %s", path)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(Encode(v)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "write ring %s", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "sync ring %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "close ring %s", path)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "replace ring %s", path)
	}
	return nil
}
