package schema

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strings"

	"github.com/marcelr/ringmigrate/internal/errors"
)

// Schema file layout (binary, little-endian):
//   - Format tag (17 bytes, must equal FormatTag)
//   - Device id, variable, service, kind label: each a 4-byte length
//     followed by that many bytes (NUL padding included in the length)
//   - Per subset, repeated until placeholder or clean EOF:
//       integer kind: 3x4-byte reserved | float kind: 2x8-byte scale pair
//       t_prev (4), t_last (4), min samples (4)
//       bin length label (length-prefixed)
//       offset (4), capacity (4), reserved (4)
//       interval label (length-prefixed)
//       consolidator label (length-prefixed)

// DecodeFile decodes a schema file from raw file contents.
func DecodeFile(data []byte) (*Device, error) {
	return Decode(bytes.NewReader(data))
}

// Decode decodes one Device record from r.
//
// A tag mismatch fails with ErrFormatMismatch. A stream that cannot supply
// the device identity strings fails with ErrTruncated. A stream that ends
// mid-subset does not fail: the partial subset is discarded, Damaged is set,
// and the subsets decoded before the damage are returned. The appliance
// rewrites these files carelessly and trailing garbage is common.
func Decode(r io.Reader) (*Device, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read schema stream")
	}

	d := &decoder{data: data}

	tag := d.bytes(len(FormatTag))
	if tag == nil {
		return nil, errors.Wrap(errors.ErrTruncated, "format tag")
	}
	if string(tag) != FormatTag {
		return nil, errors.Wrapf(errors.ErrFormatMismatch, "tag %q", tag)
	}

	dev := &Device{}
	if dev.UUID, err = d.string("device id"); err != nil {
		return nil, err
	}
	if dev.Variable, err = d.string("device variable"); err != nil {
		return nil, err
	}
	if dev.Service, err = d.string("device service"); err != nil {
		return nil, err
	}
	if dev.KindLabel, err = d.string("sample kind"); err != nil {
		return nil, err
	}
	dev.Kind = ParseSampleKind(dev.KindLabel)

	// A placeholder device carries no usable subsets regardless of any
	// trailing bytes.
	if !dev.Provisioned() {
		return dev, nil
	}

	for !d.exhausted() {
		sub, ok := d.subset(dev.Kind)
		if !ok {
			dev.Damaged = true
			break
		}
		dev.Subsets = append(dev.Subsets, sub)
	}

	return dev, nil
}

// decoder is a bounds-checked cursor over the schema bytes.
type decoder struct {
	data []byte
	off  int
}

func (d *decoder) exhausted() bool {
	return d.off >= len(d.data)
}

// bytes returns the next n bytes, or nil if the stream cannot supply them.
func (d *decoder) bytes(n int) []byte {
	if n < 0 || d.off+n > len(d.data) {
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) int32() (int32, bool) {
	b := d.bytes(4)
	if b == nil {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(b)), true
}

func (d *decoder) float64() (float64, bool) {
	b := d.bytes(8)
	if b == nil {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), true
}

// lpString reads a length-prefixed string, validating the declared length
// against the remaining bytes before touching them. The appliance includes
// NUL padding in the declared length; it is stripped here.
func (d *decoder) lpString() (string, bool) {
	n, ok := d.int32()
	if !ok || n < 0 {
		return "", false
	}
	b := d.bytes(int(n))
	if b == nil {
		return "", false
	}
	return strings.TrimRight(string(b), "\x00"), true
}

// string is lpString with a Truncated error naming the field. Used for the
// device identity strings, where truncation is fatal.
func (d *decoder) string(field string) (string, error) {
	s, ok := d.lpString()
	if !ok {
		return "", errors.Wrap(errors.ErrTruncated, field)
	}
	return s, nil
}

// subset decodes one subset record. ok is false when the stream ended
// before the record was complete; the partial record is discarded.
func (d *decoder) subset(kind SampleKind) (*Subset, bool) {
	sub := &Subset{}
	var ok bool

	// The scale pair and the reserved triple occupy the same position and
	// are mutually exclusive, selected by the device's sample kind.
	if kind == KindInteger {
		for i := range sub.Reserved {
			if sub.Reserved[i], ok = d.int32(); !ok {
				return nil, false
			}
		}
	} else {
		if sub.Value, ok = d.float64(); !ok {
			return nil, false
		}
		if sub.Divider, ok = d.float64(); !ok {
			return nil, false
		}
	}

	if sub.TPrev, ok = d.int32(); !ok {
		return nil, false
	}
	if sub.TLast, ok = d.int32(); !ok {
		return nil, false
	}
	if sub.MinSamplesPerBin, ok = d.int32(); !ok {
		return nil, false
	}
	if sub.BinLength, ok = d.lpString(); !ok {
		return nil, false
	}
	if sub.Offset, ok = d.int32(); !ok {
		return nil, false
	}
	if sub.NSamples, ok = d.int32(); !ok {
		return nil, false
	}
	if _, ok = d.int32(); !ok { // reserved
		return nil, false
	}
	if sub.Interval, ok = d.lpString(); !ok {
		return nil, false
	}
	if sub.Consolidator, ok = d.lpString(); !ok {
		return nil, false
	}

	return sub, true
}
