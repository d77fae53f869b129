// Package schema decodes the appliance's ring-buffer metadata files.
//
// Each .dat file describes one device: its identity strings, the value kind
// of its samples, and one subset record per resolution tier. A subset is the
// geometry of one circular sample file: capacity, write offset, and the two
// reference timestamps the sampling interval is derived from.
package schema

import (
	"fmt"

	"github.com/marcelr/ringmigrate/internal/errors"
)

// FormatTag is the fixed 17-byte tag every schema file starts with.
const FormatTag = "hcb_rrd_09082011A"

// Placeholder is the device id the appliance writes before a device has
// reported for the first time. A placeholder device has no usable subsets
// and is skipped, not treated as an error.
const Placeholder = "placeholder"

// SampleKind is the value type of a device's ring buffers. It is declared
// once per device and selects the slot width and the subset record layout.
type SampleKind int

const (
	KindInteger SampleKind = iota
	KindFloat
)

// ParseSampleKind maps the schema file's kind label onto a SampleKind.
// Anything other than "integer" is floating point, as the appliance only
// ever writes the two labels.
func ParseSampleKind(label string) SampleKind {
	if label == "integer" {
		return KindInteger
	}
	return KindFloat
}

// String returns a human-readable representation of the SampleKind.
func (k SampleKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// SlotSize returns the on-disk width of one ring slot in bytes.
func (k SampleKind) SlotSize() int {
	if k == KindInteger {
		return 4
	}
	return 8
}

// Subset describes one circular sample file of a device.
type Subset struct {
	// TPrev and TLast are the timestamps of the two most recent samples.
	// TLast - TPrev is the fixed sampling interval.
	TPrev int32
	TLast int32

	// MinSamplesPerBin is the consolidation bin requirement. Not used by
	// the merge, preserved for round-tripping.
	MinSamplesPerBin int32

	// BinLength is the human-readable label of the consolidation bin.
	BinLength string

	// Offset is the physical slot index holding the most recent sample,
	// i.e. the ring's write head. Invariant: 0 <= Offset < NSamples.
	Offset int32

	// NSamples is the ring's fixed slot count.
	NSamples int32

	// Interval is the resolution tier label. It appears in both the ring
	// buffer and interchange filenames.
	Interval string

	// Consolidator is the consolidation function label.
	Consolidator string

	// Reserved holds the three unused integer fields an integer-kind
	// subset carries in place of the scale pair.
	Reserved [3]int32

	// Value and Divider are the scale pair of a float-kind subset.
	Value   float64
	Divider float64
}

// SampleInterval returns the fixed time step between adjacent slots.
func (s *Subset) SampleInterval() int32 {
	return s.TLast - s.TPrev
}

// Device is one decoded schema file.
type Device struct {
	// UUID is the device identifier. Equal to Placeholder until the
	// appliance has seen the device once.
	UUID string

	// Variable, Service and KindLabel are the remaining identity strings.
	Variable  string
	Service   string
	KindLabel string

	// Kind is the parsed sample value kind.
	Kind SampleKind

	// Name is the display name resolved from the registry document. Not
	// part of the raw decode; assigned by the caller.
	Name string

	// Subsets are the fully decoded subset records, in file order.
	Subsets []*Subset

	// Damaged is true when the file ended mid-subset and the partial
	// record was discarded.
	Damaged bool
}

// Provisioned reports whether the device has ever produced data.
func (d *Device) Provisioned() bool {
	return d.UUID != Placeholder
}

// Subset returns subset i, or ErrSubsetOutOfRange.
func (d *Device) Subset(i int) (*Subset, error) {
	if i < 0 || i >= len(d.Subsets) {
		return nil, errors.Wrapf(errors.ErrSubsetOutOfRange, "subset %d of %d", i, len(d.Subsets))
	}
	return d.Subsets[i], nil
}

// String returns a one-line identity summary for logging.
func (d *Device) String() string {
	return fmt.Sprintf("%s/%s (%s, %d subsets)", d.UUID, d.Variable, d.Kind, len(d.Subsets))
}
