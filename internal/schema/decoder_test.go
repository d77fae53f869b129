package schema

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/marcelr/ringmigrate/internal/errors"
)

// Builders for synthetic schema files. The appliance includes the NUL
// terminator in every declared string length, so these do too.

func appendI32(b []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v))
}

func appendF64(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

func appendLP(b []byte, s string) []byte {
	b = appendI32(b, int32(len(s)+1))
	b = append(b, s...)
	return append(b, 0)
}

func deviceHeader(uuid, variable, service, kind string) []byte {
	b := []byte(FormatTag)
	b = appendLP(b, uuid)
	b = appendLP(b, variable)
	b = appendLP(b, service)
	return appendLP(b, kind)
}

func intSubset(tPrev, tLast, offset, nSamples int32, interval string) []byte {
	var b []byte
	for i := 0; i < 3; i++ {
		b = appendI32(b, int32(100+i))
	}
	b = appendI32(b, tPrev)
	b = appendI32(b, tLast)
	b = appendI32(b, 1) // min samples per bin
	b = appendLP(b, "hours")
	b = appendI32(b, offset)
	b = appendI32(b, nSamples)
	b = appendI32(b, 0) // reserved
	b = appendLP(b, interval)
	return appendLP(b, "AVERAGE")
}

func floatSubset(value, divider float64, tPrev, tLast, offset, nSamples int32, interval string) []byte {
	var b []byte
	b = appendF64(b, value)
	b = appendF64(b, divider)
	b = appendI32(b, tPrev)
	b = appendI32(b, tLast)
	b = appendI32(b, 1)
	b = appendLP(b, "hours")
	b = appendI32(b, offset)
	b = appendI32(b, nSamples)
	b = appendI32(b, 0)
	b = appendLP(b, interval)
	return appendLP(b, "AVERAGE")
}

func TestDecode_FormatMismatch(t *testing.T) {
	data := []byte("not_the_right_tag")
	data = append(data, 0, 0, 0, 0)

	_, err := DecodeFile(data)
	if !errors.Is(err, errors.ErrFormatMismatch) {
		t.Fatalf("expected ErrFormatMismatch, got %v", err)
	}
}

func TestDecode_TruncatedTag(t *testing.T) {
	_, err := DecodeFile([]byte("hcb_rrd"))
	if !errors.Is(err, errors.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDecode_TruncatedIdentity(t *testing.T) {
	b := []byte(FormatTag)
	b = appendI32(b, 50) // declares 50 bytes, supplies 4
	b = append(b, 'a', 'b', 'c', 'd')

	_, err := DecodeFile(b)
	if !errors.Is(err, errors.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDecode_Placeholder(t *testing.T) {
	b := deviceHeader(Placeholder, "usage", "hdrv_zwave", "integer")
	// Trailing bytes must be ignored for an unprovisioned device.
	b = append(b, 0xde, 0xad, 0xbe, 0xef)

	dev, err := DecodeFile(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dev.Provisioned() {
		t.Error("placeholder device should not be provisioned")
	}
	if len(dev.Subsets) != 0 {
		t.Errorf("expected 0 subsets, got %d", len(dev.Subsets))
	}
}

func TestDecode_IntegerDevice(t *testing.T) {
	b := deviceHeader("dev-1234", "usage", "hdrv_zwave", "integer")
	b = append(b, intSubset(100, 110, 2, 5, "5yrhours")...)

	dev, err := DecodeFile(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if dev.UUID != "dev-1234" {
		t.Errorf("uuid = %q", dev.UUID)
	}
	if dev.Variable != "usage" || dev.Service != "hdrv_zwave" {
		t.Errorf("identity = %q/%q", dev.Variable, dev.Service)
	}
	if dev.Kind != KindInteger {
		t.Errorf("kind = %v", dev.Kind)
	}
	if len(dev.Subsets) != 1 {
		t.Fatalf("expected 1 subset, got %d", len(dev.Subsets))
	}

	sub := dev.Subsets[0]
	if sub.TPrev != 100 || sub.TLast != 110 {
		t.Errorf("timestamps = %d, %d", sub.TPrev, sub.TLast)
	}
	if sub.SampleInterval() != 10 {
		t.Errorf("interval = %d", sub.SampleInterval())
	}
	if sub.Offset != 2 || sub.NSamples != 5 {
		t.Errorf("geometry = %d/%d", sub.Offset, sub.NSamples)
	}
	if sub.Interval != "5yrhours" || sub.Consolidator != "AVERAGE" {
		t.Errorf("labels = %q/%q", sub.Interval, sub.Consolidator)
	}
	if sub.Reserved != [3]int32{100, 101, 102} {
		t.Errorf("reserved = %v", sub.Reserved)
	}
	if dev.Damaged {
		t.Error("clean file marked damaged")
	}
}

func TestDecode_FloatDevice(t *testing.T) {
	b := deviceHeader("dev-5678", "temperature", "thermstat", "double")
	b = append(b, floatSubset(2.5, 1000.0, 200, 260, 0, 4, "month")...)

	dev, err := DecodeFile(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dev.Kind != KindFloat {
		t.Errorf("kind = %v", dev.Kind)
	}
	sub := dev.Subsets[0]
	if sub.Value != 2.5 || sub.Divider != 1000.0 {
		t.Errorf("scale pair = %v/%v", sub.Value, sub.Divider)
	}
	if sub.SampleInterval() != 60 {
		t.Errorf("interval = %d", sub.SampleInterval())
	}
}

func TestDecode_MultipleSubsets(t *testing.T) {
	b := deviceHeader("dev-1234", "usage", "hdrv_zwave", "integer")
	b = append(b, intSubset(100, 110, 2, 5, "hours")...)
	b = append(b, intSubset(0, 86400, 0, 30, "days")...)

	dev, err := DecodeFile(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dev.Subsets) != 2 {
		t.Fatalf("expected 2 subsets, got %d", len(dev.Subsets))
	}
	if dev.Subsets[1].Interval != "days" {
		t.Errorf("second interval = %q", dev.Subsets[1].Interval)
	}
}

func TestDecode_TruncatedMidSubset(t *testing.T) {
	full := deviceHeader("dev-1234", "usage", "hdrv_zwave", "integer")
	full = append(full, intSubset(100, 110, 2, 5, "hours")...)
	second := intSubset(0, 86400, 0, 30, "days")

	// Cut the second subset at every possible point; the first must
	// survive untouched each time.
	for cut := 1; cut < len(second); cut++ {
		data := append(append([]byte{}, full...), second[:cut]...)

		dev, err := DecodeFile(data)
		if err != nil {
			t.Fatalf("cut %d: decode: %v", cut, err)
		}
		if len(dev.Subsets) != 1 {
			t.Fatalf("cut %d: expected 1 subset, got %d", cut, len(dev.Subsets))
		}
		if !dev.Damaged {
			t.Errorf("cut %d: truncated file not marked damaged", cut)
		}
		if dev.Subsets[0].Interval != "hours" {
			t.Errorf("cut %d: surviving subset corrupted", cut)
		}
	}
}

func TestDevice_SubsetOutOfRange(t *testing.T) {
	dev := &Device{Subsets: []*Subset{{}}}

	if _, err := dev.Subset(0); err != nil {
		t.Errorf("subset 0: %v", err)
	}
	if _, err := dev.Subset(1); !errors.Is(err, errors.ErrSubsetOutOfRange) {
		t.Errorf("expected ErrSubsetOutOfRange, got %v", err)
	}
	if _, err := dev.Subset(-1); !errors.Is(err, errors.ErrSubsetOutOfRange) {
		t.Errorf("expected ErrSubsetOutOfRange, got %v", err)
	}
}

func TestParseSampleKind(t *testing.T) {
	if ParseSampleKind("integer") != KindInteger {
		t.Error("integer label")
	}
	if ParseSampleKind("double") != KindFloat {
		t.Error("double label")
	}
	if KindInteger.SlotSize() != 4 || KindFloat.SlotSize() != 8 {
		t.Error("slot sizes")
	}
}
