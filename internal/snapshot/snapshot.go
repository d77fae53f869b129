// Package snapshot dumps merged series to a Parquet file for offline
// verification of an import, one row per ring slot.
package snapshot

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"

	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/ring"
	"github.com/marcelr/ringmigrate/internal/schema"
)

// Row is one ring slot in the snapshot.
type Row struct {
	Device    string  `parquet:"device,zstd"`
	Variable  string  `parquet:"variable,zstd"`
	Interval  string  `parquet:"interval,zstd"`
	Slot      int32   `parquet:"slot"`
	Timestamp int64   `parquet:"timestamp"`
	Value     float64 `parquet:"value"`
	Filled    bool    `parquet:"filled"`
}

// Writer writes snapshot rows to a single Parquet file. Safe for use from
// concurrent import workers.
type Writer struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writer   *parquet.GenericWriter[Row]
	rowCount int64
	closed   bool
}

// NewWriter creates a snapshot writer at path.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create snapshot directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create snapshot file")
	}

	return &Writer{
		path:   path,
		file:   f,
		writer: parquet.NewGenericWriter[Row](f, parquet.Compression(&parquet.Zstd)),
	}, nil
}

// WriteSubset appends one merged subset: every slot with its reconstructed
// timestamp, its value widened to float64, and whether it has been written.
func (w *Writer) WriteSubset(dev *schema.Device, sub *schema.Subset, times []int32, vals *ring.Values) error {
	rows := make([]Row, vals.Len())
	for i := range rows {
		rows[i] = Row{
			Device:    dev.UUID,
			Variable:  dev.Variable,
			Interval:  sub.Interval,
			Slot:      int32(i),
			Timestamp: int64(times[i]),
			Value:     vals.Number(i),
			Filled:    !vals.Unfilled(i),
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.ErrWriterClosed
	}

	n, err := w.writer.Write(rows)
	if err != nil {
		return errors.Wrap(err, "write snapshot rows")
	}
	w.rowCount += int64(n)
	return nil
}

// RowCount returns the number of rows written so far.
func (w *Writer) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Close flushes and closes the snapshot file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return errors.Wrap(err, "close snapshot writer")
	}
	return w.file.Close()
}
