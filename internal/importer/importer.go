// Package importer drives a whole migration run: it enumerates the schema
// files in the ring database directory and pushes every device through the
// decode / reconstruct / merge / write-back pipeline, or through the export
// projection in the reverse direction.
//
// Failure policy: a failure confined to one file or one subset is logged
// and the batch continues; only failures that make the whole run pointless
// (unreadable database directory, unreadable registry) abort it.
package importer

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/interchange"
	"github.com/marcelr/ringmigrate/internal/logging"
	"github.com/marcelr/ringmigrate/internal/merge"
	"github.com/marcelr/ringmigrate/internal/registry"
	"github.com/marcelr/ringmigrate/internal/ring"
	"github.com/marcelr/ringmigrate/internal/schema"
	"github.com/marcelr/ringmigrate/internal/snapshot"
	"github.com/marcelr/ringmigrate/internal/stats"
)

const schemaSuffix = ".dat"

// Options configures a migration run.
type Options struct {
	// DatabaseDir holds the .dat schema files and .rra ring buffers.
	DatabaseDir string

	// ImportDir holds the interchange files (read on import, written on
	// export).
	ImportDir string

	// RegistryPath is the device registry document.
	RegistryPath string

	// Cutoff is the import boundary timestamp (NoLimit for none).
	Cutoff int32

	// Workers is the number of schema files processed concurrently. Each
	// schema file and its ring files belong to exactly one worker.
	Workers int

	// Quantiles enables sketch quantiles in the per-subset report.
	Quantiles bool

	// Snapshot, when non-nil, receives every merged subset.
	Snapshot *snapshot.Writer
}

// Result is the outcome of a run.
type Result struct {
	// Found is the number of schema files seen.
	Found int

	// Processed is the number of devices fully processed.
	Processed int

	// Skipped counts unprovisioned devices and devices without a registry
	// entry.
	Skipped int

	// Failed counts devices abandoned on a per-file error.
	Failed int

	// Subsets is the number of subsets merged or exported.
	Subsets int

	// Imported is the total number of slots overwritten by imported
	// samples.
	Imported int64
}

// Importer runs migrations.
type Importer struct {
	opts Options
	log  *slog.Logger
	reg  *registry.Registry

	mu  sync.Mutex
	res Result
}

// New creates an Importer.
func New(opts Options) *Importer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Importer{
		opts: opts,
		log:  logging.Component("importer"),
	}
}

// Run merges the interchange data into every ring buffer in the database
// directory and reports the outcome.
func (imp *Importer) Run() (*Result, error) {
	return imp.run(imp.importDevice)
}

// Export projects every ring buffer in the database directory to
// interchange files in ImportDir. Used to produce an interchange baseline
// from rings that have no newer data to merge against.
func (imp *Importer) Export() (*Result, error) {
	return imp.run(imp.exportDevice)
}

func (imp *Importer) run(process func(name string) error) (*Result, error) {
	reg, err := registry.Load(imp.opts.RegistryPath)
	if err != nil {
		return nil, errors.Wrap(err, "load registry")
	}
	imp.reg = reg
	imp.res = Result{}

	names, err := imp.schemaFiles()
	if err != nil {
		return nil, err
	}
	imp.res.Found = len(names)
	if len(names) == 0 {
		return &imp.res, errors.Wrapf(errors.ErrNothingImportable,
			"no %s files in %s", schemaSuffix, imp.opts.DatabaseDir)
	}

	var g errgroup.Group
	g.SetLimit(imp.opts.Workers)
	for _, name := range names {
		name := name
		g.Go(func() error {
			switch err := process(name); {
			case err == nil:
			case errors.IsSkip(err):
				imp.log.Info("device skipped", "file", name, "reason", err)
				imp.count(func(r *Result) { r.Skipped++ })
			default:
				// Per-device failures never abort the batch.
				imp.log.Error("device failed", "file", name, "error", err)
				imp.count(func(r *Result) { r.Failed++ })
			}
			return nil
		})
	}
	g.Wait()

	res := imp.res
	return &res, nil
}

// schemaFiles lists the schema files in the database directory. An
// unreadable directory is the one error that aborts the whole run.
func (imp *Importer) schemaFiles() ([]string, error) {
	entries, err := os.ReadDir(imp.opts.DatabaseDir)
	if err != nil {
		return nil, errors.Wrap(err, "read database directory")
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), schemaSuffix) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// decode reads and decodes one schema file and resolves its display name.
// Skippable devices come back as ErrNotProvisioned or ErrDeviceNotFound;
// the batch loop classifies those with errors.IsSkip.
func (imp *Importer) decode(name string) (*schema.Device, string, error) {
	path := filepath.Join(imp.opts.DatabaseDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "read schema file")
	}

	dev, err := schema.DecodeFile(data)
	if err != nil {
		return nil, "", err
	}
	if dev.Damaged {
		imp.log.Warn("schema file partly corrupted, continuing",
			"file", name, "subsets", len(dev.Subsets))
	}

	if !dev.Provisioned() {
		return nil, "", errors.Wrapf(errors.ErrNotProvisioned, "file %s", name)
	}

	// The appliance names schema and ring files after the device id; the
	// embedded id field is only authoritative for the placeholder check.
	uuid := strings.TrimSuffix(name, schemaSuffix)

	dev.Name, err = imp.reg.Resolve(uuid)
	if err != nil {
		return nil, "", err
	}

	imp.log.Debug("decoded schema file", "file", name, "device", dev.String())
	return dev, uuid, nil
}

func (imp *Importer) importDevice(name string) error {
	dev, uuid, err := imp.decode(name)
	if err != nil {
		return err
	}

	for i, sub := range dev.Subsets {
		if err := imp.importSubset(dev, uuid, sub); err != nil {
			// A bad subset does not invalidate its siblings.
			imp.log.Warn("subset skipped",
				"device", uuid, "subset", i, "interval", sub.Interval, "error", err)
			continue
		}
		imp.count(func(r *Result) { r.Subsets++ })
	}

	imp.count(func(r *Result) { r.Processed++ })
	return nil
}

func (imp *Importer) importSubset(dev *schema.Device, uuid string, sub *schema.Subset) error {
	times, err := ring.SlotTimes(sub)
	if err != nil {
		return err
	}

	ringPath := schema.RingPath(imp.opts.DatabaseDir, uuid, sub.Interval)
	vals, err := ring.ReadFile(ringPath, dev.Kind, int(sub.NSamples))
	if err != nil {
		return err
	}

	csvPath := schema.InterchangePath(imp.opts.ImportDir, dev, sub)
	series, err := interchange.ReadFile(csvPath, dev.Kind, imp.opts.Cutoff)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			imp.log.Info("no interchange data for subset",
				"device", uuid, "interval", sub.Interval)
		}
		return err
	}

	merged, written, err := merge.Run(times, vals, series, sub.Offset)
	if err != nil {
		return err
	}

	if err := ring.WriteFile(ringPath, merged); err != nil {
		return err
	}

	st := stats.New(uuid, sub.Interval, imp.opts.Quantiles)
	for _, slot := range written {
		st.Add(merged.Number(slot))
	}
	st.LogSummary(imp.log)
	imp.count(func(r *Result) { r.Imported += int64(len(written)) })

	if imp.opts.Snapshot != nil {
		if err := imp.opts.Snapshot.WriteSubset(dev, sub, times, merged); err != nil {
			return err
		}
	}
	return nil
}

func (imp *Importer) exportDevice(name string) error {
	dev, uuid, err := imp.decode(name)
	if err != nil {
		return err
	}

	for i, sub := range dev.Subsets {
		if sub.NSamples == 0 {
			continue
		}
		if err := imp.exportSubset(dev, uuid, sub); err != nil {
			imp.log.Warn("subset skipped",
				"device", uuid, "subset", i, "interval", sub.Interval, "error", err)
			continue
		}
		imp.count(func(r *Result) { r.Subsets++ })
	}

	imp.count(func(r *Result) { r.Processed++ })
	return nil
}

func (imp *Importer) exportSubset(dev *schema.Device, uuid string, sub *schema.Subset) error {
	times, err := ring.SlotTimes(sub)
	if err != nil {
		return err
	}

	ringPath := schema.RingPath(imp.opts.DatabaseDir, uuid, sub.Interval)
	vals, err := ring.ReadFile(ringPath, dev.Kind, int(sub.NSamples))
	if err != nil {
		return err
	}

	csvPath := schema.InterchangePath(imp.opts.ImportDir, dev, sub)
	return interchange.ProjectFile(csvPath, times, vals)
}

func (imp *Importer) count(update func(*Result)) {
	imp.mu.Lock()
	update(&imp.res)
	imp.mu.Unlock()
}
