// ringmigrate moves the historical readings of a previous appliance into
// the ring-buffer database of its replacement.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/marcelr/ringmigrate/internal/config"
	"github.com/marcelr/ringmigrate/internal/errors"
	"github.com/marcelr/ringmigrate/internal/importer"
	"github.com/marcelr/ringmigrate/internal/logging"
	"github.com/marcelr/ringmigrate/internal/monthly"
	"github.com/marcelr/ringmigrate/internal/snapshot"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "", "config file path")
	dbDir := flag.String("db", "", "ring database directory (overrides config)")
	importDir := flag.String("import-dir", "", "uploaded interchange data directory (overrides config)")
	registryPath := flag.String("registry", "", "device registry document (overrides config)")
	cutoffDate := flag.String("cutoff", "", "import data up to and including this date (YYYY-MM-DD)")
	workers := flag.Int("workers", 0, "parallel schema files (overrides config)")
	export := flag.Bool("export", false, "project ring buffers to interchange files instead of importing")
	monthlyOld := flag.String("monthly-old", "", "previous unit's monthly document to merge")
	monthlyNew := flag.String("monthly-new", "", "replacement unit's monthly document (rewritten)")
	snapshotPath := flag.String("snapshot", "", "write merged series to this Parquet file")
	jsonLog := flag.Bool("json", false, "log in JSON format")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logging.Init(level, *jsonLog)
	log := logging.Component("main")
	log.Info("ringmigrate starting", "version", Version)

	// Load config; flags override.
	cfg := config.DefaultConfig()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fatal(log, "load config", err)
		}
		cfg = loaded
	}
	if *dbDir != "" {
		cfg.DatabaseDir = *dbDir
	}
	if *importDir != "" {
		cfg.ImportDir = *importDir
	}
	if *registryPath != "" {
		cfg.RegistryPath = *registryPath
	}
	if *cutoffDate != "" {
		cfg.CutoffDate = *cutoffDate
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *snapshotPath != "" {
		cfg.Snapshot.Enabled = true
		cfg.Snapshot.Path = *snapshotPath
	}
	if *monthlyOld != "" {
		cfg.Monthly.Enabled = true
		cfg.Monthly.OldPath = *monthlyOld
	}
	if *monthlyNew != "" {
		cfg.Monthly.NewPath = *monthlyNew
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		fatal(log, "validate config", err)
	}

	cutoff, err := importer.ParseCutoff(cfg.CutoffDate)
	if err != nil {
		fatal(log, "parse cutoff", err)
	}
	if cutoff != importer.NoLimit {
		log.Info("importing data recorded up to cutoff", "date", cfg.CutoffDate)
	}

	var snapWriter *snapshot.Writer
	if cfg.Snapshot.Enabled && !*export {
		snapWriter, err = snapshot.NewWriter(cfg.Snapshot.Path)
		if err != nil {
			fatal(log, "open snapshot", err)
		}
	}

	imp := importer.New(importer.Options{
		DatabaseDir:  cfg.DatabaseDir,
		ImportDir:    cfg.ImportDir,
		RegistryPath: cfg.RegistryPath,
		Cutoff:       cutoff,
		Workers:      cfg.Workers,
		Quantiles:    cfg.Stats.Quantiles,
		Snapshot:     snapWriter,
	})

	var res *importer.Result
	if *export {
		log.Info("projecting ring buffers to interchange files",
			"db", cfg.DatabaseDir, "out", cfg.ImportDir)
		res, err = imp.Export()
	} else {
		log.Info("merging interchange data into ring buffers",
			"db", cfg.DatabaseDir, "in", cfg.ImportDir)
		res, err = imp.Run()
	}
	if err != nil {
		if snapWriter != nil {
			snapWriter.Close()
		}
		fatal(log, "run", err)
	}

	if snapWriter != nil {
		if err := snapWriter.Close(); err != nil {
			log.Error("close snapshot", "error", err)
		} else {
			log.Info("snapshot written",
				"path", cfg.Snapshot.Path, "rows", snapWriter.RowCount())
		}
	}

	if cfg.Monthly.Enabled && !*export {
		if err := mergeMonthly(cfg, cutoff); err != nil {
			// The ring import already succeeded; report and move on.
			log.Error("monthly merge failed", "error", err)
		} else {
			log.Info("monthly document merged", "path", cfg.Monthly.NewPath)
		}
	}

	log.Info("done",
		"found", res.Found,
		"processed", res.Processed,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"subsets", res.Subsets,
		"imported", res.Imported)
}

func mergeMonthly(cfg *config.Config, cutoff int32) error {
	oldDoc, err := monthly.Load(cfg.Monthly.OldPath)
	if err != nil {
		return err
	}
	newDoc, err := monthly.Load(cfg.Monthly.NewPath)
	if err != nil {
		return err
	}
	merged := monthly.Merge(oldDoc, newDoc, int64(cutoff))
	return monthly.WriteFile(cfg.Monthly.NewPath, merged)
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	if errors.Is(err, errors.ErrNothingImportable) {
		fmt.Fprintln(os.Stderr, "nothing importable found")
	}
	if errors.IsValidation(err) {
		flag.Usage()
	}
	os.Exit(1)
}
