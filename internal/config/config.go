// Package config holds the tool configuration: where the ring database and
// the uploaded interchange data live, the import cutoff, and the optional
// reporting features.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/marcelr/ringmigrate/internal/errors"
)

// Config is the complete tool configuration.
type Config struct {
	// DatabaseDir is the directory holding the appliance's .dat schema
	// files and .rra ring buffers.
	DatabaseDir string `yaml:"database_dir"`

	// ImportDir is the directory holding the uploaded interchange files.
	ImportDir string `yaml:"import_dir"`

	// RegistryPath is the device registry document. Defaults to
	// {DatabaseDir}/config_hcb_rrd.xml.
	RegistryPath string `yaml:"registry"`

	// CutoffDate limits the import to samples recorded up to and
	// including this day, formatted YYYY-MM-DD. Empty means no limit.
	CutoffDate string `yaml:"cutoff_date"`

	// Workers is the number of schema files processed in parallel. Each
	// ring file is owned by exactly one worker.
	Workers int `yaml:"workers"`

	// Monthly configures the monthly aggregate document merge.
	Monthly MonthlyConfig `yaml:"monthly"`

	// Snapshot configures the Parquet dump of merged series.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Stats configures the per-subset merge report.
	Stats StatsConfig `yaml:"stats"`
}

// MonthlyConfig configures the monthly aggregate document merge.
type MonthlyConfig struct {
	// Enabled turns the monthly merge on.
	Enabled bool `yaml:"enabled"`

	// OldPath is the previous unit's monthly document.
	OldPath string `yaml:"old_path"`

	// NewPath is the replacement unit's monthly document, rewritten in
	// place.
	NewPath string `yaml:"new_path"`
}

// SnapshotConfig configures the Parquet dump of merged series.
type SnapshotConfig struct {
	// Enabled turns the snapshot on.
	Enabled bool `yaml:"enabled"`

	// Path is the snapshot file. Defaults to {DatabaseDir}/import.parquet.
	Path string `yaml:"path"`
}

// StatsConfig configures the per-subset merge report.
type StatsConfig struct {
	// Quantiles enables sketch-based quantiles in the report.
	Quantiles bool `yaml:"quantiles"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers: 4,
		Stats: StatsConfig{
			Quantiles: true,
		},
	}
}

// ApplyDefaults fills in values derivable from the directories.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.RegistryPath == "" && c.DatabaseDir != "" {
		c.RegistryPath = filepath.Join(c.DatabaseDir, "config_hcb_rrd.xml")
	}
	if c.Snapshot.Enabled && c.Snapshot.Path == "" && c.DatabaseDir != "" {
		c.Snapshot.Path = filepath.Join(c.DatabaseDir, "import.parquet")
	}
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if c.DatabaseDir == "" {
		return errors.NewMissingField("database_dir")
	}
	if c.ImportDir == "" {
		return errors.NewMissingField("import_dir")
	}
	if c.Workers <= 0 {
		return errors.NewValidation("workers", "must be positive")
	}
	if c.Monthly.Enabled {
		if c.Monthly.OldPath == "" {
			return errors.NewMissingField("monthly.old_path")
		}
		if c.Monthly.NewPath == "" {
			return errors.NewMissingField("monthly.new_path")
		}
	}
	if c.Snapshot.Enabled && c.Snapshot.Path == "" {
		return errors.NewMissingField("snapshot.path")
	}
	return nil
}
