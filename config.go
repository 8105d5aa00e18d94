package gridgo

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/gridgo/row"
)

// StreamingConfig configures the stream source of a Grid.
type StreamingConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	BatchSize     int           `yaml:"batch_size"`
	RowsPerSecond float64       `yaml:"rows_per_second"`
}

// Config is the declarative form of the engine options, suitable for
// keeping grid definitions in YAML:
//
//	page_size: 25
//	selection_mode: single
//	worker_threshold: 500
//	streaming:
//	  enabled: true
//	  interval: 2s
//	  batch_size: 10
//	  rows_per_second: 20
//	columns:
//	  - id: name
//	    header: Name
//	    accessor: name
//	    sortable: true
type Config struct {
	PageSize        int             `yaml:"page_size"`
	Selectable      bool            `yaml:"selectable"`
	Editable        bool            `yaml:"editable"`
	WorkerThreshold int             `yaml:"worker_threshold"`
	Workers         int             `yaml:"workers"`
	SelectionMode   SelectionMode   `yaml:"selection_mode"`
	Virtualized     bool            `yaml:"virtualized"`
	Streaming       StreamingConfig `yaml:"streaming"`
	Columns         []row.Column    `yaml:"columns"`
}

// DefaultConfig returns the defaults applied by New.
func DefaultConfig() Config {
	return Config{
		PageSize:        DefaultPageSize,
		WorkerThreshold: DefaultWorkerThreshold,
		Workers:         DefaultWorkers,
		SelectionMode:   SelectionMultiple,
	}
}

// ParseConfig decodes a YAML document on top of DefaultConfig and validates
// the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be applied.
func (c Config) Validate() error {
	switch {
	case c.PageSize <= 0:
		return fmt.Errorf("%w: page_size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	case c.WorkerThreshold < 0:
		return fmt.Errorf("%w: worker_threshold must not be negative, got %d", ErrInvalidConfig, c.WorkerThreshold)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	case !c.SelectionMode.valid():
		return fmt.Errorf("%w: unknown selection_mode %q", ErrInvalidConfig, c.SelectionMode)
	case c.Streaming.Interval < 0 || c.Streaming.BatchSize < 0 || c.Streaming.RowsPerSecond < 0:
		return fmt.Errorf("%w: streaming settings must not be negative", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Columns))
	for i, col := range c.Columns {
		if col.ID == "" {
			return fmt.Errorf("%w: column %d has no id", ErrInvalidConfig, i)
		}
		if _, dup := seen[col.ID]; dup {
			return fmt.Errorf("%w: duplicate column id %q", ErrInvalidConfig, col.ID)
		}
		seen[col.ID] = struct{}{}
	}
	return nil
}

// Options converts the configuration into engine options.
func (c Config) Options() []Option {
	opts := []Option{
		WithPageSize(c.PageSize),
		WithSelectable(c.Selectable),
		WithEditable(c.Editable),
		WithWorkerThreshold(c.WorkerThreshold),
		WithWorkers(c.Workers),
		WithSelectionMode(c.SelectionMode),
		WithVirtualization(c.Virtualized),
	}
	if len(c.Columns) > 0 {
		opts = append(opts, WithColumns(c.Columns...))
	}
	if c.Streaming.Enabled {
		opts = append(opts,
			WithStreaming(c.Streaming.Interval, c.Streaming.BatchSize),
			WithStreamingRowLimit(c.Streaming.RowsPerSecond),
		)
	}
	return opts
}
