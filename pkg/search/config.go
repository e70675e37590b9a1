package search

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/qarchsearch/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API and Library
// =============================================================================

const (
	// DefaultMaxDoublings is how often the depth bound may double before a
	// budget is reported as non-convergent.
	DefaultMaxDoublings = 4

	// DefaultBoundFactor scales the push-forward depth into the initial
	// depth bound when no explicit bound is configured.
	DefaultBoundFactor = 8

	// DefaultThreads is the only supported solver thread count.
	DefaultThreads = 1

	// DefaultSwapDuration is the number of layers an inserted SWAP occupies.
	DefaultSwapDuration = 1

	// EarlyExitBudget is the smallest candidate-edge budget after which the
	// search stops once the used edge count stops growing.
	EarlyExitBudget = 4
)

// =============================================================================
// Config
// =============================================================================

// Config tunes the search. The zero value is usable after
// [Config.ValidateAndSetDefaults].
type Config struct {
	// Timeout bounds every single solver check. Zero means no limit.
	Timeout time.Duration `toml:"timeout" json:"timeout,omitempty"`
	// MaxDoublings caps depth-bound doublings per budget.
	MaxDoublings int `toml:"max_doublings" json:"max_doublings,omitempty"`
	// InitialBoundDepth overrides the initial depth bound. Zero derives it
	// from the push-forward depth.
	InitialBoundDepth int `toml:"initial_bound_depth" json:"initial_bound_depth,omitempty"`
	// Preprocess runs one depth search with every candidate edge available
	// and uses its depth as the starting point of every budget.
	Preprocess bool `toml:"preprocess" json:"preprocess,omitempty"`
	// MemoryLimit in MiB. Accepted and logged; the gini backend has no
	// memory ceiling.
	MemoryLimit int `toml:"memory_limit" json:"memory_limit,omitempty"`
	// Threads must be 1.
	Threads int `toml:"threads" json:"threads,omitempty"`
	// SwapDuration is the layer count of an inserted SWAP in the compacted
	// schedule.
	SwapDuration int `toml:"swap_duration" json:"swap_duration,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger `toml:"-" json:"-"`
	Progress Progress    `toml:"-" json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the configuration and fills in defaults.
// It is idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}
	if c.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeout must not be negative, got %s", c.Timeout)
	}
	if c.MaxDoublings < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_doublings must not be negative, got %d", c.MaxDoublings)
	}
	if c.InitialBoundDepth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "initial_bound_depth must not be negative, got %d", c.InitialBoundDepth)
	}
	if c.MemoryLimit < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "memory_limit must not be negative, got %d", c.MemoryLimit)
	}
	if c.SwapDuration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "swap_duration must not be negative, got %d", c.SwapDuration)
	}
	if c.Threads != 0 && c.Threads != DefaultThreads {
		return errors.New(errors.ErrCodeInvalidConfig, "threads must be %d, got %d", DefaultThreads, c.Threads)
	}
	c.SetDefaults()
	c.validated = true
	return nil
}

// SetDefaults fills unset fields without validating.
func (c *Config) SetDefaults() {
	if c.MaxDoublings == 0 {
		c.MaxDoublings = DefaultMaxDoublings
	}
	if c.Threads == 0 {
		c.Threads = DefaultThreads
	}
	if c.SwapDuration == 0 {
		c.SwapDuration = DefaultSwapDuration
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if c.Progress == nil {
		c.Progress = NoopProgress{}
	}
}

// DecodeConfig reads a TOML configuration:
//
//	timeout = "60s"
//	max_doublings = 4
//	initial_bound_depth = 16
//	preprocess = true
//
// Unknown keys are rejected.
func DecodeConfig(r io.Reader) (Config, error) {
	var c Config
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	return c, nil
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open config %s", path)
	}
	defer f.Close()
	return DecodeConfig(f)
}
