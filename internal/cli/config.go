package cli

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/search"
)

// fileConfig is the layout of the --config file:
//
//	[search]
//	timeout = "60s"
//	max_doublings = 4
//	preprocess = true
//
//	[cache]
//	dir = "/var/cache/qarchsearch"
//	redis_url = "redis://localhost:6379/0"
//
//	[output]
//	dir = "results"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[serve]
//	addr = ":8080"
//	max_jobs = 2
type fileConfig struct {
	Search search.Config `toml:"search"`
	Cache  struct {
		Dir      string `toml:"dir"`
		RedisURL string `toml:"redis_url"`
	} `toml:"cache"`
	Output struct {
		Dir      string `toml:"dir"`
		MongoURI string `toml:"mongo_uri"`
	} `toml:"output"`
	Serve struct {
		Addr    string `toml:"addr"`
		MaxJobs int    `toml:"max_jobs"`
	} `toml:"serve"`
}

// loadConfig reads the --config file. An empty path yields the zero config.
func (c *CLI) loadConfig() (fileConfig, error) {
	var fc fileConfig
	if c.configPath == "" {
		return fc, nil
	}
	if _, err := os.Stat(c.configPath); err != nil {
		return fc, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", c.configPath)
	}
	md, err := toml.DecodeFile(c.configPath, &fc)
	if err != nil {
		return fc, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config %s", c.configPath)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fc, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), c.configPath)
	}
	c.Logger.Debug("loaded config", "path", c.configPath)
	return fc, nil
}

// override copies flag values over config values, but only for flags the
// user set explicitly.
func override[T any](cmd *cobra.Command, name string, dst *T, val T) {
	if cmd.Flags().Changed(name) {
		*dst = val
	}
}

// orDefault returns v unless it is the zero value.
func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
