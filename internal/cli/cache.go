package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the search report cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var redisURL string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached search reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := backendOpts{cacheDir: fc.Cache.Dir, redisURL: fc.Cache.RedisURL}
			override(cmd, "redis-url", &opts.redisURL, redisURL)

			cch, err := newCache(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cch.Close()

			if err := cch.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if opts.redisURL != "" {
				printSuccess("Cleared Redis cache")
				return nil
			}
			dir, err := resolveCacheDir(opts.cacheDir)
			if err != nil {
				return err
			}
			printSuccess("Cleared cache")
			printDetail("Directory: %s", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "clear this Redis cache instead of the file cache")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := resolveCacheDir(fc.Cache.Dir)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(out, dir)
			return nil
		},
	}
}

// resolveCacheDir returns dir, or the default cache directory when empty.
func resolveCacheDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return cacheDir()
}
