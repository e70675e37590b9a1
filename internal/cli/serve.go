package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qarchsearch/pkg/api"
	"github.com/matzehuels/qarchsearch/pkg/buildinfo"
	"github.com/matzehuels/qarchsearch/pkg/observability"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 30 * time.Second
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		maxJobs   int
		noCache   bool
		redisURL  string
		outputDir string
		mongoURI  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve accepts search jobs over HTTP and exposes Prometheus metrics on
/metrics. Reports are cached like in the search command; results are only
written to disk or MongoDB when --output-dir or --mongo-uri is set.`,
		Example: `  qarchsearch serve --addr :8080 --redis-url redis://localhost:6379/0`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.loadConfig()
			if err != nil {
				return err
			}
			listen := orDefault(fc.Serve.Addr, defaultAddr)
			override(cmd, "addr", &listen, addr)
			jobs := orDefault(fc.Serve.MaxJobs, api.DefaultMaxJobs)
			override(cmd, "max-jobs", &jobs, maxJobs)

			backend := backendOpts{
				noCache:   noCache,
				cacheDir:  fc.Cache.Dir,
				redisURL:  fc.Cache.RedisURL,
				outputDir: fc.Output.Dir,
				mongoURI:  fc.Output.MongoURI,
			}
			override(cmd, "redis-url", &backend.redisURL, redisURL)
			override(cmd, "output-dir", &backend.outputDir, outputDir)
			override(cmd, "mongo-uri", &backend.mongoURI, mongoURI)

			return c.runServe(cmd.Context(), listen, jobs, backend)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().IntVar(&maxJobs, "max-jobs", api.DefaultMaxJobs, "searches running at once")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "cache reports in Redis instead of on disk")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "also write result files to this directory")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "also store results in MongoDB")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, maxJobs int, backend backendOpts) error {
	logger := loggerFromContext(ctx)
	runner, err := c.newRunner(ctx, backend)
	if err != nil {
		return err
	}
	defer runner.Close(context.Background())

	metrics := observability.NewPrometheus(prometheus.DefaultRegisterer)
	observability.SetSearchHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetJobHooks(metrics)
	defer observability.Reset()

	srv := api.New(runner, api.WithLogger(logger), api.WithMaxJobs(maxJobs))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "version", buildinfo.Short(), "max_jobs", maxJobs)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("job shutdown", "err", err)
	}
	return nil
}
