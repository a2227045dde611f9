package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

var serveListen string

// metricsGatherer is swapped in tests.
var metricsGatherer prometheus.Gatherer = prometheus.DefaultGatherer

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Hold index ownership and expose queue metrics",
	Long: `Keeps the process running as the index owner so startup rebuilds and
queued work can finish, and serves Prometheus metrics on /metrics until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "127.0.0.1:9464", "metrics listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if synchronizer == nil {
		return errors.New("synchronizer not configured")
	}
	if !synchronizer.Enabled() {
		cmd.Println("Index synchronisation is disabled; serving metrics only.")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              serveListen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx := commandContext(cmd)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	cmd.Printf("Serving metrics on http://%s/metrics\n", serveListen)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
