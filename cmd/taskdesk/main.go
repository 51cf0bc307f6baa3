// Command taskdesk serves the task and contact dashboard API.
package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskdesk/internal/adapters/rest"
	"taskdesk/internal/archive"
	"taskdesk/internal/blob"
	"taskdesk/internal/core"
	"taskdesk/internal/seed"
	"taskdesk/pkg/domain"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("taskdesk", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		addr        = fs.String("addr", ":8080", "listen address")
		seedDemo    = fs.Bool("seed", false, "insert demo data when the store is empty")
		failRate    = fs.Float64("fail-rate", 0, "probability of injected mutation failures (0 disables)")
		logLevelStr = fs.String("log-level", "info", "log level: debug|info|warn|error")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: parseLevel(*logLevelStr)}))
	slog.SetDefault(logger)

	store, err := core.OpenPersistentStore(domain.NewDefaultRulesEngine())
	if err != nil {
		logger.Error("open store", "error", err)
		return 1
	}

	registry := prometheus.NewRegistry()
	promRecorder, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		logger.Error("register metrics", "error", err)
		return 1
	}

	opts := []core.ServiceOption{
		core.WithLogger(core.NewSlogLogger(logger)),
		core.WithMetricsRecorder(promRecorder),
	}
	if *failRate > 0 {
		opts = append(opts, core.WithFailurePolicy(core.NewRateFailure(*failRate, nil)))
	}
	svc := core.NewService(store, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seedDemo {
		inserted, err := seed.Populate(ctx, store, 5, 12)
		if err != nil {
			logger.Error("seed demo data", "error", err)
			return 1
		}
		if inserted {
			logger.Info("seeded demo data")
		}
	}

	blobs, err := blob.Open(ctx)
	if err != nil {
		logger.Error("open blob store", "error", err)
		return 1
	}
	archiver := archive.New(store, blobs)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", rest.NewHandler(svc, archiver))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", *addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
			return 1
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			return 1
		}
	}
	return 0
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
