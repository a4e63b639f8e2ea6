package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"archivist/internal/config"
	"archivist/internal/database"
	"archivist/internal/exitcodes"
	"archivist/internal/fsops"
	"archivist/internal/logging"
	"archivist/internal/metrics"
	"archivist/internal/orchestrator"
)

// stdLoggerFor adapts archivist's Logger interface to the *log.Logger the
// metrics package's StartServer expects, since the Prometheus listener
// predates corectx's Logger interface and only needs basic line logging.
func stdLoggerFor(logger logging.Logger) *log.Logger {
	return log.New(stdLoggerWriter{logger}, "[metrics] ", 0)
}

type stdLoggerWriter struct{ logger logging.Logger }

func (w stdLoggerWriter) Write(p []byte) (int, error) {
	w.logger.Info(string(p))
	return len(p), nil
}

func newRunCommand(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scan/analyze/execute pipeline for every configured root",
		RunE: func(cmd *cobra.Command, args []string) error {
			runPipeline(flags)
			return nil
		},
	}
}

func runPipeline(flags *sharedFlags) {
	cfg, err := config.Load(flags.configPath)
	rotationDays := 0
	if err == nil {
		rotationDays = cfg.LogRotationDays
	}
	logger := logging.NewRotating(rotationDays)
	runID := uuid.NewString()
	logger.Info("archivist run starting", "runId", runID, "config", flags.configPath, "dryRun", flags.dryRun)

	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(exitcodes.InvalidConfig)
	}

	metrics.Init()
	if cfg.PrometheusPort > 0 {
		addr := fmt.Sprintf(":%d", cfg.PrometheusPort)
		metrics.StartServer(addr, stdLoggerFor(logger))
	}

	dbPath := cfg.DatabasePath
	if flags.databasePath != "" {
		dbPath = flags.databasePath
	}

	var hist *database.HistoryDB
	if dbPath != "" {
		hist, err = database.NewHistoryDB(dbPath)
		if err != nil {
			logger.Error("failed to open operation history database", "path", dbPath, "error", err)
			os.Exit(exitcodes.RuntimeError)
		}
		defer hist.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Warn("received signal, finishing in-flight operation then exiting", "runId", runID)
	}()

	mover := fsops.OSMover{}
	results := orchestrator.Run(ctx, cfg, logger, mover, hist, runID, flags.yesToAll, flags.dryRun)

	if cfg.PrometheusPort > 0 {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		metrics.Shutdown(shutdownCtx, stdLoggerFor(logger))
		cancel()
	}

	failed := false
	for _, r := range results {
		if r.Err != nil {
			failed = true
			logger.Error("root finished with an error", "scanPath", r.ScanPath, "error", r.Err)
		}
	}

	logger.Info("archivist run complete", "runId", runID)
	if failed {
		os.Exit(exitcodes.RuntimeError)
	}
}
