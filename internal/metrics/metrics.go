// Package metrics registers archivist's Prometheus counters/gauges and,
// when a listen address is configured, serves them for the duration of a
// single run. Grounded on internal/metrics (initX/registerX
// per subsystem, sync.Once init), trimmed to drop the daemon-only
// /health, /trigger, and /reload endpoints: archivist is single-shot
// (§1 Non-goals), so there is no long-lived process for those to serve.
package metrics

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce    sync.Once
	serverMutex sync.Mutex
	currentSrv  *http.Server
)

// Init registers all metric subsystems with Prometheus. Safe to call
// multiple times.
func Init() {
	initOnce.Do(func() {
		initRunMetrics()
		registerRunMetrics()
	})
}

// StartServer starts the metrics HTTP server on addr, exposing /metrics
// via promhttp.Handler(). Intended to run only for the lifetime of one
// archivist invocation; callers shut it down via Shutdown once the
// pipeline finishes.
func StartServer(addr string, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv != nil {
		logger.Printf("metrics server already running on %s", currentSrv.Addr)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	currentSrv = srv

	go func() {
		logger.Printf("metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
		}
	}()

	// Give the server a moment to start before the run proceeds.
	time.Sleep(100 * time.Millisecond)
}

// Shutdown gracefully stops the metrics server, if one is running.
func Shutdown(ctx context.Context, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv == nil {
		return
	}
	if err := currentSrv.Shutdown(ctx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
	}
	currentSrv = nil
}
