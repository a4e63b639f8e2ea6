// Package corectx defines the Context value threaded into every analyzer,
// per spec.md §9's Design Note: replace shared global logger/config
// singletons with explicit dependency injection.
package corectx

import (
	"archivist/internal/concurrency"
	"archivist/internal/config"
	"archivist/internal/logging"
)

// Context bundles the resolved per-root config, the logger sink, and the
// concurrency limiter every analyzer needs. It carries no mutable shared
// state besides what its fields point to (the limiter's internal
// semaphore, which is itself safe for concurrent use).
type Context struct {
	Config  *config.RootConfig
	Logger  logging.Logger
	Limiter *concurrency.Limiter
}

// New builds a Context for root cfg, sizing the limiter from
// cfg.ReorganizeConcurrency.
func New(cfg *config.RootConfig, logger logging.Logger) *Context {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Context{
		Config:  cfg,
		Logger:  logger,
		Limiter: concurrency.NewLimiter(cfg.ReorganizeConcurrency),
	}
}
