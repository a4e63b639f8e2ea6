// Package orchestrator implements §4.11's multi-root pipeline: for each
// configured root, run the full scan -> analyze -> arbitrate -> execute
// control flow in sequence, followed by a rescan and a post-cleanup pass.
// Roots are independent; a failure in one is logged and does not abort
// the remaining roots, per §7's error-propagation rule.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"archivist/internal/arbiter"
	"archivist/internal/cleanupanalyzer"
	"archivist/internal/config"
	"archivist/internal/corectx"
	"archivist/internal/database"
	"archivist/internal/duplicate"
	"archivist/internal/executor"
	"archivist/internal/fsops"
	"archivist/internal/logging"
	"archivist/internal/metrics"
	"archivist/internal/model"
	"archivist/internal/orphan"
	"archivist/internal/ownership"
	"archivist/internal/permissions"
	"archivist/internal/planmodel"
	"archivist/internal/reorganize"
	"archivist/internal/scanner"
)

const lockFileName = ".archivist.lock"

// RootResult summarizes one root's run.
type RootResult struct {
	ScanPath string
	Plan     *planmodel.Plan
	Outcomes []executor.Outcome
	Err      error
}

// Run executes the pipeline for every root in cfg.Roots, in order,
// independent of whether earlier roots failed. mover is the fsops.Mover
// the executor applies Operations through (an fsops.OSMover in
// production, an fsops.FakeMover in tests). hist may be nil to skip
// history recording. Results are returned in root order. ctx is checked
// between roots: once it's done (SIGINT/SIGTERM, §10.6), remaining roots
// are recorded with ctx.Err() instead of being started.
func Run(ctx context.Context, cfg *config.Config, logger logging.Logger, mover fsops.Mover, hist *database.HistoryDB, runID string, autoYesToAll, dryRun bool) []RootResult {
	if logger == nil {
		logger = logging.Nop()
	}

	results := make([]RootResult, 0, len(cfg.Roots))
	for i := range cfg.Roots {
		root := &cfg.Roots[i]

		if err := ctx.Err(); err != nil {
			logger.Warn("run cancelled, skipping remaining roots", "scanPath", root.ScanPath, "error", err)
			results = append(results, RootResult{ScanPath: root.ScanPath, Err: err})
			continue
		}

		logger.Info("starting root", "scanPath", root.ScanPath)

		res := runRoot(ctx, root, logger, mover, hist, runID, autoYesToAll, dryRun)
		if res.Err != nil {
			logger.Error("root failed", "scanPath", root.ScanPath, "error", res.Err)
		}
		results = append(results, res)
	}
	metrics.RecordRunComplete()
	return results
}

func runRoot(ctx context.Context, root *config.RootConfig, logger logging.Logger, mover fsops.Mover, hist *database.HistoryDB, runID string, autoYesToAll, dryRun bool) RootResult {
	res := RootResult{ScanPath: root.ScanPath}

	// Per-root exclusive lock so two concurrent invocations against the
	// same recycle bin don't interleave moves (§11.4).
	lockPath := filepath.Join(root.RecycleBinPath, lockFileName)
	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		res.Err = fmt.Errorf("acquire run lock at %s: %w", lockPath, err)
		return res
	}
	defer fl.Unlock()

	cx := corectx.New(root, logger)

	scanStart := time.Now()
	scan, err := scanner.Scan(cx, root.ScanPath)
	metrics.ScanDuration.Observe(time.Since(scanStart).Seconds())
	if err != nil {
		res.Err = fmt.Errorf("scan: %w", err)
		return res
	}

	plan, err := analyzeAndArbitrate(cx, scan, root)
	if err != nil {
		res.Err = err
		return res
	}
	res.Plan = plan

	if dryRun {
		return res
	}

	sizeOf := sizeLookup(scan)
	validated := fsops.NewValidatingMover(mover, []string{root.ScanPath, root.RecycleBinPath}, root.RecycleBinPath)
	exec := executor.NewConsoleExecutor(validated, logger, sizeOf)
	exec.AutoYesToAll = autoYesToAll

	execStart := time.Now()
	outcomes := exec.Run(ctx, plan)
	metrics.ExecuteDuration.Observe(time.Since(execStart).Seconds())
	res.Outcomes = outcomes

	recordOutcomes(hist, runID, outcomes, logger)
	tallyMetrics(root.ScanPath, outcomes)

	if err := runPostCleanup(ctx, cx, root, logger, mover, sizeOf, hist, runID, autoYesToAll); err != nil {
		logger.Warn("post-cleanup rescan failed", "scanPath", root.ScanPath, "error", err)
	}

	return res
}

// analyzeAndArbitrate runs every enabled analyzer against scan and merges
// their output into a single Plan via the arbiter, per §2/§4.10.
func analyzeAndArbitrate(cx *corectx.Context, scan *model.Scan, root *config.RootConfig) (*planmodel.Plan, error) {
	analyzeStart := time.Now()
	defer func() { metrics.AnalyzeDuration.Observe(time.Since(analyzeStart).Seconds()) }()

	in := arbiter.Inputs{}

	if root.HasAction(config.ActionPreCleanup) {
		pre := cleanupanalyzer.Analyze(cx, scan)
		in.PreCleanupDirs = pre.Directories
		in.PreCleanupFiles = pre.Files
	}
	if root.HasAction(config.ActionDuplicates) {
		dupOps, _ := duplicate.Analyze(cx, scan)
		in.Duplicates = dupOps
	}
	if root.HasAction(config.ActionOrphans) {
		in.Orphans = orphan.Analyze(cx, scan)
	}
	if root.HasAction(config.ActionReorganize) {
		in.Reorganize = reorganize.Analyze(cx, scan)
	}
	if root.HasAction(config.ActionPermissions) {
		in.Permissions = permissions.Analyze(cx, scan)
	}
	if root.HasAction(config.ActionOwnership) {
		ownOps, err := ownership.Analyze(cx, scan)
		if err != nil {
			return nil, fmt.Errorf("ownership account lookup: %w", err)
		}
		in.Ownership = ownOps
	}

	return arbiter.Arbitrate(in), nil
}

// runPostCleanup rescans root after the main pipeline has executed and
// runs a second cleanup pass against the fresh tree, per §2's control
// flow: empty directories that only become visible once reorganize and
// duplicate/orphan moves have drained their contents.
func runPostCleanup(ctx context.Context, cx *corectx.Context, root *config.RootConfig, logger logging.Logger, mover fsops.Mover, sizeOf func(string) int64, hist *database.HistoryDB, runID string, autoYesToAll bool) error {
	if !root.HasAction(config.ActionPostCleanup) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("post-cleanup rescan skipped: %w", err)
	}

	rescan, err := scanner.Scan(cx, root.ScanPath)
	if err != nil {
		return fmt.Errorf("post-cleanup rescan: %w", err)
	}

	post := cleanupanalyzer.AnalyzeAsKind(cx, rescan, planmodel.PostCleanup)
	plan := arbiter.ArbitratePostCleanup(post.Directories, post.Files)
	if plan.Len() == 0 {
		return nil
	}

	validated := fsops.NewValidatingMover(mover, []string{root.ScanPath, root.RecycleBinPath}, root.RecycleBinPath)
	exec := executor.NewConsoleExecutor(validated, logger, sizeOf)
	exec.AutoYesToAll = autoYesToAll
	outcomes := exec.Run(ctx, plan)
	recordOutcomes(hist, runID, outcomes, logger)
	return nil
}

// sizeLookup returns a function mapping a path to its known size from
// scan, used by the executor to tally bytes moved. Falls back to 0 for
// paths outside the scan (shouldn't happen, since every Operation's path
// originates from this scan).
func sizeLookup(scan *model.Scan) func(string) int64 {
	return func(path string) int64 {
		if f, ok := scan.Files[path]; ok {
			return f.Stat.Size
		}
		if d, ok := scan.Directories[path]; ok {
			return d.TotalSize
		}
		return 0
	}
}

// recordOutcomes persists one history record per attempted Operation, using
// each Outcome's per-item Results so DONE/SKIP/ERROR and size reflect what
// the executor actually did with that Operation (§11.1). hist may be nil
// (history recording disabled), in which case this is a no-op.
func recordOutcomes(hist *database.HistoryDB, runID string, outcomes []executor.Outcome, logger logging.Logger) {
	if hist == nil {
		return
	}
	for _, outcome := range outcomes {
		for _, r := range outcome.Results {
			dbOutcome := database.OutcomeDone
			errMsg := ""
			switch r.State {
			case executor.OpSkipped:
				dbOutcome = database.OutcomeSkip
			case executor.OpFailed:
				dbOutcome = database.OutcomeError
				if r.Err != nil {
					errMsg = r.Err.Error()
				}
			}
			if err := hist.RecordOperation(runID, r.Op, dbOutcome, r.Bytes, errMsg); err != nil {
				logger.Warn("failed to record operation history", "path", r.Op.Path, "error", err)
			}
		}
	}
}

func tallyMetrics(root string, outcomes []executor.Outcome) {
	for _, o := range outcomes {
		kind := o.Kind.String()
		metrics.OperationsAppliedTotal.WithLabelValues(kind).Add(float64(o.Applied))
		metrics.OperationsSkippedTotal.WithLabelValues(kind).Add(float64(o.Skipped))
		metrics.OperationErrorsTotal.WithLabelValues(kind).Add(float64(o.Failed))
	}
	var total int64
	for _, o := range outcomes {
		total += o.BytesMoved
	}
	metrics.RecordRootBytesMoved(root, total)
}
