// Package executor implements §6's executor contract: applying a Plan's
// Operations against the filesystem, after interactive confirmation.
//
// ConsoleExecutor's terminal-aware rendering is grounded on
// blueman82-conductor/internal/logger's isatty.IsTerminal gate plus
// fatih/color usage for status coloring; the {yes/all/no/cancel/show}
// prompt loop and the Mover abstraction it drives are generalized from
// internal/fsops.Deleter (Remove/RemoveAll) to a Mover
// (Move/Chmod/Chown) contract matching this spec's non-destructive model.
package executor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"archivist/internal/fsops"
	"archivist/internal/logging"
	"archivist/internal/planmodel"
)

// Decision is the operator's answer to a confirmation prompt.
type Decision int

const (
	DecisionNo Decision = iota
	DecisionYes
	DecisionYesToAll
	DecisionCancel
)

// Outcome tallies what happened while applying one Kind's Operations.
type Outcome struct {
	Kind      planmodel.Kind
	Applied   int
	Skipped   int
	Failed    int
	Cancelled bool
	BytesMoved int64

	// Results carries one entry per Operation this Kind's loop reached,
	// in application order, so callers needing per-item detail (history
	// recording) don't have to reverse-engineer it from the tallies above.
	Results []OpResult
}

// OpResult is the terminal disposition of one Operation: applied, skipped
// by operator decision or cancellation, or failed with err set.
type OpResult struct {
	Op    planmodel.Operation
	State OpState
	Err   error
	Bytes int64
}

// OpState is the per-operation counterpart to Outcome's aggregate tallies.
type OpState int

const (
	OpApplied OpState = iota
	OpSkipped
	OpFailed
)

// ConsoleExecutor prompts on stdin/stdout and applies accepted Operations
// through a fsops.Mover.
type ConsoleExecutor struct {
	Mover  fsops.Mover
	Logger logging.Logger
	In     io.Reader
	Out    io.Writer
	sizeOf func(path string) int64

	// AutoYesToAll mirrors the CLI's --yes-to-all flag: an explicit operator
	// opt-in that approves every class without prompting. This is distinct
	// from non-interactive stdin, which always defaults to no.
	AutoYesToAll bool
}

// NewConsoleExecutor builds a ConsoleExecutor reading from stdin and
// writing to stdout. sizeOf looks up a path's size for the moved-bytes
// tally; pass nil to skip byte accounting.
func NewConsoleExecutor(mover fsops.Mover, logger logging.Logger, sizeOf func(string) int64) *ConsoleExecutor {
	if sizeOf == nil {
		sizeOf = func(string) int64 { return 0 }
	}
	return &ConsoleExecutor{Mover: mover, Logger: logger, In: os.Stdin, Out: os.Stdout, sizeOf: sizeOf}
}

// Run walks plan in §6's fixed execution order, prompting per Kind's class
// and then per item, and returns one Outcome per non-empty Kind. ctx is
// checked between Kinds and between individual Operations; once it's done
// (SIGINT/SIGTERM per §10.6), remaining work is recorded as skipped rather
// than applied, the same as an operator-issued cancel.
func (e *ConsoleExecutor) Run(ctx context.Context, plan *planmodel.Plan) []Outcome {
	var outcomes []Outcome
	for _, kind := range planmodel.ExecutionOrder {
		ops := plan.Ops(kind)
		if len(ops) == 0 {
			continue
		}
		outcomes = append(outcomes, e.runKind(ctx, kind, ops))
	}
	return outcomes
}

func (e *ConsoleExecutor) runKind(ctx context.Context, kind planmodel.Kind, ops []planmodel.Operation) Outcome {
	out := Outcome{Kind: kind}
	ops = moveDepthFirst(ops)
	e.printHeader(kind, ops)

	scanner := bufio.NewScanner(e.In)
	yesToAll := e.AutoYesToAll

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			e.Logger.Warn("run cancelled, skipping remaining operations", "kind", kind.String(), "remaining", len(ops)-i)
			out.Cancelled = true
			for _, remaining := range ops[i:] {
				out.Skipped++
				out.Results = append(out.Results, OpResult{Op: remaining, State: OpSkipped, Err: err})
			}
			return out
		}

		decision := DecisionYes
		if !yesToAll {
			d := e.prompt(scanner, op)
			switch d {
			case DecisionCancel:
				out.Cancelled = true
				for _, remaining := range ops[i:] {
					out.Skipped++
					out.Results = append(out.Results, OpResult{Op: remaining, State: OpSkipped})
				}
				return out
			case DecisionYesToAll:
				yesToAll = true
				decision = DecisionYes
			default:
				decision = d
			}
		}

		if decision == DecisionNo {
			out.Skipped++
			out.Results = append(out.Results, OpResult{Op: op, State: OpSkipped})
			continue
		}

		if err := e.apply(op); err != nil {
			e.Logger.Error("operation failed", "path", op.Path, "kind", kind.String(), "error", err)
			out.Failed++
			out.Results = append(out.Results, OpResult{Op: op, State: OpFailed, Err: err})
			continue
		}
		bytes := e.sizeOf(op.Path)
		out.Applied++
		out.BytesMoved += bytes
		out.Results = append(out.Results, OpResult{Op: op, State: OpApplied, Bytes: bytes})
	}
	return out
}

// moveDepthFirst reorders move Operations (§5: "move deeper paths first
// when the parent would otherwise be emptied mid-flight") so a child never
// moves after its own ancestor in the same Kind's sequence. Non-move
// Operations (permissions, ownership) keep their analyzer emission order,
// since depth has no bearing on a chmod/chown. Stable so ties preserve
// emission order.
func moveDepthFirst(ops []planmodel.Operation) []planmodel.Operation {
	out := make([]planmodel.Operation, len(ops))
	copy(out, ops)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MoveTo == "" || out[j].MoveTo == "" {
			return false
		}
		return strings.Count(out[i].Path, "/") > strings.Count(out[j].Path, "/")
	})
	return out
}

func (e *ConsoleExecutor) apply(op planmodel.Operation) error {
	if op.MoveTo != "" {
		if err := e.Mover.Move(op.Path, op.MoveTo); err != nil {
			return err
		}
		for _, sc := range op.SidecarFiles {
			dest := siblingDest(op.MoveTo, sc)
			if err := e.Mover.Move(sc, dest); err != nil {
				e.Logger.Warn("sidecar move failed", "path", sc, "error", err)
			}
		}
		return nil
	}
	if op.DesiredMode != 0 || op.Kind == planmodel.Permissions {
		return e.Mover.Chmod(op.Path, os.FileMode(op.DesiredMode))
	}
	if op.Kind == planmodel.Ownership {
		return e.Mover.Chown(op.Path, int(op.NewUid), int(op.NewGid))
	}
	return fmt.Errorf("operation for %s has no actionable fields", op.Path)
}

// siblingDest rebuilds a sidecar's destination by taking its move target's
// directory and keeping the sidecar's own file name.
func siblingDest(masterDest, sidecarSrc string) string {
	destDir := masterDest[:strings.LastIndex(masterDest, "/")]
	name := sidecarSrc[strings.LastIndex(sidecarSrc, "/")+1:]
	return destDir + "/" + name
}

func (e *ConsoleExecutor) printHeader(kind planmodel.Kind, ops []planmodel.Operation) {
	header := color.New(color.Bold).Sprintf("== %s (%d) ==", kind.String(), len(ops))
	fmt.Fprintln(e.Out, header)
}

func (e *ConsoleExecutor) prompt(scanner *bufio.Scanner, op planmodel.Operation) Decision {
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	e.describe(op)

	for {
		fmt.Fprint(e.Out, "apply? [y/a/n/c/s] ")
		if !interactive {
			// Non-interactive runs (piped stdin, CI) never auto-approve;
			// every operation is skipped unless a human confirms it.
			fmt.Fprintln(e.Out, "no (non-interactive)")
			return DecisionNo
		}
		if !scanner.Scan() {
			return DecisionCancel
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return DecisionYes
		case "a", "all", "yes-to-all":
			return DecisionYesToAll
		case "n", "no":
			return DecisionNo
		case "c", "cancel":
			return DecisionCancel
		case "s", "show":
			e.describe(op)
			continue
		default:
			fmt.Fprintln(e.Out, "unrecognized response; enter y/a/n/c/s")
		}
	}
}

func (e *ConsoleExecutor) describe(op planmodel.Operation) {
	switch {
	case op.MoveTo != "":
		arrow := color.New(color.FgYellow).Sprint("->")
		size := humanize.Bytes(uint64(e.sizeOf(op.Path)))
		fmt.Fprintf(e.Out, "  %s %s %s (%s) [%s]\n", op.Path, arrow, op.MoveTo, size, op.Reason)
		for _, sc := range op.SidecarFiles {
			fmt.Fprintf(e.Out, "    + sidecar %s\n", sc)
		}
	case op.Kind == planmodel.Permissions:
		fmt.Fprintf(e.Out, "  %s chmod %o -> %o\n", op.Path, op.CurrentMode, op.DesiredMode)
	case op.Kind == planmodel.Ownership:
		fmt.Fprintf(e.Out, "  %s chown %s:%s -> %s:%s\n", op.Path, op.CurrentOwner, op.CurrentGroup, op.DesiredOwner, op.DesiredGroup)
	}
}
