package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"archivist/internal/config"
	"archivist/internal/exitcodes"
	"archivist/internal/fsops"
	"archivist/internal/logging"
	"archivist/internal/orchestrator"
	"archivist/internal/planmodel"
)

func newPlanCommand(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Compute and print the plan for every root without applying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			printPlan(flags)
			return nil
		},
	}
}

func printPlan(flags *sharedFlags) {
	logger := logging.Nop()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(exitcodes.InvalidConfig)
	}

	// plan is always a dry run: no mover call can ever reach the
	// filesystem regardless of --dry-run, since orchestrator.Run only
	// invokes the executor when dryRun is false.
	results := orchestrator.Run(context.Background(), cfg, logger, fsops.OSMover{}, nil, "plan-preview", false, true)

	for _, r := range results {
		fmt.Printf("root: %s\n", r.ScanPath)
		if r.Err != nil {
			fmt.Printf("  error: %v\n", r.Err)
			continue
		}
		if r.Plan == nil || r.Plan.Len() == 0 {
			fmt.Println("  (no operations)")
			continue
		}
		for _, kind := range planmodel.ExecutionOrder {
			ops := r.Plan.Ops(kind)
			if len(ops) == 0 {
				continue
			}
			fmt.Printf("  %s (%d):\n", kind, len(ops))
			for _, op := range ops {
				printOp(op)
			}
		}
	}
}

func printOp(op planmodel.Operation) {
	switch op.Kind {
	case planmodel.Permissions:
		fmt.Printf("    %s  mode %04o -> %04o\n", op.Path, op.CurrentMode, op.DesiredMode)
	case planmodel.Ownership:
		fmt.Printf("    %s  owner %s:%s -> %s:%s\n", op.Path, op.CurrentOwner, op.CurrentGroup, op.DesiredOwner, op.DesiredGroup)
	default:
		reason := ""
		if op.Reason != "" {
			reason = " (" + op.Reason + ")"
		}
		fmt.Printf("    %s -> %s%s\n", op.Path, op.MoveTo, reason)
	}
}
