// Package cli assembles archivist's cobra command tree: a root command
// carrying the shared --config/--dry-run/--yes-to-all flags, plus run,
// plan, and history subcommands. Grounded on
// blueman82-conductor/internal/cmd's NewRootCommand/NewRunCommand split
// (one file per subcommand, a shared root building block).
package cli

import (
	"github.com/spf13/cobra"
)

// Version is reported by --version; cmd/archivist sets it from its own
// Version constant before building the command tree.
var Version = "dev"

// sharedFlags holds the persistent flag values every subcommand reads.
type sharedFlags struct {
	configPath   string
	dryRun       bool
	yesToAll     bool
	databasePath string
}

// NewRootCommand builds the archivist command tree.
func NewRootCommand() *cobra.Command {
	flags := &sharedFlags{}

	root := &cobra.Command{
		Use:     "archivist",
		Short:   "Scans a tree and moves duplicates, orphans, and misplaced files into a recycle bin",
		Version: Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "/etc/archivist/config.yaml", "path to configuration file")
	root.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "compute the plan but never touch the filesystem")
	root.PersistentFlags().BoolVar(&flags.yesToAll, "yes-to-all", false, "approve every operation class without prompting")
	root.PersistentFlags().StringVar(&flags.databasePath, "database", "", "override the configured operation-history database path")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newPlanCommand(flags))
	root.AddCommand(newHistoryCommand(flags))

	return root
}
