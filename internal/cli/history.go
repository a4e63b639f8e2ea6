package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"archivist/internal/config"
	"archivist/internal/database"
	"archivist/internal/exitcodes"
)

func newHistoryCommand(flags *sharedFlags) *cobra.Command {
	var recent int
	var runID string
	var kind string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Report on past runs recorded in the operation-history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			showHistory(flags, recent, runID, kind)
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 20, "show the N most recently recorded operations")
	cmd.Flags().StringVar(&runID, "run", "", "show operations from a single run ID")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by operation kind (e.g. duplicates, orphans)")

	return cmd
}

func showHistory(flags *sharedFlags, recent int, runID, kind string) {
	dbPath := flags.databasePath
	if dbPath == "" {
		cfg, err := config.Load(flags.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(exitcodes.InvalidConfig)
		}
		dbPath = cfg.DatabasePath
	}
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "no database_path configured and no --database override given")
		os.Exit(exitcodes.InvalidConfig)
	}

	hist, err := database.NewHistoryDB(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open operation history database: %v\n", err)
		os.Exit(exitcodes.RuntimeError)
	}
	defer hist.Close()

	var records []database.Record
	switch {
	case runID != "":
		records, err = hist.QueryByRun(runID)
	case kind != "":
		records, err = hist.QueryByKind(kind)
	default:
		records, err = hist.QueryRecent(recent)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(exitcodes.RuntimeError)
	}

	printRecords(records)
}

func printRecords(records []database.Record) {
	if len(records) == 0 {
		fmt.Println("no matching operations")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRUN\tTIMESTAMP\tKIND\tOUTCOME\tSIZE\tPATH")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.RunID, r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Kind, r.Outcome, humanize.Bytes(uint64(r.Size)), r.Path)
	}
	w.Flush()
}
