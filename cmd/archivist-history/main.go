// archivist-history is a standalone query tool over the operation-history
// database: a tabwriter/JSON dual-output CLI for reporting on past runs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"archivist/internal/database"
	"archivist/internal/exitcodes"
)

func main() {
	dbPath := flag.String("db", "/var/lib/archivist/history.db", "path to the operation-history database")
	recent := flag.Int("recent", 0, "show N most recently recorded operations")
	statsFlag := flag.Bool("stats", false, "show aggregate statistics")
	kind := flag.String("kind", "", "filter by operation kind (duplicates, orphans, reorganize, ...)")
	pathPattern := flag.String("path", "", "filter by path pattern (SQL LIKE syntax)")
	largest := flag.Int("largest", 0, "show N largest applied operations")
	runID := flag.String("run", "", "show operations from a single run ID")
	days := flag.Int("days", 30, "number of days for --stats")
	jsonOutput := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	db, err := database.NewHistoryDB(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: failed to open database %s: %v", *dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: failed to close database: %v", err)
		}
	}()

	switch {
	case *statsFlag:
		showStats(db, *days, *jsonOutput)
	case *runID != "":
		showByRun(db, *runID, *jsonOutput)
	case *recent > 0:
		showRecent(db, *recent, *jsonOutput)
	case *kind != "":
		showByKind(db, *kind, *jsonOutput)
	case *pathPattern != "":
		showByPath(db, *pathPattern, *jsonOutput)
	case *largest > 0:
		showLargest(db, *largest, *jsonOutput)
	default:
		flag.Usage()
		fmt.Println("\nExamples:")
		fmt.Println("  archivist-history --recent 10        # 10 most recent operations")
		fmt.Println("  archivist-history --stats            # aggregate statistics")
		fmt.Println("  archivist-history --run <uuid>       # operations from one run")
		fmt.Println("  archivist-history --kind duplicates  # operations of one kind")
		fmt.Println("  archivist-history --path '/data/%'   # operations under a path pattern")
		fmt.Println("  archivist-history --largest 10       # 10 largest applied operations")
		os.Exit(exitcodes.InvalidConfig)
	}
}

func showStats(db *database.HistoryDB, days int, jsonOutput bool) {
	stats, err := db.StatsSince(days)
	if err != nil {
		log.Fatalf("ERROR: failed to get statistics: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Operation Statistics (last %d days)\n", days)
	fmt.Printf("Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Printf("Applied:  %d\n", stats.TotalApplied)
	fmt.Printf("Skipped:  %d\n", stats.TotalSkipped)
	fmt.Printf("Errors:   %d\n", stats.TotalErrors)
	fmt.Printf("Moved:    %s\n\n", formatBytes(stats.TotalBytes))

	if len(stats.ByKind) > 0 {
		fmt.Println("By Kind:")
		for kind, count := range stats.ByKind {
			fmt.Printf("  %-15s %d\n", kind, count)
		}
		fmt.Println()
	}
	if len(stats.ByOutcome) > 0 {
		fmt.Println("By Outcome:")
		for outcome, count := range stats.ByOutcome {
			fmt.Printf("  %-15s %d\n", outcome, count)
		}
	}
}

func showRecent(db *database.HistoryDB, limit int, jsonOutput bool) {
	records, err := db.QueryRecent(limit)
	if err != nil {
		log.Fatalf("ERROR: failed to get recent operations: %v", err)
	}
	output(records, jsonOutput)
}

func showByRun(db *database.HistoryDB, runID string, jsonOutput bool) {
	records, err := db.QueryByRun(runID)
	if err != nil {
		log.Fatalf("ERROR: failed to query by run: %v", err)
	}
	if !jsonOutput {
		fmt.Printf("Run: %s\n\n", runID)
	}
	output(records, jsonOutput)
}

func showByKind(db *database.HistoryDB, kind string, jsonOutput bool) {
	records, err := db.QueryByKind(kind)
	if err != nil {
		log.Fatalf("ERROR: failed to query by kind: %v", err)
	}
	if !jsonOutput {
		fmt.Printf("Kind: %s\n\n", kind)
	}
	output(records, jsonOutput)
}

func showByPath(db *database.HistoryDB, pathPattern string, jsonOutput bool) {
	records, err := db.QueryByPath(pathPattern)
	if err != nil {
		log.Fatalf("ERROR: failed to query by path: %v", err)
	}
	if !jsonOutput {
		fmt.Printf("Path pattern: %s\n\n", pathPattern)
	}
	output(records, jsonOutput)
}

func showLargest(db *database.HistoryDB, limit int, jsonOutput bool) {
	records, err := db.QueryLargest(limit)
	if err != nil {
		log.Fatalf("ERROR: failed to get largest operations: %v", err)
	}
	if !jsonOutput {
		fmt.Printf("Largest %d applied operations:\n\n", limit)
	}
	output(records, jsonOutput)
}

func output(records []database.Record, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(data))
		return
	}
	printRecords(records)
}

func printRecords(records []database.Record) {
	if len(records) == 0 {
		fmt.Println("no matching operations")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRUN\tTIMESTAMP\tKIND\tOUTCOME\tSIZE\tPATH\tMOVED TO")
	_, _ = fmt.Fprintln(w, "--\t---\t---------\t----\t-------\t----\t----\t--------")

	for _, r := range records {
		timestamp := r.Timestamp.Format("2006-01-02 15:04:05")
		size := formatBytes(r.Size)
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.RunID, timestamp, r.Kind, r.Outcome, size, r.Path, r.MoveTo)
	}
	_ = w.Flush()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
