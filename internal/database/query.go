package database

import (
	"database/sql"
	"time"
)

// QueryRecent returns the N most recently recorded Operations.
func (h *HistoryDB) QueryRecent(limit int) ([]Record, error) {
	query := `
	SELECT id, run_id, timestamp, kind, path, file_name, move_to, outcome, size, error_message
	FROM operations
	ORDER BY timestamp DESC
	LIMIT ?
	`
	return h.queryOperations(query, limit)
}

// QueryByRun returns every Operation recorded under a single run ID, in
// the order the executor attempted them.
func (h *HistoryDB) QueryByRun(runID string) ([]Record, error) {
	query := `
	SELECT id, run_id, timestamp, kind, path, file_name, move_to, outcome, size, error_message
	FROM operations
	WHERE run_id = ?
	ORDER BY id ASC
	`
	return h.queryOperations(query, runID)
}

// QueryByKind returns Operations filtered by Kind (e.g. "duplicates").
func (h *HistoryDB) QueryByKind(kind string) ([]Record, error) {
	query := `
	SELECT id, run_id, timestamp, kind, path, file_name, move_to, outcome, size, error_message
	FROM operations
	WHERE kind = ?
	ORDER BY timestamp DESC
	`
	return h.queryOperations(query, kind)
}

// QueryByPath returns Operations matching a path LIKE pattern.
func (h *HistoryDB) QueryByPath(pathPattern string) ([]Record, error) {
	query := `
	SELECT id, run_id, timestamp, kind, path, file_name, move_to, outcome, size, error_message
	FROM operations
	WHERE path LIKE ?
	ORDER BY timestamp DESC
	`
	return h.queryOperations(query, pathPattern)
}

// QueryLargest returns the N largest applied Operations by size.
func (h *HistoryDB) QueryLargest(limit int) ([]Record, error) {
	query := `
	SELECT id, run_id, timestamp, kind, path, file_name, move_to, outcome, size, error_message
	FROM operations
	WHERE outcome = 'DONE'
	ORDER BY size DESC
	LIMIT ?
	`
	return h.queryOperations(query, limit)
}

// TotalBytesMoved returns total bytes moved by applied Operations in a
// time range.
func (h *HistoryDB) TotalBytesMoved(start, end time.Time) (int64, error) {
	query := `
	SELECT COALESCE(SUM(size), 0)
	FROM operations
	WHERE outcome = 'DONE' AND timestamp BETWEEN ? AND ?
	`
	var total int64
	err := h.db.QueryRow(query, start, end).Scan(&total)
	return total, err
}

// CountByKind returns the number of Operations grouped by Kind.
func (h *HistoryDB) CountByKind() (map[string]int, error) {
	return h.countBy(`SELECT kind, COUNT(*) FROM operations GROUP BY kind`)
}

// CountByOutcome returns the number of Operations grouped by Outcome.
func (h *HistoryDB) CountByOutcome() (map[string]int, error) {
	return h.countBy(`SELECT outcome, COUNT(*) FROM operations GROUP BY outcome`)
}

func (h *HistoryDB) countBy(query string, args ...interface{}) (map[string]int, error) {
	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// RunStats holds aggregated statistics for a time window.
type RunStats struct {
	TotalApplied  int
	TotalSkipped  int
	TotalErrors   int
	TotalBytes    int64
	ByKind        map[string]int
	ByOutcome     map[string]int
	StartDate     time.Time
	EndDate       time.Time
}

// StatsSince returns comprehensive statistics for the last `days` days.
func (h *HistoryDB) StatsSince(days int) (*RunStats, error) {
	since := time.Now().AddDate(0, 0, -days)
	now := time.Now()

	stats := &RunStats{StartDate: since, EndDate: now}

	err := h.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN outcome = 'DONE' THEN 1 END),
			COUNT(CASE WHEN outcome = 'SKIP' THEN 1 END),
			COUNT(CASE WHEN outcome = 'ERROR' THEN 1 END)
		FROM operations
		WHERE timestamp >= ?
	`, since).Scan(&stats.TotalApplied, &stats.TotalSkipped, &stats.TotalErrors)
	if err != nil {
		return nil, err
	}

	stats.TotalBytes, err = h.TotalBytesMoved(since, now)
	if err != nil {
		return nil, err
	}

	stats.ByKind, err = h.countBy(`SELECT kind, COUNT(*) FROM operations WHERE timestamp >= ? GROUP BY kind`, since)
	if err != nil {
		return nil, err
	}

	stats.ByOutcome, err = h.countBy(`SELECT outcome, COUNT(*) FROM operations WHERE timestamp >= ? GROUP BY outcome`, since)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// QueryRecentPaginated returns paginated recent Operations with a total count.
func (h *HistoryDB) QueryRecentPaginated(limit, offset int) ([]Record, int, error) {
	var totalCount int
	if err := h.db.QueryRow("SELECT COUNT(*) FROM operations").Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	query := `
	SELECT id, run_id, timestamp, kind, path, file_name, move_to, outcome, size, error_message
	FROM operations
	ORDER BY timestamp DESC
	LIMIT ? OFFSET ?
	`
	records, err := h.queryOperations(query, limit, offset)
	return records, totalCount, err
}

func (h *HistoryDB) queryOperations(query string, args ...interface{}) ([]Record, error) {
	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var moveTo, errMsg sql.NullString
		var outcome string

		if err := rows.Scan(
			&r.ID, &r.RunID, &r.Timestamp, &r.Kind, &r.Path, &r.FileName,
			&moveTo, &outcome, &r.Size, &errMsg,
		); err != nil {
			return nil, err
		}
		r.MoveTo = moveTo.String
		r.Outcome = Outcome(outcome)
		r.ErrorMessage = errMsg.String

		records = append(records, r)
	}

	return records, rows.Err()
}
