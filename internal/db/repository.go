package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"dupfinder/internal/cluster"
)

// Run is one finished detection run as stored in the archive. The archive is
// write-only from the engine's side: nothing here feeds a later detection.
type Run struct {
	ID            string
	GeneratedAt   time.Time
	DocumentCount int
	Clusters      []cluster.Cluster
	Report        string
}

// fixed width so the text column sorts chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type RunSummary struct {
	ID            string
	GeneratedAt   time.Time
	DocumentCount int
	ClusterCount  int
}

func PersistRun(dbPath string, run Run) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM clusters WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear clusters: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO runs(id, generated_at, document_count, cluster_count, report) VALUES(?,?,?,?,?)`,
		run.ID,
		run.GeneratedAt.UTC().Format(timeLayout),
		run.DocumentCount,
		len(run.Clusters),
		run.Report,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, c := range run.Clusters {
		occurrences, err := json.Marshal(c.Occurrences)
		if err != nil {
			return fmt.Errorf("marshal occurrences: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO clusters(run_id, position, representative, occurrences) VALUES(?,?,?,?)`,
			run.ID,
			i+1,
			c.Representative,
			string(occurrences),
		); err != nil {
			return fmt.Errorf("insert cluster: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListRuns returns the newest runs first. limit <= 0 means all.
func ListRuns(dbPath string, limit int) ([]RunSummary, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `SELECT id, generated_at, document_count, cluster_count FROM runs ORDER BY generated_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s  RunSummary
			ts string
		)
		if err := rows.Scan(&s.ID, &ts, &s.DocumentCount, &s.ClusterCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.GeneratedAt, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse generated_at: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// LoadReport returns the stored report text of run id.
func LoadReport(dbPath, id string) (string, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	var report string
	err = conn.QueryRow(`SELECT report FROM runs WHERE id = ?`, id).Scan(&report)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("scan report: %w", err)
	}
	return report, nil
}

func CountRows(dbPath, table string) (int, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return countRowsConn(conn, table)
}

func countRowsConn(conn *sql.DB, table string) (int, error) {
	row := conn.QueryRow(`SELECT COUNT(*) FROM ` + table)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, nil
}
