// Package store handles SQLite persistence of roll history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/droll/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for roll history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rolls (
			id TEXT PRIMARY KEY,
			rolled_at TEXT NOT NULL,
			notation TEXT NOT NULL,
			seed INTEGER NOT NULL,
			total INTEGER NOT NULL,
			breakdown TEXT NOT NULL,
			dice_kept INTEGER NOT NULL,
			dice_dropped INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rolls_rolled_at ON rolls(rolled_at);`,
		`CREATE INDEX IF NOT EXISTS idx_rolls_notation ON rolls(notation);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRoll stores one completed roll and returns its id. A missing ID is
// filled with a fresh UUID.
func (s *Store) InsertRoll(ctx context.Context, rec model.RollRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rolls (id, rolled_at, notation, seed, total, breakdown, dice_kept, dice_dropped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.RolledAt.Format(time.RFC3339Nano),
		rec.Notation,
		int64(rec.Seed),
		rec.Total,
		rec.Breakdown,
		rec.DiceKept,
		rec.DiceDropped,
	)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// ListRolls returns roll records filtered by history config, oldest first.
func (s *Store) ListRolls(ctx context.Context, cfg model.HistoryConfig) ([]model.RollRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Notation != "" {
		clauses = append(clauses, "notation = ?")
		args = append(args, cfg.Notation)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "rolled_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, rolled_at, notation, seed, total, breakdown, dice_kept, dice_dropped
		FROM rolls
		WHERE %s
		ORDER BY rolled_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.RollRecord
	for rows.Next() {
		var rec model.RollRecord
		var rolledAt string
		var seed int64
		if err := rows.Scan(&rec.ID, &rolledAt, &rec.Notation, &seed, &rec.Total, &rec.Breakdown, &rec.DiceKept, &rec.DiceDropped); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, rolledAt)
		if err != nil {
			return nil, err
		}
		rec.RolledAt = parsed
		rec.Seed = uint64(seed)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(records) > cfg.Last {
		records = records[len(records)-cfg.Last:]
	}
	return records, nil
}

// TotalsForNotation returns the totals of the most recent rolls of one
// notation, oldest first. A last of 0 returns all of them.
func (s *Store) TotalsForNotation(ctx context.Context, notation string, last int) ([]int, error) {
	query := `SELECT total FROM rolls WHERE notation = ? ORDER BY rolled_at ASC`
	rows, err := s.db.QueryContext(ctx, query, notation)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var totals []int
	for rows.Next() {
		var total int
		if err := rows.Scan(&total); err != nil {
			return nil, err
		}
		totals = append(totals, total)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if last > 0 && len(totals) > last {
		totals = totals[len(totals)-last:]
	}
	return totals, nil
}

// Aggregates summarizes history per notation, most rolled first.
func (s *Store) Aggregates(ctx context.Context, cfg model.HistoryConfig) ([]model.RollAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Notation != "" {
		clauses = append(clauses, "notation = ?")
		args = append(args, cfg.Notation)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "rolled_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT notation, COUNT(*) AS count, MIN(total), MAX(total), AVG(total)
		FROM rolls
		WHERE %s
		GROUP BY notation
		ORDER BY count DESC, notation ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var aggs []model.RollAggregate
	for rows.Next() {
		var agg model.RollAggregate
		if err := rows.Scan(&agg.Notation, &agg.Count, &agg.Min, &agg.Max, &agg.Mean); err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aggs, nil
}
