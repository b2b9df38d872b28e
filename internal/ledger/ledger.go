// Package ledger keeps a history of sharpness assessments in SQLite so
// hosts can review how many uploads were flagged over time.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/photo-sharpness-mcp/internal/sharpness"
)

// ErrDisabled is returned by every method of a nil *Store.
var ErrDisabled = errors.New("assessment ledger is disabled")

// Sources recorded with each assessment.
const (
	SourceMCP   = "mcp"
	SourceHTTP  = "http"
	SourceWatch = "watch"
	SourceCLI   = "cli"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 50

// Store wraps SQLite-backed persistence for assessments.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at path and ensures schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY from the batch and watch paths.
	db.SetMaxOpenConns(1)

	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assessments (
            id TEXT PRIMARY KEY,
            source TEXT NOT NULL,
            name TEXT NOT NULL,
            width INTEGER NOT NULL,
            height INTEGER NOT NULL,
            score REAL NOT NULL,
            threshold REAL NOT NULL,
            blurry INTEGER NOT NULL,
            created_at INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Record is one persisted assessment.
type Record struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Score     float64   `json:"score"`
	Threshold float64   `json:"threshold"`
	Blurry    bool      `json:"blurry"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord builds a Record from an assessment of the named photo.
func NewRecord(source, name string, a sharpness.Assessment) Record {
	return Record{
		Source:    source,
		Name:      name,
		Width:     a.Width,
		Height:    a.Height,
		Score:     a.Score,
		Threshold: a.Threshold,
		Blurry:    a.Blurry,
	}
}

// Add inserts rec, filling in ID and CreatedAt when they are zero, and
// returns the stored record.
func (s *Store) Add(ctx context.Context, rec Record) (Record, error) {
	if s == nil {
		return rec, ErrDisabled
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `INSERT INTO assessments (id, source, name, width, height, score, threshold, blurry, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		rec.ID, rec.Source, rec.Name, rec.Width, rec.Height, rec.Score, rec.Threshold, rec.Blurry, rec.CreatedAt.UnixMilli())
	if err != nil {
		return rec, fmt.Errorf("failed to record assessment: %w", err)
	}
	return rec, nil
}

// Recent returns the latest records, newest first, up to limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT id, source, name, width, height, score, threshold, blurry, created_at FROM assessments ORDER BY created_at DESC, rowid DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		var rec Record
		var created int64
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Name, &rec.Width, &rec.Height, &rec.Score, &rec.Threshold, &rec.Blurry, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Summary aggregates the whole ledger.
type Summary struct {
	Total     int        `json:"total"`
	Blurry    int        `json:"blurry"`
	Sharp     int        `json:"sharp"`
	MeanScore float64    `json:"mean_score"`
	Last      *time.Time `json:"last,omitempty"`
}

// Summarize counts recorded assessments and averages their scores.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	if s == nil {
		return Summary{}, ErrDisabled
	}
	var (
		sum    Summary
		mean   sql.NullFloat64
		blurry int64
		last   sql.NullInt64
	)
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(blurry), 0), AVG(score), MAX(created_at) FROM assessments;`).
		Scan(&sum.Total, &blurry, &mean, &last)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize assessments: %w", err)
	}
	sum.Blurry = int(blurry)
	sum.Sharp = sum.Total - sum.Blurry
	if mean.Valid {
		sum.MeanScore = mean.Float64
	}
	if last.Valid {
		t := time.UnixMilli(last.Int64).UTC()
		sum.Last = &t
	}
	return sum, nil
}
