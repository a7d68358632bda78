// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger indexes runs and per-item outcomes in SQLite so operators
// can inspect past runs without walking the output tree.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/medibrief/pkg/types"
)

// DBFile is the ledger's file name under the output directory.
const DBFile = "medibrief.db"

// Item statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Entry is one item outcome within a run.
type Entry struct {
	RunID       string      `json:"run_id" yaml:"run_id"`
	Topic       string      `json:"topic" yaml:"topic"`
	DocID       string      `json:"doc_id" yaml:"doc_id"`
	Title       string      `json:"title" yaml:"title"`
	Stage       types.Stage `json:"stage" yaml:"stage"`
	Status      string      `json:"status" yaml:"status"`
	Error       string      `json:"error,omitempty" yaml:"error,omitempty"`
	VideoURL    string      `json:"video_url,omitempty" yaml:"video_url,omitempty"`
	PlatformURL string      `json:"platform_url,omitempty" yaml:"platform_url,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at" yaml:"updated_at"`
}

// Run summarizes one pipeline run.
type Run struct {
	ID         string     `json:"id" yaml:"id"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Topics     []string   `json:"topics" yaml:"topics"`
	Succeeded  int        `json:"succeeded" yaml:"succeeded"`
	Failed     int        `json:"failed" yaml:"failed"`
}

// Ledger is the SQLite-backed run index. It is safe for concurrent use.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			topics TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			run_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			title TEXT,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			video_url TEXT,
			platform_url TEXT,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (run_id, doc_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_topic ON items(topic)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun records a new run.
func (l *Ledger) StartRun(ctx context.Context, runID string, topics []string, at time.Time) error {
	data, err := json.Marshal(topics)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, topics) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET started_at = excluded.started_at, topics = excluded.topics`,
		runID, formatTime(at), string(data))
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// FinishRun stamps the run's finish time.
func (l *Ledger) FinishRun(ctx context.Context, runID string, at time.Time) error {
	if _, err := l.db.ExecContext(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, formatTime(at), runID); err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

// Record upserts an item outcome keyed by run and document.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO items (run_id, topic, doc_id, title, stage, status, error, video_url, platform_url, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, doc_id) DO UPDATE SET
			topic = excluded.topic, title = excluded.title, stage = excluded.stage,
			status = excluded.status, error = excluded.error, video_url = excluded.video_url,
			platform_url = excluded.platform_url, updated_at = excluded.updated_at`,
		e.RunID, e.Topic, e.DocID, e.Title, string(e.Stage), e.Status, e.Error, e.VideoURL, e.PlatformURL, formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("recording item %s: %w", e.DocID, err)
	}
	return nil
}

// Runs returns the most recent runs first, with per-status item counts.
// A limit of zero or less returns every run.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT r.id, r.started_at, r.finished_at, r.topics,
			COALESCE(SUM(i.status = 'succeeded'), 0), COALESCE(SUM(i.status = 'failed'), 0)
		FROM runs r LEFT JOIN items i ON i.run_id = r.id
		GROUP BY r.id ORDER BY r.started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r               Run
			started, topics string
			finished        sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &topics, &r.Succeeded, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished.Valid {
			t, err := parseTime(finished.String)
			if err != nil {
				return nil, err
			}
			r.FinishedAt = &t
		}
		if err := json.Unmarshal([]byte(topics), &r.Topics); err != nil {
			return nil, fmt.Errorf("decoding topics of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Items returns item outcomes, optionally filtered by run and topic, in
// update order.
func (l *Ledger) Items(ctx context.Context, runID, topic string) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if runID != "" {
		where = append(where, "run_id = ?")
		args = append(args, runID)
	}
	if topic != "" {
		where = append(where, "topic = ?")
		args = append(args, topic)
	}
	query := `SELECT run_id, topic, doc_id, title, stage, status, error, video_url, platform_url, updated_at FROM items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at, doc_id"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                               Entry
			stage, updated                  string
			title, errText, video, platform sql.NullString
		)
		if err := rows.Scan(&e.RunID, &e.Topic, &e.DocID, &title, &stage, &e.Status, &errText, &video, &platform, &updated); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		e.Stage = types.Stage(stage)
		e.Title, e.Error, e.VideoURL, e.PlatformURL = title.String, errText.String, video.String, platform.String
		if e.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LatestRunID returns the ID of the most recently started run.
func (l *Ledger) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := l.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// timeLayout has fixed-width fractions so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing ledger time %q: %w", s, err)
	}
	return t, nil
}
