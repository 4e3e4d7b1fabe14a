package profile

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

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		candidate_id TEXT PRIMARY KEY,
		profile_id   TEXT NOT NULL,
		data         TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS assessments (
		candidate_id  TEXT NOT NULL,
		assessment_id TEXT NOT NULL,
		completed_at  TEXT NOT NULL,
		PRIMARY KEY (candidate_id, assessment_id)
	)`,
	`CREATE TABLE IF NOT EXISTS candidates (
		candidate_id TEXT PRIMARY KEY,
		work_setup   TEXT NOT NULL DEFAULT ''
	)`,
}

// SQLiteStore persists profiles in a single SQLite file. The profile body is
// stored as JSON; merges run as a read-modify-write inside one transaction.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create store dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, candidateID string) (*CognitiveProfile, error) {
	return getProfile(ctx, s.db, candidateID)
}

func (s *SQLiteStore) Merge(ctx context.Context, candidateID string, u Update) (*CognitiveProfile, error) {
	if err := requireID(candidateID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	p, err := getProfile(ctx, tx, candidateID)
	switch {
	case errors.Is(err, ErrNotFound):
		p = New(candidateID)
	case err != nil:
		return nil, err
	}

	p.Apply(u, now())

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO profiles (candidate_id, profile_id, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(candidate_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		candidateID, p.ProfileID, string(data), p.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("write profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) RecordAssessment(ctx context.Context, candidateID, assessmentID string) error {
	if err := requireID(candidateID); err != nil {
		return err
	}
	assessmentID = strings.TrimSpace(assessmentID)
	if assessmentID == "" {
		return errors.New("assessment id is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO assessments (candidate_id, assessment_id, completed_at) VALUES (?, ?, ?)`,
		candidateID, assessmentID, now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record assessment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CompletedAssessments(ctx context.Context, candidateID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assessments WHERE candidate_id = ?`, candidateID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) SetWorkSetup(ctx context.Context, candidateID, setup string) error {
	if err := requireID(candidateID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO candidates (candidate_id, work_setup) VALUES (?, ?)
		ON CONFLICT(candidate_id) DO UPDATE SET work_setup = excluded.work_setup`,
		candidateID, strings.TrimSpace(setup))
	if err != nil {
		return fmt.Errorf("set work setup: %w", err)
	}
	return nil
}

func (s *SQLiteStore) WorkSetup(ctx context.Context, candidateID string) (string, error) {
	var setup string
	err := s.db.QueryRowContext(ctx,
		`SELECT work_setup FROM candidates WHERE candidate_id = ?`, candidateID).Scan(&setup)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read work setup: %w", err)
	}
	return setup, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getProfile(ctx context.Context, q queryer, candidateID string) (*CognitiveProfile, error) {
	var data string
	err := q.QueryRowContext(ctx, `SELECT data FROM profiles WHERE candidate_id = ?`, candidateID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p CognitiveProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", candidateID, err)
	}
	return &p, nil
}
