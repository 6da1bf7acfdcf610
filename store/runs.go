package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one ledger row. It never carries the credential, the article text
// or the document bytes.
type Run struct {
	ID              string     `json:"id"`
	Status          RunStatus  `json:"status"`
	Files           []string   `json:"files"`
	TranscriptBytes int        `json:"transcript_bytes"`
	Provider        string     `json:"provider"`
	Model           string     `json:"model"`
	ErrorKind       string     `json:"error_kind,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	ArticleChars    int        `json:"article_chars"`
	DocumentBytes   int        `json:"document_bytes"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func scanRun(scanner interface {
	Scan(dest ...any) error
}) (*Run, error) {
	r := &Run{}
	var files string
	var errKind, errMsg sql.NullString
	var completedAt sql.NullTime
	err := scanner.Scan(&r.ID, &r.Status, &files, &r.TranscriptBytes, &r.Provider, &r.Model,
		&errKind, &errMsg, &r.ArticleChars, &r.DocumentBytes, &r.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(files), &r.Files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	r.ErrorKind = errKind.String
	r.ErrorMessage = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return r, nil
}

// CreateRun inserts r with status running.
func (s *Store) CreateRun(r *Run) error {
	files, err := json.Marshal(r.Files)
	if err != nil {
		return fmt.Errorf("encode files: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Status = RunStatusRunning
	_, err = s.db.Exec(`
		INSERT INTO runs (id, status, files, transcript_bytes, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Status, string(files), r.TranscriptBytes, r.Provider, r.Model, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// CompleteRun marks a run succeeded.
func (s *Store) CompleteRun(id string, articleChars, documentBytes int) error {
	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, article_chars = ?, document_bytes = ?, completed_at = ?
		WHERE id = ?`,
		RunStatusSucceeded, articleChars, documentBytes, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// FailRun marks a run failed with the classified error.
func (s *Store) FailRun(id, kind, message string) error {
	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, error_kind = ?, error_message = ?, completed_at = ?
		WHERE id = ?`,
		RunStatusFailed, kind, message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

// GetRun returns nil, nil when id is unknown.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, status, files, transcript_bytes, provider, model, error_kind, error_message,
		       article_chars, document_bytes, created_at, completed_at
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the newest runs first. limit <= 0 means 50.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, status, files, transcript_bytes, provider, model, error_kind, error_message,
		       article_chars, document_bytes, created_at, completed_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}
