package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opencode-ai/cradle/internal/models"
)

// ErrSessionNotFound is returned when a session does not exist.
var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `id, story, started_at, ended_at, last_passage, passages`

// SessionRepository persists journaled playback sessions.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session, assigning an ID and start time when empty.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.Story, formatTime(s.StartedAt), nullTime(s.EndedAt), s.LastPassage, s.Passages)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// RecordPassage stores the passage a session just entered.
func (r *SessionRepository) RecordPassage(ctx context.Context, id, passage string) error {
	return r.update(ctx, `
		UPDATE sessions SET last_passage = ?, passages = passages + 1 WHERE id = ?
	`, passage, id)
}

// Finish marks the session ended at t.
func (r *SessionRepository) Finish(ctx context.Context, id string, t time.Time) error {
	return r.update(ctx, `UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, formatTime(t), id)
}

func (r *SessionRepository) update(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// List returns the most recent sessions first. An empty story lists all.
func (r *SessionRepository) List(ctx context.Context, story string, limit int) ([]*models.Session, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	args := []any{}
	if story != "" {
		query += ` WHERE story = ?`
		args = append(args, story)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(row scanner) (*models.Session, error) {
	var s models.Session
	var startedAt string
	var endedAt sql.NullString
	if err := row.Scan(&s.ID, &s.Story, &startedAt, &endedAt, &s.LastPassage, &s.Passages); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	s.StartedAt = parseTime(startedAt)
	if endedAt.Valid {
		t := parseTime(endedAt.String)
		s.EndedAt = &t
	}
	return &s, nil
}

func nullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
