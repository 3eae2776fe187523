package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HistoryRepository stores conversation turns grouped by session.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// Append stores turns at the end of their session, creating the session on first use.
// All turns are written in one transaction and must share a session.
func (r *HistoryRepository) Append(ctx context.Context, turns ...*Turn) error {
	if len(turns) == 0 {
		return nil
	}

	sessionID := turns[0].SessionID
	if sessionID == uuid.Nil {
		return errors.New("append turns: session id is required")
	}
	for _, t := range turns[1:] {
		if t.SessionID != sessionID {
			return errors.New("append turns: turns belong to different sessions")
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.now().UTC()

	upsert := `
		INSERT INTO sessions (id, created_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, upsert, sessionID, now, now); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	var last int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) FROM turns WHERE session_id = $1`, sessionID,
	).Scan(&last); err != nil {
		return fmt.Errorf("read last position: %w", err)
	}

	insert := `
		INSERT INTO turns (id, session_id, position, role, text, anchors, confidence, stage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, t := range turns {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if t.Anchors == nil {
			t.Anchors = []string{}
		}
		last++
		t.Position = last
		t.CreatedAt = now

		anchors, err := json.Marshal(t.Anchors)
		if err != nil {
			return fmt.Errorf("marshal anchors: %w", err)
		}

		var confidence sql.NullFloat64
		if t.Confidence != nil {
			confidence = sql.NullFloat64{Float64: *t.Confidence, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, insert,
			t.ID, t.SessionID, t.Position, string(t.Role), t.Text,
			string(anchors), confidence, t.Stage, t.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListBySession returns a session's turns in order. It returns ErrNotFound for an unknown
// session.
func (r *HistoryRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Turn, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = $1`, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	query := `
		SELECT id, session_id, position, role, text, anchors, confidence, stage, created_at
		FROM turns
		WHERE session_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		var (
			t          Turn
			role       string
			anchors    []byte
			confidence sql.NullFloat64
		)
		if err := rows.Scan(
			&t.ID, &t.SessionID, &t.Position, &role, &t.Text,
			&anchors, &confidence, &t.Stage, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}

		t.Role = Role(role)
		if err := json.Unmarshal(anchors, &t.Anchors); err != nil {
			return nil, fmt.Errorf("unmarshal anchors: %w", err)
		}
		if t.Anchors == nil {
			t.Anchors = []string{}
		}
		if confidence.Valid {
			c := confidence.Float64
			t.Confidence = &c
		}
		turns = append(turns, t)
	}

	return turns, rows.Err()
}

// ListSessions returns stored sessions, most recently active first. A limit <= 0 returns
// all sessions.
func (r *HistoryRepository) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	query := `
		SELECT s.id, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)
		FROM sessions s
		ORDER BY s.updated_at DESC, s.id
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.TurnCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// DeleteSession removes a session and its turns. It returns ErrNotFound when the session
// does not exist.
func (r *HistoryRepository) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
