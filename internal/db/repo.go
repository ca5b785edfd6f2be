package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Archive persists conversation turns to Postgres so that a chat survives
// process restarts and can be reviewed by a clinician later. Persistence is
// write-behind and best-effort: the in-memory session remains the source of
// truth for the pending-turn invariant, and the server runs without a
// database at all when DATABASE_URL is unset.
type Archive struct {
	DB *sql.DB
}

// NewArchive constructs an Archive from an existing sql.DB. The caller is
// responsible for managing the DB connection lifecycle.
func NewArchive(db *sql.DB) *Archive { return &Archive{DB: db} }

// ArchivedTurn is a persisted conversation turn.
type ArchivedTurn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSession records a new chat session.
func (a *Archive) CreateSession(ctx context.Context, sessionID string) error {
	_, err := a.DB.ExecContext(ctx,
		`INSERT INTO chat_sessions (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SaveTurn appends one turn to the session's transcript.
func (a *Archive) SaveTurn(ctx context.Context, sessionID, role, content string) error {
	_, err := a.DB.ExecContext(ctx,
		`INSERT INTO chat_turns (session_id, role, content) VALUES ($1, $2, $3)`,
		sessionID, role, content,
	)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// Transcript returns the session's turns ordered by creation time.
func (a *Archive) Transcript(ctx context.Context, sessionID string) ([]ArchivedTurn, error) {
	rows, err := a.DB.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at
         FROM chat_turns
         WHERE session_id = $1
         ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer rows.Close()
	var out []ArchivedTurn
	for rows.Next() {
		var t ArchivedTurn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
