package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/genoeg/kotori/internal/domain"
)

// PersistenceError wraps a storage failure so callers can distinguish it
// from model or tool failures. Losing a turn degrades future context but
// never aborts the conversation in progress.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// TurnStore persists conversation turns keyed by sender.
type TurnStore struct {
	db *DB
}

// NewTurnStore creates a turn store using the given database.
func NewTurnStore(db *DB) *TurnStore {
	return &TurnStore{db: db}
}

// AppendTurn appends one turn to a user's conversation history.
func (s *TurnStore) AppendTurn(turn domain.Turn) error {
	var toolCallsJSON sql.NullString
	if len(turn.ToolCalls) > 0 {
		data, err := json.Marshal(turn.ToolCalls)
		if err != nil {
			return &PersistenceError{Op: "marshal tool calls", Err: err}
		}
		toolCallsJSON = sql.NullString{String: string(data), Valid: true}
	}

	ts := turn.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO turns (user_id, role, content, tool_calls, tool_call_id, tool_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.UserID, turn.Role, turn.Content, toolCallsJSON,
		turn.ToolCallID, turn.ToolName, ts.Format(time.DateTime),
	)
	if err != nil {
		return &PersistenceError{Op: "append turn", Err: err}
	}
	return nil
}

// RecentTurns returns the most recent turns for a user in ascending
// chronological order. It fetches the newest rows first and reverses, so
// the window always holds the tail of the conversation.
func (s *TurnStore) RecentTurns(userID string, limit int) ([]domain.Turn, error) {
	rows, err := s.db.sql.Query(
		`SELECT id, user_id, role, content, tool_calls, tool_call_id, tool_name, created_at
		 FROM turns WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, &PersistenceError{Op: "query turns", Err: err}
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var turn domain.Turn
		var ts string
		var toolCallsJSON sql.NullString

		if err := rows.Scan(
			&turn.ID, &turn.UserID, &turn.Role, &turn.Content,
			&toolCallsJSON, &turn.ToolCallID, &turn.ToolName, &ts,
		); err != nil {
			return nil, &PersistenceError{Op: "scan turn", Err: err}
		}
		turn.CreatedAt, _ = time.Parse(time.DateTime, ts)

		if toolCallsJSON.Valid && toolCallsJSON.String != "" {
			if err := json.Unmarshal([]byte(toolCallsJSON.String), &turn.ToolCalls); err != nil {
				return nil, &PersistenceError{Op: "unmarshal tool calls", Err: err}
			}
		}

		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "iterate turns", Err: err}
	}

	// Reverse into ascending order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
