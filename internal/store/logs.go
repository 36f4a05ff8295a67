package store

import (
	"time"

	"github.com/genoeg/kotori/internal/domain"
)

// LogStore persists free-form journal entries.
type LogStore struct {
	db *DB
}

// NewLogStore creates a log store using the given database.
func NewLogStore(db *DB) *LogStore {
	return &LogStore{db: db}
}

// Insert records one journal entry and returns its ID.
func (s *LogStore) Insert(content string) (int64, error) {
	res, err := s.db.sql.Exec(
		`INSERT INTO logs (content, created_at) VALUES (?, ?)`,
		content, time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, &PersistenceError{Op: "insert log", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &PersistenceError{Op: "insert log", Err: err}
	}
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (s *LogStore) Recent(limit int) ([]domain.LogEntry, error) {
	rows, err := s.db.sql.Query(
		`SELECT id, content, created_at FROM logs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, &PersistenceError{Op: "query logs", Err: err}
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var entry domain.LogEntry
		var ts string
		if err := rows.Scan(&entry.ID, &entry.Content, &ts); err != nil {
			return nil, &PersistenceError{Op: "scan log", Err: err}
		}
		entry.CreatedAt, _ = time.Parse(time.DateTime, ts)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "iterate logs", Err: err}
	}
	return entries, nil
}
