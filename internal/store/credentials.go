package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNoCredential is returned when no refresh token is stored for a provider.
var ErrNoCredential = errors.New("no credential stored")

// CredentialStore holds OAuth refresh tokens, one per provider.
type CredentialStore struct {
	db *DB
}

// NewCredentialStore creates a credential store using the given database.
func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// SaveRefreshToken stores (or replaces) the refresh token for a provider.
func (s *CredentialStore) SaveRefreshToken(provider, token string) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO credentials (provider, refresh_token, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(provider) DO UPDATE SET refresh_token = excluded.refresh_token, updated_at = excluded.updated_at`,
		provider, token, time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return &PersistenceError{Op: "save refresh token", Err: err}
	}
	return nil
}

// RefreshToken returns the stored refresh token for a provider.
func (s *CredentialStore) RefreshToken(provider string) (string, error) {
	var token string
	err := s.db.sql.QueryRow(
		`SELECT refresh_token FROM credentials WHERE provider = ?`, provider,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", &PersistenceError{Op: "load refresh token", Err: err}
	}
	return token, nil
}
