package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/swirl-rewards/internal/domain"
)

// LocalStorage implements domain.LocalStorage on the local_storage table.
// Every instance is scoped to one namespace, usually a client session ID.
type LocalStorage struct {
	db        *sql.DB
	namespace string
}

// NewLocalStorage creates a namespaced SQLite-backed LocalStorage.
func NewLocalStorage(db *DB, namespace string) *LocalStorage {
	return &LocalStorage{db: db.SqlDB, namespace: namespace}
}

func (s *LocalStorage) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM local_storage WHERE namespace = ? AND key = ?",
		s.namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get local storage value: %w", err)
	}
	return value, nil
}

func (s *LocalStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO local_storage (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.namespace, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set local storage value: %w", err)
	}
	return nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM local_storage WHERE namespace = ? AND key = ?",
		s.namespace, key,
	)
	if err != nil {
		return fmt.Errorf("delete local storage value: %w", err)
	}
	return nil
}
