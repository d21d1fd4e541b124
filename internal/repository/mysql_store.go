package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// MySQLStore keeps values in the client_state table (see
// database.ClientStateSchema).
type MySQLStore struct {
	DB *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{DB: db} }

func (s *MySQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.DB.QueryRowContext(ctx,
		"SELECT state_value FROM client_state WHERE state_key=? LIMIT 1", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *MySQLStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO client_state (state_key, state_value, updated_at) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE state_value=VALUES(state_value), updated_at=VALUES(updated_at)`,
		key, value, time.Now().UTC())
	return err
}

func (s *MySQLStore) Remove(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM client_state WHERE state_key=?", key)
	return err
}
