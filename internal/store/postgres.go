package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertCompanyData writes the company document under a fixed id. Re-saving
// identical content is safe; only updated_at moves.
func (s *PostgresStore) UpsertCompanyData(ctx context.Context, id string, data json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company_data (id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, id, data)
	if err != nil {
		return fmt.Errorf("upsert company data: %w", err)
	}
	return nil
}

// GetCompanyData reads the company document. A deployment that has never
// saved returns found=false, not an error.
func (s *PostgresStore) GetCompanyData(ctx context.Context, id string) (json.RawMessage, bool, error) {
	var data json.RawMessage
	err := s.db.QueryRowContext(ctx, `SELECT data FROM company_data WHERE id=$1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read company data: %w", err)
	}
	return data, true, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users WHERE email=$1
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateUser inserts one of the fixed identities. The email is unique; a
// concurrent duplicate insert surfaces as a constraint error the caller
// resolves by re-reading.
func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
