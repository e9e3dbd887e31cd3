package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"caregate/pkg/platform/sentinel"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, u *User) error {
	if u == nil {
		return fmt.Errorf("user is required")
	}

	query := `
		INSERT INTO users (id, email, hashed_password, role, is_active, is_superuser, created_at, updated_at, last_login, failed_logins, locked_until)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			hashed_password = EXCLUDED.hashed_password,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			is_superuser = EXCLUDED.is_superuser,
			updated_at = NOW(),
			last_login = EXCLUDED.last_login,
			failed_logins = EXCLUDED.failed_logins,
			locked_until = EXCLUDED.locked_until
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, u.HashedPassword, u.Role, u.IsActive, u.IsSuperuser, u.LastLogin, u.FailedLogins, u.LockedUntil,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, hashed_password, role, is_active, is_superuser, created_at, updated_at, last_login, failed_logins, locked_until
		FROM users
		WHERE id = $1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, hashed_password, role, is_active, is_superuser, created_at, updated_at, last_login, failed_logins, locked_until
		FROM users
		WHERE email = $1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) scanUser(row *sql.Row) (*User, error) {
	var (
		u           User
		lastLogin   sql.NullTime
		lockedUntil sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.HashedPassword, &u.Role,
		&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt, &lastLogin,
		&u.FailedLogins, &lockedUntil,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	if lockedUntil.Valid {
		u.LockedUntil = &lockedUntil.Time
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
