package auth

import (
	"context"
	"database/sql"
	"errors"
)

// Account is the login view of an employee row.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
}

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

const accountColumns = `employee_id, name, email, password_hash, role, status`

func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	q := `SELECT ` + accountColumns + ` FROM employees WHERE email = ? LIMIT 1`
	return scanAccount(s.db.QueryRowContext(ctx, q, email))
}

func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	q := `SELECT ` + accountColumns + ` FROM employees WHERE employee_id = ? LIMIT 1`
	return scanAccount(s.db.QueryRowContext(ctx, q, id))
}

// scanAccount returns (nil, nil) when no row matches.
func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	var status string
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.IsActive = status == "active"
	return &a, nil
}
