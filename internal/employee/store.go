package employee

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type EmployeeStore interface {
	List(ctx context.Context, f Filter) ([]Employee, error)
	GetByID(ctx context.Context, id string) (*Employee, error)
	GetByIDs(ctx context.Context, ids []string) ([]Employee, error)
	Insert(ctx context.Context, e *Employee) error
	Update(ctx context.Context, e *Employee) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const employeeColumns = `employee_id, name, email, password_hash, role, status, workplace_id, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (*Employee, error) {
	var e Employee
	var workplaceID sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &e.Role, &e.Status,
		&workplaceID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if workplaceID.Valid {
		e.WorkplaceID = &workplaceID.String
	}
	return &e, nil
}

func (s *Store) List(ctx context.Context, f Filter) ([]Employee, error) {
	var (
		where []string
		args  []any
	)
	if f.Role != nil {
		where = append(where, "role = ?")
		args = append(args, string(*f.Role))
	}
	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.WorkplaceID != nil {
		where = append(where, "workplace_id = ?")
		args = append(args, *f.WorkplaceID)
	}

	q := `SELECT ` + employeeColumns + ` FROM employees`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY name ASC, employee_id ASC`

	return s.query(ctx, q, args...)
}

func (s *Store) GetByID(ctx context.Context, id string) (*Employee, error) {
	q := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_id = ?`
	e, err := scanEmployee(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// GetByIDs silently omits unknown ids.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_id IN (` + placeholders + `) ORDER BY name ASC, employee_id ASC`
	return s.query(ctx, q, args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) Insert(ctx context.Context, e *Employee) error {
	const q = `
INSERT INTO employees (employee_id, name, email, password_hash, role, status, workplace_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, e.ID, e.Name, e.Email, e.PasswordHash, string(e.Role),
		string(e.Status), e.WorkplaceID, e.CreatedAt, e.UpdatedAt)
	return err
}

func (s *Store) Update(ctx context.Context, e *Employee) error {
	const q = `
UPDATE employees
SET name = ?, role = ?, status = ?, workplace_id = ?, updated_at = ?
WHERE employee_id = ?`
	_, err := s.db.ExecContext(ctx, q, e.Name, string(e.Role), string(e.Status), e.WorkplaceID, e.UpdatedAt, e.ID)
	return err
}
