package workplace

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type WorkplaceStore interface {
	Get(ctx context.Context) (*Workplace, error)
	GetByQRToken(ctx context.Context, token string) (*Workplace, error)
	Insert(ctx context.Context, w *Workplace) error
	Update(ctx context.Context, w *Workplace) error
	UpdateQRToken(ctx context.Context, id, token string, at time.Time) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const workplaceColumns = `workplace_id, name, latitude, longitude, geofence_radius_metres, qr_code_token, created_at, updated_at`

func scanWorkplace(row *sql.Row) (*Workplace, error) {
	var w Workplace
	err := row.Scan(&w.ID, &w.Name, &w.Location.Lat, &w.Location.Lng,
		&w.GeofenceRadiusMetres, &w.QRToken, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Get returns the oldest workplace; the deployment runs a single site.
func (s *Store) Get(ctx context.Context) (*Workplace, error) {
	q := `SELECT ` + workplaceColumns + ` FROM workplaces ORDER BY created_at ASC LIMIT 1`
	return scanWorkplace(s.db.QueryRowContext(ctx, q))
}

func (s *Store) GetByQRToken(ctx context.Context, token string) (*Workplace, error) {
	q := `SELECT ` + workplaceColumns + ` FROM workplaces WHERE qr_code_token = ?`
	return scanWorkplace(s.db.QueryRowContext(ctx, q, token))
}

func (s *Store) Insert(ctx context.Context, w *Workplace) error {
	const q = `
INSERT INTO workplaces (workplace_id, name, latitude, longitude, geofence_radius_metres, qr_code_token, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, w.ID, w.Name, w.Location.Lat, w.Location.Lng,
		w.GeofenceRadiusMetres, w.QRToken, w.CreatedAt, w.UpdatedAt)
	return err
}

func (s *Store) Update(ctx context.Context, w *Workplace) error {
	const q = `
UPDATE workplaces
SET name = ?, latitude = ?, longitude = ?, geofence_radius_metres = ?, updated_at = ?
WHERE workplace_id = ?`
	_, err := s.db.ExecContext(ctx, q, w.Name, w.Location.Lat, w.Location.Lng,
		w.GeofenceRadiusMetres, w.UpdatedAt, w.ID)
	return err
}

func (s *Store) UpdateQRToken(ctx context.Context, id, token string, at time.Time) (int64, error) {
	const q = `UPDATE workplaces SET qr_code_token = ?, updated_at = ? WHERE workplace_id = ?`
	res, err := s.db.ExecContext(ctx, q, token, at, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
