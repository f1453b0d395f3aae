package attendance

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"geoattend-backend/internal/platform/db"
)

type RecordStore interface {
	// Create must fail with a duplicate-key error when (employee, date) exists.
	Create(ctx context.Context, r *Record) error
	FindByEmployeeDay(ctx context.Context, employeeID, date string) (*Record, error)
	FindByID(ctx context.Context, id string) (*Record, error)
	// Transition persists r only if the row still has status from.
	Transition(ctx context.Context, r *Record, from Status) (bool, error)
	ListOpenBefore(ctx context.Context, date string) ([]Record, error)
	List(ctx context.Context, q Query) ([]Record, int64, error)
	ListByDay(ctx context.Context, date string) ([]Record, error)
	ListRange(ctx context.Context, start, end string, employeeIDs []string) ([]Record, error)
	Stats(ctx context.Context, start, end string) ([]StatsRow, error)
}

type Store struct{ db db.DBTX }

func NewStore(conn db.DBTX) *Store { return &Store{db: conn} }

const recordColumns = `
	record_id, employee_id, workplace_id, DATE_FORMAT(attended_on, '%Y-%m-%d') AS attended_on,
	check_in_at, check_out_at, device_check_in_at, device_check_out_at, check_in_lat, check_in_lng,
	status, regular_hours, overtime_hours_morning, overtime_hours_evening,
	is_manually_adjusted, adjustment_note, adjusted_by, adjusted_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var r recordRow
	err := row.Scan(&r.ID, &r.EmployeeID, &r.WorkplaceID, &r.AttendedOn,
		&r.CheckInAt, &r.CheckOutAt, &r.DeviceCheckInAt, &r.DeviceCheckOutAt, &r.Lat, &r.Lng,
		&r.Status, &r.RegularHours, &r.OvertimeHoursMorning, &r.OvertimeHoursEvening,
		&r.IsManuallyAdjusted, &r.AdjustmentNote, &r.AdjustedBy, &r.AdjustedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	return r.toModel(), nil
}

func (s *Store) findOne(ctx context.Context, q string, args ...any) (*Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) queryRecords(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, r *Record) error {
	const q = `
	INSERT INTO attendance_records (
		record_id, employee_id, workplace_id, attended_on, check_in_at, device_check_in_at,
		check_in_lat, check_in_lng, status, is_manually_adjusted, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, r.ID, r.EmployeeID, r.WorkplaceID, r.Date, r.CheckInAt,
		r.DeviceCheckInAt, r.CheckInLocation.Lat, r.CheckInLocation.Lng, string(r.Status), r.CreatedAt, r.UpdatedAt)
	return err
}

func (s *Store) FindByEmployeeDay(ctx context.Context, employeeID, date string) (*Record, error) {
	return s.findOne(ctx, `SELECT `+recordColumns+`
	FROM attendance_records
	WHERE employee_id = ? AND attended_on = ?
	LIMIT 1`, employeeID, date)
}

func (s *Store) FindByID(ctx context.Context, id string) (*Record, error) {
	return s.findOne(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE record_id = ?`, id)
}

func (s *Store) Transition(ctx context.Context, r *Record, from Status) (bool, error) {
	const q = `
	UPDATE attendance_records
	SET check_out_at = ?, device_check_out_at = ?, status = ?,
		regular_hours = ?, overtime_hours_morning = ?, overtime_hours_evening = ?,
		is_manually_adjusted = ?, adjustment_note = ?, adjusted_by = ?, adjusted_at = ?, updated_at = ?
	WHERE record_id = ? AND status = ?`
	res, err := s.db.ExecContext(ctx, q, r.CheckOutAt, r.DeviceCheckOutAt, string(r.Status),
		r.RegularHours, r.OvertimeHoursMorning, r.OvertimeHoursEvening,
		r.IsManuallyAdjusted, r.AdjustmentNote, r.AdjustedBy, r.AdjustedAt, r.UpdatedAt,
		r.ID, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListOpenBefore returns the open records dated before date, oldest first.
func (s *Store) ListOpenBefore(ctx context.Context, date string) ([]Record, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+`
	FROM attendance_records
	WHERE status = ? AND attended_on < ?
	ORDER BY attended_on, record_id`, string(StatusOpen), date)
}

// List: validated Query -> dynamic WHERE + ORDER + LIMIT/OFFSET, plus total
func (s *Store) List(ctx context.Context, q Query) ([]Record, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)

	wheres = append(wheres, "attended_on >= ?", "attended_on <= ?")
	args = append(args, q.StartDate, q.EndDate)
	if q.EmployeeID != nil {
		wheres = append(wheres, "employee_id = ?")
		args = append(args, *q.EmployeeID)
	}
	if q.Status != nil {
		wheres = append(wheres, "status = ?")
		args = append(args, string(*q.Status))
	}
	where := " WHERE " + strings.Join(wheres, " AND ")

	buf.WriteString(`SELECT ` + recordColumns + ` FROM attendance_records`)
	buf.WriteString(where)
	buf.WriteString(" ORDER BY attended_on DESC, check_in_at DESC, record_id DESC")
	buf.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset))

	out, err := s.queryRecords(ctx, buf.String(), args...)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendance_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) ListByDay(ctx context.Context, date string) ([]Record, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+`
	FROM attendance_records
	WHERE attended_on = ?
	ORDER BY check_in_at ASC`, date)
}

// ListRange returns the records of [start, end] in (date, employee) order.
// An empty employeeIDs means no records.
func (s *Store) ListRange(ctx context.Context, start, end string, employeeIDs []string) ([]Record, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	args := []any{start, end}
	for _, id := range employeeIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(employeeIDs)), ",")
	return s.queryRecords(ctx, `SELECT `+recordColumns+`
	FROM attendance_records
	WHERE attended_on BETWEEN ? AND ? AND employee_id IN (`+placeholders+`)
	ORDER BY attended_on ASC, employee_id ASC`, args...)
}

// Stats: per-employee day counts and closed hours in the range
func (s *Store) Stats(ctx context.Context, start, end string) ([]StatsRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT employee_id,
		COUNT(*) AS days,
		SUM(status = 'closed') AS closed_days,
		SUM(status = 'incomplete') AS incomplete_days,
		COALESCE(SUM(regular_hours), 0),
		COALESCE(SUM(overtime_hours_morning + overtime_hours_evening), 0)
	FROM attendance_records
	WHERE attended_on BETWEEN ? AND ?
	GROUP BY employee_id
	ORDER BY days DESC, employee_id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatsRow
	for rows.Next() {
		var row StatsRow
		if err := rows.Scan(&row.EmployeeID, &row.Days, &row.ClosedDays, &row.IncompleteDays,
			&row.RegularHours, &row.OvertimeHours); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
