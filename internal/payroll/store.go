package payroll

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"geoattend-backend/internal/platform/db"
)

type PaysheetStore interface {
	// Insert writes the header and every entry atomically.
	Insert(ctx context.Context, p *Paysheet) error
	Get(ctx context.Context, id string) (*Paysheet, error)
	// List returns headers only, newest first.
	List(ctx context.Context, limit, offset int) ([]Paysheet, int64, error)
	// MarkProcessed flips a draft; false means the row was not a draft.
	MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error)
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) Insert(ctx context.Context, p *Paysheet) error {
	employeeIDs, err := json.Marshal(p.EmployeeIDs)
	if err != nil {
		return fmt.Errorf("encode employee ids: %w", err)
	}

	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const header = `
		INSERT INTO paysheets (
			paysheet_id, generated_by, generated_at, period_start, period_end, employee_ids,
			total_regular_pay, total_overtime_pay, total_payable, skipped_days, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, header, p.ID, p.GeneratedBy, p.GeneratedAt, p.PeriodStart, p.PeriodEnd,
			string(employeeIDs), p.Totals.TotalRegularPay, p.Totals.TotalOvertimePay, p.Totals.TotalPayable,
			p.Totals.SkippedDays, string(p.Status)); err != nil {
			return fmt.Errorf("insert paysheet: %w", err)
		}

		const entry = `
		INSERT INTO paysheet_entries (
			paysheet_id, seq, employee_id, employee_name, attended_on, check_in_at, check_out_at,
			regular_hours, overtime_hours_morning, overtime_hours_evening,
			regular_pay, overtime_pay, total_pay, is_manually_adjusted, record_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for i, e := range p.Entries {
			if _, err := tx.ExecContext(ctx, entry, p.ID, i+1, e.EmployeeID, e.EmployeeName, e.Date,
				e.CheckInAt, e.CheckOutAt, e.RegularHours, e.OvertimeHoursMorning, e.OvertimeHoursEvening,
				e.RegularPay, e.OvertimePay, e.TotalPay, e.IsManuallyAdjusted, string(e.RecordStatus)); err != nil {
				return fmt.Errorf("insert paysheet entry %d: %w", i+1, err)
			}
		}
		return nil
	})
}

const headerColumns = `
	paysheet_id, generated_by, generated_at,
	DATE_FORMAT(period_start, '%Y-%m-%d'), DATE_FORMAT(period_end, '%Y-%m-%d'), employee_ids,
	total_regular_pay, total_overtime_pay, total_payable, skipped_days, status, processed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanHeader(row scanner) (Paysheet, error) {
	var (
		p           Paysheet
		employeeIDs []byte
		status      string
	)
	if err := row.Scan(&p.ID, &p.GeneratedBy, &p.GeneratedAt, &p.PeriodStart, &p.PeriodEnd, &employeeIDs,
		&p.Totals.TotalRegularPay, &p.Totals.TotalOvertimePay, &p.Totals.TotalPayable, &p.Totals.SkippedDays,
		&status, &p.ProcessedAt); err != nil {
		return Paysheet{}, err
	}
	if err := json.Unmarshal(employeeIDs, &p.EmployeeIDs); err != nil {
		return Paysheet{}, fmt.Errorf("decode employee ids: %w", err)
	}
	p.Status = Status(status)
	p.GeneratedAt = p.GeneratedAt.UTC()
	return p, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Paysheet, error) {
	var out *Paysheet
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		p, err := scanHeader(tx.QueryRowContext(ctx, `SELECT `+headerColumns+` FROM paysheets WHERE paysheet_id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
		SELECT employee_id, employee_name, DATE_FORMAT(attended_on, '%Y-%m-%d'), check_in_at, check_out_at,
			regular_hours, overtime_hours_morning, overtime_hours_evening,
			regular_pay, overtime_pay, total_pay, is_manually_adjusted, record_status
		FROM paysheet_entries
		WHERE paysheet_id = ?
		ORDER BY seq ASC`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		p.Entries = []Entry{}
		for rows.Next() {
			var (
				e      Entry
				status string
			)
			if err := rows.Scan(&e.EmployeeID, &e.EmployeeName, &e.Date, &e.CheckInAt, &e.CheckOutAt,
				&e.RegularHours, &e.OvertimeHoursMorning, &e.OvertimeHoursEvening,
				&e.RegularPay, &e.OvertimePay, &e.TotalPay, &e.IsManuallyAdjusted, &status); err != nil {
				return err
			}
			e.RecordStatus = RecordStatus(status)
			e.CheckInAt, e.CheckOutAt = e.CheckInAt.UTC(), e.CheckOutAt.UTC()
			p.Entries = append(p.Entries, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		out = &p
		return nil
	})
	return out, err
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Paysheet, int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+headerColumns+`
	FROM paysheets
	ORDER BY generated_at DESC, paysheet_id DESC
	LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Paysheet
	for rows.Next() {
		p, err := scanHeader(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM paysheets`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE paysheets SET status = ?, processed_at = ?
	WHERE paysheet_id = ? AND status = ?`, string(StatusProcessed), at, id, string(StatusDraft))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
