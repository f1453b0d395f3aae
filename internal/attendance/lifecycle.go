package attendance

import (
	"strings"
	"time"
	"unicode/utf8"

	"geoattend-backend/internal/payroll"
	"geoattend-backend/internal/platform/apierr"
	"geoattend-backend/internal/platform/timeutil"
)

// The functions below are the state machine: they compute the next record
// from the current one and never touch the store. No transition leads back
// to open.

const MinAdjustmentNoteLen = 10

// StartRecord opens the day's record. existing is whatever the store holds
// for (employee, day); any status blocks a second check-in.
func StartRecord(existing *Record, id, employeeID, workplaceID string, now, device time.Time, loc Location) (Record, error) {
	if existing != nil {
		return Record{}, apierr.AlreadyCheckedIn()
	}
	now = now.UTC()
	return Record{
		ID:              id,
		EmployeeID:      employeeID,
		WorkplaceID:     workplaceID,
		Date:            timeutil.DayStamp(now),
		CheckInAt:       now,
		DeviceCheckInAt: device.UTC(),
		CheckInLocation: loc,
		Status:          StatusOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CheckOut closes an open record at the server instant now.
func CheckOut(r *Record, now, device time.Time, calc *payroll.Calculator) (Record, payroll.Result, error) {
	if r == nil || r.Status != StatusOpen {
		return Record{}, payroll.Result{}, apierr.NoOpenCheckIn()
	}
	now = now.UTC()
	pay := calc.Calculate(r.CheckInAt, now)

	next := *r
	next.CheckOutAt = &now
	d := device.UTC()
	next.DeviceCheckOutAt = &d
	next.Status = StatusClosed
	next.setPay(pay)
	next.UpdatedAt = now
	return next, pay, nil
}

type ManualClose struct {
	CheckOutAt time.Time
	Note       string
	AdminID    string
}

func (m ManualClose) validate(checkInAt time.Time) error {
	if m.CheckOutAt.IsZero() {
		return apierr.Invalid("checkOutAt is required")
	}
	if m.CheckOutAt.Before(checkInAt) {
		return apierr.Invalid("checkOutAt must not be before checkInAt")
	}
	if utf8.RuneCountInString(strings.TrimSpace(m.Note)) < MinAdjustmentNoteLen {
		return apierr.Invalid("adjustmentNote must be at least 10 characters")
	}
	return nil
}

// CloseManually is the admin path for open and incomplete records.
func CloseManually(r *Record, m ManualClose, now time.Time, calc *payroll.Calculator) (Record, error) {
	if r.Status == StatusClosed {
		return Record{}, apierr.AlreadyClosed()
	}
	if err := m.validate(r.CheckInAt); err != nil {
		return Record{}, err
	}
	now = now.UTC()
	out := m.CheckOutAt.UTC()
	note := strings.TrimSpace(m.Note)
	admin := m.AdminID

	next := *r
	next.CheckOutAt = &out
	next.Status = StatusClosed
	next.setPay(calc.Calculate(r.CheckInAt, out))
	next.IsManuallyAdjusted = true
	next.AdjustmentNote = &note
	next.AdjustedBy = &admin
	next.AdjustedAt = &now
	next.UpdatedAt = now
	return next, nil
}

// MarkIncomplete applies the sweep to one record. changed is false when the
// record is not open or its UTC day has not fully elapsed at now.
func MarkIncomplete(r Record, now time.Time) (next Record, changed bool) {
	if r.Status != StatusOpen || r.Date >= timeutil.DayStamp(now) {
		return r, false
	}
	r.Status = StatusIncomplete
	r.UpdatedAt = now.UTC()
	return r, true
}
