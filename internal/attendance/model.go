package attendance

import (
	"time"

	"geoattend-backend/internal/payroll"
	"geoattend-backend/internal/workplace"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
	StatusIncomplete Status = "incomplete"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusIncomplete:
		return true
	}
	return false
}

type Location = workplace.Location

// Record is one employee's attendance for one UTC day. CheckInAt and
// CheckOutAt are server-observed; the Device* fields are audit only.
type Record struct {
	ID                   string     `json:"id"`
	EmployeeID           string     `json:"employeeId"`
	WorkplaceID          string     `json:"workplaceId"`
	Date                 string     `json:"date"`
	CheckInAt            time.Time  `json:"checkInAt"`
	CheckOutAt           *time.Time `json:"checkOutAt"`
	DeviceCheckInAt      time.Time  `json:"deviceCheckInAt"`
	DeviceCheckOutAt     *time.Time `json:"deviceCheckOutAt"`
	CheckInLocation      Location   `json:"checkInLocation"`
	Status               Status     `json:"status"`
	RegularHours         *float64   `json:"regularHours"`
	OvertimeHoursMorning *float64   `json:"overtimeHoursMorning"`
	OvertimeHoursEvening *float64   `json:"overtimeHoursEvening"`
	IsManuallyAdjusted   bool       `json:"isManuallyAdjusted"`
	AdjustmentNote       *string    `json:"adjustmentNote,omitempty"`
	AdjustedBy           *string    `json:"adjustedBy,omitempty"`
	AdjustedAt           *time.Time `json:"adjustedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func (r *Record) setPay(p payroll.Result) {
	regular, morning, evening := p.RegularHours, p.OvertimeHoursMorning, p.OvertimeHoursEvening
	r.RegularHours = &regular
	r.OvertimeHoursMorning = &morning
	r.OvertimeHoursEvening = &evening
}

// DB row for scanning
type recordRow struct {
	ID                   string
	EmployeeID           string
	WorkplaceID          string
	AttendedOn           string // DATE as YYYY-MM-DD
	CheckInAt            time.Time
	CheckOutAt           *time.Time
	DeviceCheckInAt      time.Time
	DeviceCheckOutAt     *time.Time
	Lat                  float64
	Lng                  float64
	Status               string
	RegularHours         *float64
	OvertimeHoursMorning *float64
	OvertimeHoursEvening *float64
	IsManuallyAdjusted   bool
	AdjustmentNote       *string
	AdjustedBy           *string
	AdjustedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (r recordRow) toModel() Record {
	return Record{
		ID:                   r.ID,
		EmployeeID:           r.EmployeeID,
		WorkplaceID:          r.WorkplaceID,
		Date:                 r.AttendedOn,
		CheckInAt:            r.CheckInAt.UTC(),
		CheckOutAt:           utcPtr(r.CheckOutAt),
		DeviceCheckInAt:      r.DeviceCheckInAt.UTC(),
		DeviceCheckOutAt:     utcPtr(r.DeviceCheckOutAt),
		CheckInLocation:      Location{Lat: r.Lat, Lng: r.Lng},
		Status:               Status(r.Status),
		RegularHours:         r.RegularHours,
		OvertimeHoursMorning: r.OvertimeHoursMorning,
		OvertimeHoursEvening: r.OvertimeHoursEvening,
		IsManuallyAdjusted:   r.IsManuallyAdjusted,
		AdjustmentNote:       r.AdjustmentNote,
		AdjustedBy:           r.AdjustedBy,
		AdjustedAt:           utcPtr(r.AdjustedAt),
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}
}
