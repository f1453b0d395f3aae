package attendance

import (
	"time"

	"geoattend-backend/internal/payroll"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
	MaxSyncEvents    = 100
)

// EventRequest is the body of check-in and check-out.
type EventRequest struct {
	QRToken         string    `json:"qrToken" binding:"required"`
	DeviceTimestamp time.Time `json:"deviceTimestamp" binding:"required"`
	Location        Location  `json:"location"`
}

type CheckInResponse struct {
	Record          Record    `json:"record"`
	ServerCheckInAt time.Time `json:"serverCheckInAt"`
}

// Summary is returned on check-out. TotalHours is the raw span, before any rounding to steps.
type Summary struct {
	TotalHours float64 `json:"totalHours"`
	payroll.Result
}

type CheckOutResponse struct {
	Record           Record    `json:"record"`
	ServerCheckOutAt time.Time `json:"serverCheckOutAt"`
	Summary          Summary   `json:"summary"`
}

type TodayResponse struct {
	Record *Record `json:"record"`
}

type EventType string

const (
	EventCheckIn  EventType = "checkin"
	EventCheckOut EventType = "checkout"
)

type SyncEvent struct {
	LocalID         string    `json:"localId"`
	Type            EventType `json:"type"`
	QRToken         string    `json:"qrToken"`
	DeviceTimestamp time.Time `json:"deviceTimestamp"`
	Location        Location  `json:"location"`
}

type SyncRequest struct {
	Events []SyncEvent `json:"events" binding:"required,min=1"`
}

type SyncStatus string

const (
	SyncSynced   SyncStatus = "synced"
	SyncConflict SyncStatus = "conflict"
	SyncError    SyncStatus = "error"
)

type SyncResult struct {
	LocalID string     `json:"localId"`
	Status  SyncStatus `json:"status"`
	Message string     `json:"message"`
}

type SyncResponse struct {
	Results []SyncResult `json:"results"`
}

type ManualCloseRequest struct {
	CheckOutAt     time.Time `json:"checkOutAt" binding:"required"`
	AdjustmentNote string    `json:"adjustmentNote" binding:"required"`
}

// Query is the typed admin filter. Dates are inclusive YYYY-MM-DD keys.
type Query struct {
	EmployeeID *string
	StartDate  string
	EndDate    string
	Status     *Status
	Limit      int
	Offset     int
}

type EmployeeRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RecordView struct {
	Record
	Employee *EmployeeRef `json:"employee,omitempty"`
}

type ListResponse struct {
	Records []RecordView `json:"records"`
	Total   int64        `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

type DisplayStatus string

const (
	DisplayCheckedIn  DisplayStatus = "checked_in"
	DisplayCheckedOut DisplayStatus = "checked_out"
	DisplayIncomplete DisplayStatus = "incomplete"
	DisplayAbsent     DisplayStatus = "absent"
)

type OverviewRow struct {
	Employee EmployeeRef   `json:"employee"`
	Status   DisplayStatus `json:"status"`
	Record   *Record       `json:"record"`
}

type OverviewResponse struct {
	Date      string        `json:"date"`
	Employees []OverviewRow `json:"employees"`
}

type StatsRow struct {
	EmployeeID     string  `json:"employeeId"`
	Days           int64   `json:"days"`
	ClosedDays     int64   `json:"closedDays"`
	IncompleteDays int64   `json:"incompleteDays"`
	RegularHours   float64 `json:"regularHours"`
	OvertimeHours  float64 `json:"overtimeHours"`
}

type StatsResponse struct {
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
	Rows      []StatsRow `json:"rows"`
}
