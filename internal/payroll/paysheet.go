package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type RecordStatus string

const (
	RecordIncluded          RecordStatus = "included"
	RecordSkippedIncomplete RecordStatus = "skipped_incomplete"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusProcessed Status = "processed"
)

// Shift is the part of an attendance record the aggregator reads.
type Shift struct {
	RecordID           string
	EmployeeID         string
	Date               string
	CheckInAt          time.Time
	CheckOutAt         *time.Time
	Closed             bool
	IsManuallyAdjusted bool
}

type Entry struct {
	EmployeeID           string          `json:"employeeId"`
	EmployeeName         string          `json:"employeeName"`
	Date                 string          `json:"date"`
	CheckInAt            time.Time       `json:"checkInAt"`
	CheckOutAt           time.Time       `json:"checkOutAt"`
	RegularHours         float64         `json:"regularHours"`
	OvertimeHoursMorning float64         `json:"overtimeHoursMorning"`
	OvertimeHoursEvening float64         `json:"overtimeHoursEvening"`
	RegularPay           decimal.Decimal `json:"regularPay"`
	OvertimePay          decimal.Decimal `json:"overtimePay"`
	TotalPay             decimal.Decimal `json:"totalPay"`
	IsManuallyAdjusted   bool            `json:"isManuallyAdjusted"`
	RecordStatus         RecordStatus    `json:"recordStatus"`
}

func (e Entry) OvertimeHours() float64 {
	return e.OvertimeHoursMorning + e.OvertimeHoursEvening
}

type Totals struct {
	TotalRegularPay  decimal.Decimal `json:"totalRegularPay"`
	TotalOvertimePay decimal.Decimal `json:"totalOvertimePay"`
	TotalPayable     decimal.Decimal `json:"totalPayable"`
	SkippedDays      int             `json:"skippedDays"`
}

// Paysheet is immutable after generation except for the one-way
// draft -> processed status change.
type Paysheet struct {
	ID          string     `json:"id"`
	GeneratedBy string     `json:"generatedBy"`
	GeneratedAt time.Time  `json:"generatedAt"`
	PeriodStart string     `json:"periodStart"`
	PeriodEnd   string     `json:"periodEnd"`
	EmployeeIDs []string   `json:"employeeIds"`
	Entries     []Entry    `json:"entries,omitempty"`
	Totals      Totals     `json:"totals"`
	Status      Status     `json:"status"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}
