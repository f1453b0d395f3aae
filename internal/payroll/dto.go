package payroll

type GenerateRequest struct {
	PeriodStart string   `json:"periodStart" binding:"required"`
	PeriodEnd   string   `json:"periodEnd" binding:"required"`
	EmployeeIDs []string `json:"employeeIds"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

type PaysheetResponse struct {
	Paysheet Paysheet `json:"paysheet"`
}

type ListResponse struct {
	Paysheets []Paysheet `json:"paysheets"`
	Total     int64      `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)
