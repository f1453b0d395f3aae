package payroll

import "github.com/shopspring/decimal"

// Build turns the shifts of a period into paysheet entries and totals.
// Closed shifts are priced with calc; any other shift becomes a zero entry
// marked skipped_incomplete and counts as a skipped day. Entry order follows
// shifts.
func Build(calc *Calculator, shifts []Shift, names map[string]string) ([]Entry, Totals) {
	entries := make([]Entry, 0, len(shifts))
	totals := Totals{
		TotalRegularPay:  decimal.Zero,
		TotalOvertimePay: decimal.Zero,
	}

	for _, sh := range shifts {
		e := Entry{
			EmployeeID:         sh.EmployeeID,
			EmployeeName:       names[sh.EmployeeID],
			Date:               sh.Date,
			CheckInAt:          sh.CheckInAt.UTC(),
			IsManuallyAdjusted: sh.IsManuallyAdjusted,
		}

		if !sh.Closed || sh.CheckOutAt == nil {
			// no checkout yet: the check-in stands in for it
			e.CheckOutAt = e.CheckInAt
			if sh.CheckOutAt != nil {
				e.CheckOutAt = sh.CheckOutAt.UTC()
			}
			e.RegularPay, e.OvertimePay, e.TotalPay = decimal.Zero, decimal.Zero, decimal.Zero
			e.RecordStatus = RecordSkippedIncomplete
			totals.SkippedDays++
			entries = append(entries, e)
			continue
		}

		pay := calc.Calculate(sh.CheckInAt, *sh.CheckOutAt)
		e.CheckOutAt = sh.CheckOutAt.UTC()
		e.RegularHours = pay.RegularHours
		e.OvertimeHoursMorning = pay.OvertimeHoursMorning
		e.OvertimeHoursEvening = pay.OvertimeHoursEvening
		e.RegularPay = pay.RegularPay
		e.OvertimePay = pay.OvertimePay
		e.TotalPay = pay.TotalPay
		e.RecordStatus = RecordIncluded

		totals.TotalRegularPay = totals.TotalRegularPay.Add(pay.RegularPay)
		totals.TotalOvertimePay = totals.TotalOvertimePay.Add(pay.OvertimePay)
		entries = append(entries, e)
	}

	totals.TotalPayable = totals.TotalRegularPay.Add(totals.TotalOvertimePay)
	return entries, totals
}
