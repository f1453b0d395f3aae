package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"geoattend-backend/internal/platform/timeutil"
)

// Result is the pay for one check-in/check-out pair. Hours are multiples of
// the rounding step; money is rounded to 2 places.
type Result struct {
	RegularHours         float64         `json:"regularHours"`
	OvertimeHoursMorning float64         `json:"overtimeHoursMorning"`
	OvertimeHoursEvening float64         `json:"overtimeHoursEvening"`
	RegularPay           decimal.Decimal `json:"regularPay"`
	OvertimePay          decimal.Decimal `json:"overtimePay"`
	TotalPay             decimal.Decimal `json:"totalPay"`
}

func (r Result) OvertimeHours() float64 {
	return r.OvertimeHoursMorning + r.OvertimeHoursEvening
}

type Calculator struct {
	policy Policy
}

func NewCalculator(p Policy) *Calculator {
	return &Calculator{policy: p}
}

func (c *Calculator) Policy() Policy { return c.policy }

// Calculate is pure: the same pair always yields the same Result.
// checkOut before checkIn yields an all-zero result.
func (c *Calculator) Calculate(checkIn, checkOut time.Time) Result {
	p := c.policy
	regular, morning, evening := c.split(checkIn, checkOut)

	rawOT := morning + evening
	totalOT := c.roundHours(rawOT.Minutes())

	var otMorning, otEvening float64
	if rawOT > 0 {
		share := float64(morning) / float64(rawOT)
		otMorning = c.roundHours(totalOT * share * 60)
		// remainder keeps morning+evening == totalOT exactly
		otEvening = totalOT - otMorning
	}

	regHours := c.roundHours(regular.Minutes())

	regPay := decimal.NewFromFloat(regHours).Mul(p.HourlyRate()).Round(2)
	otPay := decimal.NewFromFloat(totalOT).Mul(p.OvertimeRate).Round(2)

	return Result{
		RegularHours:         regHours,
		OvertimeHoursMorning: otMorning,
		OvertimeHoursEvening: otEvening,
		RegularPay:           regPay,
		OvertimePay:          otPay,
		TotalPay:             regPay.Add(otPay),
	}
}

// split projects the interval to local wall-clock time. Morning overtime is
// the part before the check-in day's shift start. Regular time is counted
// against every local day's shift window the interval reaches, and
// everything else is evening overtime, so a shift that runs past midnight
// keeps its early hours on the check-in day's evening.
func (c *Calculator) split(checkIn, checkOut time.Time) (regular, morning, evening time.Duration) {
	p := c.policy
	in := timeutil.ProjectToLocal(checkIn, p.LocalOffset)
	out := timeutil.ProjectToLocal(checkOut, p.LocalOffset)
	if !out.After(in) {
		return 0, 0, 0
	}

	first := timeutil.StartOfDay(in)
	morning = timeutil.Overlap(in, out, first, first.Add(p.ShiftStart))
	for day := first; day.Before(out); day = day.AddDate(0, 0, 1) {
		regular += timeutil.Overlap(in, out, day.Add(p.ShiftStart), day.Add(p.ShiftEnd))
	}
	evening = out.Sub(in) - regular - morning
	return regular, morning, evening
}

func (c *Calculator) roundHours(minutes float64) float64 {
	return timeutil.RoundToStep(minutes, c.policy.RoundingStep) / 60
}
