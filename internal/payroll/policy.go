package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"geoattend-backend/internal/platform/db"
)

// Policy is the single fixed-shift pay policy. All pay math reads from it.
type Policy struct {
	DayRate        decimal.Decimal
	ReferenceHours decimal.Decimal
	OvertimeRate   decimal.Decimal
	ShiftStart     time.Duration // offset from local midnight
	ShiftEnd       time.Duration
	LocalOffset    time.Duration // fixed offset from UTC, not the host zone
	RoundingStep   int           // minutes
}

// DefaultPolicy: Rs 1000 per 9h day (08:00-17:00, UTC+05:30), Rs 160/h overtime, 30 min steps.
func DefaultPolicy() Policy {
	return Policy{
		DayRate:        decimal.NewFromInt(1000),
		ReferenceHours: decimal.NewFromInt(9),
		OvertimeRate:   decimal.NewFromInt(160),
		ShiftStart:     8 * time.Hour,
		ShiftEnd:       17 * time.Hour,
		LocalOffset:    5*time.Hour + 30*time.Minute,
		RoundingStep:   30,
	}
}

// HourlyRate is the regular rate implied by the day rate (1000/9 ≈ 111.11).
func (p Policy) HourlyRate() decimal.Decimal {
	return p.DayRate.Div(p.ReferenceHours)
}

func (p Policy) Validate() error {
	switch {
	case !p.DayRate.IsPositive():
		return fmt.Errorf("policy: day_rate must be > 0")
	case !p.ReferenceHours.IsPositive():
		return fmt.Errorf("policy: reference_hours must be > 0")
	case p.OvertimeRate.IsNegative():
		return fmt.Errorf("policy: overtime_rate must be >= 0")
	case p.ShiftStart < 0 || p.ShiftEnd > 24*time.Hour || p.ShiftEnd <= p.ShiftStart:
		return fmt.Errorf("policy: shift window %s-%s is invalid", p.ShiftStart, p.ShiftEnd)
	case p.RoundingStep <= 0:
		return fmt.Errorf("policy: rounding_step_minutes must be > 0")
	case p.LocalOffset <= -24*time.Hour || p.LocalOffset >= 24*time.Hour:
		return fmt.Errorf("policy: local offset %s is out of range", p.LocalOffset)
	}
	return nil
}

// PolicyFromConfig overlays the configured values on DefaultPolicy.
func PolicyFromConfig(c db.PolicyConfig) (Policy, error) {
	p := DefaultPolicy()
	if c.DayRate != 0 {
		p.DayRate = decimal.NewFromFloat(c.DayRate)
	}
	if c.ReferenceHours != 0 {
		p.ReferenceHours = decimal.NewFromFloat(c.ReferenceHours)
	}
	if c.OvertimeRate != nil {
		p.OvertimeRate = decimal.NewFromFloat(*c.OvertimeRate)
	}
	if c.ShiftStart != "" {
		d, err := parseClock(c.ShiftStart)
		if err != nil {
			return Policy{}, fmt.Errorf("policy: shift_start: %w", err)
		}
		p.ShiftStart = d
	}
	if c.ShiftEnd != "" {
		d, err := parseClock(c.ShiftEnd)
		if err != nil {
			return Policy{}, fmt.Errorf("policy: shift_end: %w", err)
		}
		p.ShiftEnd = d
	}
	if c.LocalOffsetMinutes != nil {
		p.LocalOffset = time.Duration(*c.LocalOffsetMinutes) * time.Minute
	}
	if c.RoundingStepMinutes != 0 {
		p.RoundingStep = c.RoundingStepMinutes
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// parseClock reads "HH:MM" ("24:00" allowed) as an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
