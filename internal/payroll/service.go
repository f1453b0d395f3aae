package payroll

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"geoattend-backend/internal/employee"
	"geoattend-backend/internal/platform/apierr"
	"geoattend-backend/internal/platform/clock"
	"geoattend-backend/internal/platform/ids"
	"geoattend-backend/internal/platform/timeutil"
)

// ShiftSource yields the attendance records of a period, oldest day first.
type ShiftSource interface {
	Shifts(ctx context.Context, start, end time.Time, employeeIDs []string) ([]Shift, error)
}

type EmployeeDirectory interface {
	ListActive(ctx context.Context) ([]employee.Employee, error)
	GetMany(ctx context.Context, employeeIDs []string) ([]employee.Employee, error)
}

type Service struct {
	store     PaysheetStore
	shifts    ShiftSource
	employees EmployeeDirectory
	calc      *Calculator
	clock     clock.Clock
	id        ids.IDGen
	logger    *zap.Logger
}

func NewService(store PaysheetStore, shifts ShiftSource, employees EmployeeDirectory, calc *Calculator, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		shifts:    shifts,
		employees: employees,
		calc:      calc,
		clock:     clock.System(),
		id:        ids.ULID(),
		logger:    logger,
	}
}

func (s *Service) WithClock(c clock.Clock) *Service {
	s.clock = c
	return s
}

func (s *Service) WithIDGen(g ids.IDGen) *Service {
	s.id = g
	return s
}

func notFound() *apierr.Error { return apierr.NotFound("Paysheet not found") }

// resolveEmployees returns the paysheet's employee set. An empty request
// means every active employee; named ids must all exist.
func (s *Service) resolveEmployees(ctx context.Context, requested []string) ([]employee.Employee, error) {
	if len(requested) == 0 {
		all, err := s.employees.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active employees: %w", err)
		}
		return all, nil
	}

	seen := make(map[string]struct{}, len(requested))
	wanted := make([]string, 0, len(requested))
	for _, id := range requested {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, apierr.Invalid("employeeIds must not contain empty values")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		wanted = append(wanted, id)
	}

	found, err := s.employees.GetMany(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("get employees: %w", err)
	}
	if len(found) != len(wanted) {
		known := make(map[string]struct{}, len(found))
		for _, e := range found {
			known[e.ID] = struct{}{}
		}
		var missing []string
		for _, id := range wanted {
			if _, ok := known[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, apierr.Invalid("unknown employeeIds: " + strings.Join(missing, ", "))
	}
	return found, nil
}

// Generate builds and stores a draft paysheet over [periodStart, periodEnd].
func (s *Service) Generate(ctx context.Context, req GenerateRequest, generatedBy string) (*Paysheet, error) {
	start, err := timeutil.ParseDay(req.PeriodStart)
	if err != nil {
		return nil, apierr.Invalid("periodStart must be YYYY-MM-DD")
	}
	end, err := timeutil.ParseDay(req.PeriodEnd)
	if err != nil {
		return nil, apierr.Invalid("periodEnd must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, apierr.Invalid("periodEnd must be >= periodStart")
	}

	staff, err := s.resolveEmployees(ctx, req.EmployeeIDs)
	if err != nil {
		return nil, err
	}

	employeeIDs := make([]string, 0, len(staff))
	names := make(map[string]string, len(staff))
	for _, e := range staff {
		employeeIDs = append(employeeIDs, e.ID)
		names[e.ID] = e.Name
	}
	sort.Strings(employeeIDs)

	var shifts []Shift
	if len(employeeIDs) > 0 {
		shifts, err = s.shifts.Shifts(ctx, start, end, employeeIDs)
		if err != nil {
			return nil, err
		}
	}
	entries, totals := Build(s.calc, shifts, names)

	id, err := s.id.New()
	if err != nil {
		return nil, fmt.Errorf("new paysheet id: %w", err)
	}
	p := &Paysheet{
		ID:          id,
		GeneratedBy: generatedBy,
		GeneratedAt: s.clock.Now().UTC(),
		PeriodStart: timeutil.DayStamp(start),
		PeriodEnd:   timeutil.DayStamp(end),
		EmployeeIDs: employeeIDs,
		Entries:     entries,
		Totals:      totals,
		Status:      StatusDraft,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert paysheet: %w", err)
	}

	s.logger.Info("paysheet generated",
		zap.String("paysheet_id", p.ID),
		zap.String("period_start", p.PeriodStart),
		zap.String("period_end", p.PeriodEnd),
		zap.Int("employees", len(employeeIDs)),
		zap.Int("entries", len(entries)),
		zap.Int("skipped_days", totals.SkippedDays),
		zap.String("total_payable", totals.TotalPayable.StringFixed(2)),
	)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Paysheet, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get paysheet: %w", err)
	}
	if p == nil {
		return nil, notFound()
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) (*ListResponse, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	sheets, total, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list paysheets: %w", err)
	}
	if sheets == nil {
		sheets = []Paysheet{}
	}
	return &ListResponse{Paysheets: sheets, Total: total, Limit: limit, Offset: offset}, nil
}

// UpdateStatus applies the one-way draft -> processed transition.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Paysheet, error) {
	if status != StatusProcessed {
		return nil, apierr.Invalid("status can only be set to processed")
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusProcessed {
		return nil, apierr.AlreadyProcessed()
	}

	now := s.clock.Now().UTC()
	ok, err := s.store.MarkProcessed(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("mark paysheet processed: %w", err)
	}
	if !ok {
		// lost the race to a concurrent update
		return nil, apierr.AlreadyProcessed()
	}

	p.Status = StatusProcessed
	p.ProcessedAt = &now
	s.logger.Info("paysheet processed", zap.String("paysheet_id", id))
	return p, nil
}

// Export renders a stored paysheet. Nothing is recomputed.
func (s *Service) Export(ctx context.Context, id string, format Format) (*Export, error) {
	if !format.Valid() {
		return nil, apierr.InvalidFormat("format must be csv, xlsx or pdf")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Render(p, format)
}
