package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"geoattend-backend/internal/employee"
	"geoattend-backend/internal/payroll"
	"geoattend-backend/internal/platform/apierr"
	"geoattend-backend/internal/platform/clock"
	"geoattend-backend/internal/platform/db"
	"geoattend-backend/internal/platform/ids"
	"geoattend-backend/internal/platform/timeutil"
	"geoattend-backend/internal/workplace"
)

type WorkplaceLookup interface {
	LookupByQRToken(ctx context.Context, token string) (*workplace.Workplace, error)
}

type EmployeeDirectory interface {
	ListActive(ctx context.Context) ([]employee.Employee, error)
	GetMany(ctx context.Context, employeeIDs []string) ([]employee.Employee, error)
}

type Service struct {
	store      RecordStore
	workplaces WorkplaceLookup
	employees  EmployeeDirectory
	calc       *payroll.Calculator
	clock      clock.Clock
	id         ids.IDGen
	logger     *zap.Logger
	geofence   bool
}

func NewService(store RecordStore, workplaces WorkplaceLookup, employees EmployeeDirectory, calc *payroll.Calculator, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		workplaces: workplaces,
		employees:  employees,
		calc:       calc,
		clock:      clock.System(),
		id:         ids.ULID(),
		logger:     logger,
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

// WithGeofence turns on the radius check for check-in and check-out.
func (s *Service) WithGeofence(enforce bool) *Service {
	s.geofence = enforce
	return s
}

// gate resolves the QR token and, when enabled, the geofence. It runs
// before any state is read.
func (s *Service) gate(ctx context.Context, in EventRequest) (*workplace.Workplace, error) {
	wp, err := s.workplaces.LookupByQRToken(ctx, in.QRToken)
	if err != nil {
		return nil, err
	}
	if s.geofence {
		if err := workplace.ValidateLocation(in.Location); err != nil {
			return nil, err
		}
		if !wp.Contains(in.Location) {
			return nil, apierr.OutsideGeofence(fmt.Sprintf(
				"You are %.0f m from %s; check-in is allowed within %d m.",
				workplace.DistanceMetres(wp.Location, in.Location), wp.Name, wp.GeofenceRadiusMetres))
		}
	}
	return wp, nil
}

// CheckIn opens today's record for employeeID.
func (s *Service) CheckIn(ctx context.Context, employeeID string, in EventRequest) (*Record, error) {
	wp, err := s.gate(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	existing, err := s.store.FindByEmployeeDay(ctx, employeeID, timeutil.DayStamp(now))
	if err != nil {
		return nil, fmt.Errorf("find today's record: %w", err)
	}

	id, err := s.id.New()
	if err != nil {
		return nil, err
	}
	rec, err := StartRecord(existing, id, employeeID, wp.ID, now, in.DeviceTimestamp, in.Location)
	if err != nil {
		return nil, err
	}

	// the unique (employee, day) index settles concurrent check-ins
	if err := s.store.Create(ctx, &rec); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, apierr.AlreadyCheckedIn()
		}
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.logger.Info("check-in",
		zap.String("employee_id", employeeID),
		zap.String("record_id", rec.ID),
		zap.String("date", rec.Date),
		zap.Duration("device_drift", rec.CheckInAt.Sub(rec.DeviceCheckInAt)),
	)
	return &rec, nil
}

// CheckOut closes today's open record and stores the pay breakdown.
func (s *Service) CheckOut(ctx context.Context, employeeID string, in EventRequest) (*CheckOutResponse, error) {
	if _, err := s.gate(ctx, in); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	cur, err := s.store.FindByEmployeeDay(ctx, employeeID, timeutil.DayStamp(now))
	if err != nil {
		return nil, fmt.Errorf("find today's record: %w", err)
	}

	next, pay, err := CheckOut(cur, now, in.DeviceTimestamp, s.calc)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.Transition(ctx, &next, StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("close record: %w", err)
	}
	if !ok {
		// closed by a concurrent request between read and write
		return nil, apierr.NoOpenCheckIn()
	}

	s.logger.Info("check-out",
		zap.String("employee_id", employeeID),
		zap.String("record_id", next.ID),
		zap.Float64("regular_hours", pay.RegularHours),
		zap.Float64("overtime_hours", pay.OvertimeHours()),
		zap.String("total_pay", pay.TotalPay.StringFixed(2)),
	)
	return &CheckOutResponse{
		Record:           next,
		ServerCheckOutAt: now,
		Summary: Summary{
			TotalHours: roundTo2(timeutil.Hours(now.Sub(next.CheckInAt))),
			Result:     pay,
		},
	}, nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Today returns the caller's record for the current UTC day, or nil.
func (s *Service) Today(ctx context.Context, employeeID string) (*Record, error) {
	rec, err := s.store.FindByEmployeeDay(ctx, employeeID, timeutil.DayStamp(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("find today's record: %w", err)
	}
	return rec, nil
}

// ManualClose lets an admin close an open or incomplete record at a chosen instant.
func (s *Service) ManualClose(ctx context.Context, recordID, adminID string, req ManualCloseRequest) (*Record, error) {
	cur, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	if cur == nil {
		return nil, apierr.NotFound("Attendance record not found")
	}

	next, err := CloseManually(cur, ManualClose{
		CheckOutAt: req.CheckOutAt,
		Note:       req.AdjustmentNote,
		AdminID:    adminID,
	}, s.clock.Now(), s.calc)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.Transition(ctx, &next, cur.Status)
	if err != nil {
		return nil, fmt.Errorf("close record: %w", err)
	}
	if !ok {
		// the row moved under us, usually the sweep turning open into incomplete
		latest, err := s.store.FindByID(ctx, recordID)
		if err != nil {
			return nil, fmt.Errorf("find record: %w", err)
		}
		if latest == nil {
			return nil, apierr.NotFound("Attendance record not found")
		}
		if latest.Status == StatusClosed {
			return nil, apierr.AlreadyClosed()
		}
		cur = latest
		next, err = CloseManually(cur, ManualClose{
			CheckOutAt: req.CheckOutAt,
			Note:       req.AdjustmentNote,
			AdminID:    adminID,
		}, s.clock.Now(), s.calc)
		if err != nil {
			return nil, err
		}
		if ok, err = s.store.Transition(ctx, &next, cur.Status); err != nil {
			return nil, fmt.Errorf("close record: %w", err)
		}
		if !ok {
			return nil, apierr.Conflict("Attendance record changed, try again")
		}
	}

	s.logger.Info("manual close",
		zap.String("record_id", next.ID),
		zap.String("employee_id", next.EmployeeID),
		zap.String("admin_id", adminID),
		zap.String("from_status", string(cur.Status)),
	)
	return &next, nil
}

// SweepIncomplete marks every open record from an earlier UTC day incomplete.
func (s *Service) SweepIncomplete(ctx context.Context) (int64, error) {
	now := s.clock.Now().UTC()
	today := timeutil.DayStamp(now)
	stale, err := s.store.ListOpenBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("sweep open records: %w", err)
	}

	var n int64
	for _, rec := range stale {
		next, changed := MarkIncomplete(rec, now)
		if !changed {
			continue
		}
		// false means a manual close got there first
		ok, err := s.store.Transition(ctx, &next, StatusOpen)
		if err != nil {
			return n, fmt.Errorf("mark %s incomplete: %w", rec.ID, err)
		}
		if ok {
			n++
		}
	}
	s.logger.Info("sweep finished", zap.String("before", today), zap.Int64("marked_incomplete", n))
	return n, nil
}

func (s *Service) validateQuery(q *Query) error {
	start, err := timeutil.ParseDay(q.StartDate)
	if err != nil {
		return apierr.Invalid("startDate must be YYYY-MM-DD")
	}
	end, err := timeutil.ParseDay(q.EndDate)
	if err != nil {
		return apierr.Invalid("endDate must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return apierr.Invalid("endDate must be >= startDate")
	}
	if q.Status != nil && !q.Status.Valid() {
		return apierr.Invalid("status must be open, closed or incomplete")
	}
	if q.EmployeeID != nil && *q.EmployeeID == "" {
		q.EmployeeID = nil
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return nil
}

// Query lists records matching q, newest day first, with employee details.
func (s *Service) Query(ctx context.Context, q Query) (*ListResponse, error) {
	if err := s.validateQuery(&q); err != nil {
		return nil, err
	}
	recs, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	refs, err := s.employeeRefs(ctx, recs)
	if err != nil {
		return nil, err
	}
	out := make([]RecordView, 0, len(recs))
	for _, r := range recs {
		v := RecordView{Record: r}
		if ref, ok := refs[r.EmployeeID]; ok {
			v.Employee = &ref
		}
		out = append(out, v)
	}
	return &ListResponse{Records: out, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *Service) employeeRefs(ctx context.Context, recs []Record) (map[string]EmployeeRef, error) {
	seen := map[string]bool{}
	var idList []string
	for _, r := range recs {
		if !seen[r.EmployeeID] {
			seen[r.EmployeeID] = true
			idList = append(idList, r.EmployeeID)
		}
	}
	refs := make(map[string]EmployeeRef, len(idList))
	if len(idList) == 0 {
		return refs, nil
	}
	emps, err := s.employees.GetMany(ctx, idList)
	if err != nil {
		return nil, err
	}
	for _, e := range emps {
		refs[e.ID] = EmployeeRef{ID: e.ID, Name: e.Name, Email: e.Email}
	}
	return refs, nil
}

// Overview is today's board: every active employee with a display status.
func (s *Service) Overview(ctx context.Context) (*OverviewResponse, error) {
	today := timeutil.DayStamp(s.clock.Now())
	emps, err := s.employees.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ListByDay(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list today's records: %w", err)
	}
	byEmployee := make(map[string]Record, len(recs))
	for _, r := range recs {
		byEmployee[r.EmployeeID] = r
	}

	rows := make([]OverviewRow, 0, len(emps))
	for _, e := range emps {
		row := OverviewRow{
			Employee: EmployeeRef{ID: e.ID, Name: e.Name, Email: e.Email},
			Status:   DisplayAbsent,
		}
		if r, ok := byEmployee[e.ID]; ok {
			row.Record = &r
			row.Status = displayStatus(r.Status)
		}
		rows = append(rows, row)
	}
	return &OverviewResponse{Date: today, Employees: rows}, nil
}

func displayStatus(st Status) DisplayStatus {
	switch st {
	case StatusOpen:
		return DisplayCheckedIn
	case StatusClosed:
		return DisplayCheckedOut
	default:
		return DisplayIncomplete
	}
}

// Stats aggregates days and hours per employee over an inclusive range.
func (s *Service) Stats(ctx context.Context, startDate, endDate string) (*StatsResponse, error) {
	q := Query{StartDate: startDate, EndDate: endDate}
	if err := s.validateQuery(&q); err != nil {
		return nil, err
	}
	rows, err := s.store.Stats(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("attendance stats: %w", err)
	}
	if rows == nil {
		rows = []StatsRow{}
	}
	return &StatsResponse{StartDate: startDate, EndDate: endDate, Rows: rows}, nil
}

// Shifts feeds the paysheet builder with the records of a period.
func (s *Service) Shifts(ctx context.Context, start, end time.Time, employeeIDs []string) ([]payroll.Shift, error) {
	recs, err := s.store.ListRange(ctx, timeutil.DayStamp(start), timeutil.DayStamp(end), employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("list records in range: %w", err)
	}
	out := make([]payroll.Shift, 0, len(recs))
	for _, r := range recs {
		out = append(out, payroll.Shift{
			RecordID:           r.ID,
			EmployeeID:         r.EmployeeID,
			Date:               r.Date,
			CheckInAt:          r.CheckInAt,
			CheckOutAt:         r.CheckOutAt,
			Closed:             r.Status == StatusClosed,
			IsManuallyAdjusted: r.IsManuallyAdjusted,
		})
	}
	return out, nil
}
