package attendance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"geoattend-backend/internal/employee"
	"geoattend-backend/internal/platform/apierr"
	"geoattend-backend/internal/platform/clock"
	"geoattend-backend/internal/platform/ids"
	"geoattend-backend/internal/workplace"
)

// memRecords mirrors the MySQL store, including the unique (employee, day) index.
type memRecords struct {
	mu      sync.Mutex
	rows    map[string]Record
	failing error
}

func newMemRecords() *memRecords { return &memRecords{rows: map[string]Record{}} }

func (m *memRecords) put(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = r
}

func (m *memRecords) Create(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}
	for _, x := range m.rows {
		if x.EmployeeID == r.EmployeeID && x.Date == r.Date {
			return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
		}
	}
	m.rows[r.ID] = *r
	return nil
}

func (m *memRecords) FindByEmployeeDay(_ context.Context, employeeID, date string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return nil, m.failing
	}
	for _, x := range m.rows {
		if x.EmployeeID == employeeID && x.Date == date {
			r := x
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memRecords) FindByID(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (m *memRecords) Transition(_ context.Context, r *Record, from Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.rows[r.ID]
	if !ok || x.Status != from {
		return false, nil
	}
	m.rows[r.ID] = *r
	return true, nil
}

func (m *memRecords) ListOpenBefore(_ context.Context, date string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return nil, m.failing
	}
	return m.sorted(func(x Record) bool { return x.Status == StatusOpen && x.Date < date }), nil
}

func (m *memRecords) sorted(keep func(Record) bool) []Record {
	var out []Record
	for _, x := range m.rows {
		if keep(x) {
			out = append(out, x)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CheckInAt.After(out[j].CheckInAt)
	})
	return out
}

func (m *memRecords) List(_ context.Context, q Query) ([]Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(x Record) bool {
		return x.Date >= q.StartDate && x.Date <= q.EndDate &&
			(q.EmployeeID == nil || x.EmployeeID == *q.EmployeeID) &&
			(q.Status == nil || x.Status == *q.Status)
	})
	total := int64(len(all))
	if q.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[q.Offset:]
	if len(all) > q.Limit {
		all = all[:q.Limit]
	}
	return all, total, nil
}

func (m *memRecords) ListByDay(_ context.Context, date string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(x Record) bool { return x.Date == date }), nil
}

func (m *memRecords) ListRange(_ context.Context, start, end string, employeeIDs []string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range employeeIDs {
		want[id] = true
	}
	out := m.sorted(func(x Record) bool { return x.Date >= start && x.Date <= end && want[x.EmployeeID] })
	// oldest first, as the SQL store returns them
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *memRecords) Stats(_ context.Context, start, end string) ([]StatsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byEmployee := map[string]*StatsRow{}
	for _, x := range m.rows {
		if x.Date < start || x.Date > end {
			continue
		}
		row, ok := byEmployee[x.EmployeeID]
		if !ok {
			row = &StatsRow{EmployeeID: x.EmployeeID}
			byEmployee[x.EmployeeID] = row
		}
		row.Days++
		switch x.Status {
		case StatusClosed:
			row.ClosedDays++
			row.RegularHours += *x.RegularHours
			row.OvertimeHours += *x.OvertimeHoursMorning + *x.OvertimeHoursEvening
		case StatusIncomplete:
			row.IncompleteDays++
		}
	}
	var out []StatsRow
	for _, r := range byEmployee {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

type fakeWorkplaces struct{ wp workplace.Workplace }

func (f *fakeWorkplaces) LookupByQRToken(_ context.Context, token string) (*workplace.Workplace, error) {
	if token == "" || token != f.wp.QRToken {
		return nil, apierr.InvalidQRToken()
	}
	w := f.wp
	return &w, nil
}

type fakeDirectory struct{ all []employee.Employee }

func (f *fakeDirectory) ListActive(context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.all {
		if e.Status == employee.StatusActive && e.Role == employee.RoleEmployee {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDirectory) GetMany(_ context.Context, employeeIDs []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.all {
		for _, id := range employeeIDs {
			if e.ID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

const qrToken = "01HQRTOKEN"

var office = workplace.Location{Lat: 6.9271, Lng: 79.8612}

type fixture struct {
	svc   *Service
	store *memRecords
	clock *clock.Fixed
}

// newFixture starts the clock at 2026-02-13 08:00 local (02:30 UTC).
func newFixture() *fixture {
	store := newMemRecords()
	clk := clock.NewFixed(at(13, 2, 30))
	wps := &fakeWorkplaces{wp: workplace.Workplace{ID: "W1", Name: "Head Office", Location: office, GeofenceRadiusMetres: 100, QRToken: qrToken}}
	dir := &fakeDirectory{all: []employee.Employee{
		{ID: "E1", Name: "Asha", Email: "asha@example.com", Role: employee.RoleEmployee, Status: employee.StatusActive},
		{ID: "E2", Name: "Bimal", Email: "bimal@example.com", Role: employee.RoleEmployee, Status: employee.StatusActive},
		{ID: "E3", Name: "Chamari", Email: "chamari@example.com", Role: employee.RoleEmployee, Status: employee.StatusInactive},
		{ID: "A1", Name: "Admin", Email: "admin@example.com", Role: employee.RoleAdmin, Status: employee.StatusActive},
	}}
	svc := NewService(store, wps, dir, calc, zap.NewNop()).
		WithClock(clk).
		WithIDGen(ids.NewSequence("R"))
	return &fixture{svc: svc, store: store, clock: clk}
}

func event() EventRequest {
	return EventRequest{QRToken: qrToken, DeviceTimestamp: at(13, 2, 29), Location: office}
}

func TestCheckIn(t *testing.T) {
	f := newFixture()
	rec, err := f.svc.CheckIn(context.Background(), "E1", event())
	require.NoError(t, err)

	assert.Equal(t, "R-1", rec.ID)
	assert.Equal(t, "W1", rec.WorkplaceID)
	assert.Equal(t, "2026-02-13", rec.Date)
	assert.Equal(t, at(13, 2, 30), rec.CheckInAt)
	assert.Equal(t, at(13, 2, 29), rec.DeviceCheckInAt)
	assert.Equal(t, office, rec.CheckInLocation)

	_, err = f.svc.CheckIn(context.Background(), "E1", event())
	assert.True(t, apierr.Is(err, apierr.CodeAlreadyCheckedIn))
}

func TestCheckIn_SecondCheckInAfterCheckOut(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)
	f.clock.Advance(9 * time.Hour)
	_, err = f.svc.CheckOut(ctx, "E1", event())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.svc.CheckIn(ctx, "E1", event())
	assert.True(t, apierr.Is(err, apierr.CodeAlreadyCheckedIn))
}

func TestCheckIn_DuplicateKeyFromStore(t *testing.T) {
	f := newFixture()
	// a concurrent request inserted between our read and write
	f.store.put(Record{ID: "other", EmployeeID: "E1", Date: "2026-02-13", Status: StatusOpen})
	store := &racingStore{memRecords: f.store}
	svc := NewService(store, &fakeWorkplaces{wp: workplace.Workplace{ID: "W1", QRToken: qrToken}}, &fakeDirectory{}, calc, zap.NewNop()).
		WithClock(f.clock).WithIDGen(ids.NewSequence("R"))

	_, err := svc.CheckIn(context.Background(), "E1", event())
	assert.True(t, apierr.Is(err, apierr.CodeAlreadyCheckedIn))
}

// racingStore hides existing rows from the read so only the insert sees them.
type racingStore struct{ *memRecords }

func (racingStore) FindByEmployeeDay(context.Context, string, string) (*Record, error) { return nil, nil }

func TestCheckIn_InvalidQRToken(t *testing.T) {
	f := newFixture()
	in := event()
	in.QRToken = "stale"
	_, err := f.svc.CheckIn(context.Background(), "E1", in)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidQRToken))
	assert.Empty(t, f.store.rows)
}

func TestCheckIn_StoreFailureIsNotAnAPIError(t *testing.T) {
	f := newFixture()
	f.store.failing = errors.New("connection reset")
	_, err := f.svc.CheckIn(context.Background(), "E1", event())
	require.Error(t, err)
	assert.Equal(t, apierr.Code(""), apierr.CodeOf(err))
}

func TestGeofence(t *testing.T) {
	f := newFixture()
	f.svc.WithGeofence(true)
	ctx := context.Background()

	far := event()
	far.Location = workplace.Location{Lat: 6.9371, Lng: 79.8612} // ~1.1 km north
	_, err := f.svc.CheckIn(ctx, "E1", far)
	assert.True(t, apierr.Is(err, apierr.CodeOutsideGeofence))

	bad := event()
	bad.Location = workplace.Location{Lat: 91, Lng: 0}
	_, err = f.svc.CheckIn(ctx, "E1", bad)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))

	near := event()
	near.Location = workplace.Location{Lat: 6.9275, Lng: 79.8612} // ~45 m
	_, err = f.svc.CheckIn(ctx, "E1", near)
	require.NoError(t, err)

	f.clock.Advance(9 * time.Hour)
	_, err = f.svc.CheckOut(ctx, "E1", far)
	assert.True(t, apierr.Is(err, apierr.CodeOutsideGeofence))
}

func TestGeofence_OffByDefault(t *testing.T) {
	f := newFixture()
	far := event()
	far.Location = workplace.Location{Lat: 7.5, Lng: 80.5}
	_, err := f.svc.CheckIn(context.Background(), "E1", far)
	assert.NoError(t, err)
}

func TestService_CheckOut(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)

	f.clock.Set(at(13, 12, 40)) // 18:10 local
	in := event()
	in.DeviceTimestamp = at(13, 12, 39)
	res, err := f.svc.CheckOut(ctx, "E1", in)
	require.NoError(t, err)

	assert.Equal(t, StatusClosed, res.Record.Status)
	assert.Equal(t, at(13, 12, 40), res.ServerCheckOutAt)
	assert.Equal(t, 10.17, res.Summary.TotalHours)
	assert.Equal(t, 9.0, res.Summary.RegularHours)
	assert.Equal(t, 1.0, res.Summary.OvertimeHoursEvening)
	assert.Equal(t, "1160.00", res.Summary.TotalPay.StringFixed(2))

	stored, err := f.svc.Today(ctx, "E1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, StatusClosed, stored.Status)
	assert.Equal(t, at(13, 12, 39), *stored.DeviceCheckOutAt)

	_, err = f.svc.CheckOut(ctx, "E1", event())
	assert.True(t, apierr.Is(err, apierr.CodeNoOpenCheckIn))
}

func TestCheckOut_WithoutCheckIn(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CheckOut(context.Background(), "E1", event())
	assert.True(t, apierr.Is(err, apierr.CodeNoOpenCheckIn))
}

func TestCheckOut_YesterdaysOpenRecordIsNotToday(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)

	f.clock.Set(at(14, 3, 0))
	_, err = f.svc.CheckOut(ctx, "E1", event())
	assert.True(t, apierr.Is(err, apierr.CodeNoOpenCheckIn))
}

func TestToday_None(t *testing.T) {
	f := newFixture()
	rec, err := f.svc.Today(context.Background(), "E1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSweepIncomplete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, "E2", event())
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.svc.CheckOut(ctx, "E2", event())
	require.NoError(t, err)

	n, err := f.svc.SweepIncomplete(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "today's open record is left alone")

	f.clock.Set(at(14, 0, 5))
	n, err = f.svc.SweepIncomplete(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, StatusIncomplete, f.store.rows["R-1"].Status)
	assert.Equal(t, StatusClosed, f.store.rows["R-2"].Status)

	assert.Equal(t, at(14, 0, 5), f.store.rows["R-1"].UpdatedAt)

	n, err = f.svc.SweepIncomplete(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "sweep is idempotent")
}

// sweptUnderneath flips the row to incomplete right before the first write,
// the way the daily sweep would between the read and the update.
type sweptUnderneath struct {
	*memRecords
	done bool
}

func (s *sweptUnderneath) Transition(ctx context.Context, r *Record, from Status) (bool, error) {
	if !s.done {
		s.done = true
		x := s.rows[r.ID]
		x.Status = StatusIncomplete
		s.put(x)
	}
	return s.memRecords.Transition(ctx, r, from)
}

func TestManualClose_RecordSweptMeanwhile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)

	svc := NewService(&sweptUnderneath{memRecords: f.store}, f.svc.workplaces, f.svc.employees, calc, zap.NewNop()).
		WithClock(f.clock)
	rec, err := svc.ManualClose(ctx, "R-1", "A1", ManualCloseRequest{CheckOutAt: at(13, 11, 30), AdjustmentNote: "Closed by the supervisor"})
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, rec.Status)
	assert.Equal(t, StatusClosed, f.store.rows["R-1"].Status)
	assert.Equal(t, 9.0, *f.store.rows["R-1"].RegularHours)
}

func TestSweepIncomplete_StoreFailure(t *testing.T) {
	f := newFixture()
	f.store.failing = errors.New("connection refused")
	_, err := f.svc.SweepIncomplete(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep open records")
}

func TestManualClose(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)
	f.clock.Set(at(14, 0, 5))
	_, err = f.svc.SweepIncomplete(ctx)
	require.NoError(t, err)

	f.clock.Set(at(14, 4, 0))
	req := ManualCloseRequest{CheckOutAt: at(13, 11, 30), AdjustmentNote: "Phone died before checkout"}
	rec, err := f.svc.ManualClose(ctx, "R-1", "A1", req)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, rec.Status)
	assert.True(t, rec.IsManuallyAdjusted)
	assert.Equal(t, "A1", *rec.AdjustedBy)
	assert.Equal(t, at(14, 4, 0), *rec.AdjustedAt)
	assert.Equal(t, 9.0, *rec.RegularHours)
	assert.Equal(t, StatusClosed, f.store.rows["R-1"].Status)

	_, err = f.svc.ManualClose(ctx, "R-1", "A1", req)
	assert.True(t, apierr.Is(err, apierr.CodeAlreadyClosed))

	_, err = f.svc.ManualClose(ctx, "missing", "A1", req)
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestManualClose_OpenRecordAndValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)

	_, err = f.svc.ManualClose(ctx, "R-1", "A1", ManualCloseRequest{CheckOutAt: at(13, 11, 30), AdjustmentNote: "short"})
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
	_, err = f.svc.ManualClose(ctx, "R-1", "A1", ManualCloseRequest{CheckOutAt: at(13, 1, 0), AdjustmentNote: "Closed by the supervisor"})
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
	assert.Equal(t, StatusOpen, f.store.rows["R-1"].Status)

	rec, err := f.svc.ManualClose(ctx, "R-1", "A1", ManualCloseRequest{CheckOutAt: at(13, 11, 30), AdjustmentNote: "Closed by the supervisor"})
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, rec.Status)
}

func TestQuery(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for day := 10; day <= 13; day++ {
		f.clock.Set(at(day, 2, 30))
		_, err := f.svc.CheckIn(ctx, "E1", event())
		require.NoError(t, err)
	}
	_, err := f.svc.CheckIn(ctx, "E2", event())
	require.NoError(t, err)

	res, err := f.svc.Query(ctx, Query{StartDate: "2026-02-11", EndDate: "2026-02-13"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, res.Total)
	assert.Equal(t, DefaultPageLimit, res.Limit)
	require.Len(t, res.Records, 4)
	assert.Equal(t, "2026-02-13", res.Records[0].Date)
	assert.Equal(t, "2026-02-11", res.Records[3].Date)
	require.NotNil(t, res.Records[0].Employee)

	e2 := "E2"
	res, err = f.svc.Query(ctx, Query{EmployeeID: &e2, StartDate: "2026-02-01", EndDate: "2026-02-28", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, res.Limit)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Bimal", res.Records[0].Employee.Name)

	closed := StatusClosed
	res, err = f.svc.Query(ctx, Query{Status: &closed, StartDate: "2026-02-01", EndDate: "2026-02-28"})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.NotNil(t, res.Records)
}

func TestQuery_Validation(t *testing.T) {
	f := newFixture()
	bogus := Status("paused")
	for name, q := range map[string]Query{
		"bad start":      {StartDate: "13-02-2026", EndDate: "2026-02-13"},
		"missing end":    {StartDate: "2026-02-13"},
		"end before":     {StartDate: "2026-02-13", EndDate: "2026-02-12"},
		"unknown status": {StartDate: "2026-02-01", EndDate: "2026-02-13", Status: &bogus},
	} {
		_, err := f.svc.Query(context.Background(), q)
		assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument), name)
	}
}

func TestOverview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)

	res, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-13", res.Date)
	require.Len(t, res.Employees, 2, "inactive staff and admins are not listed")

	byID := map[string]OverviewRow{}
	for _, r := range res.Employees {
		byID[r.Employee.ID] = r
	}
	assert.Equal(t, DisplayCheckedIn, byID["E1"].Status)
	require.NotNil(t, byID["E1"].Record)
	assert.Equal(t, DisplayAbsent, byID["E2"].Status)
	assert.Nil(t, byID["E2"].Record)
}

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, DisplayCheckedIn, displayStatus(StatusOpen))
	assert.Equal(t, DisplayCheckedOut, displayStatus(StatusClosed))
	assert.Equal(t, DisplayIncomplete, displayStatus(StatusIncomplete))
}

func TestStats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)
	f.clock.Advance(9 * time.Hour)
	_, err = f.svc.CheckOut(ctx, "E1", event())
	require.NoError(t, err)

	res, err := f.svc.Stats(ctx, "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 1, res.Rows[0].ClosedDays)
	assert.Equal(t, 9.0, res.Rows[0].RegularHours)

	_, err = f.svc.Stats(ctx, "2026-02-28", "2026-02-01")
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
}

func TestShifts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)
	f.clock.Advance(9 * time.Hour)
	_, err = f.svc.CheckOut(ctx, "E1", event())
	require.NoError(t, err)
	f.clock.Set(at(14, 2, 30))
	_, err = f.svc.CheckIn(ctx, "E1", event())
	require.NoError(t, err)

	shifts, err := f.svc.Shifts(ctx, at(13, 0, 0), at(14, 0, 0), []string{"E1"})
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, "2026-02-13", shifts[0].Date)
	assert.True(t, shifts[0].Closed)
	require.NotNil(t, shifts[0].CheckOutAt)
	assert.False(t, shifts[1].Closed)
	assert.Nil(t, shifts[1].CheckOutAt)
}
