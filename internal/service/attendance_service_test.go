package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/worklane/hr-api/internal/models"
	"github.com/worklane/hr-api/internal/repository"
	"github.com/worklane/hr-api/pkg/config"
	appErrors "github.com/worklane/hr-api/pkg/errors"
)

type mockAttendanceRepo struct {
	items      map[string]*models.AttendanceRecord
	nextID     string
	createErr  error
	closed     []string
	images     map[string][]string
	imageCount int
	listResult []models.AttendanceRecord
	listTotal  int
	rows       []models.TimesheetRow
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.items == nil {
		m.items = make(map[string]*models.AttendanceRecord)
	}
	cp := *record
	cp.ID = m.nextID
	if cp.ID == "" {
		cp.ID = "generated"
	}
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id, workerID string) (*models.AttendanceRecord, error) {
	record, ok := m.items[id]
	if !ok || (workerID != "" && record.WorkerID != workerID) {
		return nil, sql.ErrNoRows
	}
	cp := *record
	return &cp, nil
}

func (m *mockAttendanceRepo) FindOpenByWorkerDate(ctx context.Context, workerID string, day time.Time) (*models.AttendanceRecord, error) {
	for _, record := range m.items {
		if record.WorkerID == workerID && record.WorkDate.Equal(day) {
			cp := *record
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Close(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	m.closed = append(m.closed, record.ID)
	cp := *record
	m.items[record.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockAttendanceRepo) AttachImages(ctx context.Context, attendanceID string, refs []string) ([]models.ReportImage, error) {
	if m.images == nil {
		m.images = make(map[string][]string)
	}
	m.images[attendanceID] = append(m.images[attendanceID], refs...)
	result := make([]models.ReportImage, len(refs))
	for i, ref := range refs {
		result[i] = models.ReportImage{AttendanceID: attendanceID, Ref: ref}
	}
	return result, nil
}

func (m *mockAttendanceRepo) CountImages(ctx context.Context, attendanceID string) (int, error) {
	return m.imageCount, nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockAttendanceRepo) Timesheet(ctx context.Context, workerID string, from, to time.Time) ([]models.TimesheetRow, error) {
	return m.rows, nil
}

type mockBreakRepo struct {
	open     map[string]*models.BreakInterval
	ledger   map[string][]models.BreakInterval
	inserted []string
}

func (m *mockBreakRepo) FindOpen(ctx context.Context, attendanceID string) (*models.BreakInterval, error) {
	if interval, ok := m.open[attendanceID]; ok {
		cp := *interval
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBreakRepo) Insert(ctx context.Context, attendanceID string, at time.Time) (*models.BreakInterval, error) {
	if m.open == nil {
		m.open = make(map[string]*models.BreakInterval)
	}
	interval := &models.BreakInterval{ID: "b-" + attendanceID, AttendanceID: attendanceID, BreakTime: at}
	m.open[attendanceID] = interval
	m.inserted = append(m.inserted, attendanceID)
	cp := *interval
	return &cp, nil
}

func (m *mockBreakRepo) Close(ctx context.Context, id string, resume time.Time) (*models.BreakInterval, error) {
	for attendanceID, interval := range m.open {
		if interval.ID == id {
			interval.ResumeTime = &resume
			if m.ledger == nil {
				m.ledger = make(map[string][]models.BreakInterval)
			}
			m.ledger[attendanceID] = append(m.ledger[attendanceID], *interval)
			delete(m.open, attendanceID)
			cp := *interval
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockBreakRepo) ListByRecord(ctx context.Context, attendanceID string) ([]models.BreakInterval, error) {
	return m.ledger[attendanceID], nil
}

type mockWorkerRepo struct {
	workers map[string]*models.Worker
}

func (m *mockWorkerRepo) FindByID(ctx context.Context, id string) (*models.Worker, error) {
	if worker, ok := m.workers[id]; ok {
		cp := *worker
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type stubCacheRepo struct {
	registered    []string
	invalidations int
}

func (s *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (s *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (s *stubCacheRepo) Register(ctx context.Context, registry, key string) error {
	s.registered = append(s.registered, key)
	return nil
}

func (s *stubCacheRepo) InvalidateRegistered(ctx context.Context, registry string) error {
	s.invalidations++
	return nil
}

// memoryCacheRepo round-trips stored values through JSON so cached views
// can actually be served back, unlike stubCacheRepo which always misses.
type memoryCacheRepo struct {
	entries    map[string][]byte
	registered []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	payload, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = payload
	return nil
}

func (m *memoryCacheRepo) Register(ctx context.Context, registry, key string) error {
	m.registered = append(m.registered, key)
	return nil
}

func (m *memoryCacheRepo) InvalidateRegistered(ctx context.Context, registry string) error {
	m.entries = make(map[string][]byte)
	m.registered = nil
	return nil
}

func newCachedAttendanceFixture(t *testing.T) (*AttendanceService, *mockAttendanceRepo, *memoryCacheRepo) {
	t.Helper()
	records := &mockAttendanceRepo{nextID: "att-1"}
	workers := &mockWorkerRepo{workers: map[string]*models.Worker{
		"w1": {ID: "w1", Labels: []string{"day", "full_time"}},
	}}
	cacheRepo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewAttendanceService(records, &mockBreakRepo{}, workers, newTestSchedule(t), cacheSvc,
		validator.New(), zap.NewNop(), config.AttendanceConfig{ReportMaxLength: 255, MaxReportImages: 4}, 0)
	return svc, records, cacheRepo
}

func newAttendanceFixture(t *testing.T) (*AttendanceService, *mockAttendanceRepo, *mockBreakRepo, *stubCacheRepo) {
	t.Helper()
	records := &mockAttendanceRepo{nextID: "att-1"}
	breaks := &mockBreakRepo{}
	workers := &mockWorkerRepo{workers: map[string]*models.Worker{
		"w1": {ID: "w1", Labels: []string{"day", "full_time"}},
		"w2": {ID: "w2", Labels: []string{"late", "part_time"}},
		"w3": {ID: "w3", Labels: []string{"ops-team"}},
	}}
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewAttendanceService(records, breaks, workers, newTestSchedule(t), cacheSvc,
		validator.New(), zap.NewNop(), config.AttendanceConfig{ReportMaxLength: 255, MaxReportImages: 4}, 0)
	return svc, records, breaks, cacheRepo
}

func TestAttendanceServiceClockInClampsEarlyArrival(t *testing.T) {
	svc, records, _, cacheRepo := newAttendanceFixture(t)

	at := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, at)
	require.NoError(t, err)

	require.NotNil(t, record.TimeIn)
	require.NotNil(t, record.CountedTimeIn)
	assert.Equal(t, at, *record.TimeIn)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), *record.CountedTimeIn)
	assert.Len(t, records.items, 1)
	assert.Equal(t, 1, cacheRepo.invalidations)
}

func TestAttendanceServiceClockInDuplicateOpenConflicts(t *testing.T) {
	svc, records, _, cacheRepo := newAttendanceFixture(t)
	records.createErr = repository.ErrDuplicateOpen

	_, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Zero(t, cacheRepo.invalidations)
}

func TestAttendanceServiceClockInWithoutShiftLabelFails(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t)

	_, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w3"}, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceStartBreakTwiceConflicts(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t)

	at := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, at)
	require.NoError(t, err)

	_, err = svc.StartBreak(context.Background(), "w1", record.ID, at.Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.StartBreak(context.Background(), "w1", record.ID, at.Add(2*time.Hour))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceResumeWithoutOpenBreakConflicts(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t)

	at := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, at)
	require.NoError(t, err)

	_, err = svc.Resume(context.Background(), "w1", record.ID, at.Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceResumeBeforeBreakRejected(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t)

	at := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, at)
	require.NoError(t, err)
	_, err = svc.StartBreak(context.Background(), "w1", record.ID, at.Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.Resume(context.Background(), "w1", record.ID, at.Add(30*time.Minute))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceClockOutAccountsBreaksAndOvertime(t *testing.T) {
	svc, records, _, cacheRepo := newAttendanceFixture(t)

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, in)
	require.NoError(t, err)

	_, err = svc.StartBreak(context.Background(), "w1", record.ID, in.Add(4*time.Hour))
	require.NoError(t, err)
	_, err = svc.Resume(context.Background(), "w1", record.ID, in.Add(4*time.Hour+30*time.Minute))
	require.NoError(t, err)

	report := "wrapped up the quarterly numbers"
	out := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	view, err := svc.ClockOut(context.Background(), "w1", ClockOutRequest{
		RecordID: record.ID,
		Report:   &report,
		Images:   []string{"img-1", "img-2"},
	}, out)
	require.NoError(t, err)

	assert.Equal(t, models.AttendanceClosed, view.State)
	require.NotNil(t, view.Record.CountedSeconds)
	// 08:00 to 17:00 minus a 30 minute break.
	assert.Equal(t, int64(8*3600+1800), *view.Record.CountedSeconds)
	require.NotNil(t, view.Record.MeetsRequired)
	assert.True(t, *view.Record.MeetsRequired)
	assert.True(t, view.Record.IsOvertime)
	assert.Equal(t, []string{"img-1", "img-2"}, records.images[record.ID])
	// Invalidations: clock-in, break, resume, clock-out.
	assert.Equal(t, 4, cacheRepo.invalidations)
}

func TestAttendanceServiceClockOutWhileOnBreakConflicts(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t)

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, in)
	require.NoError(t, err)
	_, err = svc.StartBreak(context.Background(), "w1", record.ID, in.Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.ClockOut(context.Background(), "w1", ClockOutRequest{RecordID: record.ID}, in.Add(9*time.Hour))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceClockOutTooManyImagesRejected(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t)

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, in)
	require.NoError(t, err)

	_, err = svc.ClockOut(context.Background(), "w1", ClockOutRequest{
		RecordID: record.ID,
		Images:   []string{"a", "b", "c", "d", "e"},
	}, in.Add(9*time.Hour))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceClockOutImageCapLeavesRecordOpen(t *testing.T) {
	svc, records, _, _ := newAttendanceFixture(t)

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, in)
	require.NoError(t, err)

	// Three already attached plus two new exceeds the cap of four; the
	// record must stay open because nothing may commit first.
	records.imageCount = 3
	_, err = svc.ClockOut(context.Background(), "w1", ClockOutRequest{
		RecordID: record.ID,
		Images:   []string{"img-1", "img-2"},
	}, in.Add(9*time.Hour))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, records.closed)
	assert.Empty(t, records.images)
}

func TestAttendanceServiceClockOutOnLeaveRecordConflicts(t *testing.T) {
	svc, records, _, _ := newAttendanceFixture(t)

	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	reason := "family"
	records.items = map[string]*models.AttendanceRecord{
		"leave-1": {ID: "leave-1", WorkerID: "w1", WorkDate: day, AbsenceDate: &day, AbsenceReason: &reason},
	}

	_, err := svc.ClockOut(context.Background(), "w1", ClockOutRequest{RecordID: "leave-1"}, day.Add(17*time.Hour))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceTodayNotFound(t *testing.T) {
	svc, _, _, _ := newAttendanceFixture(t)

	_, err := svc.Today(context.Background(), "w1", time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceTodayDerivesOnBreakState(t *testing.T) {
	svc, _, breaks, _ := newAttendanceFixture(t)

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, in)
	require.NoError(t, err)
	_, err = svc.StartBreak(context.Background(), "w1", record.ID, in.Add(time.Hour))
	require.NoError(t, err)

	// ListByRecord feeds the state derivation, so surface the open interval.
	breaks.ledger = map[string][]models.BreakInterval{
		record.ID: {*breaks.open[record.ID]},
	}

	view, err := svc.Today(context.Background(), "w1", in)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceOnBreak, view.State)
}

func TestAttendanceServiceTodayCachesView(t *testing.T) {
	svc, records, cacheRepo := newCachedAttendanceFixture(t)

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, in)
	require.NoError(t, err)

	first, err := svc.Today(context.Background(), "w1", in)
	require.NoError(t, err)
	assert.Equal(t, record.ID, first.Record.ID)
	require.Len(t, cacheRepo.registered, 1)

	// The repeat read is served from the cache, not the repository.
	delete(records.items, record.ID)
	second, err := svc.Today(context.Background(), "w1", in)
	require.NoError(t, err)
	assert.Equal(t, record.ID, second.Record.ID)
	assert.Equal(t, models.AttendanceOpen, second.State)
}

func TestAttendanceServiceWriteInvalidatesCachedToday(t *testing.T) {
	svc, _, cacheRepo := newCachedAttendanceFixture(t)

	in := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record, err := svc.ClockIn(context.Background(), ClockInRequest{WorkerID: "w1"}, in)
	require.NoError(t, err)

	_, err = svc.Today(context.Background(), "w1", in)
	require.NoError(t, err)
	require.Len(t, cacheRepo.entries, 1)

	_, err = svc.StartBreak(context.Background(), "w1", record.ID, in.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, cacheRepo.entries)
	assert.Empty(t, cacheRepo.registered)
}

func TestAttendanceServiceListCachesPage(t *testing.T) {
	svc, records, cacheRepo := newCachedAttendanceFixture(t)
	records.listResult = []models.AttendanceRecord{{ID: "att-1", WorkerID: "w1"}}
	records.listTotal = 1

	filter := models.AttendanceFilter{WorkerID: "w1"}
	rows, pagination, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	require.Len(t, cacheRepo.registered, 1)

	// The cached page survives a repository change until invalidated.
	records.listResult = nil
	records.listTotal = 0
	rows, pagination, err = svc.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}
