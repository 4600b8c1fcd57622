package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/hr-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRowColumns() []string {
	return []string{
		"id", "worker_id", "work_date", "time_in", "time_out", "counted_time_in", "counted_time_out",
		"time_in_evidence", "time_out_evidence", "report", "is_overtime", "counted_seconds", "meets_required",
		"absence_date", "absence_reason", "absence_approved_at", "absence_approved_by",
		"created_at", "updated_at", "deleted_at",
	}
}

func addAttendanceRow(rows *sqlmock.Rows, id, workerID string, workDate time.Time) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, workerID, workDate, workDate.Add(8*time.Hour), nil, workDate.Add(8*time.Hour), nil,
		nil, nil, nil, false, nil, nil, nil, nil, nil, nil, now, now, nil)
}

func TestAttendanceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	in := day.Add(8 * time.Hour)
	rows := addAttendanceRow(sqlmock.NewRows(attendanceRowColumns()), "att-1", "w1", day)
	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "w1", day, in, in, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Create(context.Background(), &models.AttendanceRecord{
		WorkerID:      "w1",
		WorkDate:      day,
		TimeIn:        &in,
		CountedTimeIn: &in,
	})
	require.NoError(t, err)
	assert.Equal(t, "att-1", stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreateDuplicateOpen(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance_records").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_attendance_open"})

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	in := day.Add(8 * time.Hour)
	_, err := repo.Create(context.Background(), &models.AttendanceRecord{
		WorkerID: "w1", WorkDate: day, TimeIn: &in, CountedTimeIn: &in,
	})
	require.ErrorIs(t, err, ErrDuplicateOpen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByIDScopesWorker(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("(?s)SELECT .+ FROM attendance_records WHERE id = \\$1 AND deleted_at IS NULL AND worker_id = \\$2").
		WithArgs("att-1", "w2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "att-1", "w2")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCloseOnlyOpenRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	out := day.Add(16 * time.Hour)
	counted := int64(8 * 3600)
	meets := true
	rows := addAttendanceRow(sqlmock.NewRows(attendanceRowColumns()), "att-1", "w1", day)
	mock.ExpectQuery("(?s)UPDATE attendance_records.+WHERE id = \\$1 AND time_out IS NULL AND deleted_at IS NULL").
		WithArgs("att-1", out, out, nil, nil, false, counted, meets, sqlmock.AnyArg()).
		WillReturnRows(rows)

	_, err := repo.Close(context.Background(), &models.AttendanceRecord{
		ID: "att-1", TimeOut: &out, CountedTimeOut: &out, CountedSeconds: &counted, MeetsRequired: &meets,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySoftDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_records SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListFiltersAndCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := addAttendanceRow(sqlmock.NewRows(attendanceRowColumns()), "att-1", "w1", day)
	mock.ExpectQuery("(?s)SELECT .+ FROM attendance_records WHERE deleted_at IS NULL AND worker_id = \\$1 ORDER BY work_date DESC LIMIT 50 OFFSET 0").
		WithArgs("w1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendance_records WHERE deleted_at IS NULL AND worker_id = $1")).
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.AttendanceFilter{WorkerID: "w1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListIgnoresUnknownSortColumn(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("ORDER BY work_date DESC").
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns()))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.AttendanceFilter{SortBy: "report; DROP TABLE x"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryTimesheetSumsBreaks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	in := day.Add(8 * time.Hour)
	out := day.Add(16 * time.Hour)
	counted := int64(27000)
	rows := sqlmock.NewRows([]string{"work_date", "counted_time_in", "counted_time_out", "break_seconds", "counted_seconds", "is_overtime", "absence_reason"}).
		AddRow(day, in, out, int64(1800), counted, false, nil)
	mock.ExpectQuery("LEFT JOIN break_intervals").
		WithArgs("w1", day, day.AddDate(0, 0, 7)).
		WillReturnRows(rows)

	sheet, err := repo.Timesheet(context.Background(), "w1", day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, sheet, 1)
	assert.Equal(t, int64(1800), sheet[0].BreakSeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}
