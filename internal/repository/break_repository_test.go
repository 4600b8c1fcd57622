package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakRepositoryFindOpenNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBreakRepository(db)

	mock.ExpectQuery("(?s)FROM break_intervals WHERE attendance_id = \\$1 AND resume_time IS NULL").
		WithArgs("att-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindOpen(context.Background(), "att-1")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBreakRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBreakRepository(db)

	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO break_intervals (id, attendance_id, break_time, created_at) VALUES ($1, $2, $3, $4)")).
		WithArgs(sqlmock.AnyArg(), "att-1", at, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	interval, err := repo.Insert(context.Background(), "att-1", at)
	require.NoError(t, err)
	assert.Equal(t, "att-1", interval.AttendanceID)
	assert.Equal(t, at, interval.BreakTime)
	assert.Nil(t, interval.ResumeTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBreakRepositoryCloseStampsResume(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBreakRepository(db)

	breakAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	resume := breakAt.Add(30 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "attendance_id", "break_time", "resume_time", "created_at"}).
		AddRow("b1", "att-1", breakAt, resume, breakAt)
	mock.ExpectQuery("(?s)UPDATE break_intervals SET resume_time = \\$2 WHERE id = \\$1 AND resume_time IS NULL").
		WithArgs("b1", resume).
		WillReturnRows(rows)

	interval, err := repo.Close(context.Background(), "b1", resume)
	require.NoError(t, err)
	require.NotNil(t, interval.ResumeTime)
	assert.Equal(t, resume, *interval.ResumeTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBreakRepositoryListByRecordKeepsInsertionOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBreakRepository(db)

	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	resume := base.Add(15 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "attendance_id", "break_time", "resume_time", "created_at"}).
		AddRow("b1", "att-1", base, resume, base).
		AddRow("b2", "att-1", base.Add(time.Hour), nil, base.Add(time.Hour))
	mock.ExpectQuery("(?s)FROM break_intervals WHERE attendance_id = \\$1 ORDER BY created_at ASC").
		WithArgs("att-1").
		WillReturnRows(rows)

	intervals, err := repo.ListByRecord(context.Background(), "att-1")
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.Equal(t, "b1", intervals[0].ID)
	assert.True(t, intervals[0].Closed())
	assert.False(t, intervals[1].Closed())
	assert.NoError(t, mock.ExpectationsWereMet())
}
