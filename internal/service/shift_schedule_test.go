package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/hr-api/internal/models"
	"github.com/worklane/hr-api/pkg/config"
	appErrors "github.com/worklane/hr-api/pkg/errors"
)

func testShiftsConfig() config.ShiftsConfig {
	return config.ShiftsConfig{
		Windows: map[string]string{
			"early":     "04:00-08:00",
			"day":       "08:00-16:00",
			"afternoon": "12:00-20:00",
			"evening":   "16:00-00:00",
			"late":      "20:00-04:00",
		},
		FullTimeRequired: 8 * time.Hour,
		PartTimeRequired: 4 * time.Hour,
	}
}

func newTestSchedule(t *testing.T) *ShiftSchedule {
	t.Helper()
	schedule, err := NewShiftSchedule(testShiftsConfig())
	require.NoError(t, err)
	return schedule
}

func TestNewShiftScheduleRejectsMalformedWindow(t *testing.T) {
	cfg := testShiftsConfig()
	cfg.Windows["day"] = "08:00"
	_, err := NewShiftSchedule(cfg)
	require.Error(t, err)

	cfg = testShiftsConfig()
	cfg.Windows["day"] = "25:00-16:00"
	_, err = NewShiftSchedule(cfg)
	require.Error(t, err)
}

func TestNewShiftScheduleRejectsUnknownShiftName(t *testing.T) {
	cfg := testShiftsConfig()
	cfg.Windows["graveyard"] = "22:00-06:00"
	_, err := NewShiftSchedule(cfg)
	require.Error(t, err)
}

func TestNominalTimeInUsesDayOfTimestamp(t *testing.T) {
	schedule := newTestSchedule(t)

	at := time.Date(2026, 3, 10, 7, 15, 0, 0, time.UTC)
	nominal, err := schedule.NominalTimeIn(models.ShiftDay, at)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), nominal)
}

func TestNominalTimeOutResolvesAgainstClockInDay(t *testing.T) {
	schedule := newTestSchedule(t)
	dayOfIn := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	out, err := schedule.NominalTimeOut(models.ShiftDay, dayOfIn)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC), out)

	// The evening window ends at 00:00, so it crosses into the next day.
	out, err = schedule.NominalTimeOut(models.ShiftEvening, dayOfIn)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), out)

	out, err = schedule.NominalTimeOut(models.ShiftLate, dayOfIn)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 4, 0, 0, 0, time.UTC), out)
}

func TestWindowLookupMissingShiftIsConfigurationError(t *testing.T) {
	cfg := testShiftsConfig()
	delete(cfg.Windows, "late")
	schedule, err := NewShiftSchedule(cfg)
	require.NoError(t, err)

	_, err = schedule.NominalTimeIn(models.ShiftLate, time.Now())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErr.Code)
}

func TestRequiredHoursUnknownEmploymentIsZero(t *testing.T) {
	schedule := newTestSchedule(t)

	assert.Equal(t, 8*time.Hour, schedule.RequiredHours(models.EmploymentFullTime))
	assert.Equal(t, 4*time.Hour, schedule.RequiredHours(models.EmploymentPartTime))
	assert.Equal(t, time.Duration(0), schedule.RequiredHours(models.EmploymentType("contractor")))
}
