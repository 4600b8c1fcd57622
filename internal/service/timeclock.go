package service

import (
	"time"

	"github.com/worklane/hr-api/internal/models"
)

// ClampTimeIn produces the counted clock-in for a raw timestamp. A worker
// who arrives before the scheduled start is credited from the nominal start;
// a later arrival is credited at the actual time.
func (s *ShiftSchedule) ClampTimeIn(shift models.ShiftType, raw time.Time) (time.Time, error) {
	nominal, err := s.NominalTimeIn(shift, raw)
	if err != nil {
		return time.Time{}, err
	}
	if raw.Before(nominal) {
		return nominal, nil
	}
	return raw, nil
}

// ClampTimeOut produces the counted clock-out. Leaving before the scheduled
// end is bumped up to the nominal end; leaving later is credited at the
// actual time. The nominal end resolves against the calendar day of
// clock-in so late shifts account past midnight correctly.
func (s *ShiftSchedule) ClampTimeOut(shift models.ShiftType, raw, timeIn time.Time) (time.Time, error) {
	nominal, err := s.NominalTimeOut(shift, timeIn)
	if err != nil {
		return time.Time{}, err
	}
	if raw.Before(nominal) {
		return nominal, nil
	}
	return raw, nil
}

// IsOvertime reports whether a raw clock-out exceeds the shift's nominal end
// by more than the configured tolerance.
func (s *ShiftSchedule) IsOvertime(shift models.ShiftType, raw, timeIn time.Time, tolerance time.Duration) (bool, error) {
	nominal, err := s.NominalTimeOut(shift, timeIn)
	if err != nil {
		return false, err
	}
	return raw.After(nominal.Add(tolerance)), nil
}

// TotalBreakDuration sums the paused time of every closed interval. Open
// intervals contribute zero until resumed. Interval order does not affect
// the sum; callers guarantee intervals do not overlap.
func TotalBreakDuration(breaks []models.BreakInterval) time.Duration {
	var total time.Duration
	for i := range breaks {
		total += breaks[i].Duration()
	}
	return total
}

// CountedWorkDuration combines the clamped window with the break ledger,
// floored at zero.
func CountedWorkDuration(countedIn, countedOut time.Time, totalBreak time.Duration) time.Duration {
	d := countedOut.Sub(countedIn) - totalBreak
	if d < 0 {
		return 0
	}
	return d
}

// MeetsRequiredHours compares a counted duration against the employment
// type's threshold.
func (s *ShiftSchedule) MeetsRequiredHours(employment models.EmploymentType, counted time.Duration) bool {
	return counted >= s.RequiredHours(employment)
}
