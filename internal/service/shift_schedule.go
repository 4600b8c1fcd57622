package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/worklane/hr-api/internal/models"
	"github.com/worklane/hr-api/pkg/config"
	appErrors "github.com/worklane/hr-api/pkg/errors"
)

// shiftWindow is a nominal clock-in/clock-out pair expressed as minutes from
// midnight. A window whose end is at or before its start crosses midnight
// and resolves its clock-out on the day after clock-in.
type shiftWindow struct {
	startMinute     int
	endMinute       int
	crossesMidnight bool
}

// ShiftSchedule is the static table mapping shift types to nominal windows
// and employment types to required hours. Loaded once at startup and
// read-only afterwards.
type ShiftSchedule struct {
	windows  map[models.ShiftType]shiftWindow
	required map[models.EmploymentType]time.Duration
}

// NewShiftSchedule parses the configured windows. Windows use the
// "HH:MM-HH:MM" form; a malformed entry fails startup.
func NewShiftSchedule(cfg config.ShiftsConfig) (*ShiftSchedule, error) {
	windows := make(map[models.ShiftType]shiftWindow, len(cfg.Windows))
	for name, raw := range cfg.Windows {
		shift := models.ShiftType(name)
		if !shift.Valid() {
			return nil, fmt.Errorf("unknown shift type in configuration: %q", name)
		}
		window, err := parseWindow(raw)
		if err != nil {
			return nil, fmt.Errorf("shift %s: %w", name, err)
		}
		windows[shift] = window
	}
	return &ShiftSchedule{
		windows: windows,
		required: map[models.EmploymentType]time.Duration{
			models.EmploymentFullTime: cfg.FullTimeRequired,
			models.EmploymentPartTime: cfg.PartTimeRequired,
		},
	}, nil
}

func parseWindow(raw string) (shiftWindow, error) {
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return shiftWindow{}, fmt.Errorf("window %q must be HH:MM-HH:MM", raw)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return shiftWindow{}, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return shiftWindow{}, err
	}
	return shiftWindow{
		startMinute:     start,
		endMinute:       end,
		crossesMidnight: end <= start,
	}, nil
}

func parseClock(raw string) (int, error) {
	pieces := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(pieces) != 2 {
		return 0, fmt.Errorf("clock value %q must be HH:MM", raw)
	}
	hour, err := strconv.Atoi(pieces[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("clock value %q has an invalid hour", raw)
	}
	minute, err := strconv.Atoi(pieces[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value %q has an invalid minute", raw)
	}
	return hour*60 + minute, nil
}

func (s *ShiftSchedule) window(shift models.ShiftType) (shiftWindow, error) {
	window, ok := s.windows[shift]
	if !ok {
		return shiftWindow{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("no schedule configured for shift %q", shift))
	}
	return window, nil
}

// NominalTimeIn returns the scheduled start for the calendar day of at.
func (s *ShiftSchedule) NominalTimeIn(shift models.ShiftType, at time.Time) (time.Time, error) {
	window, err := s.window(shift)
	if err != nil {
		return time.Time{}, err
	}
	return atMinute(at, window.startMinute), nil
}

// NominalTimeOut returns the scheduled end resolved against the calendar
// day of clock-in, not clock-out. Shifts crossing midnight end on the
// following day.
func (s *ShiftSchedule) NominalTimeOut(shift models.ShiftType, dayOfTimeIn time.Time) (time.Time, error) {
	window, err := s.window(shift)
	if err != nil {
		return time.Time{}, err
	}
	out := atMinute(dayOfTimeIn, window.endMinute)
	if window.crossesMidnight {
		out = out.AddDate(0, 0, 1)
	}
	return out, nil
}

// RequiredHours returns the counted-duration threshold for the employment
// type. Unknown types require zero, which every duration satisfies.
func (s *ShiftSchedule) RequiredHours(employment models.EmploymentType) time.Duration {
	return s.required[employment]
}

func atMinute(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, day.Location())
}
