package models

import "strings"

// ShiftType identifies a scheduled shift window.
type ShiftType string

const (
	ShiftEarly     ShiftType = "early"
	ShiftDay       ShiftType = "day"
	ShiftAfternoon ShiftType = "afternoon"
	ShiftEvening   ShiftType = "evening"
	ShiftLate      ShiftType = "late"
)

// Valid returns true when the shift is a supported value.
func (s ShiftType) Valid() bool {
	switch s {
	case ShiftEarly, ShiftDay, ShiftAfternoon, ShiftEvening, ShiftLate:
		return true
	default:
		return false
	}
}

// EmploymentType identifies the contract kind driving required hours.
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full_time"
	EmploymentPartTime EmploymentType = "part_time"
)

// Valid returns true when the employment type is a supported value.
func (e EmploymentType) Valid() bool {
	return e == EmploymentFullTime || e == EmploymentPartTime
}

// ShiftAssignment is the resolved (shift, employment) pair for one worker.
// It is derived from the worker's role labels exactly once and passed
// explicitly into the time accounting code.
type ShiftAssignment struct {
	Shift      ShiftType      `json:"shift"`
	Employment EmploymentType `json:"employment"`
}

// ResolveShiftAssignment scans a worker's role labels for shift and
// employment markers. Unknown labels are ignored; an absent marker leaves
// the zero value in place so the schedule lookup can reject it.
func ResolveShiftAssignment(labels []string) ShiftAssignment {
	var assignment ShiftAssignment
	for _, label := range labels {
		normalized := strings.ToLower(strings.TrimSpace(label))
		if shift := ShiftType(normalized); shift.Valid() {
			assignment.Shift = shift
			continue
		}
		if employment := EmploymentType(normalized); employment.Valid() {
			assignment.Employment = employment
		}
	}
	return assignment
}
