package models

import "time"

// AttendanceState describes the lifecycle position of an attendance record.
type AttendanceState string

const (
	AttendanceOpen     AttendanceState = "OPEN"
	AttendanceOnBreak  AttendanceState = "ON_BREAK"
	AttendanceClosed   AttendanceState = "CLOSED"
	AttendancePending  AttendanceState = "PENDING_APPROVAL"
	AttendanceApproved AttendanceState = "APPROVED"
)

// AttendanceRecord is one worker's record for a single work session or a
// single leave day. A record is either a worked day (time_in set,
// absence_date null) or a leave day (absence_date set), never both.
type AttendanceRecord struct {
	ID              string     `db:"id" json:"id"`
	WorkerID        string     `db:"worker_id" json:"worker_id"`
	WorkDate        time.Time  `db:"work_date" json:"work_date"`
	TimeIn          *time.Time `db:"time_in" json:"time_in,omitempty"`
	TimeOut         *time.Time `db:"time_out" json:"time_out,omitempty"`
	CountedTimeIn   *time.Time `db:"counted_time_in" json:"counted_time_in,omitempty"`
	CountedTimeOut  *time.Time `db:"counted_time_out" json:"counted_time_out,omitempty"`
	TimeInEvidence  *string    `db:"time_in_evidence" json:"time_in_evidence,omitempty"`
	TimeOutEvidence *string    `db:"time_out_evidence" json:"time_out_evidence,omitempty"`
	Report          *string    `db:"report" json:"report,omitempty"`
	IsOvertime      bool       `db:"is_overtime" json:"is_overtime"`
	CountedSeconds  *int64     `db:"counted_seconds" json:"counted_seconds,omitempty"`
	MeetsRequired   *bool      `db:"meets_required" json:"meets_required,omitempty"`

	AbsenceDate       *time.Time `db:"absence_date" json:"absence_date,omitempty"`
	AbsenceReason     *string    `db:"absence_reason" json:"absence_reason,omitempty"`
	AbsenceApprovedAt *time.Time `db:"absence_approved_at" json:"absence_approved_at,omitempty"`
	AbsenceApprovedBy *string    `db:"absence_approved_by" json:"absence_approved_by,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// IsLeave reports whether the record represents an absence day.
func (r *AttendanceRecord) IsLeave() bool {
	return r.AbsenceDate != nil
}

// State derives the lifecycle state. The caller supplies whether an open
// break interval exists, which the record itself does not carry.
func (r *AttendanceRecord) State(hasOpenBreak bool) AttendanceState {
	if r.IsLeave() {
		if r.AbsenceApprovedAt != nil {
			return AttendanceApproved
		}
		return AttendancePending
	}
	if r.TimeOut != nil {
		return AttendanceClosed
	}
	if hasOpenBreak {
		return AttendanceOnBreak
	}
	return AttendanceOpen
}

// BreakInterval is a break/resume pair attached to one attendance record.
// An interval without a resume time is open and contributes nothing to
// duration accounting until closed.
type BreakInterval struct {
	ID           string     `db:"id" json:"id"`
	AttendanceID string     `db:"attendance_id" json:"attendance_id"`
	BreakTime    time.Time  `db:"break_time" json:"break_time"`
	ResumeTime   *time.Time `db:"resume_time" json:"resume_time,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Closed reports whether the interval has been resumed.
func (b *BreakInterval) Closed() bool {
	return b.ResumeTime != nil
}

// Duration returns resume-break for closed intervals, zero otherwise.
func (b *BreakInterval) Duration() time.Duration {
	if b.ResumeTime == nil {
		return 0
	}
	d := b.ResumeTime.Sub(b.BreakTime)
	if d < 0 {
		return 0
	}
	return d
}

// ReportImage is an opaque media reference attached to a closed record.
type ReportImage struct {
	ID           string    `db:"id" json:"id"`
	AttendanceID string    `db:"attendance_id" json:"attendance_id"`
	Ref          string    `db:"ref" json:"ref"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AttendanceFilter scopes listing queries.
type AttendanceFilter struct {
	WorkerID  string
	DateFrom  *time.Time
	DateTo    *time.Time
	LeaveOnly bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TimesheetRow is one exported line of a worker's attendance history.
type TimesheetRow struct {
	WorkDate       time.Time  `db:"work_date" json:"work_date"`
	CountedTimeIn  *time.Time `db:"counted_time_in" json:"counted_time_in,omitempty"`
	CountedTimeOut *time.Time `db:"counted_time_out" json:"counted_time_out,omitempty"`
	BreakSeconds   int64      `db:"break_seconds" json:"break_seconds"`
	CountedSeconds *int64     `db:"counted_seconds" json:"counted_seconds,omitempty"`
	IsOvertime     bool       `db:"is_overtime" json:"is_overtime"`
	AbsenceReason  *string    `db:"absence_reason" json:"absence_reason,omitempty"`
}
