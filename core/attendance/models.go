package attendance

import (
	"time"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Record is one attendance decision for one student on one calendar day.
// At most one record exists per (student, date) pair; the storage layer
// enforces this with a unique constraint, not with read-then-write checks.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student"`
	TeacherID string    `json:"teacher"` // the recorder, not necessarily the assigned teacher
	Date      time.Time `json:"date"`    // midnight UTC of the calendar day
	Status    string    `json:"status"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC

	// Populated on reads when the soft references still resolve.
	Student *StudentInfo `json:"student_info,omitempty"`
	Teacher *TeacherInfo `json:"teacher_info,omitempty"`
}

// StudentInfo is the subset of the student attached to record reads.
type StudentInfo struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	Section   string `json:"section,omitempty"`
}

// TeacherInfo is the subset of the recording teacher attached to record reads.
type TeacherInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewRecord holds the allowed fields for marking a single day.
type NewRecord struct {
	Student string `json:"student" validate:"required"`
	Date    string `json:"date" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=present absent"`
	Remarks string `json:"remarks"`
}

// UpdateRecord holds the allow-listed fields for in-place updates.
type UpdateRecord struct {
	Status  *string `json:"status" validate:"omitempty,oneof=present absent"`
	Remarks *string `json:"remarks"`
}

// BulkEntry is one (student, date, status, remarks) tuple of a bulk upsert.
type BulkEntry struct {
	Student string `json:"student"`
	Date    string `json:"date"`
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

// BulkError reports a tuple that could not be applied; the remaining
// tuples of the same call are unaffected.
type BulkError struct {
	Index   int    `json:"index"`
	Student string `json:"student,omitempty"`
	Error   string `json:"error"`
}

// BulkResult distinguishes overwritten records from newly created ones.
type BulkResult struct {
	Modified int         `json:"modified"`
	Inserted int         `json:"upserted"`
	Errors   []BulkError `json:"errors,omitempty"`
}

// Summary aggregates one student's records over a window.
type Summary struct {
	Total             int     `json:"total"`
	Present           int     `json:"present"`
	Absent            int     `json:"absent"`
	PresentPercentage float64 `json:"present_percentage"`
}

// StudentSummary is a per-student rollup with the student attached.
type StudentSummary struct {
	Student           StudentInfo `json:"student"`
	Present           int         `json:"present"`
	Absent            int         `json:"absent"`
	Total             int         `json:"total"`
	PresentPercentage float64     `json:"present_percentage"`
}

// Filter applies an AND operation on available fields.
// [From, To) is a half-open interval over normalized days; a zero To means unbounded.
type Filter struct {
	From           time.Time
	To             time.Time
	TeacherID      string
	StudentID      string
	StudentIDs     []string // nil: all; non-nil: restrict to these ids
	Class          string   // case-insensitive substring match on the student's class
	OrderByCreated bool     // newest created first instead of date descending
	Limit          int
}
