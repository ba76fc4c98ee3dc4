package student

import (
	"time"

	"github.com/trezcool/mahudhurio/core"
)

type Student struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Class       string     `json:"class"`
	Section     string     `json:"section,omitempty"`
	RollNumber  string     `json:"roll_number,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Address     string     `json:"address,omitempty"`
	ParentName  string     `json:"parent_name,omitempty"`
	ParentPhone string     `json:"parent_phone,omitempty"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC

	// AssignedTeacher is a soft reference to a teacher User; it is never
	// validated against existence and deleting the teacher leaves it dangling.
	AssignedTeacher string `json:"assigned_teacher,omitempty"`

	// Teacher is populated on reads when AssignedTeacher resolves.
	Teacher *TeacherInfo `json:"teacher,omitempty"`
}

// TeacherInfo is the subset of the assigned teacher attached to student reads.
type TeacherInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
}

// ClassCount is the number of students in one class label.
type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

// NewStudent holds the allowed fields for student creation.
type NewStudent struct {
	StudentID       string `json:"student_id" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Class           string `json:"class" validate:"required"`
	Section         string `json:"section"`
	RollNumber      string `json:"roll_number"`
	AssignedTeacher string `json:"assigned_teacher"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address         string `json:"address"`
	ParentName      string `json:"parent_name"`
	ParentPhone     string `json:"parent_phone"`
}

func (ns *NewStudent) Clean() {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Class = core.CleanString(ns.Class)
	ns.Section = core.CleanString(ns.Section)
}

// UpdateStudent holds the allow-listed fields for updates; empty fields are left untouched.
type UpdateStudent struct {
	StudentID       string `json:"student_id"`
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone"`
	Class           string `json:"class"`
	Section         string `json:"section"`
	RollNumber      string `json:"roll_number"`
	AssignedTeacher string `json:"assigned_teacher"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address         string `json:"address"`
	ParentName      string `json:"parent_name"`
	ParentPhone     string `json:"parent_phone"`
}

func (us *UpdateStudent) Clean() {
	us.StudentID = core.CleanString(us.StudentID)
	us.Name = core.CleanString(us.Name)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.Class = core.CleanString(us.Class)
	us.Section = core.CleanString(us.Section)
}

// QueryFilter applies an AND operation on available fields.
// Search does a case-insensitive match on one of Name, Email or StudentID;
// Class does a case-insensitive substring match on the class label.
type QueryFilter struct {
	Search string `json:"search" query:"search"`
	Class  string `json:"class" query:"class"`
	Page   int    `json:"page" query:"page"`
	Limit  int    `json:"limit" query:"limit"`
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Class = core.CleanString(f.Class)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 100
	}
}
