package dashboard

import (
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
)

// LowAttendanceStudent flags a student whose trailing-30-day present
// percentage sits below the cutoff.
type LowAttendanceStudent struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	StudentID            string  `json:"student_id"`
	Class                string  `json:"class"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// AdminData is the system-wide rollup.
type AdminData struct {
	TotalStudents     int                          `json:"total_students"`
	TotalTeachers     int                          `json:"total_teachers"`
	TodayPresent      int                          `json:"today_present"`
	TodayAbsent       int                          `json:"today_absent"`
	TodayTotal        int                          `json:"today_total"`
	MonthlySummary    []attendance.StudentSummary  `json:"monthly_summary"`
	ClassDistribution []student.ClassCount         `json:"class_distribution"`
	RecentActivities  []attendance.Record          `json:"recent_activities"`
	LowAttendance     []LowAttendanceStudent       `json:"low_attendance_students"`
}

// TeacherData is the same shape scoped to one teacher's roster.
type TeacherData struct {
	TotalStudents     int                    `json:"total_students"`
	TodayPresent      int                    `json:"today_present"`
	TodayAbsent       int                    `json:"today_absent"`
	TodayTotal        int                    `json:"today_total"`
	RecentAttendance  []attendance.Record    `json:"recent_attendance"`
	ClassDistribution []student.ClassCount   `json:"class_distribution"`
	LowAttendance     []LowAttendanceStudent `json:"low_attendance_students"`
}
