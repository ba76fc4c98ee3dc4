package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
	"github.com/trezcool/mahudhurio/core/user"
)

const (
	lowAttendanceCutoff = 75.0 // percent, over the trailing window
	trailingWindowDays  = 30   // from the moment of the query, not calendar-aligned

	topSummaryLimit    = 5
	recentLimit        = 5
	lowAttendanceLimit = 10
)

var NowFunc = time.Now // mockable

// Service derives read-only rollups straight from the repositories;
// nothing is cached, every request recomputes.
type Service struct {
	usrRepo user.Repository
	stdRepo student.Repository
	attRepo attendance.Repository
}

func NewService(usrRepo user.Repository, stdRepo student.Repository, attRepo attendance.Repository) *Service {
	return &Service{usrRepo: usrRepo, stdRepo: stdRepo, attRepo: attRepo}
}

// AdminData assembles the system-wide dashboard.
func (svc *Service) AdminData(ctx context.Context) (*AdminData, error) {
	now := NowFunc().UTC()
	today := core.BeginningOfDay(now)
	windowStart := today.AddDate(0, 0, -trailingWindowDays)

	data := new(AdminData)

	var err error
	if data.TotalStudents, err = svc.stdRepo.CountStudents(ctx); err != nil {
		return nil, errors.Wrap(err, "counting students")
	}
	if data.TotalTeachers, err = svc.usrRepo.CountUsersByRole(ctx, user.RoleTeacher); err != nil {
		return nil, errors.Wrap(err, "counting teachers")
	}

	data.TodayPresent, data.TodayAbsent, data.TodayTotal, err = svc.attRepo.CountByStatus(
		ctx, attendance.Filter{From: today, To: core.NextDay(now)})
	if err != nil {
		return nil, errors.Wrap(err, "counting today's records")
	}

	summaries, err := svc.attRepo.StudentSummaries(ctx, attendance.Filter{From: windowStart})
	if err != nil {
		return nil, errors.Wrap(err, "summarizing trailing window")
	}
	data.MonthlySummary = topByPresent(summaries, topSummaryLimit)
	data.LowAttendance = lowAttendance(summaries, lowAttendanceLimit)

	if data.ClassDistribution, err = svc.stdRepo.ClassDistribution(ctx, ""); err != nil {
		return nil, errors.Wrap(err, "grouping classes")
	}

	data.RecentActivities, err = svc.attRepo.FilterRecords(ctx, attendance.Filter{
		OrderByCreated: true,
		Limit:          recentLimit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing recent records")
	}
	return data, nil
}

// TeacherData assembles the dashboard scoped to one teacher's roster.
func (svc *Service) TeacherData(ctx context.Context, teacherID string) (*TeacherData, error) {
	now := NowFunc().UTC()
	today := core.BeginningOfDay(now)
	windowStart := today.AddDate(0, 0, -trailingWindowDays)

	roster, err := svc.stdRepo.StudentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "loading roster")
	}
	studentIDs := make([]string, 0, len(roster))
	for _, std := range roster {
		studentIDs = append(studentIDs, std.ID)
	}

	data := &TeacherData{TotalStudents: len(roster)}

	data.TodayPresent, data.TodayAbsent, data.TodayTotal, err = svc.attRepo.CountByStatus(
		ctx, attendance.Filter{From: today, To: core.NextDay(now), StudentIDs: studentIDs})
	if err != nil {
		return nil, errors.Wrap(err, "counting today's records")
	}

	data.RecentAttendance, err = svc.attRepo.FilterRecords(ctx, attendance.Filter{
		TeacherID:      teacherID,
		StudentIDs:     studentIDs,
		OrderByCreated: true,
		Limit:          recentLimit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing recent records")
	}

	if data.ClassDistribution, err = svc.stdRepo.ClassDistribution(ctx, teacherID); err != nil {
		return nil, errors.Wrap(err, "grouping classes")
	}

	summaries, err := svc.attRepo.StudentSummaries(ctx, attendance.Filter{
		From:       windowStart,
		StudentIDs: studentIDs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "summarizing trailing window")
	}
	data.LowAttendance = lowAttendance(summaries, lowAttendanceLimit)
	return data, nil
}

// topByPresent returns the `limit` best summaries by present count, descending.
func topByPresent(summaries []attendance.StudentSummary, limit int) []attendance.StudentSummary {
	top := make([]attendance.StudentSummary, len(summaries))
	copy(top, summaries)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Present > top[j].Present })
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

// lowAttendance keeps summaries under the cutoff, percentage ascending, capped at `limit`.
func lowAttendance(summaries []attendance.StudentSummary, limit int) []LowAttendanceStudent {
	low := make([]LowAttendanceStudent, 0)
	for _, s := range summaries {
		if s.PresentPercentage < lowAttendanceCutoff {
			low = append(low, LowAttendanceStudent{
				ID:                   s.Student.ID,
				Name:                 s.Student.Name,
				StudentID:            s.Student.StudentID,
				Class:                s.Student.Class,
				AttendancePercentage: s.PresentPercentage,
			})
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		return low[i].AttendancePercentage < low[j].AttendancePercentage
	})
	if len(low) > limit {
		low = low[:limit]
	}
	return low
}
