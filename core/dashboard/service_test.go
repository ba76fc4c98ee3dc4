package dashboard_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/dashboard"
	"github.com/trezcool/mahudhurio/core/student"
	"github.com/trezcool/mahudhurio/core/user"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
)

var frozenNow = time.Date(2021, 3, 15, 10, 30, 0, 0, time.UTC)

type testEnv struct {
	usrRepo user.Repository
	stdRepo student.Repository
	attRepo attendance.Repository
	svc     *dashboard.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	dashboard.NowFunc = func() time.Time { return frozenNow }
	t.Cleanup(func() { dashboard.NowFunc = time.Now })

	db, err := dummydb.Open()
	require.NoError(t, err)
	usrRepo := dummydb.NewUserRepository(db)
	stdRepo := dummydb.NewStudentRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	return &testEnv{
		usrRepo: usrRepo,
		stdRepo: stdRepo,
		attRepo: attRepo,
		svc:     dashboard.NewService(usrRepo, stdRepo, attRepo),
	}
}

func (env *testEnv) createTeacher(t *testing.T, name string) user.User {
	t.Helper()
	usr := user.User{
		Name:      name,
		Email:     strings.ToLower(name) + "@test.cd",
		Role:      user.RoleTeacher,
		CreatedAt: frozenNow,
		UpdatedAt: frozenNow,
	}
	usr.SetActive(true)
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}

func (env *testEnv) createStudent(t *testing.T, studentID, name, class, teacherID string) student.Student {
	t.Helper()
	std, err := env.stdRepo.CreateStudent(context.Background(), student.Student{
		StudentID:       studentID,
		Name:            name,
		Email:           strings.ToLower(name) + "@test.cd",
		Class:           class,
		Section:         "A",
		AssignedTeacher: teacherID,
		CreatedAt:       frozenNow,
		UpdatedAt:       frozenNow,
	})
	require.NoError(t, err)
	return std
}

// mark records `presentDays` present and `absentDays` absent days for the
// student, walking backwards from today.
func (env *testEnv) mark(t *testing.T, studentID, teacherID string, presentDays, absentDays int) {
	t.Helper()
	today := core.BeginningOfDay(frozenNow)
	day := 0
	for i := 0; i < presentDays; i++ {
		env.markOn(t, studentID, teacherID, today.AddDate(0, 0, -day), attendance.StatusPresent)
		day++
	}
	for i := 0; i < absentDays; i++ {
		env.markOn(t, studentID, teacherID, today.AddDate(0, 0, -day), attendance.StatusAbsent)
		day++
	}
}

func (env *testEnv) markOn(t *testing.T, studentID, teacherID string, date time.Time, status string) {
	t.Helper()
	_, err := env.attRepo.CreateRecord(context.Background(), attendance.Record{
		StudentID: studentID,
		TeacherID: teacherID,
		Date:      date,
		Status:    status,
		CreatedAt: date.Add(8 * time.Hour),
	})
	require.NoError(t, err)
}

func Test_service_AdminData(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	teacher := env.createTeacher(t, "Amani")
	env.createTeacher(t, "Bahati")

	// 7 students; the first two have perfect attendance, the rest sit under
	// the 75% cutoff with decreasing percentages.
	students := make([]student.Student, 0, 7)
	for i := 0; i < 7; i++ {
		std := env.createStudent(t, fmt.Sprintf("STD%03d", i+1), fmt.Sprintf("Student%d", i+1), "10", teacher.ID)
		students = append(students, std)
	}
	env.mark(t, students[0].ID, teacher.ID, 10, 0) // 100%
	env.mark(t, students[1].ID, teacher.ID, 8, 0)  // 100%
	env.mark(t, students[2].ID, teacher.ID, 7, 3)  // 70%
	env.mark(t, students[3].ID, teacher.ID, 6, 4)  // 60%
	env.mark(t, students[4].ID, teacher.ID, 5, 5)  // 50%
	env.mark(t, students[5].ID, teacher.ID, 4, 6)  // 40%
	env.mark(t, students[6].ID, teacher.ID, 3, 7)  // 30%

	data, err := env.svc.AdminData(ctx)
	require.NoError(t, err)

	assert.Equal(t, 7, data.TotalStudents)
	assert.Equal(t, 2, data.TotalTeachers)

	// every student was marked today (day offset 0 is always present)
	assert.Equal(t, 7, data.TodayPresent)
	assert.Equal(t, 0, data.TodayAbsent)
	assert.Equal(t, 7, data.TodayTotal)

	// top 5 by present count, descending
	require.Len(t, data.MonthlySummary, 5)
	assert.Equal(t, "Student1", data.MonthlySummary[0].Student.Name)
	assert.Equal(t, 10, data.MonthlySummary[0].Present)
	assert.Equal(t, "Student2", data.MonthlySummary[1].Student.Name)

	// below the 75% cutoff, percentage ascending
	require.Len(t, data.LowAttendance, 5)
	assert.Equal(t, "Student7", data.LowAttendance[0].Name)
	assert.Equal(t, 30.0, data.LowAttendance[0].AttendancePercentage)
	assert.Equal(t, "Student3", data.LowAttendance[4].Name)
	assert.Equal(t, 70.0, data.LowAttendance[4].AttendancePercentage)

	require.Len(t, data.ClassDistribution, 1)
	assert.Equal(t, "10", data.ClassDistribution[0].Class)
	assert.Equal(t, 7, data.ClassDistribution[0].Count)

	assert.Len(t, data.RecentActivities, 5)
}

func Test_service_AdminData_exactCutoffIsNotLow(t *testing.T) {
	env := setup(t)
	teacher := env.createTeacher(t, "Amani")
	std := env.createStudent(t, "STD001", "Baraka", "10", teacher.ID)
	env.mark(t, std.ID, teacher.ID, 3, 1) // exactly 75%

	data, err := env.svc.AdminData(context.Background())
	require.NoError(t, err)
	assert.Empty(t, data.LowAttendance)
}

func Test_service_AdminData_empty(t *testing.T) {
	env := setup(t)

	data, err := env.svc.AdminData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, data.TotalStudents)
	assert.Equal(t, 0, data.TotalTeachers)
	assert.Equal(t, 0, data.TodayTotal)
	assert.Empty(t, data.MonthlySummary)
	assert.Empty(t, data.LowAttendance)
	assert.Empty(t, data.RecentActivities)
}

func Test_service_AdminData_trailingWindow(t *testing.T) {
	env := setup(t)
	teacher := env.createTeacher(t, "Amani")
	std := env.createStudent(t, "STD001", "Baraka", "10", teacher.ID)

	today := core.BeginningOfDay(frozenNow)
	env.markOn(t, std.ID, teacher.ID, today.AddDate(0, 0, -29), attendance.StatusPresent)
	// too old for the 30-day window
	env.markOn(t, std.ID, teacher.ID, today.AddDate(0, 0, -31), attendance.StatusAbsent)

	data, err := env.svc.AdminData(context.Background())
	require.NoError(t, err)
	require.Len(t, data.MonthlySummary, 1)
	assert.Equal(t, 1, data.MonthlySummary[0].Total)
	assert.Equal(t, 100.0, data.MonthlySummary[0].PresentPercentage)
	assert.Empty(t, data.LowAttendance)
}

func Test_service_TeacherData_scopedToRoster(t *testing.T) {
	env := setup(t)
	teacher := env.createTeacher(t, "Amani")
	other := env.createTeacher(t, "Bahati")
	mine := env.createStudent(t, "STD001", "Baraka", "10", teacher.ID)
	theirs := env.createStudent(t, "STD002", "Chausiku", "12", other.ID)

	env.mark(t, mine.ID, teacher.ID, 2, 8)   // 20%, low
	env.mark(t, theirs.ID, other.ID, 1, 9)   // low too, but not Amani's

	data, err := env.svc.TeacherData(context.Background(), teacher.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, data.TotalStudents)
	assert.Equal(t, 1, data.TodayPresent)
	assert.Equal(t, 1, data.TodayTotal)

	require.Len(t, data.LowAttendance, 1)
	assert.Equal(t, "Baraka", data.LowAttendance[0].Name)
	assert.Equal(t, 20.0, data.LowAttendance[0].AttendancePercentage)

	require.Len(t, data.ClassDistribution, 1)
	assert.Equal(t, "10", data.ClassDistribution[0].Class)

	require.Len(t, data.RecentAttendance, 5)
	for _, rec := range data.RecentAttendance {
		assert.Equal(t, mine.ID, rec.StudentID)
	}
}

func Test_service_TeacherData_emptyRoster(t *testing.T) {
	env := setup(t)
	teacher := env.createTeacher(t, "Amani")
	other := env.createTeacher(t, "Bahati")
	theirs := env.createStudent(t, "STD001", "Chausiku", "12", other.ID)
	env.mark(t, theirs.ID, other.ID, 5, 0)

	// an empty roster must not widen to all students
	data, err := env.svc.TeacherData(context.Background(), teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, data.TotalStudents)
	assert.Equal(t, 0, data.TodayTotal)
	assert.Empty(t, data.RecentAttendance)
	assert.Empty(t, data.LowAttendance)
	assert.Empty(t, data.ClassDistribution)
}
