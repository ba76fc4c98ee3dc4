package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/mahudhurio/core/dashboard"
)

func Test_dashboardApi_admin(t *testing.T) {
	resetDB(t)
	admin := createAdmin(t, "Admin", "admin@test.cd")
	teacher := createTeacher(t, "Amani", "amani@test.cd")
	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)

	std1 := createStudent(t, "STD001", "Baraka", "10", teacher.ID)
	std2 := createStudent(t, "STD002", "Chausiku", "12", teacher.ID)

	// today's roll call
	today := todayPath()
	for _, mark := range []string{
		fmt.Sprintf(`{"student":%q,"date":%q,"status":"present"}`, std1.ID, today),
		fmt.Sprintf(`{"student":%q,"date":%q,"status":"absent"}`, std2.ID, today),
	} {
		req, rec := newAuthRequest(http.MethodPost, "/api/attendance", teacherToken, []byte(mark))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seeding failed; body = %v", rec.Body.String())
		}
	}

	t.Run("teachers are kept out", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/dashboard/admin", teacherToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/dashboard/admin", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var body struct {
			Success bool `json:"success"`
			dashboard.AdminData
		}
		decodeBody(t, rec, &body)
		if !body.Success {
			t.Errorf("success = false")
		}
		if body.TotalStudents != 2 {
			t.Errorf("total_students = %v; want 2", body.TotalStudents)
		}
		if body.TotalTeachers != 1 {
			t.Errorf("total_teachers = %v; want 1", body.TotalTeachers)
		}
		if body.TodayPresent != 1 || body.TodayAbsent != 1 || body.TodayTotal != 2 {
			t.Errorf("today = %v/%v/%v; want 1/1/2", body.TodayPresent, body.TodayAbsent, body.TodayTotal)
		}
		if len(body.ClassDistribution) != 2 {
			t.Errorf("class_distribution = %+v; want 2 classes", body.ClassDistribution)
		}
		if len(body.RecentActivities) != 2 {
			t.Errorf("recent_activities = %v records; want 2", len(body.RecentActivities))
		}
	})
}

func Test_dashboardApi_teacher(t *testing.T) {
	resetDB(t)
	admin := createAdmin(t, "Admin", "admin@test.cd")
	teacher := createTeacher(t, "Amani", "amani@test.cd")
	other := createTeacher(t, "Bahati", "bahati@test.cd")
	teacherToken := getToken(t, teacher)

	createStudent(t, "STD001", "Baraka", "10", teacher.ID)
	createStudent(t, "STD002", "Chausiku", "12", other.ID)

	t.Run("admins are kept out", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/dashboard/teacher", getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("scoped to own roster", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/dashboard/teacher", teacherToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var body struct {
			Success bool `json:"success"`
			dashboard.TeacherData
		}
		decodeBody(t, rec, &body)
		if body.TotalStudents != 1 {
			t.Errorf("total_students = %v; want 1", body.TotalStudents)
		}
		if len(body.ClassDistribution) != 1 || body.ClassDistribution[0].Class != "10" {
			t.Errorf("class_distribution = %+v; want class 10 only", body.ClassDistribution)
		}
	})
}
