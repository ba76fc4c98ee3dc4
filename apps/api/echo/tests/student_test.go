package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/mahudhurio/core/student"
)

func Test_studentApi_query(t *testing.T) {
	resetDB(t)
	admin := createAdmin(t, "Admin", "admin@test.cd")
	teacher := createTeacher(t, "Amani", "amani@test.cd")
	adminToken := getToken(t, admin)

	for i := 1; i <= 12; i++ {
		class := "10"
		if i > 8 {
			class = "12"
		}
		createStudent(t, fmt.Sprintf("STD%03d", i), fmt.Sprintf("Student%d", i), class, teacher.ID)
	}

	type listResp struct {
		Success  bool              `json:"success"`
		Count    int               `json:"count"`
		Total    int               `json:"total"`
		Pages    int               `json:"pages"`
		Students []student.Student `json:"students"`
	}

	tests := []struct {
		httpTest
		wantCount int
		wantTotal int
		wantPages int
	}{
		{
			httpTest: httpTest{name: "Auth required", path: "/api/students",
				wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		},
		{
			httpTest:  httpTest{name: "teachers can list", path: "/api/students", token: getToken(t, teacher), wantCode: http.StatusOK},
			wantCount: 12, wantTotal: 12, wantPages: 1,
		},
		{
			httpTest:  httpTest{name: "get all", path: "/api/students", token: adminToken, wantCode: http.StatusOK},
			wantCount: 12, wantTotal: 12, wantPages: 1,
		},
		{
			httpTest:  httpTest{name: "filter by class", path: "/api/students?class=12", token: adminToken, wantCode: http.StatusOK},
			wantCount: 4, wantTotal: 4, wantPages: 1,
		},
		{
			httpTest:  httpTest{name: "search", path: "/api/students?search=std004", token: adminToken, wantCode: http.StatusOK},
			wantCount: 1, wantTotal: 1, wantPages: 1,
		},
		{
			httpTest:  httpTest{name: "paginated", path: "/api/students?page=3&limit=5", token: adminToken, wantCode: http.StatusOK},
			wantCount: 2, wantTotal: 12, wantPages: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)

			if tt.wantCode == http.StatusOK {
				var body listResp
				decodeBody(t, rec, &body)
				if body.Count != tt.wantCount {
					t.Errorf("count = %v; want %v", body.Count, tt.wantCount)
				}
				if body.Total != tt.wantTotal {
					t.Errorf("total = %v; want %v", body.Total, tt.wantTotal)
				}
				if body.Pages != tt.wantPages {
					t.Errorf("pages = %v; want %v", body.Pages, tt.wantPages)
				}
			}
		})
	}
}

func Test_studentApi_create(t *testing.T) {
	resetDB(t)
	admin := createAdmin(t, "Admin", "admin@test.cd")
	teacher := createTeacher(t, "Amani", "amani@test.cd")
	adminToken := getToken(t, admin)

	payload := []byte(`{
		"student_id": "STD001", "name": "Baraka Kimani", "email": "baraka@test.cd",
		"class": "10", "section": "A", "roll_number": "12"
	}`)

	tests := []httpTest{
		{name: "Auth required", body: payload, wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "Admin required", body: payload, token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "missing fields", body: []byte(`{"name":"Baraka"}`), token: adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{
				Message: "validation failed",
				Errors: map[string]string{
					"student_id": "this field is required",
					"email":      "this field is required",
					"class":      "this field is required",
				},
			}),
		},
		{name: "ok", body: payload, token: adminToken, wantCode: http.StatusCreated},
		{
			name: "duplicate", body: payload, token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Message: "a student with this email or student ID already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/students", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var body struct {
					Student student.Student `json:"student"`
				}
				decodeBody(t, rec, &body)
				if body.Student.ID == "" {
					t.Errorf("no id assigned")
				}
				if body.Student.StudentID != "STD001" {
					t.Errorf("student_id = %v; want STD001", body.Student.StudentID)
				}
			}
		})
	}
}

func Test_studentApi_byTeacher(t *testing.T) {
	resetDB(t)
	admin := createAdmin(t, "Admin", "admin@test.cd")
	teacher := createTeacher(t, "Amani", "amani@test.cd")
	other := createTeacher(t, "Bahati", "bahati@test.cd")
	createStudent(t, "STD001", "Baraka", "10", teacher.ID)
	createStudent(t, "STD002", "Chausiku", "10", teacher.ID)
	createStudent(t, "STD003", "Dalila", "12", other.ID)

	path := "/api/students/teacher/" + teacher.ID

	tests := []struct {
		httpTest
		wantCount int
	}{
		{
			httpTest: httpTest{name: "Auth required", path: path,
				wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		},
		{
			httpTest: httpTest{name: "another teacher's roster is off-limits", path: path, token: getToken(t, other),
				wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		},
		{
			httpTest:  httpTest{name: "own roster", path: path, token: getToken(t, teacher), wantCode: http.StatusOK},
			wantCount: 2,
		},
		{
			httpTest:  httpTest{name: "admin can read any roster", path: path, token: getToken(t, admin), wantCode: http.StatusOK},
			wantCount: 2,
		},
		{
			httpTest:  httpTest{name: "empty roster", path: "/api/students/teacher/no-such-id", token: getToken(t, admin), wantCode: http.StatusOK},
			wantCount: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)

			if tt.wantCode == http.StatusOK {
				var body struct {
					Count    int               `json:"count"`
					Students []student.Student `json:"students"`
				}
				decodeBody(t, rec, &body)
				if body.Count != tt.wantCount {
					t.Errorf("count = %v; want %v", body.Count, tt.wantCount)
				}
			}
		})
	}
}

func Test_studentApi_detail(t *testing.T) {
	resetDB(t)
	admin := createAdmin(t, "Admin", "admin@test.cd")
	teacher := createTeacher(t, "Amani", "amani@test.cd")
	std := createStudent(t, "STD001", "Baraka", "10", teacher.ID)
	adminToken := getToken(t, admin)
	path := "/api/students/" + std.ID

	t.Run("detail routes are admin-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var body struct {
			Student student.Student `json:"student"`
		}
		decodeBody(t, rec, &body)
		if body.Student.Name != "Baraka" {
			t.Errorf("student.name = %v; want Baraka", body.Student.Name)
		}
		if body.Student.Teacher == nil || body.Student.Teacher.Name != "Amani" {
			t.Errorf("assigned teacher not populated: %+v", body.Student.Teacher)
		}
	})

	t.Run("retrieve unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/students/no-such-id", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Message: "student not found"})}, rec)
	})

	t.Run("update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, adminToken, []byte(`{"class":"11","section":"B"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var body struct {
			Student student.Student `json:"student"`
		}
		decodeBody(t, rec, &body)
		if body.Student.Class != "11" || body.Student.Section != "B" {
			t.Errorf("update not applied: %+v", body.Student)
		}
		if body.Student.Name != "Baraka" {
			t.Errorf("untouched field overwritten: name = %v", body.Student.Name)
		}
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, map[string]interface{}{
			"success": true, "message": "student deleted"})}, rec)

		req, rec = newAuthRequest(http.MethodDelete, path, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Message: "student not found"})}, rec)
	})
}
