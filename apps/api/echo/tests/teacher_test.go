package tests

import (
	"net/http"
	"testing"

	"github.com/trezcool/mahudhurio/core/user"
)

func Test_teacherApi_query(t *testing.T) {
	resetDB(t)
	admin := createAdmin(t, "Admin", "admin@test.cd")
	teacher := createTeacher(t, "Amani", "amani@test.cd")
	createTeacher(t, "Bahati", "bahati@test.cd")
	adminToken := getToken(t, admin)

	tests := []struct {
		httpTest
		wantCount int
	}{
		{
			httpTest: httpTest{name: "Auth required", path: "/api/teachers",
				wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		},
		{
			httpTest: httpTest{name: "Admin required", path: "/api/teachers", token: getToken(t, teacher),
				wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		},
		// the admin user is not a teacher and never shows up
		{
			httpTest:  httpTest{name: "get all", path: "/api/teachers", token: adminToken, wantCode: http.StatusOK},
			wantCount: 2,
		},
		{
			httpTest:  httpTest{name: "search", path: "/api/teachers?search=bahati", token: adminToken, wantCode: http.StatusOK},
			wantCount: 1,
		},
		// the role filter cannot be widened from the query string
		{
			httpTest:  httpTest{name: "role is pinned", path: "/api/teachers?role=admin", token: adminToken, wantCode: http.StatusOK},
			wantCount: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)

			if tt.wantCode == http.StatusOK {
				var body struct {
					Count    int         `json:"count"`
					Total    int         `json:"total"`
					Teachers []user.User `json:"teachers"`
				}
				decodeBody(t, rec, &body)
				if body.Count != tt.wantCount {
					t.Errorf("count = %v; want %v", body.Count, tt.wantCount)
				}
				for _, tc := range body.Teachers {
					if tc.Role != user.RoleTeacher {
						t.Errorf("non-teacher in results: %+v", tc)
					}
				}
			}
		})
	}
}

func Test_teacherApi_create(t *testing.T) {
	resetDB(t)
	admin := createAdmin(t, "Admin", "admin@test.cd")
	adminToken := getToken(t, admin)

	// the role in the payload is ignored; this endpoint mints teachers
	payload := []byte(`{
		"name": "Amani Mwangi", "email": "amani@test.cd",
		"password": "s3cretPwd!", "role": "admin", "subject": "Mathematics"
	}`)

	req, rec := newAuthRequest(http.MethodPost, "/api/teachers", adminToken, payload)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %v; body = %v", rec.Code, rec.Body.String())
	}
	var body struct {
		Teacher user.User `json:"teacher"`
	}
	decodeBody(t, rec, &body)
	if body.Teacher.Role != user.RoleTeacher {
		t.Errorf("role = %v; want teacher", body.Teacher.Role)
	}
	if body.Teacher.Subject != "Mathematics" {
		t.Errorf("subject = %v; want Mathematics", body.Teacher.Subject)
	}

	// duplicate email
	req, rec = newAuthRequest(http.MethodPost, "/api/teachers", adminToken, payload)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest,
		wantData: marshallObj(t, httpErr{
			Message: "validation failed",
			Errors:  map[string]string{"email": "a user with this email already exists"},
		})}, rec)
}

func Test_teacherApi_detail(t *testing.T) {
	resetDB(t)
	admin := createAdmin(t, "Admin", "admin@test.cd")
	teacher := createTeacher(t, "Amani", "amani@test.cd")
	adminToken := getToken(t, admin)
	path := "/api/teachers/" + teacher.ID

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var body struct {
			Teacher user.User `json:"teacher"`
		}
		decodeBody(t, rec, &body)
		if body.Teacher.ID != teacher.ID {
			t.Errorf("teacher.id = %v; want %v", body.Teacher.ID, teacher.ID)
		}
	})

	t.Run("admins are not teachers", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/teachers/"+admin.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Message: "user not found"})}, rec)
	})

	t.Run("update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, adminToken, []byte(`{"subject":"Physics"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var body struct {
			Teacher user.User `json:"teacher"`
		}
		decodeBody(t, rec, &body)
		if body.Teacher.Subject != "Physics" {
			t.Errorf("subject = %v; want Physics", body.Teacher.Subject)
		}
		if body.Teacher.Name != "Amani" {
			t.Errorf("untouched field overwritten: name = %v", body.Teacher.Name)
		}
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, map[string]interface{}{
			"success": true, "message": "teacher deleted"})}, rec)

		req, rec = newAuthRequest(http.MethodDelete, path, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Message: "user not found"})}, rec)
	})
}
