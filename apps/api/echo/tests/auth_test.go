package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	. "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core/user"
)

func expiredToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr, conf)
	claims.IssuedAt = time.Now().Add(-2 * time.Hour).Unix()
	claims.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	token, err := GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("expiredToken(): %v", err)
	}
	return token
}

func Test_authApi_login(t *testing.T) {
	resetDB(t)
	usr := createTeacher(t, "Amani Mwangi", "amani@test.cd")

	inactive := createTeacher(t, "N Dog", "ndog@test.cd")
	isActive := false
	if _, err := usrSvc.Update(context.Background(), inactive.ID, user.UpdateUser{IsActive: &isActive}); err != nil {
		t.Fatalf("deactivating user: %v", err)
	}

	tests := []httpTest{
		{
			name: "empty payload", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{
				Message: "validation failed",
				Errors:  map[string]string{"email": "this field is required", "password": "this field is required"},
			}),
		},
		{
			name: "unknown email", body: []byte(`{"email":"who@test.cd","password":"s3cretPwd!"}`),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Message: "invalid credentials"}),
		},
		{
			name: "wrong password", body: []byte(`{"email":"amani@test.cd","password":"nope-nope"}`),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Message: "invalid credentials"}),
		},
		{
			name: "deactivated account", body: []byte(`{"email":"ndog@test.cd","password":"s3cretPwd!"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Message: "account deactivated"}),
		},
		{name: "ok", body: []byte(`{"email":"amani@test.cd","password":"s3cretPwd!"}`), wantCode: http.StatusOK},
		{name: "email is case-insensitive", body: []byte(`{"email":"AMANI@Test.CD","password":"s3cretPwd!"}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var body struct {
					Success bool      `json:"success"`
					Token   string    `json:"token"`
					User    user.User `json:"user"`
				}
				decodeBody(t, rec, &body)
				if !body.Success {
					t.Errorf("success = false")
				}
				if body.Token == "" {
					t.Errorf("no token returned")
				}
				if body.User.ID != usr.ID {
					t.Errorf("user.id = %v; want %v", body.User.ID, usr.ID)
				}
				if body.User.LastLogin.IsZero() {
					t.Errorf("lastLogin not set")
				}
			}
		})
	}
}

func Test_authApi_me(t *testing.T) {
	resetDB(t)
	usr := createTeacher(t, "Amani Mwangi", "amani@test.cd")

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "expired token", token: expiredToken(t, usr), wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, httpErr{Message: "authentication token has expired"})},
		{name: "garbage token", token: "not.a.token", wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, httpErr{Message: "invalid authentication token"})},
		{name: "ok", token: getToken(t, usr), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var body struct {
					User user.User `json:"user"`
				}
				decodeBody(t, rec, &body)
				if body.User.Email != usr.Email {
					t.Errorf("user.email = %v; want %v", body.User.Email, usr.Email)
				}
			}
		})
	}
}

func Test_authApi_logout(t *testing.T) {
	resetDB(t)
	usr := createTeacher(t, "Amani Mwangi", "amani@test.cd")

	req, rec := newAuthRequest(http.MethodPost, "/api/auth/logout", getToken(t, usr))
	app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, map[string]interface{}{
		"success": true, "message": "logged out"})}
	checkCodeAndData(t, tt, rec)
}

func Test_authApi_changePassword(t *testing.T) {
	resetDB(t)
	usr := createTeacher(t, "Amani Mwangi", "amani@test.cd")
	token := getToken(t, usr)

	tests := []httpTest{
		{
			name: "wrong current password", token: token,
			body:     []byte(`{"current_password":"nope","new_password":"newS3cret!"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{
				Message: "validation failed",
				Errors:  map[string]string{"current_password": "incorrect password"},
			}),
		},
		{
			name: "policy violation", token: token,
			body:     []byte(`{"current_password":"s3cretPwd!","new_password":"short"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{
				Message: "validation failed",
				Errors:  map[string]string{"new_password": "password must contain at least 8 characters"},
			}),
		},
		{
			name: "ok", token: token,
			body:     []byte(`{"current_password":"s3cretPwd!","new_password":"newS3cret!"}`),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, map[string]interface{}{"success": true, "message": "password changed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/api/auth/change-password", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the new password works, the old one is out
	req, rec := newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"amani@test.cd","password":"newS3cret!"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("login with new password failed; code = %v", rec.Code)
	}
	req, rec = newRequest(http.MethodPost, "/api/auth/login", []byte(`{"email":"amani@test.cd","password":"s3cretPwd!"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login with old password succeeded; code = %v", rec.Code)
	}
}

func Test_authApi_updateProfile(t *testing.T) {
	resetDB(t)
	usr := createTeacher(t, "Amani Mwangi", "amani@test.cd")

	req, rec := newAuthRequest(http.MethodPut, "/api/auth/profile", getToken(t, usr),
		[]byte(`{"name":"Amani M.","subject":"Physics"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; body = %v", rec.Code, rec.Body.String())
	}

	var body struct {
		User user.User `json:"user"`
	}
	decodeBody(t, rec, &body)
	if body.User.Name != "Amani M." {
		t.Errorf("user.name = %v; want Amani M.", body.User.Name)
	}
	if body.User.Subject != "Physics" {
		t.Errorf("user.subject = %v; want Physics", body.User.Subject)
	}
	if body.User.Role != user.RoleTeacher {
		t.Errorf("user.role changed: %v", body.User.Role)
	}
}
