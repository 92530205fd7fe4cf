package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func postJSON(t *testing.T, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// Validation failures are rejected before any storage access, so these
// run against a handler with no repositories wired.
func TestRegisterValidation(t *testing.T) {
	h := &AuthHandler{}

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"longenough"}`},
		{"malformed email", `{"email":"nope","password":"longenough"}`},
		{"short password", `{"email":"a@b.c","password":"short"}`},
		{"unknown role", `{"email":"a@b.c","password":"longenough","role":"SUPERUSER"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := postJSON(t, "/v1/auth/register", tc.body)
			assert.NoError(t, h.Register(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRefreshRequiresToken(t *testing.T) {
	h := &AuthHandler{}
	c, rec := postJSON(t, "/v1/auth/refresh", `{}`)
	assert.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRequiresToken(t *testing.T) {
	h := &AuthHandler{}
	c, rec := postJSON(t, "/v1/auth/logout", `{}`)
	assert.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
