package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilqarli/show-booking/internal/utils"
)

const testSecret = "test-secret"

func doAuthed(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))
	return rec, c
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "ADMIN", 5)
	require.NoError(t, err)

	rec, c := doAuthed(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADMIN", c.Get("role"))
	assert.EqualValues(t, 42, c.Get("user_id"))
}

func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	mw := JWTAuth(testSecret)

	rec, _ := doAuthed(t, mw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doAuthed(t, mw, "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret.
	tok, err := utils.NewAccessToken("other-secret", 1, "USER", 5)
	require.NoError(t, err)
	rec, _ = doAuthed(t, mw, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	run := func(role interface{}) *httptest.ResponseRecorder {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if role != nil {
			c.Set("role", role)
		}
		handler := RequireRole("ADMIN")(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		require.NoError(t, handler(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, run("ADMIN").Code)
	assert.Equal(t, http.StatusForbidden, run("USER").Code)
	assert.Equal(t, http.StatusForbidden, run(nil).Code)
}
