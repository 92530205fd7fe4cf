// Package handler contains the echo HTTP handlers. Handlers translate
// requests into repository and service calls and map typed service
// errors onto HTTP status codes.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID reads the authenticated user's ID placed in the context
// by the JWT middleware. The sub claim round-trips through JSON, so it
// arrives as float64; string is handled for robustness.
func currentUserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v < 1 {
			return 0, false
		}
		return uint64(v), true
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		return id, err == nil && id > 0
	case uint64:
		return v, v > 0
	default:
		return 0, false
	}
}

// currentRole reads the role claim placed in the context by the JWT
// middleware.
func currentRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
