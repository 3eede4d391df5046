package middleware

// identity.go holds the request-scoped identity. JWTAuth derives a
// model.Caller once per request and handlers read it back with CallerFrom.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

const (
	callerKey   = "caller"
	usernameKey = "username"
)

// SetCaller stores the authenticated identity on the request context.
func SetCaller(c echo.Context, caller model.Caller, username string) {
	c.Set(callerKey, caller)
	c.Set(usernameKey, username)
}

// CallerFrom returns the authenticated caller. ok is false on routes that
// are not behind JWTAuth.
func CallerFrom(c echo.Context) (model.Caller, bool) {
	caller, ok := c.Get(callerKey).(model.Caller)
	return caller, ok && caller.ID != 0
}

// UsernameFrom returns the username claim of the authenticated caller.
func UsernameFrom(c echo.Context) string {
	s, _ := c.Get(usernameKey).(string)
	return s
}
