package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/utils"
)

// CookieName is the cookie that carries the access token for browser clients.
const CookieName = "jwt"

// CookieToHeader lets cookie-only clients through JWTAuth by copying the
// jwt cookie into the Authorization header. An explicit header wins and a
// missing cookie is not an error.
func CookieToHeader() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Header.Get(echo.HeaderAuthorization) == "" {
				if ck, err := req.Cookie(CookieName); err == nil && ck.Value != "" {
					req.Header.Set(echo.HeaderAuthorization, "Bearer "+ck.Value)
				}
			}
			return next(c)
		}
	}
}

// SetAuthCookie writes the access token cookie. It expires with the token.
func SetAuthCookie(c echo.Context, tok utils.AccessToken, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearAuthCookie expires the access token cookie.
func ClearAuthCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
