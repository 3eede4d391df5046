package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/middleware"
	"github.com/iliyamo/rental-marketplace/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth         service.AuthService
	Users        service.UserService
	SecureCookie bool
}

func NewAuthHandler(auth service.AuthService, users service.UserService, secureCookie bool) *AuthHandler {
	return &AuthHandler{Auth: auth, Users: users, SecureCookie: secureCookie}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	UserType        string `json:"userType"` // Guest | Host
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a Guest or Host account. No token is issued; the client
// logs in next.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	u, err := h.Auth.Register(c.Request().Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		UserType:        req.UserType,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "User registered successfully",
		"user":    toUser(u),
	})
}

// Login verifies credentials and returns the token in the body and in
// the jwt cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	res, err := h.Auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	middleware.SetAuthCookie(c, res.Token, h.SecureCookie)
	return c.JSON(http.StatusOK, echo.Map{
		"message":   "Logged in successfully",
		"token":     res.Token.Token,
		"expiresAt": res.Token.Exp,
		"user":      toUser(res.User),
	})
}

// Logout expires the cookie. Tokens are stateless, so a copy held
// elsewhere stays valid until it expires.
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearAuthCookie(c, h.SecureCookie)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the account behind the token.
func (h *AuthHandler) Me(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	u, err := h.Users.Get(c.Request().Context(), caller, caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u))
}
