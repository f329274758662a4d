package inkwell

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RegisterRequest is the expected body for POST /register. Field names match
// the public API contract.
type RegisterRequest struct {
	FirstName      string    `json:"First_name" validate:"required,min=3"`
	LastName       string    `json:"Last_name" validate:"required,min=3"`
	Email          string    `json:"email" validate:"required,email"`
	Password       string    `json:"password" validate:"required,min=6,max=72"`
	DateRegistered time.Time `json:"Date_registered"`
}

// LoginRequest is the expected body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *App) handleRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Unable to register", Error: "malformed request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Unable to register", Error: err.Error()})
	}
	user, err := a.Store.CreateUser(req.FirstName, req.LastName, req.Email, req.Password, req.DateRegistered)
	if err != nil {
		if err == ErrEmailTaken {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "Unable to register", Error: "email already registered"})
		}
		return err
	}
	if err := a.setSessionCookie(c, user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User registered successfully", "user": user})
}

func (a *App) handleLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "malformed request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": echo.Map{
			"email":    "email is required",
			"password": "password is required",
		}})
	}
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, errorResponse{Message: "too many login attempts, try again later"})
	}
	user, err := a.Store.Authenticate(req.Email, req.Password)
	if err != nil {
		if err == ErrBadCredentials {
			a.loginLimiter.Record(c.RealIP())
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "incorrect email or password"})
		}
		return err
	}
	if err := a.setSessionCookie(c, user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "login successful"})
}

func (a *App) handleLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.Config.CookieSecure,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out successfully"})
}

// setSessionCookie issues a session token for userID and attaches it as an
// HTTP-only cookie with the token's own lifetime.
func (a *App) setSessionCookie(c echo.Context, userID string) error {
	token, err := a.Tokens.Issue(userID)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.Tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	})
	return nil
}
