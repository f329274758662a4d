package inkwell

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Sentinel errors for the handler boundary. Handlers and the HTTP error
// handler map these onto status codes; everything else is a 500.
var (
	// ErrNotFound is returned when a requested record does not exist, or a
	// post exists but is not in the required state.
	ErrNotFound = errors.New("inkwell: not found")

	// ErrInvalidToken covers every token failure mode: malformed, expired,
	// and bad signature are deliberately indistinguishable to callers.
	ErrInvalidToken = errors.New("inkwell: invalid token")

	// ErrInvalidContent is returned for an empty or non-textual post body.
	ErrInvalidContent = errors.New("inkwell: invalid body content")

	// ErrForbidden is returned when an authenticated actor is not the
	// author of the post being mutated.
	ErrForbidden = errors.New("inkwell: only the author can modify this post")

	// ErrEmailTaken is returned on registration with an already-registered
	// email address.
	ErrEmailTaken = errors.New("inkwell: email already registered")

	// ErrBadCredentials is returned on login with an unknown email or a
	// wrong password; the two cases are not distinguished.
	ErrBadCredentials = errors.New("inkwell: incorrect email or password")
)

// errorResponse is the generic JSON error body.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// httpErrorHandler turns sentinel and echo errors into JSON responses
// without leaking internals past the message string.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, errorResponse{Message: msg})
		return
	}
	switch {
	case errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows):
		_ = c.JSON(http.StatusNotFound, errorResponse{Message: "post not found"})
	case errors.Is(err, ErrForbidden):
		_ = c.JSON(http.StatusForbidden, errorResponse{Message: "unauthorized: only the author can update post"})
	case errors.Is(err, ErrInvalidToken):
		_ = c.JSON(http.StatusUnauthorized, errorResponse{Message: "please log in"})
	case errors.Is(err, ErrInvalidContent):
		_ = c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid body content"})
	default:
		c.Logger().Errorf("server error: %v", err)
		_ = c.JSON(http.StatusInternalServerError, errorResponse{Message: "error encountered"})
	}
}
