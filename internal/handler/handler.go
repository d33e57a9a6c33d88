// Package handler holds the echo handlers of the HTTP API.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"technofest/internal/auth"
	"technofest/internal/errors"
)

// ContextUserKey is where the JWT middleware stores *auth.Claims.
const ContextUserKey = "user"

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func httpError(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func invalidBody() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

// claimsFrom returns the caller's claims, or nil for anonymous requests.
func claimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ContextUserKey).(*auth.Claims)
	return claims
}

func userID(c echo.Context) string {
	if claims := claimsFrom(c); claims != nil {
		return claims.UserID
	}
	return ""
}
