package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrEventNotFound is returned when an event is not found.
	ErrEventNotFound = errors.New("event not found")
	// ErrUserNotFound is returned when a user record is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotSignedIn is returned when an action needs an authenticated user.
	ErrNotSignedIn = errors.New("Please login to register for events.")
	// ErrNoRegistrationLink is returned when the event has nowhere to register.
	ErrNoRegistrationLink = errors.New("Registration link not available.")
	// ErrNotificationNotFound is returned when marking an unknown notification.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrForbidden is returned when a non-admin reaches an admin operation.
	ErrForbidden = errors.New("admin access required")
	// ErrStoreUnavailable wraps any remote store failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDashboardUnavailable is returned when any dashboard fetch fails.
	ErrDashboardUnavailable = errors.New("Failed to load dashboard data.")
	// ErrEventsUnavailable is returned when the catalogue never loaded.
	ErrEventsUnavailable = errors.New("Failed to load events. Please try again.")

	// Auth provider errors, worded the way users see them.
	ErrInvalidEmail       = errors.New("Invalid email address.")
	ErrUserDisabled       = errors.New("This account has been disabled.")
	ErrAccountNotFound    = errors.New("No account found with this email.")
	ErrWrongPassword      = errors.New("Incorrect password.")
	ErrEmailInUse         = errors.New("Email already in use.")
	ErrWeakPassword       = errors.New("Password is too weak. Please use at least 6 characters.")
	ErrTooManyRequests    = errors.New("Too many attempts. Please try again later.")
	ErrNetwork            = errors.New("Network error. Please check your connection.")
	ErrPopupClosed        = errors.New("Google sign-in was cancelled.")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrGoogleNotAvailable = errors.New("Google sign-in is not configured.")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ValidationError carries one message per failing field. No write is attempted
// when a service returns it.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

// NewValidationError returns nil when fields is empty.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

var codes = []struct {
	err    error
	status int
	code   string
}{
	{ErrEventNotFound, http.StatusNotFound, "EVENT_NOT_FOUND"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrNotSignedIn, http.StatusUnauthorized, "NOT_SIGNED_IN"},
	{ErrNoRegistrationLink, http.StatusBadRequest, "NO_REGISTRATION_LINK"},
	{ErrNotificationNotFound, http.StatusNotFound, "NOTIFICATION_NOT_FOUND"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrDashboardUnavailable, http.StatusBadGateway, "DASHBOARD_UNAVAILABLE"},
	{ErrEventsUnavailable, http.StatusServiceUnavailable, "EVENTS_UNAVAILABLE"},
	{ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL"},
	{ErrUserDisabled, http.StatusForbidden, "USER_DISABLED"},
	{ErrAccountNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrWrongPassword, http.StatusUnauthorized, "WRONG_PASSWORD"},
	{ErrEmailInUse, http.StatusConflict, "EMAIL_IN_USE"},
	{ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
	{ErrTooManyRequests, http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
	{ErrNetwork, http.StatusBadGateway, "NETWORK_ERROR"},
	{ErrPopupClosed, http.StatusBadRequest, "SIGN_IN_CANCELLED"},
	{ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{ErrGoogleNotAvailable, http.StatusNotImplemented, "GOOGLE_NOT_CONFIGURED"},
	{ErrStoreUnavailable, http.StatusBadGateway, "STORE_UNAVAILABLE"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped errors are matched
// with errors.Is.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "validation failed",
			Code:       "VALIDATION_ERROR",
			Fields:     verr.Fields,
		}
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return NewHTTPError(c.status, c.err.Error(), c.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
