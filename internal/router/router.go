package router

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"technofest/internal/auth"
	"technofest/internal/config"
	apperrors "technofest/internal/errors"
	"technofest/internal/handler"
	"technofest/internal/metrics"
	"technofest/internal/service"
)

// Handlers groups the HTTP handlers wired by Register.
type Handlers struct {
	Auth  *handler.AuthHandler
	Event *handler.EventHandler
	Admin *handler.AdminHandler
	Live  *handler.LiveHandler
}

// Security is what the JWT middleware needs to accept a bearer token.
type Security struct {
	JWT    *auth.JWTService
	Tokens auth.TokenStoreInterface
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	sec Security,
	rec metrics.Recorder,
	gatherer prometheus.Gatherer,
	h Handlers,
) {
	if rec == nil {
		rec = metrics.Nop{}
	}

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(recordStatus(rec))

	e.Validator = &CustomValidator{validator: service.NewValidator()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(gatherer)))
	}

	api := e.Group("/api")

	requireJWT := echojwt.WithConfig(jwtConfig(sec, false))
	optionalJWT := echojwt.WithConfig(jwtConfig(sec, true))

	// Auth routes
	authGroup := api.Group("/auth", authRateLimiter(cfg.AuthRateLimit))
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout, optionalJWT)
	authGroup.POST("/forgot-password", h.Auth.ForgotPassword)
	authGroup.POST("/reset-password", h.Auth.ResetPassword)
	authGroup.POST("/password-strength", h.Auth.PasswordStrength)
	authGroup.GET("/google/login", h.Auth.GoogleLogin)
	authGroup.GET("/google/callback", h.Auth.GoogleCallback)

	api.GET("/me", h.Auth.Me, requireJWT)

	// Public catalogue
	api.GET("/events", h.Event.List)
	api.GET("/events.ics", h.Event.Calendar)
	api.GET("/events/live", h.Live.Stream)
	api.GET("/events/:id", h.Event.Get)
	api.POST("/events/:id/register", h.Event.Register, optionalJWT)

	// Admin routes (require JWT and admin membership)
	admin := api.Group("", requireJWT, h.Admin.RequireAdmin)
	admin.POST("/events", h.Event.Create)
	admin.PUT("/events/:id", h.Event.Update)
	admin.DELETE("/events/:id", h.Event.Delete)

	admin.GET("/admin/dashboard", h.Admin.Dashboard)
	admin.GET("/admin/events", h.Admin.Events)
	admin.GET("/admin/users", h.Admin.Users)
	admin.GET("/admin/registrations", h.Admin.Registrations)
	admin.GET("/admin/backup", h.Admin.Backup)
	admin.PUT("/admin/admins/:uid", h.Admin.GrantAdmin)
	admin.DELETE("/admin/admins/:uid", h.Admin.RevokeAdmin)
	admin.GET("/admin/notifications", h.Admin.Notifications)
	admin.POST("/admin/notifications/read", h.Admin.MarkAllRead)
	admin.POST("/admin/notifications/:id/read", h.Admin.MarkRead)
	admin.DELETE("/admin/notifications", h.Admin.ClearNotifications)
}

// jwtConfig validates bearer tokens with the JWT service and rejects
// blacklisted ones. Optional routes let anonymous callers through.
func jwtConfig(sec Security, optional bool) echojwt.Config {
	cfg := echojwt.Config{
		ContextKey:  handler.ContextUserKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := sec.JWT.ValidateAccessToken(token)
			if err != nil {
				return nil, err
			}
			if sec.Tokens != nil {
				revoked, _ := sec.Tokens.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
				if revoked {
					return nil, apperrors.ErrInvalidToken
				}
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if optional {
				return nil
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: apperrors.ErrInvalidToken.Error(),
				Code:  "INVALID_TOKEN",
			})
		},
		ContinueOnIgnoredError: optional,
	}
	return cfg
}

func authRateLimiter(perSecond int) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStore(rate.Limit(perSecond)),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error: apperrors.ErrTooManyRequests.Error(),
				Code:  "TOO_MANY_REQUESTS",
			})
		},
	})
}

// recordStatus counts every response by status code.
func recordStatus(rec metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			rec.RecordHTTPStatus(status)
			return err
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface. Failures come back as a
// field-level validation error.
func (cv *CustomValidator) Validate(i interface{}) error {
	return apperrors.NewValidationError(service.ValidationFields(cv.validator.Struct(i), nil))
}
