package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "technofest/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"technofest/internal/auth"
	"technofest/internal/cache"
	"technofest/internal/config"
	"technofest/internal/dashboard"
	"technofest/internal/db"
	"technofest/internal/handler"
	"technofest/internal/logger"
	"technofest/internal/metrics"
	"technofest/internal/mirror"
	"technofest/internal/model"
	"technofest/internal/notify"
	"technofest/internal/repository"
	"technofest/internal/router"
	"technofest/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Technofest Events API
// @version 1.0
// @description Event catalogue, registrations and admin dashboard for the technofest portal.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger.SetupDefault(os.Stdout, cfg.LogLevel)
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		slog.Warn("redis unavailable, running without cache", slog.Any("error", err))
	}

	backend, err := db.OpenStore(cfg, cacheClient)
	if err != nil {
		log.Fatalf("store init: %v", err)
	}
	s := backend.Store

	// Credentials live in MySQL when it is available, otherwise next to the
	// other collections.
	var credentials repository.CredentialRepository
	if backend.SQL != nil {
		credentials = repository.NewCredentialRepository(backend.SQL)
	} else {
		credentials = repository.NewStoreCredentialRepository(s)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Live catalogue
	events := mirror.NewEventMirror(s)
	liveHandler := handler.NewLiveHandler(events, collector, cfg.SearchDebounce)
	events.OnChange(func(items []model.Event) {
		collector.SetMirroredEvents(len(items))
		liveHandler.Refresh(items)
	})
	go func() {
		if err := events.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("events mirror stopped", slog.Any("error", err))
		}
	}()

	// Admin notifications
	center := notify.NewCenter(cacheClient)
	center.Load(ctx)
	go func() {
		err := notify.Watch(ctx, s, center, func(n model.Notification) {
			slog.Info("notification", slog.String("type", n.Type), slog.String("message", n.Message))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("notification watcher stopped", slog.Any("error", err))
		}
	}()

	// Dashboard
	reporter := dashboard.NewReporter(s, cacheClient, collector, loc)
	refresher, err := dashboard.NewRefresher(reporter, cfg.DashboardRefreshCron)
	if err != nil {
		log.Fatalf("dashboard refresher: %v", err)
	}
	refresher.Start()

	// Initialize repositories
	eventRepo := repository.NewEventRepository(s)
	registrationRepo := repository.NewRegistrationRepository(s)
	userRepo := repository.NewUserRepository(s)
	adminRepo := repository.NewAdminRepository(s)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	authOpts := []service.AuthOption{service.WithResetTokenTTL(cfg.ResetTokenTTL)}
	if cfg.GoogleEnabled() {
		authOpts = append(authOpts, service.WithGoogle(
			auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		))
	}

	// Initialize services
	recorder := service.NewRecorder(eventRepo, registrationRepo, collector)
	authService := service.NewAuthService(credentials, userRepo, adminRepo, jwtService, tokenStore, authOpts...)
	eventService := service.NewEventService(eventRepo, events, recorder, loc)
	adminService := service.NewAdminService(s, reporter, center)

	// Register routes
	e := echo.New()
	e.HideBanner = true
	router.Register(
		e,
		cfg,
		router.Security{JWT: jwtService, Tokens: tokenStore},
		collector,
		registry,
		router.Handlers{
			Auth:  handler.NewAuthHandler(authService),
			Event: handler.NewEventHandler(eventService),
			Admin: handler.NewAdminHandler(adminService),
			Live:  liveHandler,
		},
	)

	slog.Info("swagger documentation available", slog.String("url", swaggerURL(cfg.SwaggerHost, cfg.ServerPort)))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server start: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", slog.Any("error", err))
	}
	recorder.Close()
	refresher.Stop(shutdownCtx)
	if err := s.Close(); err != nil {
		slog.Error("close store", slog.Any("error", err))
	}
	if err := cacheClient.Close(); err != nil {
		slog.Error("close cache", slog.Any("error", err))
	}
}

// swaggerURL falls back to the local listener when no public host is set.
func swaggerURL(host, port string) string {
	switch {
	case host == "":
		return "http://localhost:" + port + "/swagger/index.html"
	case strings.HasPrefix(host, "http://"), strings.HasPrefix(host, "https://"):
		return host + "/swagger/index.html"
	default:
		return "http://" + host + "/swagger/index.html"
	}
}
