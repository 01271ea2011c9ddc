package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/msomdec/skill-match/internal/config"
	"github.com/msomdec/skill-match/internal/email"
	"github.com/msomdec/skill-match/internal/handler"
	"github.com/msomdec/skill-match/internal/realtime"
	"github.com/msomdec/skill-match/internal/repository/sqlite"
	"github.com/msomdec/skill-match/internal/service"
	"github.com/msomdec/skill-match/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var logHandler slog.Handler = slog.NewTextHandler(os.Stdout, logOpts)
	if cfg.Logging.Format == "json" {
		logHandler = slog.NewJSONHandler(os.Stdout, logOpts)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	mailer := email.NewSender(email.Config{
		Host:        cfg.Email.Host,
		Port:        cfg.Email.Port,
		Username:    cfg.Email.Username,
		Password:    cfg.Email.Password,
		From:        cfg.Email.From,
		FromName:    cfg.Email.FromName,
		FrontendURL: cfg.Email.FrontendURL,
		Timeout:     cfg.Email.Timeout,
		Attempts:    cfg.Email.Attempts,
		Backoff:     cfg.Email.Backoff,
	})

	resendThrottle := service.NewThrottle(cfg.Verification.ResendPerMinute/60, cfg.Verification.ResendBurst)
	authService := service.NewAuthService(db.Users(), cfg.Auth.JWTSecret, cfg.Auth.BcryptCost, cfg.Auth.TokenTTL)
	verificationService := service.NewVerificationService(db.Users(), authService, mailer,
		service.WithCodeTTL(cfg.Verification.CodeTTL),
		service.WithRetention(cfg.Verification.Retention),
		service.WithResendThrottle(resendThrottle),
	)
	messageService := service.NewMessageService(db.Messages())

	directory := realtime.NewMemoryDirectory()
	hub := realtime.NewHub(directory, realtime.NewRelay(messageService, directory))

	router := handler.NewRouter(handler.Deps{
		Auth:            authService,
		Verification:    verificationService,
		Messages:        messageService,
		Profiles:        service.NewProfileService(db.Profiles()),
		Teams:           service.NewTeamService(db.Teams()),
		LiveChannel:     realtime.NewHandler(hub, authService, cfg.CORS.AllowedOrigins),
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		LoginRateLimit:  cfg.Auth.LoginRateLimit,
		LoginRateWindow: cfg.Auth.LoginRateWindow,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	tree := supervisor.NewTree(logger, supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.AddMaintenanceService(service.NewRetentionSweeper(verificationService, cfg.Verification.SweepInterval))
	tree.AddMaintenanceService(resendThrottle)
	tree.AddMessagingService(hub)
	tree.AddAPIService(supervisor.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("server starting", "addr", srv.Addr, "email_configured", mailer.Configured())
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("supervisor stopped", "error", err)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		slog.Warn("services did not stop in time", "count", len(report))
	}

	// Let in-flight registration emails finish, bounded by the email timeout.
	done := make(chan struct{})
	go func() {
		verificationService.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cfg.Email.Timeout):
		slog.Warn("gave up waiting for registration emails")
	}
	slog.Info("server stopped")
}
