package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"doodoologserver/internal/auth"
	"doodoologserver/internal/config"
	"doodoologserver/internal/email"
	"doodoologserver/internal/httpapi"
	"doodoologserver/internal/insight"
	"doodoologserver/internal/service"
	"doodoologserver/internal/store/memory"
	"doodoologserver/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		authSvc    *service.AuthService
		friendsSvc *service.FriendsService
		logsSvc    *service.LogsService
		usersSvc   *service.UsersService
		profileSvc *service.ProfileService
		feedSvc    *service.FeedService
		resetSvc   *service.PasswordResetService
		dbPing     func(context.Context) error
	)

	var insights service.InsightGenerator
	if cfg.GeminiAPIKey != "" {
		insights = &insight.GeminiClient{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
			Client: &http.Client{Timeout: 10 * time.Second},
		}
	}

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		users := postgres.NewUsersStore(pgPool)
		sessions := postgres.NewSessionsStore(pgPool)
		friendships := postgres.NewFriendshipsStore(pgPool)
		logs := postgres.NewLogsStore(pgPool)
		resets := postgres.NewPasswordResetsStore(pgPool)

		authSvc = &service.AuthService{
			Users:      users,
			Sessions:   sessions,
			SessionTTL: cfg.SessionTTL,
		}
		friendsSvc = &service.FriendsService{
			Users: users,
			Graph: friendships,
		}
		logsSvc = &service.LogsService{
			Logs:           logs,
			Users:          users,
			Insights:       insights,
			Logger:         logger,
			InsightTimeout: cfg.InsightTimeout,
		}
		usersSvc = &service.UsersService{Store: users}
		profileSvc = &service.ProfileService{Store: users}
		feedSvc = &service.FeedService{Users: users, Logs: logs}
		resetSvc = &service.PasswordResetService{
			Store:    resets,
			Users:    users,
			TokenTTL: cfg.ResetTokenTTL,
		}
		dbPing = pgPool.Ping

		logger.Info("using postgres backend")
	} else {
		var opts []memory.Option
		if cfg.SimLatency > 0 {
			opts = append(opts, memory.WithLatency(cfg.SimLatency))
		}
		mem := memory.New(opts...)

		if cfg.SeedDemo {
			if err := mem.SeedDemoUsers(context.Background()); err != nil {
				logger.Error("seed demo users failed", "err", err)
				os.Exit(1)
			}
		}

		authSvc = &service.AuthService{
			Users:      mem,
			Sessions:   mem,
			SessionTTL: cfg.SessionTTL,
		}
		friendsSvc = &service.FriendsService{
			Users: mem,
			Graph: mem,
		}
		logsSvc = &service.LogsService{
			Logs:           mem,
			Users:          mem,
			Insights:       insights,
			Logger:         logger,
			InsightTimeout: cfg.InsightTimeout,
		}
		usersSvc = &service.UsersService{Store: mem}
		profileSvc = &service.ProfileService{Store: mem}
		feedSvc = &service.FeedService{Users: mem, Logs: mem}
		resetSvc = &service.PasswordResetService{
			Store:    mem,
			Users:    mem,
			TokenTTL: cfg.ResetTokenTTL,
		}

		logger.Info("using in-memory backend", "seeded", cfg.SeedDemo, "latency", cfg.SimLatency)
	}

	emailSender := &email.Sender{
		Settings: email.SMTPSettings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			TLSMode:  cfg.SMTPTLSMode,
		},
		FromName:  cfg.SMTPFromName,
		FromEmail: cfg.SMTPFromEmail,
	}

	apiRouter := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:       logger,
		IsProd:       cfg.IsProd(),
		DBPing:       dbPing,
		Auth:         authSvc,
		Friends:      friendsSvc,
		Logs:         logsSvc,
		Users:        usersSvc,
		Profile:      profileSvc,
		Feed:         feedSvc,
		Reset:        resetSvc,
		Email:        emailSender,
		PublicURL:    cfg.PublicURL,
		CookieCodec:  auth.NewCookieCodec([]byte(cfg.CookieSecret)),
		CookieSecure: cfg.CookieSecure(),
		SessionTTL:   cfg.SessionTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
