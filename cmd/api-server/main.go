package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"libraryhub/database"
	"libraryhub/internal/api/handler"
	"libraryhub/internal/api/middleware"
	"libraryhub/internal/api/repository"
	"libraryhub/internal/api/service"
	"libraryhub/internal/config"
	"libraryhub/internal/mailer"
	"libraryhub/internal/otp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	otpStore, err := otp.NewStore(cfg.RedisURL, cfg.RedisPassword, cfg.OTPTTL)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer otpStore.Close()

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg)
	} else {
		logger.Warn("SMTP_HOST not set, outgoing mail disabled")
		mail = &mailer.NoopMailer{Logger: logger}
	}

	repos := repository.NewRepositories(db)
	atomic := repository.NewAtomic(db)

	authService := service.NewAuthService(repos.Users, repos.RefreshTokens, otpStore, mail, logger, cfg)
	bookService := service.NewBookService(repos, logger)
	userService := service.NewUserService(repos, logger)
	lendingService := service.NewLendingService(atomic, repos, cfg.Lending, cfg.Fines, mail, logger)
	fineService := service.NewFineService(atomic, repos, cfg.Fines, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	handler.NewAuthHandler(authService, cfg.AccessTokenTTL).RegisterRoutes(api.Group("/auth"))

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(authService))
	handler.NewBookHandler(bookService).RegisterRoutes(authed.Group("/books"))
	handler.NewUserHandler(userService).RegisterRoutes(authed.Group("/users"))
	handler.NewLendingHandler(lendingService).RegisterRoutes(authed.Group("/transactions"))
	handler.NewFineHandler(fineService).RegisterRoutes(authed.Group("/fines"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.HTTPPort, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, draining connections")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelDebug
	switch cfg.LogLevel {
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}
