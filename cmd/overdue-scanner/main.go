package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"libraryhub/database"
	"libraryhub/internal/api/repository"
	"libraryhub/internal/config"
	"libraryhub/internal/mailer"
	"libraryhub/internal/overdue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg)
	} else {
		logger.Warn("SMTP_HOST not set, overdue notices disabled")
		mail = &mailer.NoopMailer{Logger: logger}
	}

	scanner := overdue.NewScanner(repository.NewAtomic(db), repository.NewRepositories(db), mail, logger, overdue.ScannerConfig{
		BatchSize:    getEnvInt("OVERDUE_BATCH_SIZE", 500),
		WorkerCount:  getEnvInt("OVERDUE_WORKERS", 5),
		MailPerSec:   float64(getEnvInt("OVERDUE_MAIL_PER_SEC", 2)),
		GraceForMail: cfg.Fines.GracePeriodDays,
	})

	interval := time.Duration(getEnvInt("OVERDUE_SCAN_INTERVAL_MINUTES", 60)) * time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received, stopping scanner")
		cancel()
	}()

	logger.Info("overdue scanner running", "interval", interval)
	scanner.Run(ctx, interval)
	logger.Info("overdue scanner stopped")
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
