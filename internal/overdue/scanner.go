// Package overdue flags open loans past their due date and mails the
// borrowers. It runs as a standalone process on a fixed interval, separate
// from the API server.
package overdue

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"libraryhub/internal/api/repository"
	"libraryhub/internal/api/service"
	"libraryhub/internal/mailer"

	"golang.org/x/time/rate"
)

// ScannerConfig tunes one scan pass.
type ScannerConfig struct {
	BatchSize    int     // transactions fetched per pass, 0 for all
	WorkerCount  int     // concurrent notification workers
	MailPerSec   float64 // outbound mail rate, shared by all workers
	GraceForMail int     // skip notices inside this many days past due
}

// Scanner marks past-due loans overdue and sends the notices.
type Scanner struct {
	atomic      repository.Atomic
	repos       repository.Repositories
	mailer      mailer.Mailer
	logger      *slog.Logger
	cfg         ScannerConfig
	mailLimiter *rate.Limiter
	now         func() time.Time
}

// ScanStats reports one pass.
type ScanStats struct {
	Scanned  int64
	Marked   int64
	Notified int64
	Failed   int64
}

func NewScanner(atomic repository.Atomic, repos repository.Repositories, m mailer.Mailer, logger *slog.Logger, cfg ScannerConfig) *Scanner {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 5
	}
	if cfg.MailPerSec <= 0 {
		cfg.MailPerSec = 2
	}
	return &Scanner{
		atomic:      atomic,
		repos:       repos,
		mailer:      m,
		logger:      logger,
		cfg:         cfg,
		mailLimiter: rate.NewLimiter(rate.Limit(cfg.MailPerSec), 1),
		now:         time.Now,
	}
}

// Run performs scan passes on the given interval until the context ends.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First pass immediately so a restart doesn't delay notices.
	if _, err := s.ScanOnce(ctx); err != nil {
		s.logger.Error("scan pass failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ScanOnce(ctx); err != nil {
				s.logger.Error("scan pass failed", "error", err)
			}
		}
	}
}

// ScanOnce processes every open past-due loan: the transaction and its
// borrowed-book mirror get flagged overdue, then the borrower is mailed.
// Marking and mailing are independent per loan; a mail failure never blocks
// the status flip.
func (s *Scanner) ScanOnce(ctx context.Context) (ScanStats, error) {
	var stats ScanStats
	now := s.now()

	transactions, err := s.repos.Transactions.ListOpenPastDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("list past-due transactions: %w", err)
	}
	stats.Scanned = int64(len(transactions))
	if len(transactions) == 0 {
		return stats, nil
	}

	pool := NewWorkerPool(ctx, s.cfg.WorkerCount, s.logger)
	pool.Start()

	for i := range transactions {
		transaction := transactions[i]
		pool.Submit(func(taskCtx context.Context) error {
			// The transaction and its borrowed_books mirror flip together,
			// or not at all.
			err := s.atomic.InTx(taskCtx, func(tx repository.Repositories) error {
				if err := tx.Transactions.MarkOverdue(taskCtx, transaction.ID); err != nil {
					return err
				}
				return tx.Users.MarkBorrowedBookOverdue(taskCtx, transaction.ID)
			})
			if err != nil {
				atomic.AddInt64(&stats.Failed, 1)
				return fmt.Errorf("mark transaction %s overdue: %w", transaction.ID, err)
			}
			atomic.AddInt64(&stats.Marked, 1)

			daysOverdue := service.DaysOverdue(transaction.DueDate, now)
			if daysOverdue <= s.cfg.GraceForMail {
				return nil
			}
			if transaction.User == nil || transaction.Book == nil {
				return nil
			}

			if err := s.mailLimiter.Wait(taskCtx); err != nil {
				return nil // shutting down
			}
			if err := s.mailer.SendOverdueNotice(taskCtx, transaction.User.Email, transaction.User.FullName, transaction.Book.Title, daysOverdue); err != nil {
				atomic.AddInt64(&stats.Failed, 1)
				return fmt.Errorf("notify %s: %w", transaction.User.Email, err)
			}
			atomic.AddInt64(&stats.Notified, 1)
			return nil
		})
	}

	pool.Wait()

	s.logger.Info("scan pass finished",
		"scanned", stats.Scanned,
		"marked", stats.Marked,
		"notified", stats.Notified,
		"failed", stats.Failed,
	)
	return stats, nil
}
