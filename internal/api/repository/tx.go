package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repositories bundles every aggregate repository. The lending and fine
// services receive a tx-scoped bundle inside Atomic.InTx so that all writes
// of one operation share a single database transaction.
type Repositories struct {
	Books         BookRepository
	Users         UserRepository
	Transactions  TransactionRepository
	Fines         FineRepository
	Payments      FinePaymentRepository
	RefreshTokens RefreshTokenRepository
}

// NewRepositories builds the bundle over the given gorm handle, which may be
// the root connection or an open transaction.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Books:         NewBookRepository(db),
		Users:         NewUserRepository(db),
		Transactions:  NewTransactionRepository(db),
		Fines:         NewFineRepository(db),
		Payments:      NewFinePaymentRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
	}
}

// Atomic runs a function against a transaction-scoped repository bundle.
// If the function returns an error the whole transaction rolls back; no
// partial write is observable afterwards.
type Atomic interface {
	InTx(ctx context.Context, fn func(tx Repositories) error) error
}

type gormAtomic struct {
	db *gorm.DB
}

func NewAtomic(db *gorm.DB) Atomic {
	return &gormAtomic{db: db}
}

func (a *gormAtomic) InTx(ctx context.Context, fn func(tx Repositories) error) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// IsDuplicateKey reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
