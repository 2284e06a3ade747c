package service

import (
	"context"
	"time"

	"libraryhub/internal/api/models"
	"libraryhub/internal/api/repository"

	"github.com/stretchr/testify/mock"
)

// MockBookRepository mocks the BookRepository interface
type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) Create(ctx context.Context, book *models.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *MockBookRepository) FindByID(ctx context.Context, id string) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookRepository) FindByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	args := m.Called(ctx, isbn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookRepository) List(ctx context.Context, filter repository.BookFilter) ([]models.Book, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Book), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookRepository) Update(ctx context.Context, book *models.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *MockBookRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookRepository) DecrementAvailable(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookRepository) IncrementAvailable(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByIdentificationCode(ctx context.Context, code string) (*models.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) AdjustFines(ctx context.Context, id string, delta float64) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockUserRepository) AddBorrowedBook(ctx context.Context, entry *models.BorrowedBook) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockUserRepository) CloseBorrowedBook(ctx context.Context, transactionID, status string, returnedAt time.Time) error {
	args := m.Called(ctx, transactionID, status, returnedAt)
	return args.Error(0)
}

func (m *MockUserRepository) MarkBorrowedBookOverdue(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *MockUserRepository) CountOpenBorrows(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) HasOpenBorrow(ctx context.Context, userID, bookID string) (bool, error) {
	args := m.Called(ctx, userID, bookID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ListOpenBorrowsByBook(ctx context.Context, bookID string) ([]models.BorrowedBook, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BorrowedBook), args.Error(1)
}

// MockTransactionRepository mocks the TransactionRepository interface
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindOpenByUserAndBook(ctx context.Context, userID, bookID string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListOpenPastDue(ctx context.Context, asOf time.Time, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Update(ctx context.Context, transaction *models.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) MarkOverdue(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFineRepository mocks the FineRepository interface
type MockFineRepository struct {
	mock.Mock
}

func (m *MockFineRepository) Create(ctx context.Context, fine *models.Fine) error {
	args := m.Called(ctx, fine)
	return args.Error(0)
}

func (m *MockFineRepository) FindByID(ctx context.Context, id string) (*models.Fine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fine), args.Error(1)
}

func (m *MockFineRepository) FindPayableByIDs(ctx context.Context, userID string, ids []string) ([]models.Fine, error) {
	args := m.Called(ctx, userID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Fine), args.Error(1)
}

func (m *MockFineRepository) ListPayableByUser(ctx context.Context, userID string) ([]models.Fine, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Fine), args.Error(1)
}

func (m *MockFineRepository) ListByUser(ctx context.Context, userID string) ([]models.Fine, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Fine), args.Error(1)
}

func (m *MockFineRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Fine, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Fine), args.Error(1)
}

func (m *MockFineRepository) SumPayableByUser(ctx context.Context, userID string) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockFineRepository) CountWaivedSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFineRepository) Update(ctx context.Context, fine *models.Fine) error {
	args := m.Called(ctx, fine)
	return args.Error(0)
}

// MockFinePaymentRepository mocks the FinePaymentRepository interface
type MockFinePaymentRepository struct {
	mock.Mock
}

func (m *MockFinePaymentRepository) Create(ctx context.Context, payment *models.FinePayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockFinePaymentRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*models.FinePayment, error) {
	args := m.Called(ctx, receiptNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FinePayment), args.Error(1)
}

func (m *MockFinePaymentRepository) ListByUser(ctx context.Context, userID string) ([]models.FinePayment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FinePayment), args.Error(1)
}

// MockRefreshTokenRepository mocks the RefreshTokenRepository interface
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, refreshToken *models.RefreshToken) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByToken(ctx context.Context, tokenString string) (*models.RefreshToken, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) Delete(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	args := m.Called(ctx, before)
	return args.Error(0)
}

// fakeAtomic runs the closure against the given bundle directly; unit tests
// have no real transaction to roll back.
type fakeAtomic struct {
	repos repository.Repositories
}

func (a *fakeAtomic) InTx(_ context.Context, fn func(tx repository.Repositories) error) error {
	return fn(a.repos)
}

// MockMailer mocks the mailer.Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationOTP(ctx context.Context, email, otp, fullName string) error {
	args := m.Called(ctx, email, otp, fullName)
	return args.Error(0)
}

func (m *MockMailer) SendLoginOTP(ctx context.Context, email, otp, fullName string) error {
	args := m.Called(ctx, email, otp, fullName)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, token, fullName string) error {
	args := m.Called(ctx, email, token, fullName)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordChanged(ctx context.Context, email, fullName string) error {
	args := m.Called(ctx, email, fullName)
	return args.Error(0)
}

func (m *MockMailer) SendReturnConfirmation(ctx context.Context, email, fullName, bookTitle string, fineAmount float64) error {
	args := m.Called(ctx, email, fullName, bookTitle, fineAmount)
	return args.Error(0)
}

func (m *MockMailer) SendOverdueNotice(ctx context.Context, email, fullName, bookTitle string, daysOverdue int) error {
	args := m.Called(ctx, email, fullName, bookTitle, daysOverdue)
	return args.Error(0)
}

// MockCodeStore mocks the CodeStore interface
type MockCodeStore struct {
	mock.Mock
}

func (m *MockCodeStore) IssueCode(ctx context.Context, purpose, subject string) (string, error) {
	args := m.Called(ctx, purpose, subject)
	return args.String(0), args.Error(1)
}

func (m *MockCodeStore) VerifyCode(ctx context.Context, purpose, subject, code string) (bool, error) {
	args := m.Called(ctx, purpose, subject, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCodeStore) IssueResetToken(ctx context.Context, subject string) (string, error) {
	args := m.Called(ctx, subject)
	return args.String(0), args.Error(1)
}

func (m *MockCodeStore) VerifyResetToken(ctx context.Context, subject, token string) (bool, error) {
	args := m.Called(ctx, subject, token)
	return args.Bool(0), args.Error(1)
}
