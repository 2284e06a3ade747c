package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"libraryhub/internal/api/models"
	"libraryhub/internal/api/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookInput carries the writable catalog fields.
type BookInput struct {
	Title           string
	Author          string
	ISBN            string
	Publisher       string
	PublicationYear int
	Category        string
	TotalCopies     int
	Shelf           string
	Row             string
	Description     string
	Image           string
}

type BookService interface {
	ListBooks(ctx context.Context, filter repository.BookFilter) ([]models.Book, int64, error)
	GetBook(ctx context.Context, id string) (*models.Book, error)
	AddBook(ctx context.Context, input BookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, id string, input BookInput) (*models.Book, error)
	// DeactivateBook hides the book from the catalog but keeps its history.
	DeactivateBook(ctx context.Context, id string) error
	// DeleteBook removes the record permanently. Refused while copies are
	// out; the error lists who still holds them.
	DeleteBook(ctx context.Context, id string) error
}

type bookService struct {
	repos  repository.Repositories
	logger *slog.Logger
}

func NewBookService(repos repository.Repositories, logger *slog.Logger) BookService {
	return &bookService{repos: repos, logger: logger}
}

func (s *bookService) ListBooks(ctx context.Context, filter repository.BookFilter) ([]models.Book, int64, error) {
	return s.repos.Books.List(ctx, filter)
}

func (s *bookService) GetBook(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.repos.Books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

func (s *bookService) AddBook(ctx context.Context, input BookInput) (*models.Book, error) {
	book := &models.Book{
		ID:              uuid.New().String(),
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            strings.TrimSpace(input.ISBN),
		Publisher:       input.Publisher,
		PublicationYear: input.PublicationYear,
		Category:        input.Category,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
		Shelf:           input.Shelf,
		Row:             input.Row,
		Description:     input.Description,
		Image:           input.Image,
		IsActive:        true,
	}
	if err := s.repos.Books.Create(ctx, book); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrDuplicateISBN
		}
		return nil, err
	}

	s.logger.Info("book added", "book_id", book.ID, "isbn", book.ISBN, "copies", book.TotalCopies)
	return book, nil
}

// UpdateBook applies catalog edits. Changing total_copies shifts
// available_copies by the same delta so the number of copies on loan is
// preserved; shrinking below the on-loan count is refused.
func (s *bookService) UpdateBook(ctx context.Context, id string, input BookInput) (*models.Book, error) {
	book, err := s.repos.Books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	if input.TotalCopies != book.TotalCopies {
		borrowed := book.TotalCopies - book.AvailableCopies
		if input.TotalCopies < borrowed {
			return nil, ErrTotalBelowBorrowed
		}
		book.AvailableCopies = input.TotalCopies - borrowed
		book.TotalCopies = input.TotalCopies
	}

	book.Title = input.Title
	book.Author = input.Author
	book.ISBN = strings.TrimSpace(input.ISBN)
	book.Publisher = input.Publisher
	book.PublicationYear = input.PublicationYear
	book.Category = input.Category
	book.Shelf = input.Shelf
	book.Row = input.Row
	book.Description = input.Description
	book.Image = input.Image

	if err := s.repos.Books.Update(ctx, book); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrDuplicateISBN
		}
		return nil, err
	}
	return book, nil
}

func (s *bookService) DeactivateBook(ctx context.Context, id string) error {
	book, err := s.repos.Books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}
	book.IsActive = false
	return s.repos.Books.Update(ctx, book)
}

func (s *bookService) DeleteBook(ctx context.Context, id string) error {
	book, err := s.repos.Books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}

	open, err := s.repos.Users.ListOpenBorrowsByBook(ctx, id)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		borrowsErr := &ActiveBorrowsError{
			BookTitle:  book.Title,
			BookAuthor: book.Author,
			Count:      len(open),
		}
		now := time.Now()
		for _, entry := range open {
			borrower := ActiveBorrower{
				UserID:     entry.UserID,
				BorrowDate: entry.BorrowDate,
				DueDate:    entry.DueDate,
				Status:     entry.Status,
			}
			if now.After(entry.DueDate) {
				borrower.DaysOverdue = DaysOverdue(entry.DueDate, now)
			}
			if user, err := s.repos.Users.FindByID(ctx, entry.UserID); err == nil {
				borrower.FullName = user.FullName
				borrower.IdentificationCode = user.IdentificationCode
				borrower.Email = user.Email
			}
			borrowsErr.Borrowers = append(borrowsErr.Borrowers, borrower)
		}
		return borrowsErr
	}

	if err := s.repos.Books.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("book deleted", "book_id", id, "isbn", book.ISBN)
	return nil
}
