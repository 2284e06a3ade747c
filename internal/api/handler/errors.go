package handler

import (
	"errors"
	"net/http"

	"libraryhub/internal/api/service"

	"github.com/gin-gonic/gin"
)

// respondServiceError translates service failures to HTTP responses. Every
// sentinel maps to a fixed status so clients can rely on it.
func respondServiceError(c *gin.Context, err error) {
	var activeBorrows *service.ActiveBorrowsError
	if errors.As(err, &activeBorrows) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   activeBorrows.Error(),
			"details": activeBorrows,
		})
		return
	}

	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrBookNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTransactionNotFound),
		errors.Is(err, service.ErrFineNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrDuplicateISBN),
		errors.Is(err, service.ErrDuplicateIdentification),
		errors.Is(err, service.ErrDuplicateEmail):
		return http.StatusConflict

	case errors.Is(err, service.ErrNoCopiesAvailable),
		errors.Is(err, service.ErrAlreadyBorrowed),
		errors.Is(err, service.ErrAlreadyReturned),
		errors.Is(err, service.ErrUserNotActive),
		errors.Is(err, service.ErrCredentialExpired),
		errors.Is(err, service.ErrOutstandingFines),
		errors.Is(err, service.ErrBorrowLimitReached),
		errors.Is(err, service.ErrInvalidDueDate),
		errors.Is(err, service.ErrNoOutstandingFines),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrOverpaymentNotAllowed),
		errors.Is(err, service.ErrInsufficientPayment),
		errors.Is(err, service.ErrWaiverLimitExceeded),
		errors.Is(err, service.ErrWaiverExceedsFines),
		errors.Is(err, service.ErrInvalidWaiverReason),
		errors.Is(err, service.ErrTotalBelowBorrowed),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrInvalidQRCode):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrAccountNotVerified):
		return http.StatusUnauthorized
	}

	return http.StatusInternalServerError
}
