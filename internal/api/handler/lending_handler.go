package handler

import (
	"context"
	"net/http"
	"time"

	"libraryhub/internal/api/dto"
	"libraryhub/internal/api/middleware"
	"libraryhub/internal/api/service"

	"github.com/gin-gonic/gin"
)

type LendingHandler struct {
	svc service.LendingService
}

func NewLendingHandler(svc service.LendingService) *LendingHandler {
	return &LendingHandler{svc: svc}
}

// RegisterRoutes mounts the lending endpoints. Borrowing and returning happen
// at the desk, so those routes require a staff account.
func (h *LendingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/borrow", middleware.RequireStaff(), h.Borrow)
	rg.POST("/:id/return", middleware.RequireStaff(), h.Return)
	rg.POST("/bulk-return", middleware.RequireStaff(), h.BulkReturn)
	rg.GET("/:id", middleware.RequireStaff(), h.Get)
	rg.GET("/user/:user_id", middleware.RequireSelfOrStaff("user_id"), h.ListByUser)
}

func (h *LendingHandler) Borrow(c *gin.Context) {
	var req dto.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	transaction, err := h.svc.Borrow(ctx, req.BookID, req.UserID, req.DueDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

func (h *LendingHandler) Return(c *gin.Context) {
	var req dto.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result, err := h.svc.Return(ctx, c.Param("id"), service.ReturnOptions{
		Condition: req.Condition,
		Notes:     req.Notes,
		WaiveFine: req.WaiveFine,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// BulkReturn processes each transaction independently; the response reports
// the per-unit outcomes instead of failing the whole batch.
func (h *LendingHandler) BulkReturn(c *gin.Context) {
	var req dto.BulkReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A wider timeout here: each unit is its own database transaction.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	items := h.svc.BulkReturn(ctx, req.TransactionIDs, service.ReturnOptions{
		Condition: req.Condition,
		Notes:     req.Notes,
		WaiveFine: req.WaiveFine,
	})

	succeeded := 0
	for _, item := range items {
		if item.Error == "" {
			succeeded++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"results":   items,
		"total":     len(items),
		"succeeded": succeeded,
		"failed":    len(items) - succeeded,
	})
}

func (h *LendingHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	transaction, err := h.svc.GetTransaction(ctx, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func (h *LendingHandler) ListByUser(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	transactions, err := h.svc.ListUserTransactions(ctx, c.Param("user_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "total": len(transactions)})
}
