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

type FineHandler struct {
	svc service.FineService
}

func NewFineHandler(svc service.FineService) *FineHandler {
	return &FineHandler{svc: svc}
}

// RegisterRoutes mounts the fine endpoints. Payments are taken by staff at
// the desk; waivers are an admin decision.
func (h *FineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/:user_id", middleware.RequireSelfOrStaff("user_id"), h.ListUserFines)
	rg.GET("/users/:user_id/payments", middleware.RequireSelfOrStaff("user_id"), h.ListUserPayments)
	rg.POST("/users/:user_id/pay", middleware.RequireStaff(), h.Pay)
	rg.POST("/users/:user_id/waive", middleware.RequireAdmin(), h.Waive)
	rg.POST("/users/:user_id/waive/validate", middleware.RequireAdmin(), h.ValidateWaiver)
	rg.GET("/report", middleware.RequireStaff(), h.Report)
}

func (h *FineHandler) Pay(c *gin.Context) {
	var req dto.PayFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result, err := h.svc.PayFine(ctx, c.Param("user_id"), req.Amount, req.PaymentMethod, req.FineIDs, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FineHandler) Waive(c *gin.Context) {
	var req dto.WaiveFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount <= 0 && len(req.FineIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either an amount or fine_ids must be provided"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	adminID := c.GetString("userID")
	result, err := h.svc.WaiveFine(ctx, c.Param("user_id"), req.Amount, req.FineIDs, req.Reason, adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ValidateWaiver runs the waiver preconditions without mutating anything, so
// the admin UI can surface problems before the confirmation step.
func (h *FineHandler) ValidateWaiver(c *gin.Context) {
	var req dto.WaiveFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.ValidateWaiverEligibility(ctx, c.Param("user_id"), req.Amount, req.FineIDs); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligible": true})
}

func (h *FineHandler) ListUserFines(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	fines, err := h.svc.ListUserFines(ctx, c.Param("user_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fines": fines, "total": len(fines)})
}

func (h *FineHandler) ListUserPayments(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	payments, err := h.svc.ListUserPayments(ctx, c.Param("user_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "total": len(payments)})
}

func (h *FineHandler) Report(c *gin.Context) {
	var query dto.FineReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse("2006-01-02", query.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", query.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	// Make the end date inclusive.
	end = end.Add(24*time.Hour - time.Nanosecond)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	report, err := h.svc.Report(ctx, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
