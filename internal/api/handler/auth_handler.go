package handler

import (
	"context"
	"net/http"
	"time"

	"libraryhub/internal/api/dto"
	"libraryhub/internal/api/middleware"
	"libraryhub/internal/api/models"
	"libraryhub/internal/api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService    service.AuthService
	accessTokenTTL time.Duration
}

func NewAuthHandler(authService service.AuthService, accessTokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, accessTokenTTL: accessTokenTTL}
}

// RegisterRoutes mounts the auth endpoints. The whole group is rate limited
// per client IP to slow down credential stuffing and OTP guessing.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.RateLimit(5, 10))

	rg.POST("/register", h.Register)
	rg.POST("/verify", h.VerifyAccount)
	rg.POST("/login", h.Login)
	rg.POST("/staff/otp", h.RequestStaffOTP)
	rg.POST("/staff/login", h.StaffLogin)
	rg.POST("/refresh", h.RefreshToken)
	rg.POST("/qr/verify", h.VerifyQR)
	rg.POST("/password/forgot", h.RequestPasswordReset)
	rg.POST("/password/reset", h.ResetPassword)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.authService.Register(ctx, service.RegisterInput{
		IdentificationCode: req.IdentificationCode,
		Password:           req.Password,
		FullName:           req.FullName,
		Faculty:            req.Faculty,
		Department:         req.Department,
		Email:              req.Email,
		Phone:              req.Phone,
		IDExpiration:       req.IDExpiration,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":             user.ID,
		"identification_code": user.IdentificationCode,
		"email":               user.Email,
		"qr_code":             user.QRCode,
		"message":             "registration successful, check your email for the verification OTP",
	})
}

func (h *AuthHandler) VerifyAccount(c *gin.Context) {
	var req dto.VerifyAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.authService.VerifyAccount(ctx, req.Email, req.OTP); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account verified successfully"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	accessToken, refreshToken, user, err := h.authService.Login(ctx, req.IdentificationCode, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.authResponse(accessToken, refreshToken, user))
}

func (h *AuthHandler) RequestStaffOTP(c *gin.Context) {
	var req dto.StaffOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.authService.RequestStaffOTP(ctx, req.Email); err != nil {
		// Same response either way so the endpoint can't be used to probe
		// which emails belong to staff.
		c.JSON(http.StatusOK, gin.H{"message": "if the account exists, an OTP has been sent"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, an OTP has been sent"})
}

func (h *AuthHandler) StaffLogin(c *gin.Context) {
	var req dto.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	accessToken, refreshToken, user, err := h.authService.CompleteStaffLogin(ctx, req.Email, req.OTP)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.authResponse(accessToken, refreshToken, user))
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	newAccessToken, err := h.authService.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{
		AccessToken: newAccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.accessTokenTTL.Seconds()),
	})
}

func (h *AuthHandler) VerifyQR(c *gin.Context) {
	var req dto.QRVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.authService.VerifyQR(ctx, req.QRData)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":             user.ID,
		"identification_code": user.IdentificationCode,
		"full_name":           user.FullName,
		"faculty":             user.Faculty,
		"department":          user.Department,
		"status":              user.Status,
		"fines":               user.Fines,
	})
}

func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// Same response either way to avoid account enumeration.
	_ = h.authService.RequestPasswordReset(ctx, req.Email)
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset token has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.PasswordResetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.authService.ResetPassword(ctx, req.Email, req.Token, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset successfully"})
}

func (h *AuthHandler) authResponse(accessToken, refreshToken string, user *models.User) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		FullName:     user.FullName,
		Role:         user.Role,
		ExpiresIn:    int64(h.accessTokenTTL.Seconds()),
	}
}
