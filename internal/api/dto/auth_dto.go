package dto

import "time"

// Data Transfer Objects for authentication requests and responses

// RegisterRequest: payload for student registration
type RegisterRequest struct {
	IdentificationCode string    `json:"identification_code" binding:"required,min=3,max=30"`
	Password           string    `json:"password" binding:"required,min=8"`
	FullName           string    `json:"full_name" binding:"required,min=2,max=100"`
	Faculty            string    `json:"faculty" binding:"required"`
	Department         string    `json:"department" binding:"required"`
	Email              string    `json:"email" binding:"required,email"`
	Phone              string    `json:"phone" binding:"omitempty,min=7,max=20"`
	IDExpiration       time.Time `json:"id_expiration" binding:"required"`
}

// VerifyAccountRequest: payload for consuming a verification OTP
type VerifyAccountRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// LoginRequest: payload for student login
type LoginRequest struct {
	IdentificationCode string `json:"identification_code" binding:"required"`
	Password           string `json:"password" binding:"required"`
}

// StaffOTPRequest: payload for requesting a staff-login OTP
type StaffOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// StaffLoginRequest: payload for completing a staff login with an OTP
type StaffLoginRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// AuthResponse: response payload after successful authentication
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// RefreshTokenRequest: payload for refreshing an access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse: response payload after refreshing an access token
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // "Bearer"
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// QRVerifyRequest: payload for resolving a scanned ID card
type QRVerifyRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}

// PasswordResetRequest: payload for requesting a reset token by mail
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetConfirm: payload for applying a reset token
type PasswordResetConfirm struct {
	Email       string `json:"email" binding:"required,email"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
