package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"libraryhub/internal/api/models"
	"libraryhub/internal/api/repository"
	"libraryhub/internal/config"
	"libraryhub/internal/mailer"
	"libraryhub/internal/middleware/auth"
	"libraryhub/internal/otp"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Claims is the access-token payload.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CodeStore is the slice of the OTP store the auth service needs.
type CodeStore interface {
	IssueCode(ctx context.Context, purpose, subject string) (string, error)
	VerifyCode(ctx context.Context, purpose, subject, code string) (bool, error)
	IssueResetToken(ctx context.Context, subject string) (string, error)
	VerifyResetToken(ctx context.Context, subject, token string) (bool, error)
}

// RegisterInput carries the registration fields.
type RegisterInput struct {
	IdentificationCode string
	Password           string
	FullName           string
	Faculty            string
	Department         string
	Email              string
	Phone              string
	IDExpiration       time.Time
}

// qrPayload is the JSON encoded onto the physical ID card. Only the payload
// is generated here; image rendering happens client-side.
type qrPayload struct {
	IdentificationCode string `json:"identification_code"`
	Timestamp          string `json:"timestamp"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	VerifyAccount(ctx context.Context, email, code string) error
	Login(ctx context.Context, identificationCode, password string) (accessToken, refreshToken string, user *models.User, err error)
	RequestStaffOTP(ctx context.Context, email string) error
	CompleteStaffLogin(ctx context.Context, email, code string) (accessToken, refreshToken string, user *models.User, err error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (newAccessToken string, err error)
	ValidateToken(tokenString string) (*Claims, error)
	VerifyQR(ctx context.Context, qrData string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, newPassword string) error
}

type authService struct {
	users           repository.UserRepository
	refreshTokens   repository.RefreshTokenRepository
	codes           CodeStore
	mailer          mailer.Mailer
	logger          *slog.Logger
	jwtSecret       string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewAuthService(
	users repository.UserRepository,
	refreshTokens repository.RefreshTokenRepository,
	codes CodeStore,
	m mailer.Mailer,
	logger *slog.Logger,
	cfg *config.Config,
) AuthService {
	return &authService{
		users:           users,
		refreshTokens:   refreshTokens,
		codes:           codes,
		mailer:          m,
		logger:          logger,
		jwtSecret:       cfg.JWTSecret,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}
}

// Register creates an unverified user and sends the verification OTP.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	code := strings.ToUpper(strings.TrimSpace(input.IdentificationCode))
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.users.FindByIdentificationCode(ctx, code); err == nil {
		return nil, ErrDuplicateIdentification
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	qr, err := json.Marshal(qrPayload{
		IdentificationCode: code,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encode qr payload: %w", err)
	}

	user := &models.User{
		ID:                 uuid.New().String(),
		IdentificationCode: code,
		Password:           hashedPassword,
		FullName:           input.FullName,
		Faculty:            input.Faculty,
		Department:         input.Department,
		Email:              email,
		Phone:              input.Phone,
		IDExpiration:       input.IDExpiration,
		QRCode:             string(qr),
		Status:             models.UserStatusActive,
		Role:               models.RoleStudent,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrDuplicateIdentification
		}
		return nil, err
	}

	otpCode, err := s.codes.IssueCode(ctx, otp.PurposeVerify, email)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendVerificationOTP(ctx, email, otpCode, user.FullName); err != nil {
		// The account exists either way; the user can request a new code.
		s.logger.Warn("verification mail failed", "user_id", user.ID, "error", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "identification_code", code)
	return user, nil
}

// VerifyAccount consumes a verification OTP and marks the user verified.
func (s *authService) VerifyAccount(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := s.codes.VerifyCode(ctx, otp.PurposeVerify, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}

	user.Verified = true
	return s.users.Update(ctx, user)
}

// Login authenticates by identification code and password.
func (s *authService) Login(ctx context.Context, identificationCode, password string) (string, string, *models.User, error) {
	user, err := s.users.FindByIdentificationCode(ctx, strings.ToUpper(strings.TrimSpace(identificationCode)))
	if err != nil {
		// Dummy compare so a missing user costs the same as a wrong password.
		auth.VerifyPassword("$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e", password)
		return "", "", nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	if user.Status != models.UserStatusActive {
		return "", "", nil, ErrUserNotActive
	}
	if !user.IsIDValid(time.Now()) {
		return "", "", nil, ErrCredentialExpired
	}
	if !user.Verified {
		return "", "", nil, ErrAccountNotVerified
	}

	return s.issueTokens(ctx, user)
}

// RequestStaffOTP mails a staff-login OTP; only librarians and admins get one.
func (s *authService) RequestStaffOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Role != models.RoleLibrarian && user.Role != models.RoleAdmin {
		return ErrInvalidCredentials
	}

	code, err := s.codes.IssueCode(ctx, otp.PurposeStaffLogin, email)
	if err != nil {
		return err
	}
	return s.mailer.SendLoginOTP(ctx, email, code, user.FullName)
}

// CompleteStaffLogin exchanges a staff OTP for tokens.
func (s *authService) CompleteStaffLogin(ctx context.Context, email, code string) (string, string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil, ErrUserNotFound
		}
		return "", "", nil, err
	}
	if user.Status != models.UserStatusActive {
		return "", "", nil, ErrUserNotActive
	}

	ok, err := s.codes.VerifyCode(ctx, otp.PurposeStaffLogin, email, code)
	if err != nil {
		return "", "", nil, err
	}
	if !ok {
		return "", "", nil, ErrInvalidOTP
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (string, string, *models.User, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", nil, err
	}

	refreshToken := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.refreshTokenTTL),
	}
	if err := s.refreshTokens.Create(ctx, refreshToken); err != nil {
		return "", "", nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("touch last login failed", "user_id", user.ID, "error", err)
	}

	return accessToken, refreshToken.Token, user, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) RefreshAccessToken(ctx context.Context, refreshTokenString string) (string, error) {
	refreshToken, err := s.refreshTokens.FindByToken(ctx, refreshTokenString)
	if err != nil {
		return "", ErrInvalidToken
	}
	if refreshToken.Revoked {
		return "", ErrInvalidToken
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		if err := s.refreshTokens.Delete(ctx, refreshToken.ID); err != nil {
			s.logger.Warn("delete expired refresh token failed", "error", err)
		}
		return "", ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, refreshToken.UserID)
	if err != nil {
		return "", err
	}

	return s.generateAccessToken(user)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyQR resolves a scanned card payload to an active, valid user.
func (s *authService) VerifyQR(ctx context.Context, qrData string) (*models.User, error) {
	var payload qrPayload
	if err := json.Unmarshal([]byte(qrData), &payload); err != nil {
		return nil, ErrInvalidQRCode
	}

	user, err := s.users.FindByIdentificationCode(ctx, payload.IdentificationCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, ErrUserNotActive
	}
	if !user.IsIDValid(time.Now()) {
		return nil, ErrCredentialExpired
	}
	return user, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	token, err := s.codes.IssueResetToken(ctx, email)
	if err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, email, token, user.FullName)
}

func (s *authService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := s.codes.VerifyResetToken(ctx, email, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashedPassword
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordChanged(ctx, email, user.FullName); err != nil {
		// Non-critical, so just log the error
		s.logger.Warn("password changed mail failed", "user_id", user.ID, "error", err)
	}
	return nil
}
