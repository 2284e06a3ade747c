package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"libraryhub/internal/api/models"
	"libraryhub/internal/config"
	"libraryhub/internal/otp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type authFixture struct {
	users         *MockUserRepository
	refreshTokens *MockRefreshTokenRepository
	codes         *MockCodeStore
	mail          *MockMailer
	svc           AuthService
}

func newAuthFixture() *authFixture {
	users := new(MockUserRepository)
	refreshTokens := new(MockRefreshTokenRepository)
	codes := new(MockCodeStore)
	mail := new(MockMailer)

	cfg := &config.Config{
		JWTSecret:       "test-secret-test-secret-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &authFixture{
		users:         users,
		refreshTokens: refreshTokens,
		codes:         codes,
		mail:          mail,
		svc:           NewAuthService(users, refreshTokens, codes, mail, logger, cfg),
	}
}

func verifiedUser(password string) *models.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return &models.User{
		ID:                 "user-1",
		IdentificationCode: "U2021/CS/001",
		Password:           string(hashed),
		FullName:           "Ada Chen",
		Email:              "ada@example.edu",
		Status:             models.UserStatusActive,
		Role:               models.RoleStudent,
		Verified:           true,
		IDExpiration:       time.Now().AddDate(1, 0, 0),
	}
}

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(nil, gorm.ErrRecordNotFound)
	f.users.On("FindByEmail", mock.Anything, "ada@example.edu").Return(nil, gorm.ErrRecordNotFound)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	f.codes.On("IssueCode", mock.Anything, otp.PurposeVerify, "ada@example.edu").Return("123456", nil)
	f.mail.On("SendVerificationOTP", mock.Anything, "ada@example.edu", "123456", "Ada Chen").Return(nil)

	user, err := f.svc.Register(context.Background(), RegisterInput{
		IdentificationCode: "u2021/cs/001",
		Password:           "password123",
		FullName:           "Ada Chen",
		Faculty:            "Science",
		Department:         "Computer Science",
		Email:              "Ada@Example.edu",
		IDExpiration:       time.Now().AddDate(1, 0, 0),
	})

	assert.NoError(t, err)
	assert.Equal(t, "U2021/CS/001", user.IdentificationCode)
	assert.Equal(t, "ada@example.edu", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.False(t, user.Verified)
	assert.NotEqual(t, "password123", user.Password)

	var payload map[string]string
	assert.NoError(t, json.Unmarshal([]byte(user.QRCode), &payload))
	assert.Equal(t, "U2021/CS/001", payload["identification_code"])
	assert.NotEmpty(t, payload["timestamp"])

	f.users.AssertExpectations(t)
	f.mail.AssertExpectations(t)
}

func TestRegister_DuplicateIdentificationCode(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(verifiedUser("x"), nil)

	user, err := f.svc.Register(context.Background(), RegisterInput{
		IdentificationCode: "U2021/CS/001",
		Email:              "ada@example.edu",
	})

	assert.ErrorIs(t, err, ErrDuplicateIdentification)
	assert.Nil(t, user)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/002").Return(nil, gorm.ErrRecordNotFound)
	f.users.On("FindByEmail", mock.Anything, "ada@example.edu").Return(verifiedUser("x"), nil)

	user, err := f.svc.Register(context.Background(), RegisterInput{
		IdentificationCode: "U2021/CS/002",
		Email:              "ada@example.edu",
	})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Nil(t, user)
}

func TestVerifyAccount_Success(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	user.Verified = false
	f.users.On("FindByEmail", mock.Anything, "ada@example.edu").Return(user, nil)
	f.codes.On("VerifyCode", mock.Anything, otp.PurposeVerify, "ada@example.edu", "123456").Return(true, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)

	err := f.svc.VerifyAccount(context.Background(), "ada@example.edu", "123456")

	assert.NoError(t, err)
	assert.True(t, user.Verified)
}

func TestVerifyAccount_WrongCode(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	user.Verified = false
	f.users.On("FindByEmail", mock.Anything, "ada@example.edu").Return(user, nil)
	f.codes.On("VerifyCode", mock.Anything, otp.PurposeVerify, "ada@example.edu", "000000").Return(false, nil)

	err := f.svc.VerifyAccount(context.Background(), "ada@example.edu", "000000")

	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.False(t, user.Verified)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(user, nil)
	f.refreshTokens.On("Create", mock.Anything, mock.AnythingOfType("*models.RefreshToken")).Return(nil)
	f.users.On("TouchLastLogin", mock.Anything, "user-1", mock.Anything).Return(nil)

	accessToken, refreshToken, returnedUser, err := f.svc.Login(context.Background(), "u2021/cs/001", "password123")

	assert.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.Equal(t, user.ID, returnedUser.ID)
	f.refreshTokens.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(verifiedUser("password123"), nil)

	accessToken, refreshToken, user, err := f.svc.Login(context.Background(), "U2021/CS/001", "wrongpassword")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, accessToken)
	assert.Empty(t, refreshToken)
	assert.Nil(t, user)
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByIdentificationCode", mock.Anything, "NOBODY").Return(nil, gorm.ErrRecordNotFound)

	_, _, _, err := f.svc.Login(context.Background(), "nobody", "password123")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_BlockedAccount(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	user.Status = models.UserStatusBlocked
	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(user, nil)

	_, _, _, err := f.svc.Login(context.Background(), "U2021/CS/001", "password123")

	assert.ErrorIs(t, err, ErrUserNotActive)
}

func TestLogin_ExpiredStudentID(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	user.IDExpiration = time.Now().AddDate(0, 0, -1)
	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(user, nil)

	_, _, _, err := f.svc.Login(context.Background(), "U2021/CS/001", "password123")

	assert.ErrorIs(t, err, ErrCredentialExpired)
}

func TestLogin_UnverifiedAccount(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	user.Verified = false
	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(user, nil)

	_, _, _, err := f.svc.Login(context.Background(), "U2021/CS/001", "password123")

	assert.ErrorIs(t, err, ErrAccountNotVerified)
}

func TestCompleteStaffLogin_WrongOTP(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	user.Role = models.RoleLibrarian
	f.users.On("FindByEmail", mock.Anything, "ada@example.edu").Return(user, nil)
	f.codes.On("VerifyCode", mock.Anything, otp.PurposeStaffLogin, "ada@example.edu", "000000").Return(false, nil)

	_, _, _, err := f.svc.CompleteStaffLogin(context.Background(), "ada@example.edu", "000000")

	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestRequestStaffOTP_StudentRejected(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "ada@example.edu").Return(verifiedUser("password123"), nil)

	err := f.svc.RequestStaffOTP(context.Background(), "ada@example.edu")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	f.codes.AssertNotCalled(t, "IssueCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateToken_Roundtrip(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(user, nil)
	f.refreshTokens.On("Create", mock.Anything, mock.AnythingOfType("*models.RefreshToken")).Return(nil)
	f.users.On("TouchLastLogin", mock.Anything, "user-1", mock.Anything).Return(nil)

	accessToken, _, _, err := f.svc.Login(context.Background(), "U2021/CS/001", "password123")
	assert.NoError(t, err)

	claims, err := f.svc.ValidateToken(accessToken)

	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestValidateToken_Garbage(t *testing.T) {
	f := newAuthFixture()

	claims, err := f.svc.ValidateToken("invalid.token.here")

	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestRefreshAccessToken_Expired(t *testing.T) {
	f := newAuthFixture()

	token := &models.RefreshToken{
		ID:        "token-1",
		UserID:    "user-1",
		Token:     "expired-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	f.refreshTokens.On("FindByToken", mock.Anything, "expired-token").Return(token, nil)
	f.refreshTokens.On("Delete", mock.Anything, "token-1").Return(nil)

	_, err := f.svc.RefreshAccessToken(context.Background(), "expired-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshAccessToken_Revoked(t *testing.T) {
	f := newAuthFixture()

	token := &models.RefreshToken{
		ID:        "token-1",
		UserID:    "user-1",
		Token:     "revoked-token",
		ExpiresAt: time.Now().Add(time.Hour),
		Revoked:   true,
	}
	f.refreshTokens.On("FindByToken", mock.Anything, "revoked-token").Return(token, nil)

	_, err := f.svc.RefreshAccessToken(context.Background(), "revoked-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyQR_Success(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(user, nil)

	qr, _ := json.Marshal(map[string]string{
		"identification_code": "U2021/CS/001",
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	})

	resolved, err := f.svc.VerifyQR(context.Background(), string(qr))

	assert.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestVerifyQR_MalformedPayload(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.VerifyQR(context.Background(), "not json at all")

	assert.ErrorIs(t, err, ErrInvalidQRCode)
}

func TestVerifyQR_ExpiredCard(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("password123")
	user.IDExpiration = time.Now().AddDate(0, 0, -1)
	f.users.On("FindByIdentificationCode", mock.Anything, "U2021/CS/001").Return(user, nil)

	qr, _ := json.Marshal(map[string]string{"identification_code": "U2021/CS/001"})
	_, err := f.svc.VerifyQR(context.Background(), string(qr))

	assert.ErrorIs(t, err, ErrCredentialExpired)
}

func TestResetPassword_Success(t *testing.T) {
	f := newAuthFixture()

	user := verifiedUser("oldpassword1")
	oldHash := user.Password
	f.users.On("FindByEmail", mock.Anything, "ada@example.edu").Return(user, nil)
	f.codes.On("VerifyResetToken", mock.Anything, "ada@example.edu", "reset-token").Return(true, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)
	f.mail.On("SendPasswordChanged", mock.Anything, "ada@example.edu", "Ada Chen").Return(nil)

	err := f.svc.ResetPassword(context.Background(), "ada@example.edu", "reset-token", "newpassword1")

	assert.NoError(t, err)
	assert.NotEqual(t, oldHash, user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("newpassword1")))
}

func TestResetPassword_BadToken(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "ada@example.edu").Return(verifiedUser("x"), nil)
	f.codes.On("VerifyResetToken", mock.Anything, "ada@example.edu", "bogus").Return(false, nil)

	err := f.svc.ResetPassword(context.Background(), "ada@example.edu", "bogus", "newpassword1")

	assert.ErrorIs(t, err, ErrInvalidOTP)
}
