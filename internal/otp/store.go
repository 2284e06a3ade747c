// Package otp stores short-lived one-time codes and password-reset tokens in
// redis. Codes live under purpose-scoped keys and are consumed on first
// successful verification.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// Code purposes; each gets its own key namespace.
const (
	PurposeVerify     = "verify"
	PurposeStaffLogin = "staff_login"
	PurposeReset      = "reset"
)

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(redisURL, password string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{client: client, ttl: ttl}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func key(purpose, subject string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, subject)
}

// IssueCode generates a 6-digit code for the subject (an email address) and
// stores it with the configured TTL, replacing any previous code.
func (s *Store) IssueCode(ctx context.Context, purpose, subject string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := s.client.Set(ctx, key(purpose, subject), hash(code), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// VerifyCode checks a code and consumes it on success. A wrong code leaves
// the stored one in place until it expires.
func (s *Store) VerifyCode(ctx context.Context, purpose, subject, code string) (bool, error) {
	k := key(purpose, subject)
	stored, err := s.client.Get(ctx, k).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read otp: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(hash(code))) != 1 {
		return false, nil
	}
	if err := s.client.Del(ctx, k).Err(); err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return true, nil
}

// IssueResetToken generates an opaque password-reset token. Only its hash is
// stored.
func (s *Store) IssueResetToken(ctx context.Context, subject string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := s.client.Set(ctx, key(PurposeReset, subject), hash(token), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// VerifyResetToken checks and consumes a password-reset token.
func (s *Store) VerifyResetToken(ctx context.Context, subject, token string) (bool, error) {
	return s.VerifyCode(ctx, PurposeReset, subject, token)
}

func hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
