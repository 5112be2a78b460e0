// Package redis implements the OTP and rate limit stores on Redis.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/authline/authline/internal/core/domain"
	"github.com/authline/authline/internal/repository"
)

const (
	otpFieldCode      = "code"
	otpFieldUsed      = "used"
	otpFieldCreatedAt = "created_at"
	otpFieldExpiresAt = "expires_at"
)

// OTPStore keeps one-time codes as Redis hashes keyed by email.
// Reissuing a code replaces the previous hash, so at most one code
// per email is live at any time.
type OTPStore struct {
	client *goredis.Client
	prefix string
	now    func() time.Time
}

// NewOTPStore builds a store using the given key prefix.
func NewOTPStore(client *goredis.Client, prefix string) *OTPStore {
	if prefix == "" {
		prefix = "authline:otp"
	}
	return &OTPStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock overrides the store clock. Intended for tests.
func (s *OTPStore) WithClock(now func() time.Time) *OTPStore {
	s.now = now
	return s
}

func (s *OTPStore) key(email string) string {
	return fmt.Sprintf("%s:%s", s.prefix, strings.ToLower(email))
}

// Store writes a fresh code for the email, replacing any existing one.
// The key expires with the code so stale entries clean themselves up.
func (s *OTPStore) Store(ctx context.Context, email, code string, ttl time.Duration) (*domain.OTPRecord, error) {
	createdAt := s.now()
	record := &domain.OTPRecord{
		Email:     strings.ToLower(email),
		Code:      code,
		Used:      false,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}

	key := s.key(email)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		otpFieldCode:      code,
		otpFieldUsed:      0,
		otpFieldCreatedAt: record.CreatedAt.Unix(),
		otpFieldExpiresAt: record.ExpiresAt.Unix(),
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store otp for %s: %w", key, err)
	}

	return record, nil
}

// Fetch returns the live code record for the email.
func (s *OTPStore) Fetch(ctx context.Context, email string) (*domain.OTPRecord, error) {
	key := s.key(email)

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch otp for %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}

	record, err := recordFromFields(strings.ToLower(email), fields)
	if err != nil {
		return nil, fmt.Errorf("decode otp for %s: %w", key, err)
	}

	return record, nil
}

// MarkUsed flags the code as consumed while keeping the key TTL intact.
func (s *OTPStore) MarkUsed(ctx context.Context, email string) error {
	key := s.key(email)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check otp for %s: %w", key, err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}

	if err := s.client.HSet(ctx, key, otpFieldUsed, 1).Err(); err != nil {
		return fmt.Errorf("mark otp used for %s: %w", key, err)
	}

	return nil
}

// Delete removes any stored code for the email.
func (s *OTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("delete otp for %s: %w", s.key(email), err)
	}
	return nil
}

func recordFromFields(email string, fields map[string]string) (*domain.OTPRecord, error) {
	createdAt, err := strconv.ParseInt(fields[otpFieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	expiresAt, err := strconv.ParseInt(fields[otpFieldExpiresAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	return &domain.OTPRecord{
		Email:     email,
		Code:      fields[otpFieldCode],
		Used:      fields[otpFieldUsed] == "1",
		CreatedAt: time.Unix(createdAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}, nil
}
