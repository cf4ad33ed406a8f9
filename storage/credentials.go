package storage

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// MaxOTPAttempts is the number of wrong codes after which a pending OTP is deleted.
const MaxOTPAttempts = 5

// CredentialStore keeps the admin password-reset state: a pending OTP that
// expires, and a password hash that overrides the configured one once set.
// GetPasswordHash returns ErrItemNotFound when nothing is stored.
type CredentialStore interface {
	PutOTP(ctx context.Context, username, otp string, ttl time.Duration) error
	// ConsumeOTP atomically checks otp against the pending, unexpired code and
	// deletes it on a match, so only one caller can ever succeed. A mismatch
	// counts as a failed attempt. No pending code reports false.
	ConsumeOTP(ctx context.Context, username, otp string) (bool, error)
	SetPasswordHash(ctx context.Context, username, hash string) error
	GetPasswordHash(ctx context.Context, username string) (string, error)
}

type memoryOTP struct {
	value     string
	expiresAt time.Time
	attempts  int
}

// MemoryCredentialStore lives in process memory. Entries do not survive a restart
// and are not shared between instances, so it only fits local runs and tests.
type MemoryCredentialStore struct {
	mu        sync.Mutex
	otps      map[string]*memoryOTP
	passwords map[string]string
	Now       func() time.Time
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		otps:      make(map[string]*memoryOTP),
		passwords: make(map[string]string),
		Now:       time.Now,
	}
}

func (s *MemoryCredentialStore) PutOTP(_ context.Context, username, otp string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[username] = &memoryOTP{value: otp, expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *MemoryCredentialStore) ConsumeOTP(_ context.Context, username, otp string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.otps[username]
	if !ok {
		return false, nil
	}
	if !s.Now().Before(entry.expiresAt) {
		delete(s.otps, username)
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(entry.value), []byte(otp)) == 1 {
		delete(s.otps, username)
		return true, nil
	}

	entry.attempts++
	if entry.attempts >= MaxOTPAttempts {
		delete(s.otps, username)
	}
	return false, nil
}

func (s *MemoryCredentialStore) SetPasswordHash(_ context.Context, username, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords[username] = hash
	return nil
}

func (s *MemoryCredentialStore) GetPasswordHash(_ context.Context, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.passwords[username]
	if !ok {
		return "", ErrItemNotFound
	}
	return hash, nil
}
