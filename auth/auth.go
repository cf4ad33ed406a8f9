package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"
	"math/big"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminNotConfigured = errors.New("admin password not configured")
	ErrInvalidPasscode    = errors.New("invalid passcode")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrInvalidSession     = errors.New("invalid session")
)

// NewID returns a 21 character nanoid, used for session, event and rating ids.
func NewID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id, nil
}

// HashPassword returns the hex SHA-256 of pw, the format ADMIN_PASSWORD_HASH is configured in.
func HashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

// HashPasswordBcrypt is used for passwords set through the OTP flow.
func HashPasswordBcrypt(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword compares pw against a bcrypt hash or a hex SHA-256 hash.
func CheckPassword(expectedHash, pw string) bool {
	if strings.HasPrefix(expectedHash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(expectedHash), []byte(pw)) == nil
	}
	got := HashPassword(pw)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(expectedHash)), []byte(got)) == 1
}

// GenerateOTP returns a 6 digit numeric code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
