package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	testutils "github.com/alex-pricope/family-portal/api/controllers/testing"
	"github.com/alex-pricope/family-portal/api/models"
	"github.com/alex-pricope/family-portal/auth"
	"github.com/alex-pricope/family-portal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAdminLogin(t *testing.T) {
	t.Run("Happy path - valid credentials issue an admin session", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/login",
			models.AdminLoginRequest{Username: "admin", Password: "password"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var body models.SessionResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		require.NotEmpty(t, body.Session)

		claims, err := env.issuer.Verify(body.Session, auth.KindAdmin)
		require.NoError(t, err)

		env.background.Wait()
		sessions := env.sessions.All()
		require.Len(t, sessions, 1)
		assert.Equal(t, claims.ID, sessions[0].ID)
		assert.Equal(t, storage.SessionTypeAdmin, sessions[0].Type)
		assert.Nil(t, sessions[0].CodeLevel)

		tracked := env.tracker.All()
		require.Len(t, tracked, 1)
		assert.Equal(t, "admin_login", tracked[0].Name)
	})

	t.Run("Happy path - audit failure does not fail the login", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())
		env.sessions.Err = assert.AnError

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/login",
			models.AdminLoginRequest{Username: "admin", Password: "password"}, nil)
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("Unhappy path - wrong password", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/login",
			models.AdminLoginRequest{Username: "admin", Password: "nope"}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Contains(t, res.Body.String(), "Invalid credentials")
	})

	t.Run("Unhappy path - wrong username", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/login",
			models.AdminLoginRequest{Username: "root", Password: "password"}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Contains(t, res.Body.String(), "Invalid credentials")
	})

	t.Run("Unhappy path - no password configured", func(t *testing.T) {
		admin := defaultAdmin()
		admin.PasswordHash = ""
		env := setupTestEnv(t, admin)

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/login",
			models.AdminLoginRequest{Username: "admin", Password: ""}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Contains(t, res.Body.String(), "Admin password not configured")
		assert.Empty(t, env.sessions.All())
	})

	t.Run("Unhappy path - malformed body", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/login", "{not json", nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

// otpFromMail pulls the code out of the last reset email.
func otpFromMail(t *testing.T, mailer *testutils.Mailer) string {
	t.Helper()
	sent := mailer.All()
	require.NotEmpty(t, sent)
	last := sent[len(sent)-1]
	assert.Equal(t, models.OTPEmailSubject, last.Subject)
	otp := strings.TrimPrefix(last.Text, "Your OTP is ")
	require.Len(t, otp, 6)
	return otp
}

func TestAdminPasswordReset(t *testing.T) {
	t.Run("Happy path - reset then verify sets a new password", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/reset",
			models.AdminResetRequest{Email: "owner@example.com"}, nil)
		require.Equal(t, http.StatusOK, res.Code)
		otp := otpFromMail(t, env.mailer)
		assert.Equal(t, []string{"owner@example.com"}, env.mailer.All()[0].To)

		// The old password stops working as soon as a reset starts
		res = testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/login",
			models.AdminLoginRequest{Username: "admin", Password: "password"}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)

		res = testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
			models.VerifyOTPRequest{OTP: otp, NewPassword: "fresh-password"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/login",
			models.AdminLoginRequest{Username: "admin", Password: "fresh-password"}, nil)
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("Unhappy path - otp is single use", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/reset",
			models.AdminResetRequest{Email: "owner@example.com"}, nil)
		otp := otpFromMail(t, env.mailer)

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
			models.VerifyOTPRequest{OTP: otp, NewPassword: "first"}, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
			models.VerifyOTPRequest{OTP: otp, NewPassword: "second"}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Contains(t, res.Body.String(), "Invalid OTP")
	})

	t.Run("Unhappy path - expired otp", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())
		now := time.Now()
		env.credentials.Now = func() time.Time { return now }

		testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/reset",
			models.AdminResetRequest{Email: "owner@example.com"}, nil)
		otp := otpFromMail(t, env.mailer)

		now = now.Add(11 * time.Minute)
		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
			models.VerifyOTPRequest{OTP: otp, NewPassword: "late"}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Unhappy path - wrong otp", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/reset",
			models.AdminResetRequest{Email: "owner@example.com"}, nil)
		otp := otpFromMail(t, env.mailer)
		wrong := "000000"
		if otp == wrong {
			wrong = "111111"
		}

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
			models.VerifyOTPRequest{OTP: wrong, NewPassword: "x"}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Happy path - concurrent verifies with the right code, one wins", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())
		require.NoError(t, env.credentials.PutOTP(context.Background(), "admin", "123456", time.Minute))

		const callers = 5
		statuses := make([]int, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
					models.VerifyOTPRequest{OTP: "123456", NewPassword: fmt.Sprintf("password-%d", i)}, nil)
				statuses[i] = res.Code
			}()
		}
		wg.Wait()

		successes := 0
		for _, status := range statuses {
			if status == http.StatusOK {
				successes++
			} else {
				assert.Equal(t, http.StatusUnauthorized, status)
			}
		}
		assert.Equal(t, 1, successes)
	})

	t.Run("Unhappy path - otp is dropped after too many wrong codes", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())
		require.NoError(t, env.credentials.PutOTP(context.Background(), "admin", "123456", time.Minute))

		for i := 0; i < storage.MaxOTPAttempts; i++ {
			res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
				models.VerifyOTPRequest{OTP: "000000", NewPassword: "x"}, nil)
			require.Equal(t, http.StatusUnauthorized, res.Code)
		}

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
			models.VerifyOTPRequest{OTP: "123456", NewPassword: "x"}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Unhappy path - password too long for bcrypt", func(t *testing.T) {
		tests := []struct {
			name     string
			password string
		}{
			{name: "ascii", password: strings.Repeat("a", 80)},
			{name: "multi-byte under the rune limit", password: strings.Repeat("é", 40)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := setupTestEnv(t, defaultAdmin())
				require.NoError(t, env.credentials.PutOTP(context.Background(), "admin", "123456", time.Minute))

				res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
					models.VerifyOTPRequest{OTP: "123456", NewPassword: tt.password}, nil)
				assert.Equal(t, http.StatusBadRequest, res.Code)
				assert.JSONEq(t, `{"message":"newPassword is too long"}`, res.Body.String())

				// The code is still usable with a valid password
				res = testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
					models.VerifyOTPRequest{OTP: "123456", NewPassword: strings.Repeat("a", 72)}, nil)
				assert.Equal(t, http.StatusOK, res.Code)
			})
		}
	})

	t.Run("Unhappy path - verify without any reset", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
			models.VerifyOTPRequest{OTP: "123456", NewPassword: "x"}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)

		_, err := env.credentials.GetPasswordHash(context.Background(), "admin")
		assert.ErrorIs(t, err, storage.ErrItemNotFound)
	})

	t.Run("Unhappy path - missing new password", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/verify-otp",
			map[string]string{"otp": "123456"}, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Contains(t, res.Body.String(), "newPassword required")
	})

	t.Run("Unhappy path - invalid email", func(t *testing.T) {
		env := setupTestEnv(t, defaultAdmin())

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/reset",
			map[string]string{"email": "not-an-email"}, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Contains(t, res.Body.String(), "email must be a valid email")
		assert.Empty(t, env.mailer.All())
	})

	t.Run("Unhappy path - foreign address is acknowledged and ignored", func(t *testing.T) {
		admin := defaultAdmin()
		admin.Email = "owner@example.com"
		env := setupTestEnv(t, admin)

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/reset",
			models.AdminResetRequest{Email: "stranger@example.com"}, nil)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Empty(t, env.mailer.All())

		// Password still works since nothing was cleared
		res = testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/login",
			models.AdminLoginRequest{Username: "admin", Password: "password"}, nil)
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("Happy path - configured address matches case-insensitively", func(t *testing.T) {
		admin := defaultAdmin()
		admin.Email = "owner@example.com"
		env := setupTestEnv(t, admin)

		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/reset",
			models.AdminResetRequest{Email: "Owner@Example.com"}, nil)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Len(t, env.mailer.All(), 1)
	})
}
