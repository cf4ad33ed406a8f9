package api

import (
	"context"
	"encoding/json"
	"github.com/alex-pricope/family-portal/api/controllers"
	testutils "github.com/alex-pricope/family-portal/api/controllers/testing"
	"github.com/alex-pricope/family-portal/api/models"
	"github.com/alex-pricope/family-portal/auth"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/alex-pricope/family-portal/notify"
	"github.com/alex-pricope/family-portal/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"testing"
	"time"
)

func setupTestEngine(t *testing.T) (*gin.Engine, *testutils.SessionStore) {
	t.Helper()
	logging.Log = logrus.New()
	logging.Log.SetOutput(io.Discard)

	sessions := &testutils.SessionStore{}
	deps := &Dependencies{
		Passcodes:   testutils.NewPasscodeStore(),
		Events:      &testutils.EventStore{},
		Sessions:    sessions,
		Ratings:     &testutils.RatingStore{},
		Credentials: storage.NewMemoryCredentialStore(),
		Issuer:      auth.NewSessionIssuer("engine-secret", time.Hour),
		Providers:   notify.Providers{Mailer: &testutils.Mailer{}},
		Background:  &controllers.BestEffort{Inline: true},
	}
	admin := controllers.AdminSettings{
		Username:     "admin",
		PasswordHash: auth.HashPassword("password"),
		OTPTTL:       time.Minute,
	}
	return NewEngine(gin.TestMode, false, admin, deps), sessions
}

func TestNewEngine(t *testing.T) {
	t.Run("Happy path - admin flow across controllers", func(t *testing.T) {
		r, sessions := setupTestEngine(t)

		res := testutils.PerformRequest(r, http.MethodPost, "/api/admin/login",
			models.AdminLoginRequest{Username: "admin", Password: "password"}, nil)
		require.Equal(t, http.StatusOK, res.Code)
		var login models.SessionResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &login))

		// Inline background work is done before the response
		assert.Len(t, sessions.All(), 1)

		headers := map[string]string{"x-admin-session": login.Session}
		res = testutils.PerformRequest(r, http.MethodPost, "/api/passcodes",
			map[string]any{"passcode": "ABC1", "level": 9}, headers)
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(r, http.MethodGet, "/api/passcodes", nil, headers)
		require.Equal(t, http.StatusOK, res.Code)
		assert.JSONEq(t, `[{"passcode":"ABC1","level":4}]`, res.Body.String())

		res = testutils.PerformRequest(r, http.MethodPost, "/api/passcode/login",
			models.PasscodeLoginRequest{Passcode: "ABC1"}, nil)
		require.Equal(t, http.StatusOK, res.Code)
		var viewer models.PasscodeLoginResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &viewer))
		assert.Equal(t, 4, viewer.Level)
	})

	t.Run("Happy path - public routes", func(t *testing.T) {
		r, _ := setupTestEngine(t)

		res := testutils.PerformRequest(r, http.MethodGet, "/api/health", nil, nil)
		assert.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(r, http.MethodGet, "/api/events", nil, nil)
		assert.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(r, http.MethodPost, "/api/rate", map[string]any{"session_id": "s"}, nil)
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("Unhappy path - admin routes are guarded", func(t *testing.T) {
		r, _ := setupTestEngine(t)

		for _, route := range []struct{ method, path string }{
			{http.MethodGet, "/api/passcodes"},
			{http.MethodPost, "/api/passcodes"},
			{http.MethodDelete, "/api/passcodes/x"},
			{http.MethodPost, "/api/events"},
			{http.MethodDelete, "/api/events/x"},
			{http.MethodPost, "/api/announce"},
		} {
			res := testutils.PerformRequest(r, route.method, route.path, map[string]any{}, nil)
			assert.Equal(t, http.StatusUnauthorized, res.Code, "%s %s", route.method, route.path)
		}
	})
}

func TestBuildCredentialStore(t *testing.T) {
	logging.Log = logrus.New()
	logging.Log.SetOutput(io.Discard)

	t.Run("Happy path - memory by default", func(t *testing.T) {
		s := NewServer(&Config{})
		store, err := s.buildCredentialStore(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &storage.MemoryCredentialStore{}, store)
	})

	t.Run("Happy path - redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s := NewServer(&Config{CredentialsConfig: CredentialsConfig{Backend: BackendRedis, RedisURL: "redis://" + mr.Addr()}})

		store, err := s.buildCredentialStore(context.Background())
		require.NoError(t, err)
		require.IsType(t, &storage.RedisCredentialStore{}, store)

		require.NoError(t, store.SetPasswordHash(context.Background(), "admin", "h"))
		assert.True(t, mr.Exists("family-portal:password:admin"))
	})

	t.Run("Unhappy path - bad redis url", func(t *testing.T) {
		s := NewServer(&Config{CredentialsConfig: CredentialsConfig{Backend: BackendRedis, RedisURL: "not a url"}})
		_, err := s.buildCredentialStore(context.Background())
		assert.Error(t, err)
	})

	t.Run("Unhappy path - unknown backend", func(t *testing.T) {
		s := NewServer(&Config{CredentialsConfig: CredentialsConfig{Backend: "etcd"}})
		_, err := s.buildCredentialStore(context.Background())
		assert.Error(t, err)
	})
}

func TestBuildProviders(t *testing.T) {
	logging.Log = logrus.New()
	logging.Log.SetOutput(io.Discard)

	t.Run("Happy path - nothing configured disables everything", func(t *testing.T) {
		p := NewServer(&Config{}).buildProviders()
		assert.Nil(t, p.Mailer)
		assert.Nil(t, p.SMS)
		assert.Nil(t, p.Tracker)
	})

	t.Run("Happy path - each provider with credentials", func(t *testing.T) {
		p := NewServer(&Config{ProvidersConfig: ProvidersConfig{
			SendGridAPIKey:   "sg",
			SendGridFrom:     "noreply@example.com",
			TwilioAccountSid: "AC1",
			TwilioAuthToken:  "tok",
			TwilioFrom:       "+1555",
			MixpanelToken:    "mp",
		}}).buildProviders()
		assert.NotNil(t, p.Mailer)
		assert.NotNil(t, p.SMS)
		assert.NotNil(t, p.Tracker)
	})

	t.Run("Unhappy path - twilio needs both sid and token", func(t *testing.T) {
		p := NewServer(&Config{ProvidersConfig: ProvidersConfig{TwilioAccountSid: "AC1"}}).buildProviders()
		assert.Nil(t, p.SMS)
	})
}
