package controllers

import (
	testutils "github.com/alex-pricope/family-portal/api/controllers/testing"
	"github.com/alex-pricope/family-portal/api/transport"
	"github.com/alex-pricope/family-portal/auth"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/alex-pricope/family-portal/notify"
	"github.com/alex-pricope/family-portal/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
	"time"
)

const testSecret = "test-secret"

type testEnv struct {
	router      *gin.Engine
	issuer      *auth.SessionIssuer
	passcodes   *testutils.PasscodeStore
	events      *testutils.EventStore
	sessions    *testutils.SessionStore
	ratings     *testutils.RatingStore
	credentials *storage.MemoryCredentialStore
	mailer      *testutils.Mailer
	sms         *testutils.SMS
	tracker     *testutils.Tracker
	background  *BestEffort
}

func setupTestEnv(t *testing.T, admin AdminSettings) *testEnv {
	t.Helper()
	logging.Log = logrus.New()
	logging.Log.SetOutput(io.Discard)

	env := &testEnv{
		issuer:      auth.NewSessionIssuer(testSecret, time.Hour),
		passcodes:   testutils.NewPasscodeStore(),
		events:      &testutils.EventStore{},
		sessions:    &testutils.SessionStore{},
		ratings:     &testutils.RatingStore{},
		credentials: storage.NewMemoryCredentialStore(),
		mailer:      &testutils.Mailer{},
		sms:         &testutils.SMS{},
		tracker:     &testutils.Tracker{},
		background:  &BestEffort{},
	}
	providers := notify.Providers{Mailer: env.mailer, SMS: env.sms, Tracker: env.tracker}

	r := transport.NewRouter(gin.TestMode, false)
	NewAdminController(admin, env.credentials, env.sessions, env.issuer, providers, env.background).RegisterRoutes(r)
	NewPasscodeController(env.passcodes, env.sessions, env.issuer, env.issuer, env.tracker, env.background).RegisterRoutes(r)
	NewEventController(env.events, env.issuer).RegisterRoutes(r)
	NewAnnounceController(providers, env.issuer).RegisterRoutes(r)
	NewRatingController(env.ratings).RegisterRoutes(r)
	env.router = r

	t.Cleanup(env.background.Wait)
	return env
}

// adminHeaders returns headers carrying a freshly issued admin session.
func (e *testEnv) adminHeaders(t *testing.T) map[string]string {
	t.Helper()
	token, err := e.issuer.Issue("test-admin", auth.KindAdmin, 0)
	require.NoError(t, err)
	return map[string]string{transport.AdminSessionHeader: token}
}

func defaultAdmin() AdminSettings {
	return AdminSettings{
		Username:     "admin",
		PasswordHash: auth.HashPassword("password"),
		OTPTTL:       10 * time.Minute,
	}
}
