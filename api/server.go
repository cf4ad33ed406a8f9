package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/alex-pricope/family-portal/api/controllers"
	"github.com/alex-pricope/family-portal/api/transport"
	"github.com/alex-pricope/family-portal/auth"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/alex-pricope/family-portal/notify"
	"github.com/alex-pricope/family-portal/storage"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

// Dependencies is everything the routes need. Tests build it with fakes.
type Dependencies struct {
	Passcodes   storage.PasscodeStorage
	Events      storage.EventStorage
	Sessions    storage.SessionStorage
	Ratings     storage.RatingStorage
	Credentials storage.CredentialStore
	Issuer      *auth.SessionIssuer
	Providers   notify.Providers
	Background  *controllers.BestEffort
}

// NewEngine registers every controller on a fresh router.
func NewEngine(ginMode string, swagger bool, admin controllers.AdminSettings, deps *Dependencies) *gin.Engine {
	r := transport.NewRouter(ginMode, swagger)

	controllers.NewAdminController(admin, deps.Credentials, deps.Sessions, deps.Issuer, deps.Providers, deps.Background).RegisterRoutes(r)
	controllers.NewPasscodeController(deps.Passcodes, deps.Sessions, deps.Issuer, deps.Issuer, deps.Providers.Tracker, deps.Background).RegisterRoutes(r)
	controllers.NewEventController(deps.Events, deps.Issuer).RegisterRoutes(r)
	controllers.NewAnnounceController(deps.Providers, deps.Issuer).RegisterRoutes(r)
	controllers.NewRatingController(deps.Ratings).RegisterRoutes(r)

	return r
}

func (s *Server) Start() {
	local := s.config.Mode == ModeLocal

	deps, err := s.buildDependencies(context.Background(), local)
	if err != nil {
		logging.Log.Errorf("failed to build dependencies: %v", err)
		panic("failed to build dependencies: " + err.Error())
	}

	mode := gin.ReleaseMode
	if local {
		mode = gin.DebugMode
	}
	r := NewEngine(mode, local, s.adminSettings(), deps)

	//Do not run lambda helper locally
	if local {
		startLocal(r, s.config.Port, deps.Background)
	} else {
		startLambda(r)
	}
}

func (s *Server) adminSettings() controllers.AdminSettings {
	return controllers.AdminSettings{
		Username:     s.config.AdminConfig.Username,
		PasswordHash: s.config.AdminConfig.PasswordHash,
		Email:        s.config.AdminConfig.Email,
		OTPTTL:       s.config.AdminConfig.OTPTTL,
	}
}

func (s *Server) buildDependencies(ctx context.Context, local bool) (*Dependencies, error) {
	rest := storage.NewRestClient(s.config.SupabaseURL, s.config.SupabaseKey, s.config.SupabaseTimeout)

	credentials, err := s.buildCredentialStore(ctx)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Passcodes:   &storage.SupabasePasscodeStorage{Client: rest, TableName: s.config.TableNamePasscodes},
		Events:      &storage.SupabaseEventStorage{Client: rest, TableName: s.config.TableNameEvents},
		Sessions:    &storage.SupabaseSessionStorage{Client: rest, TableName: s.config.TableNameSessions},
		Ratings:     &storage.SupabaseRatingStorage{Client: rest, TableName: s.config.TableNameRatings},
		Credentials: credentials,
		Issuer:      auth.NewSessionIssuer(s.config.SessionConfig.Secret, s.config.SessionConfig.TTL),
		Providers:   s.buildProviders(),
		Background:  &controllers.BestEffort{Inline: !local, Timeout: 5 * time.Second},
	}, nil
}

func (s *Server) buildCredentialStore(ctx context.Context) (storage.CredentialStore, error) {
	switch s.config.CredentialsConfig.Backend {
	case BackendRedis:
		store, err := storage.NewRedisCredentialStoreFromURL(s.config.CredentialsConfig.RedisURL, "family-portal")
		if err != nil {
			return nil, err
		}
		logging.Log.Info("Using redis credential store")
		return store, nil
	case BackendDynamoDB:
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		logging.Log.Info("Using dynamodb credential store")
		return &storage.DynamoCredentialStore{
			Client:    dynamodb.NewFromConfig(cfg),
			TableName: s.config.CredentialsConfig.TableName,
		}, nil
	case BackendMemory, "":
		logging.Log.Warn("Using in-memory credential store, reset state is lost on restart")
		return storage.NewMemoryCredentialStore(), nil
	default:
		return nil, fmt.Errorf("unknown credentials backend '%s'", s.config.CredentialsConfig.Backend)
	}
}

// buildProviders enables each provider only when its credentials are present.
func (s *Server) buildProviders() notify.Providers {
	var p notify.Providers
	pc := s.config.ProvidersConfig

	if pc.SendGridAPIKey != "" {
		p.Mailer = notify.NewSendGridMailer(pc.SendGridAPIKey, pc.SendGridFrom)
	} else {
		logging.Log.Info("SendGrid not configured, email disabled")
	}
	if pc.TwilioAccountSid != "" && pc.TwilioAuthToken != "" {
		p.SMS = notify.NewTwilioSender(pc.TwilioAccountSid, pc.TwilioAuthToken, pc.TwilioFrom)
	} else {
		logging.Log.Info("Twilio not configured, SMS disabled")
	}
	if pc.MixpanelToken != "" {
		p.Tracker = notify.NewMixpanelTracker(pc.MixpanelToken)
	} else {
		logging.Log.Info("Mixpanel not configured, analytics disabled")
	}
	return p
}

// StartLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// StartLocal serves HTTP until SIGINT/SIGTERM, then drains background tasks.
func startLocal(engine *gin.Engine, port int, background *controllers.BestEffort) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logging.Log.Errorf("Shutdown failed: %v", err)
		}
	}()

	logging.Log.Infof("Starting server on http://localhost:%d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
	background.Wait()
	logging.Log.Info("Server stopped")
}
