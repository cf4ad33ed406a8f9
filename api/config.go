package api

import (
	"github.com/alex-pricope/family-portal/logging"
	"github.com/spf13/viper"
	"strings"
	"sync"
	"time"
)

type Config struct {
	StorageConfig
	ServerConfig
	AdminConfig
	SessionConfig
	CredentialsConfig
	ProvidersConfig
}

type StorageConfig struct {
	SupabaseURL     string
	SupabaseKey     string
	SupabaseTimeout time.Duration

	TableNamePasscodes string
	TableNameEvents    string
	TableNameSessions  string
	TableNameRatings   string
}

type ServerConfig struct {
	Port int
	Mode string
}

type AdminConfig struct {
	Username     string
	PasswordHash string
	Email        string
	OTPTTL       time.Duration
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type CredentialsConfig struct {
	Backend   string
	RedisURL  string
	TableName string
}

type ProvidersConfig struct {
	SendGridAPIKey   string
	SendGridFrom     string
	TwilioAccountSid string
	TwilioAuthToken  string
	TwilioFrom       string
	MixpanelToken    string
}

const (
	ModeLocal  = "local"
	ModeLambda = "lambda"

	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

var settingsOnce sync.Once

// BindEnv maps the flat environment variable names the deployment uses onto
// the nested config keys. Call before ReadConfig.
func BindEnv() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindings := map[string]string{
		"server.port":           "SERVER_PORT",
		"server.mode":           "APP_ENV",
		"log.level":             "LOG_LEVEL",
		"admin.username":        "ADMIN_USERNAME",
		"admin.passwordHash":    "ADMIN_PASSWORD_HASH",
		"admin.email":           "ADMIN_EMAIL",
		"admin.otpTTL":          "ADMIN_OTP_TTL",
		"session.secret":        "SESSION_SECRET",
		"session.ttl":           "SESSION_TTL",
		"supabase.url":          "SUPABASE_URL",
		"supabase.key":          "SUPABASE_ANON_KEY",
		"supabase.timeout":      "SUPABASE_TIMEOUT",
		"credentials.backend":   "CREDENTIALS_BACKEND",
		"credentials.redisURL":  "REDIS_URL",
		"credentials.tableName": "CREDENTIALS_TABLE",
		"sendgrid.apiKey":       "SENDGRID_API_KEY",
		"sendgrid.from":         "OTP_FROM_EMAIL",
		"twilio.accountSid":     "TWILIO_ACCOUNT_SID",
		"twilio.authToken":      "TWILIO_AUTH_TOKEN",
		"twilio.from":           "TWILIO_FROM_NUMBER",
		"mixpanel.token":        "MIXPANEL_TOKEN",
	}
	for key, env := range bindings {
		_ = viper.BindEnv(key, env)
	}
}

func ReadConfig() *Config {
	var conf = &Config{
		StorageConfig: StorageConfig{
			SupabaseURL:        getString("supabase.url"),
			SupabaseKey:        getString("supabase.key"),
			SupabaseTimeout:    getDurationOrDefault("supabase.timeout", 10*time.Second),
			TableNamePasscodes: getStringOrDefault("storage.tableNamePasscodes", "passcodes"),
			TableNameEvents:    getStringOrDefault("storage.tableNameEvents", "events"),
			TableNameSessions:  getStringOrDefault("storage.tableNameSessions", "sessions"),
			TableNameRatings:   getStringOrDefault("storage.tableNameRatings", "ratings"),
		},
		ServerConfig: ServerConfig{
			Port: getIntOrDefault("server.port", 8080),
			Mode: getStringOrDefault("server.mode", ModeLambda),
		},
		AdminConfig: AdminConfig{
			Username:     getStringOrDefault("admin.username", "admin"),
			PasswordHash: getStringOrDefault("admin.passwordHash", ""),
			Email:        getStringOrDefault("admin.email", ""),
			OTPTTL:       getDurationOrDefault("admin.otpTTL", 10*time.Minute),
		},
		SessionConfig: SessionConfig{
			Secret: getString("session.secret"),
			TTL:    getDurationOrDefault("session.ttl", 24*time.Hour),
		},
		CredentialsConfig: CredentialsConfig{
			Backend:   getStringOrDefault("credentials.backend", BackendMemory),
			RedisURL:  getStringOrDefault("credentials.redisURL", ""),
			TableName: getStringOrDefault("credentials.tableName", "AdminCredentials"),
		},
		ProvidersConfig: ProvidersConfig{
			SendGridAPIKey:   getStringOrDefault("sendgrid.apiKey", ""),
			SendGridFrom:     getStringOrDefault("sendgrid.from", ""),
			TwilioAccountSid: getStringOrDefault("twilio.accountSid", ""),
			TwilioAuthToken:  getStringOrDefault("twilio.authToken", ""),
			TwilioFrom:       getStringOrDefault("twilio.from", ""),
			MixpanelToken:    getStringOrDefault("mixpanel.token", ""),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

func getString(name string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Fatalf("required environment variable '%s' is missing", name)
	return ""
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getDurationOrDefault(name string, def time.Duration) time.Duration {
	if viper.IsSet(name) {
		v := viper.GetDuration(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
