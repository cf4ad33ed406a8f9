package transport

import (
	"github.com/alex-pricope/family-portal/auth"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"net/http"
	"reflect"
	"strings"
	"time"
)

const (
	AdminSessionHeader = "x-admin-session"
	RequestIDHeader    = "X-Request-ID"

	ContextRequestID    = "request_id"
	ContextAdminSession = "admin_session"
)

// SessionVerifier checks a signed session token of the given kind.
type SessionVerifier interface {
	Verify(token, kind string) (*auth.SessionClaims, error)
}

func NewRouter(ginMode string, swagger bool) *gin.Engine {
	gin.SetMode(ginMode)
	engine := gin.New()
	// Match on the escaped path so a path value may contain "%2F".
	engine.UseRawPath = true
	engine.Use(RecoveryMiddleware(), RequestIDMiddleware(), RequestLoggerMiddleware(), CORSMiddleware())

	useJSONFieldNames()

	if swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.NoRoute(NoRouteHandler())

	return engine
}

// useJSONFieldNames makes binding errors report the json name of a field.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+AdminSessionHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = "req_" + uuid.New().String()[:12]
		}
		c.Set(ContextRequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logging.Log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  c.GetString(ContextRequestID),
		}).Info("request completed")
	}
}

// RecoveryMiddleware turns a handler panic into a 500 with the usual {message} body.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.Log.WithField("request_id", c.GetString(ContextRequestID)).
			Errorf("PANIC: %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	})
}

func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logging.Log.Infof("No routed request received for:%s", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
	}
}

// AdminAuthMiddleware requires a valid signed admin session in the x-admin-session header.
func AdminAuthMiddleware(sessions SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AdminSessionHeader)
		if token == "" {
			logging.Log.Warnf("ADMIN: missing session on %s", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "admin session required"})
			return
		}

		claims, err := sessions.Verify(token, auth.KindAdmin)
		if err != nil {
			logging.Log.Warnf("ADMIN: rejected session on %s: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "admin session required"})
			return
		}

		c.Set(ContextAdminSession, claims)
		c.Next()
	}
}
