package controllers

import (
	"context"
	"errors"
	"fmt"
	"github.com/alex-pricope/family-portal/api/models"
	"github.com/alex-pricope/family-portal/auth"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/alex-pricope/family-portal/notify"
	"github.com/alex-pricope/family-portal/storage"
	"github.com/gin-gonic/gin"
	"net/http"
	"strings"
	"time"
)

// SessionIssuer signs a session token for a new session id.
type SessionIssuer interface {
	Issue(id, kind string, level int) (string, error)
}

// AdminSettings is the configured admin identity.
type AdminSettings struct {
	Username     string
	PasswordHash string
	// Email, when set, is the only address a reset OTP is ever sent to.
	Email  string
	OTPTTL time.Duration
}

type AdminController struct {
	settings       AdminSettings
	credentials    storage.CredentialStore
	sessionStorage storage.SessionStorage
	issuer         SessionIssuer
	providers      notify.Providers
	background     *BestEffort
}

func NewAdminController(settings AdminSettings, credentials storage.CredentialStore, sessionStorage storage.SessionStorage, issuer SessionIssuer, providers notify.Providers, background *BestEffort) *AdminController {
	return &AdminController{
		settings:       settings,
		credentials:    credentials,
		sessionStorage: sessionStorage,
		issuer:         issuer,
		providers:      providers,
		background:     background,
	}
}

func (c *AdminController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/admin")

	group.POST("/login", c.login)
	group.POST("/reset", c.reset)
	group.POST("/verify-otp", c.verifyOTP)
}

// login godoc
// @Summary Admin login
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.AdminLoginRequest true "Credentials"
// @Success 200 {object} models.SessionResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/login [post]
func (c *AdminController) login(g *gin.Context) {
	var req models.AdminLoginRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		writeError(g, http.StatusBadRequest, bindingMessage(err))
		return
	}

	if err := c.checkCredentials(g.Request.Context(), req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			logging.Log.Warnf("ADMIN: failed login for user '%s'", req.Username)
			writeError(g, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, auth.ErrAdminNotConfigured):
			logging.Log.Warn("ADMIN: login rejected, no password configured")
			writeError(g, http.StatusUnauthorized, "Admin password not configured")
		default:
			logging.Log.Errorf("ADMIN: failed to check credentials: %v", err)
			writeError(g, http.StatusInternalServerError, "Admin login failed")
		}
		return
	}

	id, err := auth.NewID()
	if err != nil {
		logging.Log.Errorf("ADMIN: %v", err)
		writeError(g, http.StatusInternalServerError, "Admin login failed")
		return
	}
	token, err := c.issuer.Issue(id, auth.KindAdmin, 0)
	if err != nil {
		logging.Log.Errorf("ADMIN: %v", err)
		writeError(g, http.StatusInternalServerError, "Admin login failed")
		return
	}

	session := newAuditSession(g, id, storage.SessionTypeAdmin, nil)
	recordSession(c.background, c.sessionStorage, c.providers.Tracker, session, "admin_login", nil)

	logging.Log.Infof("ADMIN: login, session %s", id)
	g.JSON(http.StatusOK, &models.SessionResponse{Session: token})
}

// checkCredentials checks the username first, then the password against the
// stored override or, if none, the configured hash. An empty expected hash
// always rejects.
func (c *AdminController) checkCredentials(ctx context.Context, username, password string) error {
	if username != c.settings.Username {
		return auth.ErrInvalidCredentials
	}

	expected, err := c.expectedHash(ctx)
	if err != nil {
		return err
	}
	if expected == "" {
		return auth.ErrAdminNotConfigured
	}
	if !auth.CheckPassword(expected, password) {
		return auth.ErrInvalidCredentials
	}
	return nil
}

func (c *AdminController) expectedHash(ctx context.Context) (string, error) {
	hash, err := c.credentials.GetPasswordHash(ctx, c.settings.Username)
	if errors.Is(err, storage.ErrItemNotFound) {
		return c.settings.PasswordHash, nil
	}
	if err != nil {
		return "", fmt.Errorf("read password override: %w", err)
	}
	return hash, nil
}

// reset godoc
// @Summary Request an admin password reset OTP
// @Description Clears the admin password and emails a one time code
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.AdminResetRequest true "Reset request"
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/reset [post]
func (c *AdminController) reset(g *gin.Context) {
	var req models.AdminResetRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		writeError(g, http.StatusBadRequest, bindingMessage(err))
		return
	}

	// Same answer for a foreign address so the admin email cannot be probed.
	if c.settings.Email != "" && !strings.EqualFold(strings.TrimSpace(req.Email), c.settings.Email) {
		logging.Log.Warnf("ADMIN: reset requested for unknown address %s", req.Email)
		g.JSON(http.StatusOK, &models.OKResponse{OK: true})
		return
	}

	ctx := g.Request.Context()
	otp, err := auth.GenerateOTP()
	if err != nil {
		logging.Log.Errorf("ADMIN: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	if err := c.credentials.PutOTP(ctx, c.settings.Username, otp, c.settings.OTPTTL); err != nil {
		logging.Log.Errorf("ADMIN: failed to store otp: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	if err := c.credentials.SetPasswordHash(ctx, c.settings.Username, ""); err != nil {
		logging.Log.Errorf("ADMIN: failed to clear password: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	if c.providers.Mailer != nil {
		if err := c.providers.Mailer.Send(ctx, []string{req.Email}, models.OTPEmailSubject, "Your OTP is "+otp); err != nil {
			logging.Log.Errorf("ADMIN: failed to email otp: %v", err)
		}
	} else {
		logging.Log.Warn("ADMIN: no mailer configured, otp not sent")
	}

	logging.Log.Info("ADMIN: password reset requested")
	g.JSON(http.StatusOK, &models.OKResponse{OK: true})
}

// verifyOTP godoc
// @Summary Complete an admin password reset
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.VerifyOTPRequest true "OTP and new password"
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/verify-otp [post]
func (c *AdminController) verifyOTP(g *gin.Context) {
	var req models.VerifyOTPRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		writeError(g, http.StatusBadRequest, bindingMessage(err))
		return
	}

	// bcrypt rejects longer input; check before the code is spent
	if len(req.NewPassword) > models.MaxPasswordBytes {
		writeError(g, http.StatusBadRequest, "newPassword is too long")
		return
	}

	ctx := g.Request.Context()
	ok, err := c.credentials.ConsumeOTP(ctx, c.settings.Username, req.OTP)
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to check otp: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to verify OTP")
		return
	}
	if !ok {
		logging.Log.Warn("ADMIN: invalid otp submitted")
		writeError(g, http.StatusUnauthorized, "Invalid OTP")
		return
	}

	hash, err := auth.HashPasswordBcrypt(req.NewPassword)
	if err != nil {
		logging.Log.Errorf("ADMIN: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to verify OTP")
		return
	}
	if err := c.credentials.SetPasswordHash(ctx, c.settings.Username, hash); err != nil {
		logging.Log.Errorf("ADMIN: failed to store password: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to verify OTP")
		return
	}

	logging.Log.Info("ADMIN: password changed via otp")
	g.JSON(http.StatusOK, &models.OKResponse{OK: true})
}
