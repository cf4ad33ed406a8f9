package controllers

import (
	"errors"
	"github.com/alex-pricope/family-portal/api/models"
	"github.com/alex-pricope/family-portal/api/transport"
	"github.com/alex-pricope/family-portal/auth"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/alex-pricope/family-portal/notify"
	"github.com/alex-pricope/family-portal/storage"
	"github.com/gin-gonic/gin"
	"net/http"
	"sort"
)

type PasscodeController struct {
	storage        storage.PasscodeStorage
	sessionStorage storage.SessionStorage
	issuer         SessionIssuer
	verifier       transport.SessionVerifier
	tracker        notify.Tracker
	background     *BestEffort
}

func NewPasscodeController(s storage.PasscodeStorage, sessionStorage storage.SessionStorage, issuer SessionIssuer, verifier transport.SessionVerifier, tracker notify.Tracker, background *BestEffort) *PasscodeController {
	return &PasscodeController{
		storage:        s,
		sessionStorage: sessionStorage,
		issuer:         issuer,
		verifier:       verifier,
		tracker:        tracker,
		background:     background,
	}
}

func (c *PasscodeController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/passcodes", transport.AdminAuthMiddleware(c.verifier))

	group.GET("", c.list)
	group.POST("", c.upsert)
	group.DELETE("/:passcode", c.delete)

	engine.POST("/api/passcode/login", c.login)
}

// @Security AdminSession
// list godoc
// @Summary List passcodes ordered by level
// @Tags passcodes
// @Produce json
// @Success 200 {array} models.PasscodeResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/passcodes [get]
func (c *PasscodeController) list(g *gin.Context) {
	codes, err := c.storage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("PASSCODE: failed to list passcodes: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to fetch passcodes")
		return
	}

	sort.SliceStable(codes, func(i, j int) bool {
		return codes[i].Level < codes[j].Level
	})

	responses := make([]models.PasscodeResponse, 0, len(codes))
	for _, code := range codes {
		responses = append(responses, models.TransformPasscodeFromStorage(code))
	}

	logging.Log.Infof("PASSCODE: listed %d passcodes", len(responses))
	g.JSON(http.StatusOK, responses)
}

// @Security AdminSession
// upsert godoc
// @Summary Create or update a passcode
// @Description Level is clamped into 1..4
// @Tags passcodes
// @Accept json
// @Produce json
// @Param request body models.PasscodeRequest true "Passcode"
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/passcodes [post]
func (c *PasscodeController) upsert(g *gin.Context) {
	var req models.PasscodeRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		writeError(g, http.StatusBadRequest, bindingMessage(err))
		return
	}

	code := &storage.Passcode{
		Passcode: req.Passcode,
		Level:    models.ClampLevel(req.Level),
	}
	if err := c.storage.Put(g.Request.Context(), code); err != nil {
		logging.Log.Errorf("PASSCODE: failed to upsert passcode: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to save passcode")
		return
	}

	logging.Log.Infof("PASSCODE: saved passcode with level %d", code.Level)
	g.JSON(http.StatusOK, &models.OKResponse{OK: true})
}

// @Security AdminSession
// delete godoc
// @Summary Delete a passcode
// @Description Succeeds whether or not the passcode existed
// @Tags passcodes
// @Produce json
// @Param passcode path string true "Passcode"
// @Success 200 {object} models.OKResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/passcodes/{passcode} [delete]
func (c *PasscodeController) delete(g *gin.Context) {
	code := g.Param("passcode")
	if err := c.storage.Delete(g.Request.Context(), code); err != nil {
		logging.Log.Errorf("PASSCODE: failed to delete passcode: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to delete passcode")
		return
	}

	logging.Log.Info("PASSCODE: deleted passcode")
	g.JSON(http.StatusOK, &models.OKResponse{OK: true})
}

// login godoc
// @Summary Enter the wall with a passcode
// @Tags passcodes
// @Accept json
// @Produce json
// @Param request body models.PasscodeLoginRequest true "Passcode"
// @Success 200 {object} models.PasscodeLoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/passcode/login [post]
func (c *PasscodeController) login(g *gin.Context) {
	var req models.PasscodeLoginRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		writeError(g, http.StatusBadRequest, bindingMessage(err))
		return
	}

	entry, err := c.storage.Get(g.Request.Context(), req.Passcode)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			logging.Log.Warn("PASSCODE: login with unknown passcode")
			writeError(g, http.StatusUnauthorized, "Invalid passcode")
			return
		}
		logging.Log.Errorf("PASSCODE: login lookup failed: %v", err)
		writeError(g, http.StatusInternalServerError, "Passcode login failed")
		return
	}

	id, err := auth.NewID()
	if err != nil {
		logging.Log.Errorf("PASSCODE: %v", err)
		writeError(g, http.StatusInternalServerError, "Passcode login failed")
		return
	}
	token, err := c.issuer.Issue(id, auth.KindPasscode, entry.Level)
	if err != nil {
		logging.Log.Errorf("PASSCODE: %v", err)
		writeError(g, http.StatusInternalServerError, "Passcode login failed")
		return
	}

	level := entry.Level
	session := newAuditSession(g, id, storage.SessionTypePasscode, &level)
	recordSession(c.background, c.sessionStorage, c.tracker, session, "passcode_login", map[string]any{"level": level})

	logging.Log.Infof("PASSCODE: login at level %d, session %s", level, id)
	g.JSON(http.StatusOK, &models.PasscodeLoginResponse{Session: token, Level: level})
}
