package controllers

import (
	"github.com/alex-pricope/family-portal/api/models"
	"github.com/alex-pricope/family-portal/auth"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/alex-pricope/family-portal/storage"
	"github.com/gin-gonic/gin"
	"net/http"
	"time"
)

type RatingController struct {
	storage storage.RatingStorage
}

func NewRatingController(s storage.RatingStorage) *RatingController {
	return &RatingController{storage: s}
}

func (c *RatingController) RegisterRoutes(engine *gin.Engine) {
	engine.POST("/api/rate", c.create)
}

// create godoc
// @Summary Submit a rating
// @Description Stars are clamped into 1..5 and default to 5
// @Tags ratings
// @Accept json
// @Produce json
// @Param request body models.RateRequest true "Rating"
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/rate [post]
func (c *RatingController) create(g *gin.Context) {
	var req models.RateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		writeError(g, http.StatusBadRequest, bindingMessage(err))
		return
	}

	id, err := auth.NewID()
	if err != nil {
		logging.Log.Errorf("RATING: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to record rating")
		return
	}

	rating := &storage.Rating{
		ID:        id,
		SessionID: req.SessionID,
		Stars:     models.ClampStars(req.Stars),
		Feedback:  req.Feedback,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.storage.Create(g.Request.Context(), rating); err != nil {
		logging.Log.Errorf("RATING: failed to create rating: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to record rating")
		return
	}

	logging.Log.Infof("RATING: recorded %d stars", rating.Stars)
	g.JSON(http.StatusOK, &models.OKResponse{OK: true})
}
