package controllers

import (
	"github.com/alex-pricope/family-portal/api/models"
	"github.com/alex-pricope/family-portal/api/transport"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/alex-pricope/family-portal/notify"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"net/http"
	"strings"
)

const smsFanOut = 8

type AnnounceController struct {
	providers notify.Providers
	verifier  transport.SessionVerifier
}

func NewAnnounceController(providers notify.Providers, verifier transport.SessionVerifier) *AnnounceController {
	return &AnnounceController{providers: providers, verifier: verifier}
}

func (c *AnnounceController) RegisterRoutes(engine *gin.Engine) {
	engine.POST("/api/announce", transport.AdminAuthMiddleware(c.verifier), c.announce)
}

// SplitRecipients splits a comma separated list, trimming entries and dropping empty ones.
func SplitRecipients(list string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(list, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// @Security AdminSession
// announce godoc
// @Summary Broadcast an announcement by email and SMS
// @Description Counts are the intended recipients; provider failures are logged, not reported
// @Tags announcements
// @Accept json
// @Produce json
// @Param request body models.AnnounceRequest true "Announcement"
// @Success 200 {object} models.AnnounceResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/announce [post]
func (c *AnnounceController) announce(g *gin.Context) {
	var req models.AnnounceRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		writeError(g, http.StatusBadRequest, bindingMessage(err))
		return
	}

	ctx := g.Request.Context()
	emails := SplitRecipients(req.Emails)
	phones := SplitRecipients(req.Phones)

	if c.providers.Mailer != nil && len(emails) > 0 {
		subject := req.Title
		if subject == "" {
			subject = models.DefaultAnnouncementSubject
		}
		if err := c.providers.Mailer.Send(ctx, emails, subject, req.Message); err != nil {
			logging.Log.Errorf("ANNOUNCE: email to %d recipients failed: %v", len(emails), err)
		}
	}

	if c.providers.SMS != nil && len(phones) > 0 {
		body := req.Message
		if req.Title != "" {
			body = req.Title + ": " + req.Message
		}

		// Each send is isolated: a failure is logged and the others still go out.
		var group errgroup.Group
		group.SetLimit(smsFanOut)
		for _, phone := range phones {
			group.Go(func() error {
				if err := c.providers.SMS.Send(ctx, phone, body); err != nil {
					logging.Log.Errorf("ANNOUNCE: sms failed: %v", err)
				}
				return nil
			})
		}
		_ = group.Wait()
	}

	logging.Log.Infof("ANNOUNCE: sent to %d emails and %d phones", len(emails), len(phones))
	g.JSON(http.StatusOK, &models.AnnounceResponse{OK: true, SentEmail: len(emails), SentSms: len(phones)})
}
