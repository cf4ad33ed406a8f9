package controllers

import (
	"context"
	"errors"
	"github.com/alex-pricope/family-portal/api/models"
	"github.com/alex-pricope/family-portal/notify"
	"github.com/alex-pricope/family-portal/storage"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"time"
)

func writeError(g *gin.Context, status int, message string) {
	g.JSON(status, &models.ErrorResponse{Message: message})
}

// bindingMessage turns a ShouldBindJSON error into a client-facing message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request format"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "max":
		return fe.Field() + " is too long"
	default:
		return fe.Field() + " is invalid"
	}
}

// recordSession writes the audit row and the analytics event for a login.
// Both are best-effort.
func recordSession(bg *BestEffort, sessions storage.SessionStorage, tracker notify.Tracker, session *storage.Session, event string, props map[string]any) {
	bg.Go("record "+session.Type+" session", func(ctx context.Context) error {
		return sessions.Create(ctx, session)
	})
	if tracker != nil {
		bg.Go("track "+event, func(ctx context.Context) error {
			return tracker.Track(ctx, event, session.ID, props)
		})
	}
}

func newAuditSession(g *gin.Context, id, kind string, level *int) *storage.Session {
	return &storage.Session{
		ID:        id,
		Type:      kind,
		CodeLevel: level,
		CreatedAt: time.Now().UTC(),
		IP:        g.ClientIP(),
		UA:        g.GetHeader("User-Agent"),
	}
}
