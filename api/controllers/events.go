package controllers

import (
	"github.com/alex-pricope/family-portal/api/models"
	"github.com/alex-pricope/family-portal/api/transport"
	"github.com/alex-pricope/family-portal/auth"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/alex-pricope/family-portal/storage"
	"github.com/gin-gonic/gin"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

type EventController struct {
	storage  storage.EventStorage
	verifier transport.SessionVerifier
}

func NewEventController(s storage.EventStorage, verifier transport.SessionVerifier) *EventController {
	return &EventController{storage: s, verifier: verifier}
}

func (c *EventController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/events")

	group.GET("", c.list)
	group.POST("", transport.AdminAuthMiddleware(c.verifier), c.create)
	group.DELETE("/:id", transport.AdminAuthMiddleware(c.verifier), c.delete)
}

// list godoc
// @Summary List events visible at a level
// @Description Without a level every event is returned. Newest date first.
// @Tags events
// @Produce json
// @Param level query int false "Viewer level"
// @Success 200 {array} models.EventResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/events [get]
func (c *EventController) list(g *gin.Context) {
	level := parseViewerLevel(g.Query("level"))

	events, err := c.storage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("EVENT: failed to list events: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to fetch events")
		return
	}

	visible := FilterEventsByLevel(events, level)
	SortEventsNewestFirst(visible)

	responses := make([]models.EventResponse, 0, len(visible))
	for _, ev := range visible {
		responses = append(responses, models.TransformEventFromStorage(ev))
	}
	g.JSON(http.StatusOK, responses)
}

// parseViewerLevel returns 0 (no filtering) for a missing or non-numeric value.
func parseViewerLevel(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// FilterEventsByLevel keeps events whose level, 1 when unset, is at most level.
// A zero level keeps everything.
func FilterEventsByLevel(events []*storage.Event, level float64) []*storage.Event {
	if level == 0 {
		return append([]*storage.Event(nil), events...)
	}

	filtered := make([]*storage.Event, 0, len(events))
	for _, ev := range events {
		evLevel := ev.Level
		if evLevel == 0 {
			evLevel = models.MinLevel
		}
		if float64(evLevel) <= level {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

var eventDateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04", "2006-01-02T15:04:05"}

// eventSortKey normalises parseable dates to a fixed width UTC form so they
// order chronologically; anything else sorts by its raw text.
func eventSortKey(date string) string {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.UTC().Format("2006-01-02T15:04:05Z")
		}
	}
	return date
}

// SortEventsNewestFirst orders events by date descending.
func SortEventsNewestFirst(events []*storage.Event) {
	keys := make(map[*storage.Event]string, len(events))
	for _, ev := range events {
		keys[ev] = eventSortKey(ev.Date)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return keys[events[i]] > keys[events[j]]
	})
}

// @Security AdminSession
// create godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param request body models.CreateEventRequest true "Event"
// @Success 200 {object} models.CreateEventResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/events [post]
func (c *EventController) create(g *gin.Context) {
	var req models.CreateEventRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		writeError(g, http.StatusBadRequest, bindingMessage(err))
		return
	}

	id, err := auth.NewID()
	if err != nil {
		logging.Log.Errorf("EVENT: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to create event")
		return
	}

	event := &storage.Event{
		ID:            id,
		Title:         req.Title,
		Date:          req.Date,
		Level:         models.ClampLevel(req.Level),
		Description:   req.Description,
		DriveFolderID: req.DriveFolderID,
		BookingURL:    req.BookingURL,
	}
	if err := c.storage.Create(g.Request.Context(), event); err != nil {
		logging.Log.Errorf("EVENT: failed to create event: %v", err)
		writeError(g, http.StatusInternalServerError, "Failed to create event")
		return
	}

	logging.Log.Infof("EVENT: created event %s at level %d", id, event.Level)
	g.JSON(http.StatusOK, &models.CreateEventResponse{ID: id})
}

// @Security AdminSession
// delete godoc
// @Summary Delete an event
// @Description Succeeds whether or not the event existed
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.OKResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/events/{id} [delete]
func (c *EventController) delete(g *gin.Context) {
	id := g.Param("id")
	if err := c.storage.Delete(g.Request.Context(), id); err != nil {
		logging.Log.Errorf("EVENT: failed to delete event %s: %v", id, err)
		writeError(g, http.StatusInternalServerError, "Failed to delete event")
		return
	}

	logging.Log.Infof("EVENT: deleted event %s", id)
	g.JSON(http.StatusOK, &models.OKResponse{OK: true})
}
