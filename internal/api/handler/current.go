package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/breatheroute/airdash/internal/airquality"
	"github.com/breatheroute/airdash/internal/api/models"
	"github.com/breatheroute/airdash/internal/api/response"
	"github.com/breatheroute/airdash/internal/notify"
)

// CurrentService serves the cached current conditions.
type CurrentService interface {
	GetCurrent(ctx context.Context) (*airquality.Current, error)
	CacheStatus() airquality.CacheStatus
}

// NotificationFeed lists recent notifications.
type NotificationFeed interface {
	Recent(limit int) []notify.Notification
}

// Notification list bounds.
const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

// CurrentHandler handles live conditions and the notification feed.
type CurrentHandler struct {
	current CurrentService
	feed    NotificationFeed
	logger  zerolog.Logger
}

// NewCurrentHandler creates a new CurrentHandler.
func NewCurrentHandler(current CurrentService, feed NotificationFeed, logger zerolog.Logger) *CurrentHandler {
	return &CurrentHandler{current: current, feed: feed, logger: logger}
}

// GetCurrent handles GET /v1/current - latest AQI reading. A reading past
// its cache TTL is served with stale set while the provider is failing.
func (h *CurrentHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	current, err := h.current.GetCurrent(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("current conditions unavailable")
		response.ServiceUnavailable(w, r, "current air quality is not available")
		return
	}

	stale := h.current.CacheStatus().IsExpired
	response.JSON(w, r, http.StatusOK, models.NewCurrentConditions(*current, stale))
}

// ListNotifications handles GET /v1/notifications?limit=N - newest first.
func (h *CurrentHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := DefaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxNotificationLimit {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and 100", Code: models.CodeInvalidValue},
			})
			return
		}
		limit = n
	}

	response.JSON(w, r, http.StatusOK, models.NewNotificationList(h.feed.Recent(limit)))
}
