package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/breatheroute/airdash/internal/api/models"
	"github.com/breatheroute/airdash/internal/api/response"
	"github.com/breatheroute/airdash/internal/insights"
)

// InsightsController is the part of the insights controller the API drives.
type InsightsController interface {
	SelectGranularity(ctx context.Context, g insights.Granularity) error
	SelectWindowSize(ctx context.Context, g insights.Granularity, n int) error
	SelectYear(ctx context.Context, year int) error
	Refresh(ctx context.Context) error
	View() insights.View
}

// InsightsHandler handles the insights view endpoints.
type InsightsHandler struct {
	controller InsightsController
	logger     zerolog.Logger
}

// NewInsightsHandler creates a new InsightsHandler.
func NewInsightsHandler(controller InsightsController, logger zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{controller: controller, logger: logger}
}

// GetView handles GET /v1/insights - the current view snapshot.
func (h *InsightsHandler) GetView(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.NewInsightsView(h.controller.View()))
}

// SetGranularity handles PUT /v1/insights/granularity.
func (h *InsightsHandler) SetGranularity(w http.ResponseWriter, r *http.Request) {
	var input models.SetGranularityRequest
	if !h.decode(w, r, &input) {
		return
	}

	g, err := insights.ParseGranularity(input.Granularity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.controller.SelectGranularity(r.Context(), g); err != nil {
		h.fail(w, r, err)
		return
	}
	h.GetView(w, r)
}

// SetWindow handles PUT /v1/insights/window. The granularity defaults to the
// active one when omitted.
func (h *InsightsHandler) SetWindow(w http.ResponseWriter, r *http.Request) {
	var input models.SetWindowRequest
	if !h.decode(w, r, &input) {
		return
	}

	g := h.controller.View().Selection.Granularity
	if input.Granularity != "" {
		parsed, err := insights.ParseGranularity(input.Granularity)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		g = parsed
	}

	if err := h.controller.SelectWindowSize(r.Context(), g, input.Size); err != nil {
		h.fail(w, r, err)
		return
	}
	h.GetView(w, r)
}

// SetYear handles PUT /v1/insights/year.
func (h *InsightsHandler) SetYear(w http.ResponseWriter, r *http.Request) {
	var input models.SetYearRequest
	if !h.decode(w, r, &input) {
		return
	}

	if err := h.controller.SelectYear(r.Context(), input.Year); err != nil {
		h.fail(w, r, err)
		return
	}
	h.GetView(w, r)
}

// Refresh handles POST /v1/insights/refresh. The new fetch cycle runs in the
// background; the response carries the view as it stands after starting it.
func (h *InsightsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Refresh(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusAccepted, models.NewInsightsView(h.controller.View()))
}

func (h *InsightsHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := response.DecodeJSON(w, r, dst); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		response.BadRequest(w, r, "request validation failed", fieldErrors(err))
		return false
	}
	return true
}

func (h *InsightsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, insights.ErrUnknownGranularity):
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "granularity", Message: "must be one of monthly, weekly, daily", Code: models.CodeInvalidValue},
		})
	case errors.Is(err, insights.ErrInvalidWindowSize):
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "size", Message: err.Error(), Code: models.CodeInvalidValue},
		})
	case errors.Is(err, insights.ErrYearUnavailable):
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "year", Message: err.Error(), Code: models.CodeUnavailable},
		})
	case errors.Is(err, insights.ErrControllerStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(w, r, "insights view is not available")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("insights request failed")
		response.InternalError(w, r, "")
	}
}
