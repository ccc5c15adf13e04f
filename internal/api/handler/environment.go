// Package handler provides HTTP handlers for the EnviCheck API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/envicheck/envicheck/internal/api/response"
	"github.com/envicheck/envicheck/internal/environment"
	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/render"
)

// ReportService produces environment reports for coordinates.
type ReportService interface {
	GetReport(ctx context.Context, coord geo.Coordinate) (*environment.Report, error)
}

// EnvironmentHandler handles the environment report endpoints.
type EnvironmentHandler struct {
	service ReportService
	logger  zerolog.Logger
}

// NewEnvironmentHandler creates a new EnvironmentHandler.
func NewEnvironmentHandler(service ReportService, logger zerolog.Logger) *EnvironmentHandler {
	return &EnvironmentHandler{
		service: service,
		logger:  logger.With().Str("handler", "environment").Logger(),
	}
}

// GetEnvironment handles GET /api/environment?lat=&lon= (and the /info alias).
func (h *EnvironmentHandler) GetEnvironment(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.parseCoordinate(w, r)
	if !ok {
		return
	}

	report, ok := h.report(w, r, coord)
	if !ok {
		return
	}

	response.JSON(w, r, http.StatusOK, report)
}

// GetPopup handles GET /api/popup?lat=&lon= - the report rendered as the
// HTML fragment the map page shows in its popup.
func (h *EnvironmentHandler) GetPopup(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.parseCoordinate(w, r)
	if !ok {
		return
	}

	report, ok := h.report(w, r, coord)
	if !ok {
		return
	}

	fragment, err := render.HTML(render.Render(report, coord))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to render popup")
		response.InternalError(w, r, "failed to render popup")
		return
	}

	response.HTML(w, r, http.StatusOK, fragment)
}

func (h *EnvironmentHandler) parseCoordinate(w http.ResponseWriter, r *http.Request) (geo.Coordinate, bool) {
	q := r.URL.Query()
	coord, err := geo.Parse(q.Get("lat"), q.Get("lon"))
	if err != nil {
		response.BadRequest(w, r, "lat and lon must be valid coordinates", coordinateErrors(q.Get("lat"), q.Get("lon")))
		return geo.Coordinate{}, false
	}
	return coord, true
}

func (h *EnvironmentHandler) report(w http.ResponseWriter, r *http.Request, coord geo.Coordinate) (*environment.Report, bool) {
	report, err := h.service.GetReport(r.Context(), coord)
	switch {
	case err == nil:
		return report, true
	case errors.Is(err, geo.ErrInvalidCoordinates):
		response.BadRequest(w, r, "lat and lon must be valid coordinates", nil)
	case errors.Is(err, environment.ErrAllProvidersFailed):
		h.logger.Warn().Err(err).Str("coordinate", coord.String()).Msg("no environmental data available")
		response.ServiceUnavailable(w, r, "environmental data providers are unavailable")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
	default:
		h.logger.Error().Err(err).Str("coordinate", coord.String()).Msg("failed to build environment report")
		response.InternalError(w, r, "failed to fetch environmental data")
	}
	return nil, false
}
