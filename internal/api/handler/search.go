package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/envicheck/envicheck/internal/api/models"
	"github.com/envicheck/envicheck/internal/api/response"
	"github.com/envicheck/envicheck/internal/geocode"
)

const (
	defaultSearchLimit = 1
	maxSearchLimit     = 10
	maxQueryLength     = 256
)

// Searcher resolves free-text place names.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]geocode.Place, error)
}

// SearchHandler proxies place searches to the configured geocoder.
type SearchHandler struct {
	geocoder Searcher
	logger   zerolog.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(geocoder Searcher, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		geocoder: geocoder,
		logger:   logger.With().Str("handler", "search").Logger(),
	}
}

// Search handles GET /api/search?q=&limit=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		response.BadRequest(w, r, "q is required", []models.FieldError{
			{Field: "q", Message: "is required", Code: "required"},
		})
		return
	}
	if len(query) > maxQueryLength {
		response.BadRequest(w, r, "q is too long", []models.FieldError{
			{Field: "q", Message: "must be at most 256 characters", Code: "too_long"},
		})
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchLimit {
			response.BadRequest(w, r, "limit must be between 1 and 10", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and 10", Code: "out_of_range"},
			})
			return
		}
		limit = n
	}

	places, err := h.geocoder.Search(r.Context(), query, limit)
	var limited *geocode.RateLimitedError
	switch {
	case errors.Is(err, geocode.ErrNoResults):
		response.NotFound(w, r, "location not found")
		return
	case errors.As(err, &limited):
		h.logger.Warn().Dur("retry_after", limited.RetryAfter).Msg("geocoding provider rate limited")
		if secs := int(math.Ceil(limited.RetryAfter.Seconds())); secs > 0 {
			response.TooManyRequestsWithInfo(w, r, "geocoding rate limit exceeded", &response.RateLimitInfo{RetryAfter: secs})
			return
		}
		response.TooManyRequests(w, r, "geocoding rate limit exceeded")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("query", query).Msg("geocoding search failed")
		response.ServiceUnavailable(w, r, "geocoding provider unavailable")
		return
	}

	results := models.SearchResults{
		Query:   query,
		Results: make([]models.SearchResult, 0, len(places)),
	}
	for _, p := range places {
		results.Results = append(results.Results, models.SearchResult{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Point:       models.Point{Lat: p.Coordinate.Lat, Lon: p.Coordinate.Lon},
		})
	}

	response.JSON(w, r, http.StatusOK, results)
}
