package handler

import (
	"net/http"

	"github.com/envicheck/envicheck/internal/api/models"
	"github.com/envicheck/envicheck/internal/api/response"
	"github.com/envicheck/envicheck/internal/aqi"
)

// AQIHandler serves the AQI category legend.
type AQIHandler struct {
	bands models.AQIBands
}

// NewAQIHandler creates a new AQIHandler.
func NewAQIHandler() *AQIHandler {
	return &AQIHandler{bands: legend(aqi.Bands())}
}

// GetBands handles GET /api/aqi/bands.
func (h *AQIHandler) GetBands(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.bands)
}

func legend(bands []aqi.Band) models.AQIBands {
	out := models.AQIBands{Bands: make([]models.AQIBand, 0, len(bands))}
	lower := 0
	for _, b := range bands {
		band := models.AQIBand{
			Min:         lower,
			Category:    b.Category,
			StyleClass:  b.StyleClass,
			Description: b.Description,
		}
		if !b.Unbounded {
			upper := b.Max
			band.Max = &upper
			lower = b.Max + 1
		}
		out.Bands = append(out.Bands, band)
	}
	return out
}
