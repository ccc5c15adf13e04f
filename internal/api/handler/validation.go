package handler

import (
	"math"
	"strconv"

	"github.com/envicheck/envicheck/internal/api/models"
)

// coordinateErrors explains which query parameters made a coordinate invalid.
func coordinateErrors(lat, lon string) []models.FieldError {
	var errs []models.FieldError
	if fe, ok := degreeError("lat", lat, 90); ok {
		errs = append(errs, fe)
	}
	if fe, ok := degreeError("lon", lon, 180); ok {
		errs = append(errs, fe)
	}
	return errs
}

func degreeError(field, raw string, limit float64) (models.FieldError, bool) {
	if raw == "" {
		return models.FieldError{Field: field, Message: "is required", Code: "required"}, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.FieldError{Field: field, Message: "must be a number", Code: "invalid_number"}, true
	}
	if v < -limit || v > limit || math.IsNaN(v) {
		return models.FieldError{
			Field:   field,
			Message: "must be between -" + strconv.FormatFloat(limit, 'f', -1, 64) + " and " + strconv.FormatFloat(limit, 'f', -1, 64),
			Code:    "out_of_range",
		}, true
	}
	return models.FieldError{}, false
}
