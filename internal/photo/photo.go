// Package photo finds a representative image for a place.
package photo

import (
	"context"
	"errors"
)

// Photo errors.
var (
	ErrNoPhoto             = errors.New("no photo found")
	ErrProviderUnavailable = errors.New("photo provider unavailable")
)

// Photo is a single image result.
type Photo struct {
	// URL is a small rendition suitable for a popup.
	URL string

	Description  string
	Photographer string

	// PageURL links back to the photo on the provider's site.
	PageURL string
}

// Provider searches photos by keyword.
type Provider interface {
	// Search returns the best matching photo or ErrNoPhoto.
	Search(ctx context.Context, keyword string) (*Photo, error)

	// Name returns the provider name for logging.
	Name() string
}
