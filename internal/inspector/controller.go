// Package inspector drives the location inspection flow: a coordinate is
// picked on a map or found by search, its environment report is fetched
// and the result is shown on a single active marker.
//
// The controller is front-end agnostic. Map, search, fetch and notification
// are injected collaborators.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/envicheck/envicheck/internal/environment"
	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/geocode"
	"github.com/envicheck/envicheck/internal/render"
)

const (
	// DefaultFetchTimeout bounds a single backend fetch.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultSearchZoom is the zoom level applied when centring on a search result.
	DefaultSearchZoom = 12
)

// MapView is the map widget.
type MapView interface {
	SetView(coord geo.Coordinate, zoom int)
	PlaceMarker(coord geo.Coordinate) Marker
	RemoveMarker(m Marker)
}

// Marker is a map marker with a popup.
type Marker interface {
	SetPopup(p render.Panel)
}

// Fetcher retrieves the environment report for a coordinate.
type Fetcher interface {
	Fetch(ctx context.Context, coord geo.Coordinate) (*environment.Report, error)
}

// Geocoder resolves free text to places.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]geocode.Place, error)
}

// Notifier surfaces transient error messages, e.g. a toast.
type Notifier interface {
	ShowError(message string)
}

// ClickSource emits coordinates picked on the map.
type ClickSource interface {
	OnCoordinateSelected(handler func(geo.Coordinate))
}

// SearchSource emits places resolved by an external search control.
type SearchSource interface {
	OnLocationResolved(handler func(geocode.Place))
}

// Config holds the controller's collaborators and settings.
type Config struct {
	Map      MapView
	Fetcher  Fetcher
	Geocoder Geocoder // optional; HandleSearch fails without it
	Notifier Notifier // optional

	// FetchTimeout defaults to DefaultFetchTimeout.
	FetchTimeout time.Duration

	// SearchZoom defaults to DefaultSearchZoom.
	SearchZoom int

	// OnTransition, if set, is called after every state change.
	OnTransition func(Transition)

	Logger zerolog.Logger
}

// Controller owns the single active marker and runs interactions.
// Interactions may overlap; none cancels another, and the one that
// completes last determines what is displayed.
type Controller struct {
	mapView      MapView
	fetcher      Fetcher
	geocoder     Geocoder
	notifier     Notifier
	fetchTimeout time.Duration
	searchZoom   int
	onTransition func(Transition)
	logger       zerolog.Logger

	mu       sync.Mutex
	nextID   uint64
	current  *activeMarker
	state    State
	inflight sync.WaitGroup
}

type activeMarker struct {
	interaction uint64
	marker      Marker
}

// NewController creates a controller. Map and Fetcher are required.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Map == nil {
		return nil, errors.New("inspector: map view is required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("inspector: fetcher is required")
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	searchZoom := cfg.SearchZoom
	if searchZoom == 0 {
		searchZoom = DefaultSearchZoom
	}

	return &Controller{
		mapView:      cfg.Map,
		fetcher:      cfg.Fetcher,
		geocoder:     cfg.Geocoder,
		notifier:     cfg.Notifier,
		fetchTimeout: fetchTimeout,
		searchZoom:   searchZoom,
		onTransition: cfg.OnTransition,
		logger:       cfg.Logger,
		state:        StateIdle,
	}, nil
}

// State returns the state of the most recent transition.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Bind subscribes the controller to click and search events. Each event
// starts an interaction in its own goroutine. searches may be nil.
func (c *Controller) Bind(ctx context.Context, clicks ClickSource, searches SearchSource) {
	if clicks != nil {
		clicks.OnCoordinateSelected(c.CoordinateHandler(ctx))
	}
	if searches != nil {
		searches.OnLocationResolved(func(p geocode.Place) {
			c.inflight.Add(1)
			go func() {
				defer c.inflight.Done()
				_ = c.HandlePlace(ctx, p)
			}()
		})
	}
}

// CoordinateHandler returns an event handler that runs HandleCoordinate
// asynchronously.
func (c *Controller) CoordinateHandler(ctx context.Context) func(geo.Coordinate) {
	return func(coord geo.Coordinate) {
		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			_ = c.HandleCoordinate(ctx, coord)
		}()
	}
}

// Wait blocks until every interaction started through Bind or
// CoordinateHandler has finished.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// HandleCoordinate runs one interaction for a picked coordinate. Failures
// are shown on the marker and through the notifier; the returned error is
// informational.
func (c *Controller) HandleCoordinate(ctx context.Context, coord geo.Coordinate) error {
	id := c.begin()
	return c.inspect(ctx, id, coord)
}

// HandlePlace runs an interaction for a place resolved by a search control.
func (c *Controller) HandlePlace(ctx context.Context, place geocode.Place) error {
	id := c.begin()
	c.mapView.SetView(place.Coordinate, c.searchZoom)
	return c.inspect(ctx, id, place.Coordinate)
}

// HandleSearch resolves query and inspects the best match. An empty query
// is ignored.
func (c *Controller) HandleSearch(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	id := c.begin()
	c.transition(id, StateLocating, geo.Coordinate{})

	place, err := c.locate(ctx, query)
	if err != nil {
		message := MessageSearchFailed
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			message = MessageNotFound
		}
		c.logger.Warn().Err(err).Str("query", query).Msg("search failed")
		c.transition(id, StateFailed, geo.Coordinate{})
		c.notify(message)
		return err
	}

	c.mapView.SetView(place.Coordinate, c.searchZoom)
	return c.inspect(ctx, id, place.Coordinate)
}

func (c *Controller) locate(ctx context.Context, query string) (*geocode.Place, error) {
	if c.geocoder == nil {
		return nil, errors.New("inspector: no geocoder configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	places, err := c.geocoder.Search(ctx, query, 1)
	switch {
	case errors.Is(err, geocode.ErrNoResults), err == nil && len(places) == 0:
		return nil, &NotFoundError{Query: query}
	case err != nil:
		if isInteractionError(err) {
			return nil, err
		}
		return nil, &NetworkError{Err: err, Timeout: isTimeout(ctx, err)}
	}
	return &places[0], nil
}

// inspect is the Fetching → Rendered | Failed part of an interaction.
func (c *Controller) inspect(ctx context.Context, id uint64, coord geo.Coordinate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inspector: interaction panicked: %v", r)
			c.logger.Error().Interface("panic", r).Msg("interaction panicked")
			c.transition(id, StateFailed, coord)
			c.notify(MessageFetchFailed)
		}
	}()

	c.showOnMarker(id, coord, render.Loading(coord))
	c.transition(id, StateFetching, coord)

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	report, err := c.fetcher.Fetch(fetchCtx, coord)
	if err != nil {
		message := UserMessage(err)
		c.logger.Warn().Err(err).
			Float64("lat", coord.Lat).
			Float64("lon", coord.Lon).
			Msg("fetching environment report failed")
		c.showOnMarker(id, coord, render.Failure(message))
		c.transition(id, StateFailed, coord)
		c.notify(message)
		return err
	}

	c.showOnMarker(id, coord, render.Render(report, coord))
	c.transition(id, StateRendered, coord)
	return nil
}

func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

// showOnMarker sets the popup of the interaction's marker, first replacing
// the active marker if it belongs to another interaction.
func (c *Controller) showOnMarker(id uint64, coord geo.Coordinate, p render.Panel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.interaction != id {
		if c.current != nil {
			c.mapView.RemoveMarker(c.current.marker)
		}
		c.current = &activeMarker{interaction: id, marker: c.mapView.PlaceMarker(coord)}
	}
	c.current.marker.SetPopup(p)
}

func (c *Controller) transition(id uint64, to State, coord geo.Coordinate) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()

	c.logger.Debug().
		Uint64("interaction", id).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("interaction state changed")

	if c.onTransition != nil {
		c.onTransition(Transition{Interaction: id, From: from, To: to, Coordinate: coord})
	}
}

func (c *Controller) notify(message string) {
	if c.notifier != nil {
		c.notifier.ShowError(message)
	}
}
