// Package terminal implements the inspector's map and notifier on a text
// stream, so the interaction pipeline can run from a shell.
package terminal

import (
	"fmt"
	"io"
	"sync"

	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/inspector"
	"github.com/envicheck/envicheck/internal/render"
)

// Map writes map events and popups to an io.Writer. Output from concurrent
// interactions is serialised per write.
type Map struct {
	mu          sync.Mutex
	out         io.Writer
	showLoading bool
	verbose     bool
	next        int
	active      *Marker
}

// Option configures a Map.
type Option func(*Map)

// WithLoading prints loading panels as well as results.
func WithLoading() Option {
	return func(m *Map) { m.showLoading = true }
}

// WithVerbose prints view and marker events.
func WithVerbose() Option {
	return func(m *Map) { m.verbose = true }
}

// NewMap creates a terminal map writing to out.
func NewMap(out io.Writer, opts ...Option) *Map {
	m := &Map{out: out}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetView records a recentre.
func (m *Map) SetView(coord geo.Coordinate, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verbose {
		fmt.Fprintf(m.out, "map: centred on %s (zoom %d)\n", coord, zoom)
	}
}

// PlaceMarker adds a marker and makes it active.
func (m *Map) PlaceMarker(coord geo.Coordinate) inspector.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	marker := &Marker{id: m.next, coord: coord, m: m}
	m.active = marker
	if m.verbose {
		fmt.Fprintf(m.out, "map: marker #%d placed at %s\n", marker.id, coord)
	}
	return marker
}

// RemoveMarker removes a marker.
func (m *Map) RemoveMarker(im inspector.Marker) {
	marker, ok := im.(*Marker)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == marker {
		m.active = nil
	}
	if m.verbose {
		fmt.Fprintf(m.out, "map: marker #%d removed\n", marker.id)
	}
}

// Active returns the marker currently on the map, or nil.
func (m *Map) Active() *Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Marker is a marker on a terminal Map.
type Marker struct {
	id    int
	coord geo.Coordinate
	m     *Map

	panel render.Panel
}

// SetPopup prints the panel.
func (mk *Marker) SetPopup(p render.Panel) {
	mk.m.mu.Lock()
	defer mk.m.mu.Unlock()
	mk.panel = p
	if p.Kind == render.KindLoading && !mk.m.showLoading {
		return
	}
	fmt.Fprintln(mk.m.out, render.Text(p))
}

// Panel returns the last panel shown on the marker.
func (mk *Marker) Panel() render.Panel {
	mk.m.mu.Lock()
	defer mk.m.mu.Unlock()
	return mk.panel
}

// Coordinate returns where the marker was placed.
func (mk *Marker) Coordinate() geo.Coordinate {
	return mk.coord
}

// Notifier writes error messages to an io.Writer.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNotifier creates a notifier writing to out.
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

// ShowError prints message.
func (n *Notifier) ShowError(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "error: %s\n", message)
}

var (
	_ inspector.MapView  = (*Map)(nil)
	_ inspector.Notifier = (*Notifier)(nil)
)
