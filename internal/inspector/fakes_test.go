package inspector_test

import (
	"context"
	"sync"

	"github.com/envicheck/envicheck/internal/environment"
	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/geocode"
	"github.com/envicheck/envicheck/internal/inspector"
	"github.com/envicheck/envicheck/internal/render"
)

type fakeMarker struct {
	mu     sync.Mutex
	coord  geo.Coordinate
	panels []render.Panel
}

func (m *fakeMarker) SetPopup(p render.Panel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panels = append(m.panels, p)
}

func (m *fakeMarker) last() render.Panel {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.panels) == 0 {
		return render.Panel{}
	}
	return m.panels[len(m.panels)-1]
}

type viewCall struct {
	coord geo.Coordinate
	zoom  int
}

type fakeMap struct {
	mu      sync.Mutex
	markers []*fakeMarker
	removed []*fakeMarker
	views   []viewCall
}

func (f *fakeMap) SetView(coord geo.Coordinate, zoom int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, viewCall{coord: coord, zoom: zoom})
}

func (f *fakeMap) PlaceMarker(coord geo.Coordinate) inspector.Marker {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &fakeMarker{coord: coord}
	f.markers = append(f.markers, m)
	return m
}

func (f *fakeMap) RemoveMarker(m inspector.Marker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, m.(*fakeMarker))
}

// visible returns markers placed and not removed.
func (f *fakeMap) visible() []*fakeMarker {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeMarker
	for _, m := range f.markers {
		gone := false
		for _, r := range f.removed {
			if r == m {
				gone = true
				break
			}
		}
		if !gone {
			out = append(out, m)
		}
	}
	return out
}

type fetchFunc func(ctx context.Context, coord geo.Coordinate) (*environment.Report, error)

func (f fetchFunc) Fetch(ctx context.Context, coord geo.Coordinate) (*environment.Report, error) {
	return f(ctx, coord)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) ShowError(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *fakeNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type fakeGeocoder struct {
	places  []geocode.Place
	err     error
	queries []string
}

func (g *fakeGeocoder) Search(_ context.Context, query string, _ int) ([]geocode.Place, error) {
	g.queries = append(g.queries, query)
	return g.places, g.err
}

type fakeClicks struct {
	handler func(geo.Coordinate)
}

func (f *fakeClicks) OnCoordinateSelected(h func(geo.Coordinate)) { f.handler = h }

type fakeSearches struct {
	handler func(geocode.Place)
}

func (f *fakeSearches) OnLocationResolved(h func(geocode.Place)) { f.handler = h }
