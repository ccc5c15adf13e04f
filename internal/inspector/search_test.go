package inspector_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envicheck/envicheck/internal/geo"
	"github.com/envicheck/envicheck/internal/geocode"
	"github.com/envicheck/envicheck/internal/inspector"
)

func newSearcher(server *httptest.Server) *inspector.HTTPSearcher {
	return inspector.NewHTTPSearcher(inspector.FetcherConfig{BaseURL: server.URL + "/"})
}

func TestHTTPSearcher_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, inspector.SearchPath, r.URL.Path)
		assert.Equal(t, "Eiffel Tower", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"query":"Eiffel Tower","results":[
			{"name":"Tour Eiffel","display_name":"Tour Eiffel, Paris, France","point":{"lat":48.8584,"lon":2.2945}}
		]}`))
	}))
	defer server.Close()

	places, err := newSearcher(server).Search(context.Background(), "  Eiffel Tower ", 1)
	require.NoError(t, err)
	require.Len(t, places, 1)

	assert.Equal(t, "Tour Eiffel", places[0].Name)
	assert.Equal(t, geo.Coordinate{Lat: 48.8584, Lon: 2.2945}, places[0].Coordinate)
}

func TestHTTPSearcher_NoResults(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "404", handler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{name: "empty list", handler: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"results":[]}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newSearcher(server).Search(context.Background(), "nowhere", 1)
			assert.ErrorIs(t, err, geocode.ErrNoResults)
		})
	}
}

func TestHTTPSearcher_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"geocoding provider unavailable"}`))
	}))
	defer server.Close()

	_, err := newSearcher(server).Search(context.Background(), "Paris", 1)

	var httpErr *inspector.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, "geocoding provider unavailable", httpErr.Message)
}

func TestHTTPSearcher_EmptyQuery(t *testing.T) {
	s := inspector.NewHTTPSearcher(inspector.FetcherConfig{BaseURL: "http://127.0.0.1:0"})

	_, err := s.Search(context.Background(), "   ", 1)
	assert.ErrorIs(t, err, geocode.ErrEmptyQuery)
}

func TestHTTPSearcher_DrivesControllerSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case inspector.SearchPath:
			_, _ = w.Write([]byte(`{"results":[{"name":"Paris","display_name":"Paris, France","point":{"lat":48.8566,"lon":2.3522}}]}`))
		case inspector.EnvironmentPath:
			assert.Equal(t, "48.8566", r.URL.Query().Get("lat"))
			_, _ = w.Write([]byte(`{"location":{"name":"Paris"},"air_quality":{"aqi":42}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := inspector.FetcherConfig{BaseURL: server.URL}
	m := &fakeMap{}
	c, err := inspector.NewController(inspector.Config{
		Map:      m,
		Fetcher:  inspector.NewHTTPFetcher(cfg),
		Geocoder: inspector.NewHTTPSearcher(cfg),
	})
	require.NoError(t, err)

	require.NoError(t, c.HandleSearch(context.Background(), "Paris"))

	assert.Equal(t, inspector.StateRendered, c.State())
	visible := m.visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Paris", visible[0].last().Title)
	assert.Equal(t, "aqi-good", visible[0].last().StyleClass)
	require.Len(t, m.views, 1)
	assert.Equal(t, inspector.DefaultSearchZoom, m.views[0].zoom)
}

func TestController_SearchKeepsBackendErrorType(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
			check: func(t *testing.T, err error) {
				var httpErr *inspector.HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"results":`,
			check: func(t *testing.T, err error) {
				var parseErr *inspector.ParseError
				require.ErrorAs(t, err, &parseErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			notifier := &fakeNotifier{}
			c, err := inspector.NewController(inspector.Config{
				Map:      &fakeMap{},
				Fetcher:  inspector.NewHTTPFetcher(inspector.FetcherConfig{BaseURL: server.URL}),
				Geocoder: newSearcher(server),
				Notifier: notifier,
			})
			require.NoError(t, err)

			err = c.HandleSearch(context.Background(), "Paris")
			require.Error(t, err)

			var netErr *inspector.NetworkError
			assert.False(t, errors.As(err, &netErr), "got %T", err)
			tt.check(t, err)
			assert.Equal(t, []string{inspector.MessageSearchFailed}, notifier.all())
			assert.Equal(t, inspector.StateFailed, c.State())
		})
	}
}
