package unsplash_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envicheck/envicheck/internal/photo"
	"github.com/envicheck/envicheck/internal/photo/unsplash"
	"github.com/envicheck/envicheck/internal/provider/resilience"
)

func newTestClient(serverURL string) *unsplash.Client {
	return unsplash.NewClient(unsplash.ClientConfig{
		AccessKey:  "test-key",
		BaseURL:    serverURL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{Name: "test", NoRetry: true}),
	})
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Client-ID test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total": 10000,
			"results": [{
				"id": "abc",
				"description": null,
				"alt_description": "Eiffel tower at dusk",
				"urls": {"small": "https://images.unsplash.com/photo-abc?w=400", "regular": "https://images.unsplash.com/photo-abc"},
				"links": {"html": "https://unsplash.com/photos/abc"},
				"user": {"name": "Jane Doe"}
			}]
		}`))
	}))
	defer server.Close()

	p, err := newTestClient(server.URL).Search(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Equal(t, "https://images.unsplash.com/photo-abc?w=400", p.URL)
	assert.Equal(t, "Eiffel tower at dusk", p.Description)
	assert.Equal(t, "Jane Doe", p.Photographer)
	assert.Equal(t, "https://unsplash.com/photos/abc", p.PageURL)
}

func TestClient_Search_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total":0,"results":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, photo.ErrNoPhoto)
}

func TestClient_Search_EmptyKeywordSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "   ")
	assert.ErrorIs(t, err, photo.ErrNoPhoto)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_Search_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":["OAuth error: The access token is invalid"]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "Paris")
	assert.ErrorIs(t, err, photo.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_Search_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "Paris")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "unsplash", unsplash.NewClient(unsplash.ClientConfig{}).Name())
}
