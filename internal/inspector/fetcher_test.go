package inspector_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envicheck/envicheck/internal/inspector"
)

func newFetcher(server *httptest.Server) *inspector.HTTPFetcher {
	return inspector.NewHTTPFetcher(inspector.FetcherConfig{BaseURL: server.URL})
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{
			"location": {"name": "Paris", "display_name": "Paris, France"},
			"air_quality": {"aqi": 42},
			"weather": {"temperature": {"current": 18.5}, "humidity": 72, "wind": {"speed": 4.5}}
		}`))
	}))
	defer server.Close()

	report, err := newFetcher(server).Fetch(context.Background(), paris)
	require.NoError(t, err)

	assert.Equal(t, "Paris", report.Location.Name)
	value, ok := report.AQIValue()
	assert.True(t, ok)
	assert.Equal(t, 42, value)
	assert.Equal(t, 18.5, *report.Weather.Temperature.Current)
	assert.Nil(t, report.Weather.Temperature.FeelsLike)
	assert.Nil(t, report.Image)
}

func TestHTTPFetcher_ErrorFieldOnSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"upstream quota exceeded"}`))
	}))
	defer server.Close()

	_, err := newFetcher(server).Fetch(context.Background(), paris)

	var httpErr *inspector.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusOK, httpErr.StatusCode)
	assert.Equal(t, "upstream quota exceeded", httpErr.Message)
}

func TestHTTPFetcher_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"bad request with problem", http.StatusBadRequest, `{"title":"Bad Request","detail":"lat must be between -90 and 90","error":"invalid coordinates"}`, "invalid coordinates"},
		{"problem detail only", http.StatusServiceUnavailable, `{"detail":"all providers failed"}`, "all providers failed"},
		{"plain text", http.StatusBadGateway, `bad gateway`, ""},
		{"not found", http.StatusNotFound, ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newFetcher(server).Fetch(context.Background(), paris)

			var httpErr *inspector.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.message, httpErr.Message)
		})
	}
}

func TestHTTPFetcher_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	_, err := newFetcher(server).Fetch(context.Background(), paris)

	var parseErr *inspector.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, inspector.MessageFetchFailed, inspector.UserMessage(err))
}

func TestHTTPFetcher_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := newFetcher(server).Fetch(context.Background(), paris)

	var netErr *inspector.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.False(t, netErr.Timeout)
}

func TestHTTPFetcher_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newFetcher(server).Fetch(context.Background(), paris)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", &inspector.NotFoundError{Query: "x"}, inspector.MessageNotFound},
		{"timeout", &inspector.NetworkError{Err: context.DeadlineExceeded, Timeout: true}, inspector.MessageTimeout},
		{"network", &inspector.NetworkError{Err: assert.AnError}, inspector.MessageFetchFailed},
		{"rate limited", &inspector.HTTPError{StatusCode: http.StatusTooManyRequests}, inspector.MessageRateLimited},
		{"bad request", &inspector.HTTPError{StatusCode: http.StatusBadRequest}, inspector.MessageInvalidRequest},
		{"server", &inspector.HTTPError{StatusCode: http.StatusInternalServerError}, inspector.MessageFetchFailed},
		{"parse", &inspector.ParseError{Err: assert.AnError}, inspector.MessageFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inspector.UserMessage(tt.err))
		})
	}
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "http error 500: Internal Server Error", (&inspector.HTTPError{StatusCode: 500}).Error())
	assert.Equal(t, "http error 200: quota", (&inspector.HTTPError{StatusCode: 200, Message: "quota"}).Error())
	assert.Contains(t, (&inspector.NetworkError{Err: assert.AnError, Timeout: true}).Error(), "timed out")
	assert.Equal(t, `no location found for "Atlantis"`, (&inspector.NotFoundError{Query: "Atlantis"}).Error())
}

func TestHTTPFetcher_ConsecutiveFailuresEachSendRequest(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := newFetcher(server)

	const interactions = 6
	for i := 0; i < interactions; i++ {
		_, err := fetcher.Fetch(context.Background(), paris)

		var httpErr *inspector.HTTPError
		require.ErrorAs(t, err, &httpErr, "interaction %d", i+1)
		assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	}

	assert.Equal(t, int32(interactions), requests.Load())
}
