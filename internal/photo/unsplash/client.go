// Package unsplash provides a photo provider backed by the Unsplash API.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/envicheck/envicheck/internal/photo"
	"github.com/envicheck/envicheck/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "unsplash"

	// DefaultBaseURL is the Unsplash API base URL.
	DefaultBaseURL = "https://api.unsplash.com"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Unsplash client.
type ClientConfig struct {
	// AccessKey is the Unsplash access key (required).
	AccessKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a resilient client is created.
	HTTPClient HTTPDoer
}

// Client is an Unsplash API client.
type Client struct {
	accessKey  string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Unsplash client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		accessKey:  cfg.AccessKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type searchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		ID             string `json:"id"`
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Small   string `json:"small"`
			Regular string `json:"regular"`
		} `json:"urls"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

// Search returns the first photo matching the keyword.
func (c *Client) Search(ctx context.Context, keyword string) (*photo.Photo, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, photo.ErrNoPhoto
	}

	params := url.Values{}
	params.Set("query", keyword)
	params.Set("per_page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", photo.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", photo.ErrProviderUnavailable, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(body.Results) == 0 || body.Results[0].URLs.Small == "" {
		return nil, photo.ErrNoPhoto
	}

	first := body.Results[0]
	description := first.Description
	if description == "" {
		description = first.AltDescription
	}

	return &photo.Photo{
		URL:          first.URLs.Small,
		Description:  description,
		Photographer: first.User.Name,
		PageURL:      first.Links.HTML,
	}, nil
}
