// client.go -- Unsplash photo search client.
//
// Thin proxy over the Unsplash /search/photos endpoint. Responses are mapped
// down to the handful of fields the rest of the app consumes; everything else
// Unsplash returns is dropped here.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.unsplash.com"

// perPage is fixed at 20 results per page, matching the dashboard grid.
const perPage = 20

// Photo is one search result, reduced to the fields the app stores and renders.
type Photo struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Likes       int    `json:"likes"`
	Downloads   int    `json:"downloads"`
}

// Result is one page of search results plus the API's totals.
type Result struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Photos     []Photo `json:"results"`
}

// Client searches photos against the Unsplash API.
type Client struct {
	accessKey  string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client using the given access key.
// Uses a 10s timeout on the outbound HTTP client.
func NewClient(accessKey string) *Client {
	return &Client{
		accessKey:  accessKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientAt is NewClient with an overridden base URL. Test constructor.
func NewClientAt(accessKey, baseURL string) *Client {
	c := NewClient(accessKey)
	c.baseURL = baseURL
	return c
}

// Search fetches one page of results for query. Page numbers start at 1;
// values below 1 are treated as 1.
// Returns a non-nil error on any network failure, non-200 status, or
// malformed payload -- callers surface these as a generic upstream failure.
func (c *Client) Search(ctx context.Context, query string, page int) (*Result, error) {
	if page < 1 {
		page = 1
	}
	searchURL := c.baseURL + "/search/photos?" + url.Values{
		"query":    {query},
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
		"order_by": {"relevant"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("unsplash: building request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash: search returned status %d", resp.StatusCode)
	}

	var raw struct {
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
		Results    []struct {
			ID          string `json:"id"`
			Description string `json:"description"`
			AltDesc     string `json:"alt_description"`
			Likes       int    `json:"likes"`
			Downloads   int    `json:"downloads"`
			URLs        struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("unsplash: decoding response: %w", err)
	}

	result := &Result{
		Total:      raw.Total,
		TotalPages: raw.TotalPages,
		Photos:     make([]Photo, 0, len(raw.Results)),
	}
	for _, r := range raw.Results {
		desc := r.Description
		if desc == "" {
			desc = r.AltDesc
		}
		result.Photos = append(result.Photos, Photo{
			ID:          r.ID,
			URL:         r.URLs.Regular,
			Description: desc,
			Likes:       r.Likes,
			Downloads:   r.Downloads,
		})
	}
	return result, nil
}
