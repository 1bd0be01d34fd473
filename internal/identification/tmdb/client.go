package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"torrentify/internal/services"
)

// Media kinds accepted by Search and Details.
const (
	KindMovie = "movie"
	KindTV    = "tv"
)

// Result represents a single TMDB search match.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// DisplayTitle returns the movie title or the show name.
func (r Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search returns the first match for query, or nil when TMDB has none.
// A positive year narrows the search to that release year.
func (c *Client) Search(ctx context.Context, kind, query string, year int, language string) (*Result, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		if kind == KindTV {
			params.Set("first_air_date_year", strconv.Itoa(year))
		} else {
			params.Set("primary_release_year", strconv.Itoa(year))
		}
	}

	body, err := c.get(ctx, "/search/"+kind, params, language)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	var payload Response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode tmdb response: %w", err)
	}
	if len(payload.Results) == 0 || payload.Results[0].ID <= 0 {
		return nil, nil
	}
	first := payload.Results[0]
	return &first, nil
}

// Details returns the raw details payload for id, or nil when TMDB does not
// know the id.
func (c *Client) Details(ctx context.Context, kind string, id int64, language string) (json.RawMessage, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}
	body, err := c.get(ctx, fmt.Sprintf("/%s/%d", kind, id), url.Values{}, language)
	if err != nil || body == nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("decode tmdb details: invalid json")
	}
	return json.RawMessage(body), nil
}

// get performs a GET and returns the body. A 404 yields a nil body.
func (c *Client) get(ctx context.Context, path string, params url.Values, language string) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if language = strings.TrimSpace(language); language != "" {
		params.Set("language", language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "lookup", "tmdb request", fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, services.Wrap(services.ErrConfiguration, "lookup", "tmdb request", "api key rejected", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrTransient, "lookup", "tmdb request",
			fmt.Sprintf("%s returned %d (latency=%v)", path, resp.StatusCode, latency), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read tmdb response: %w", err)
	}
	return body, nil
}

func validKind(kind string) error {
	if kind != KindMovie && kind != KindTV {
		return fmt.Errorf("unsupported tmdb kind %q", kind)
	}
	return nil
}
