package itunes

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

// Client queries the iTunes Search API.
type Client struct {
	baseURL    string
	media      string
	country    string
	limit      int
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

// WithCountry restricts the store searched.
func WithCountry(country string) Option {
	return func(c *Client) { c.country = strings.ToUpper(strings.TrimSpace(country)) }
}

// WithMedia sets the media parameter (music by default).
func WithMedia(media string) Option {
	return func(c *Client) {
		if media = strings.TrimSpace(media); media != "" {
			c.media = media
		}
	}
}

// WithLimit sets the result limit (1 by default).
func WithLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// New creates an iTunes client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("itunes base url required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		media:      "music",
		limit:      1,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search returns the first result for term, or nil when there is none.
func (c *Client) Search(ctx context.Context, term string) (json.RawMessage, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("search term must not be empty")
	}
	params := url.Values{}
	params.Set("term", term)
	params.Set("media", c.media)
	params.Set("limit", strconv.Itoa(c.limit))
	if c.country != "" {
		params.Set("country", c.country)
	}
	return c.first(ctx, "/search", params)
}

// Lookup returns the catalog entry for id, or nil when it does not exist.
func (c *Client) Lookup(ctx context.Context, id int64) (json.RawMessage, error) {
	if id <= 0 {
		return nil, errors.New("itunes id must be positive")
	}
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	if c.country != "" {
		params.Set("country", c.country)
	}
	return c.first(ctx, "/lookup", params)
}

type response struct {
	ResultCount int               `json:"resultCount"`
	Results     []json.RawMessage `json:"results"`
}

func (c *Client) first(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "lookup", "itunes request", fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "lookup", "itunes request",
			fmt.Sprintf("%s returned %d (latency=%v)", path, resp.StatusCode, latency), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read itunes response: %w", err)
	}
	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode itunes response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	return payload.Results[0], nil
}

// Record is the subset of a search result used for tagging.
type Record struct {
	WrapperType    string `json:"wrapperType"`
	CollectionID   int64  `json:"collectionId"`
	TrackID        int64  `json:"trackId"`
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	TrackName      string `json:"trackName"`
}

// ID returns the collection id, falling back to the track id.
func (r Record) ID() int64 {
	if r.CollectionID > 0 {
		return r.CollectionID
	}
	return r.TrackID
}
