// Package tmdb is the adapter for the external movie catalog API. Discover
// pages are always fetched live (the crawler owns its own persistence); the
// genre list and per-movie credits are stable metadata and go through the TTL
// cache.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"streamcomb/app/cfg"
)

const (
	discoverPath  = "/3/discover/movie"
	genreListPath = "/3/genre/movie/list"

	topCastLimit = 5

	// Upstream allows ~50 req/s; stay well below it since every new movie
	// costs an extra credits call.
	requestsPerSecond = 4
	requestBurst      = 8
)

// CacheStore is the remember-style cache consumed by the client.
type CacheStore interface {
	Remember(key string, ttl time.Duration, produce func() ([]byte, error)) ([]byte, error)
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	readToken   string
	userAgent   string
	watchRegion string
	startYear   int
	metadataTTL time.Duration
	limiter     *rate.Limiter
	cache       CacheStore
	now         func() time.Time
}

// NewClient builds a catalog API client from the loaded configuration.
// cache may be nil, in which case every lookup goes to the network.
func NewClient(httpClient *http.Client, cache CacheStore) *Client {
	c := cfg.Get()

	return &Client{
		httpClient:  httpClient,
		baseURL:     c.TmdbBaseURL,
		readToken:   c.TmdbReadToken,
		userAgent:   c.UserAgent,
		watchRegion: c.WatchRegion,
		startYear:   c.StartYear,
		metadataTTL: time.Duration(c.CacheTTL) * time.Second,
		limiter:     rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		cache:       cache,
		now:         time.Now,
	}
}

// DiscoverByProvider fetches one page of the provider's catalog, constrained
// to the configured watch region and release-date window, newest first.
func (c *Client) DiscoverByProvider(ctx context.Context, providerID, page int) (*DiscoverPage, error) {
	query := url.Values{}
	query.Set("with_watch_providers", strconv.Itoa(providerID))
	query.Set("watch_region", c.watchRegion)
	query.Set("sort_by", "primary_release_date.desc")
	query.Set("page", strconv.Itoa(page))
	query.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", c.startYear))
	query.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", c.now().Year()))

	data, err := c.get(ctx, discoverPath, query)
	if err != nil {
		return nil, err
	}

	var discoverPage DiscoverPage
	if err := json.Unmarshal(data, &discoverPage); err != nil {
		return nil, fmt.Errorf("failed to parse discover response: %w", err)
	}

	return &discoverPage, nil
}

// TopCast returns up to five cast display names for the movie. Credits are
// cached for the metadata TTL; a second provider hitting the same title
// within the window never reaches the network.
func (c *Client) TopCast(ctx context.Context, movieID int64) ([]string, error) {
	produce := func() ([]byte, error) {
		return c.get(ctx, fmt.Sprintf("/3/movie/%d/credits", movieID), nil)
	}

	var data []byte
	var err error
	if c.cache != nil {
		data, err = c.cache.Remember(fmt.Sprintf("credits_%d", movieID), c.metadataTTL, produce)
	} else {
		data, err = produce()
	}
	if err != nil {
		return nil, err
	}

	var credits creditsResponse
	if err := json.Unmarshal(data, &credits); err != nil {
		return nil, fmt.Errorf("failed to parse credits response: %w", err)
	}

	names := make([]string, 0, topCastLimit)
	for _, member := range credits.Cast {
		if member.Name == "" {
			continue
		}
		names = append(names, member.Name)
		if len(names) == topCastLimit {
			break
		}
	}

	return names, nil
}

// GenreList fetches the raw genre id/name pairs. Callers cache the derived
// map themselves (see catalog.GenreCache).
func (c *Client) GenreList(ctx context.Context) ([]Genre, error) {
	query := url.Values{}
	query.Set("language", "en-GB")

	data, err := c.get(ctx, genreListPath, query)
	if err != nil {
		return nil, err
	}

	var response genreListResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse genre list response: %w", err)
	}

	return response.Genres, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.readToken)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog API error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
