package ephemeris

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const userAgent = "dasha/1.0"

// Client fetches positions from an HTTP ephemeris service exposing
// GET {base}/positions?time=RFC3339[&lat=..&lon=..].
type Client struct {
	base string
	http *retryablehttp.Client
}

// NewClient returns a client with the given retry budget and per-request
// timeout.
func NewClient(baseURL string, retries int, timeout time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = log.New(io.Discard, "", 0)
	rc.RetryMax = retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	if timeout > 0 {
		rc.HTTPClient.Timeout = timeout
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: rc}
}

// Natal fetches positions for a birth, including the ascendant.
func (c *Client) Natal(ctx context.Context, t time.Time, lat, lon float64) (*Positions, error) {
	q := url.Values{}
	q.Set("time", t.Format(time.RFC3339))
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.fetch(ctx, q)
}

// Transits fetches geocentric positions at t.
func (c *Client) Transits(ctx context.Context, t time.Time) (*Positions, error) {
	q := url.Values{}
	q.Set("time", t.Format(time.RFC3339))
	return c.fetch(ctx, q)
}

func (c *Client) fetch(ctx context.Context, q url.Values) (*Positions, error) {
	if c.base == "" {
		return nil, fmt.Errorf("ephemeris url is not configured")
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.base+"/positions?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ephemeris request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ephemeris returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return ParsePositions(body)
}
