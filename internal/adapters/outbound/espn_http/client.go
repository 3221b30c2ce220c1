// Package espn_http is the outbound read API: authoritative draft
// results for gap backfill and player metadata for the resolver. All
// requests share one rate limiter so recovery bursts cannot trip the
// fantasy API's throttling.
package espn_http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/draftops/draftops/internal/telemetry"
)

type Client struct {
	baseURL    string
	leagueID   string
	season     int
	swid       string
	espnS2     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL, leagueID string, season int, swid, espnS2 string) *Client {
	return &Client{
		baseURL:  baseURL,
		leagueID: leagueID,
		season:   season,
		swid:     swid,
		espnS2:   espnS2,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(4), 4),
	}
}

func (c *Client) Get(ctx context.Context, path string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.swid != "" {
		req.AddCookie(&http.Cookie{Name: "SWID", Value: c.swid})
		req.AddCookie(&http.Cookie{Name: "espn_s2", Value: c.espnS2})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	telemetry.Infof("espn_http: GET %s -> %d (%s)", path, resp.StatusCode, time.Since(start))

	return respBody, resp.StatusCode, nil
}
