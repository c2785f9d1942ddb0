// Package webfetch fetches raw page text over HTTP. The scraping engine
// never touches the network itself; it receives the fetched text through
// the Fetcher interface so tests can substitute canned pages.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "mitre-cli"

// Fetcher retrieves the body of a URL as text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Client is the http.Client backed Fetcher used outside of tests.
type Client struct {
	HTTP *http.Client
}

// NewClient returns a Client with a 30 second request timeout.
func NewClient() *Client {
	return &Client{HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("webfetch: building request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("webfetch: requesting %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webfetch: unexpected status %q for %q", resp.Status, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("webfetch: reading %q: %w", url, err)
	}
	return string(body), nil
}
