// Package recon polls the diagnostic endpoint Swift storage servers expose
// at /recon/ and turns the reports into gauges.
package recon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client scrapes a single Swift node's recon endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

type ClientOpts struct {
	Hostname string
	Port     int
	Timeout  time.Duration

	// BaseURL overrides the URL derived from Hostname and Port.
	BaseURL string
}

func NewClient(opts ClientOpts) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d/recon/", opts.Hostname, opts.Port)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Scout fetches one recon report and decodes the JSON payload into out.
func (c *Client) Scout(ctx context.Context, reconType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+reconType, nil)
	if err != nil {
		return fmt.Errorf("recon %s: %w", reconType, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recon %s: %w", reconType, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recon %s: unexpected status %s", reconType, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("recon %s: decode: %w", reconType, err)
	}
	return nil
}
