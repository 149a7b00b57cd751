package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client queries an OSV compatible endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the given query endpoint
// (https://api.osv.dev/v1/query for the public database)
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Query returns the advisories affecting pkgName. An empty version asks for
// every known advisory of the package.
func (c *Client) Query(ctx context.Context, pkgName, version, ecosystem string) ([]Advisory, error) {
	req := OSVRequest{}
	req.Package.Name = pkgName
	req.Package.Ecosystem = ecosystem
	req.Version = version

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSV API error: %s", resp.Status)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var result struct {
		Vulns []Advisory `json:"vulns"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error decoding JSON: %w", err)
	}
	return result.Vulns, nil
}
