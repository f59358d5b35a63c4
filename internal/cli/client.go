package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/querytube/internal/models"
)

// Status is the shape of GET /api/v1/status.
type Status struct {
	Ready             bool                   `json:"ready"`
	CatalogVersion    string                 `json:"catalog_version,omitempty"`
	Rows              int                    `json:"rows"`
	Dimensions        int                    `json:"dimensions"`
	LoadedAt          *time.Time             `json:"loaded_at,omitempty"`
	EncoderDimensions int                    `json:"encoder_dimensions"`
	Source            *SourceInfo            `json:"source,omitempty"`
	DiskUsageBytes    int64                  `json:"disk_usage_bytes"`
	LastError         string                 `json:"last_error,omitempty"`
	Config            map[string]interface{} `json:"config,omitempty"`
}

// SourceInfo describes the catalog file.
type SourceInfo struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReloadResult is the shape of POST /api/v1/catalog/reload.
type ReloadResult struct {
	Status         string `json:"status"`
	Rows           int    `json:"rows"`
	Dimensions     int    `json:"dimensions"`
	CatalogVersion string `json:"catalog_version"`
}

// Client talks to a running QueryTube server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient uses a client with a 60s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Search posts query to /api/v1/search.
func (c *Client) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	var response models.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/search", query, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Status fetches /api/v1/status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Reload asks the server to reload its catalog.
func (c *Client) Reload(ctx context.Context) (*ReloadResult, error) {
	var result ReloadResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/catalog/reload", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
