// Package engine provides the conversion engine adapters: an HTTP client
// for the standalone voice-conversion service and a local adapter that
// drives a command-line converter.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/book-expert/vc-service/internal/core"
)

// API endpoints and paths.
const (
	apiApplyConfig = "/v1/config"
	apiConfigReady = "/v1/config/ready"
	apiConvert     = "/v1/convert"
	apiHealth      = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// Error messages.
const (
	errFmtServiceError       = "engine service error (%s): %s"
	errFmtServiceNonOKStatus = "engine service returned non-OK status: %s, body: %s"
)

// Client is a client for the standalone voice-conversion HTTP service.
// It encapsulates the HTTP configuration and provides methods for applying
// conversion parameters, running conversions, and health monitoring.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ConvertRequest defines the JSON payload for a conversion run. The applied
// configuration is addressed by its tag; the files must be visible to the
// engine service.
type ConvertRequest struct {
	AudioFiles      []string `json:"audio_files"`
	Tag             string   `json:"tag"`
	Overwrite       bool     `json:"overwrite"`
	ParallelWorkers int      `json:"parallel_workers"`
}

// ConvertResponse mirrors the engine's conversion response.
type ConvertResponse struct {
	Results []core.ConversionResult `json:"results"`
}

// readyResponse mirrors the engine's configuration readiness probe.
type readyResponse struct {
	Ready bool `json:"ready"`
}

// errorResponse is the engine's structured error body.
type errorResponse struct {
	Error string `json:"error"`
}

// NewClient creates and configures a client for the engine service.
// The baseURL should include the protocol and port (e.g., "http://localhost:8001").
// The timeout applies to all HTTP requests made by this client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ApplyConfig stages a conversion configuration on the engine service.
// The engine acknowledges the configuration asynchronously; readiness is
// reported by ConfigReady.
func (c *Client) ApplyConfig(ctx context.Context, cfg core.ConversionConfig) error {
	resp, err := c.postJSON(ctx, apiApplyConfig, cfg)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	return nil
}

// ConfigReady reports whether the configuration identified by tag has taken
// effect on the engine service.
func (c *Client) ConfigReady(ctx context.Context, tag string) (bool, error) {
	readyURL := c.baseURL + apiConfigReady + "?tag=" + url.QueryEscape(tag)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, readyURL, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("failed to create readiness request: %w", err)
	}

	req.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf(
			"readiness check failed for service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, c.parseErrorResponse(resp)
	}

	var ready readyResponse

	err = json.NewDecoder(resp.Body).Decode(&ready)
	if err != nil {
		return false, fmt.Errorf("failed to decode readiness response: %w", err)
	}

	return ready.Ready, nil
}

// Convert runs a conversion on the engine service and returns the per-file
// results in input order.
func (c *Client) Convert(
	ctx context.Context,
	req ConvertRequest,
) ([]core.ConversionResult, error) {
	resp, err := c.postJSON(ctx, apiConvert, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var converted ConvertResponse

	err = json.NewDecoder(resp.Body).Decode(&converted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode conversion response: %w", err)
	}

	return converted.Results, nil
}

// HealthCheck verifies that the engine service is running and operational.
// Health checks should be performed before processing workloads to fail fast
// and provide clear diagnostics when the service is unavailable.
func (c *Client) HealthCheck(ctx context.Context) error {
	healthURL := c.baseURL + apiHealth

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf(
			"health check failed for service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// postJSON sends a JSON payload and returns the raw response. The caller
// owns the response body.
func (c *Client) postJSON(
	ctx context.Context,
	path string,
	payload any,
) (*http.Response, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to send request to engine service at %s: %w",
			c.baseURL,
			err,
		)
	}

	return resp, nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service. If structured parsing fails, it falls back to returning the raw
// response body to ensure diagnostic information is preserved.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp errorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil && errorResp.Error != "" {
		return fmt.Errorf(errFmtServiceError, resp.Status, errorResp.Error)
	}

	// Fallback to raw response for non-JSON errors
	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(
		errFmtServiceNonOKStatus,
		resp.Status,
		string(body),
	)
}
