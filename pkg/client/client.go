// Package client provides the HTTP client for pushing scan reports to the
// Adversal platform.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adversalio/sdk/pkg/compress"
	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/metrics"
	"github.com/adversalio/sdk/pkg/options"
	"github.com/adversalio/sdk/pkg/retry"
	"github.com/adversalio/sdk/pkg/rts"
)

// Client pushes scan reports to the Adversal API over HTTPS. Transient
// failures (network errors, 5xx, 429) are retried with exponential backoff
// inside the call; there is no background retry loop.
type Client struct {
	config     *options.ClientConfig
	httpClient *http.Client
	compressor *compress.Compressor
	backoff    *retry.BackoffConfig
	logger     core.Logger
	collector  metrics.Collector
}

// NewClient creates a platform client.
func NewClient(opts ...options.ClientOption) (*Client, error) {
	cfg := options.DefaultClientConfig()
	options.ApplyClientOptions(cfg, opts...)

	if cfg.BaseURL == "" {
		return nil, errors.E(errors.KindConfiguration, "client.NewClient", "base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.E(errors.KindConfiguration, "client.NewClient", "API key is required")
	}

	compressor := compress.NewCompressor(compress.AlgorithmNone, compress.LevelDefault)
	if cfg.Compress {
		compressor = compress.DefaultZSTD
	}

	backoff := retry.DefaultBackoffConfig()
	if cfg.RetryDelay > 0 {
		backoff.BaseInterval = cfg.RetryDelay
	}

	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		compressor: compressor,
		backoff:    backoff,
		logger:     core.LoggerFromVerbose("client", cfg.Verbose),
		collector:  metrics.GetDefaultCollector(),
	}, nil
}

// pushResponse is the API's response to a report upload.
type pushResponse struct {
	ReportID     string `json:"report_id"`
	CasesCreated int    `json:"cases_created"`
	Message      string `json:"message,omitempty"`
}

// PushReport uploads a scan report.
func (c *Client) PushReport(ctx context.Context, report *rts.Report) (*core.PushResult, error) {
	const op = "client.PushReport"

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "marshal report", err)
	}

	body, err := c.compressor.Compress(payload)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "compress report", err)
	}
	c.logger.Debug("pushing report %s: %d bytes (%d uncompressed)", report.ID, len(body), len(payload))

	respBody, err := c.doWithRetry(ctx, http.MethodPost, "/api/v1/reports", body, c.compressor.ContentEncoding())
	if err != nil {
		c.collector.CounterInc(metrics.PusherPushesTotal.Name, "status", "failed")
		return nil, err
	}
	c.collector.CounterInc(metrics.PusherPushesTotal.Name, "status", "success")

	var parsed pushResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.E(errors.KindNetwork, op, "decode response", err)
	}

	return &core.PushResult{
		Success:      true,
		Message:      parsed.Message,
		ReportID:     parsed.ReportID,
		CasesCreated: parsed.CasesCreated,
	}, nil
}

// TestConnection tests the API connection.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.doWithRetry(ctx, http.MethodGet, "/api/v1/ping", nil, "")
	return err
}

// doWithRetry issues the request, retrying transient failures up to the
// configured maximum.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte, encoding string) ([]byte, error) {
	const op = "client.doWithRetry"

	var lastErr error
	attempts := c.config.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.collector.CounterInc(metrics.PusherRetries.Name)
			delay := c.backoff.Interval(attempt - 1)
			c.logger.Debug("retrying %s %s in %s (attempt %d/%d)", method, path, delay, attempt, attempts)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, errors.E(errors.KindTimeout, op, "canceled during backoff", ctx.Err())
			}
		}

		respBody, retryable, err := c.do(ctx, method, path, body, encoding)
		if err == nil {
			return respBody, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, errors.E(errors.KindNetwork, op, fmt.Sprintf("exhausted %d attempts", attempts), lastErr)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, encoding string) (respBody []byte, retryable bool, err error) {
	const op = "client.do"

	url := strings.TrimSuffix(c.config.BaseURL, "/") + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, false, errors.E(errors.KindInternal, op, "build request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.config.APIKey)
	if c.config.AgentID != "" {
		req.Header.Set("X-Agent-ID", c.config.AgentID)
	}
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, errors.E(errors.KindNetwork, op, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, true, errors.E(errors.KindNetwork, op, "read response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, errors.E(errors.KindConfiguration, op, "authentication rejected")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, errors.E(errors.KindNetwork, op, fmt.Sprintf("server returned %d", resp.StatusCode))
	default:
		return nil, false, errors.E(errors.KindNetwork, op, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
}

// Ensure Client implements core.Pusher
var _ core.Pusher = (*Client)(nil)
