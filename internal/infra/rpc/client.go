package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/txsubmit/internal/metrics"
)

// HealthStatus represents the health state of a ledger endpoint.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
}

// RPCError is a JSON-RPC error object. Logs carries program logs returned
// with preflight simulation failures.
type RPCError struct {
	Code    int
	Message string
	Logs    []string
}

func (e *RPCError) Error() string {
	s := fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	if len(e.Logs) > 0 {
		s += " logs: " + strings.Join(e.Logs, "; ")
	}
	return s
}

var throttlePatterns = []string{
	"rate limit exceeded",
	"too many requests",
	"daily request count exceeded",
	"project rate limit",
	"monthly quota exceeded",
}

func detectThrottlePattern(message string) bool {
	lowerMsg := strings.ToLower(message)
	for _, pattern := range throttlePatterns {
		if strings.Contains(lowerMsg, pattern) {
			return true
		}
	}
	return false
}

// Client speaks JSON-RPC 2.0 over HTTP to one ledger endpoint.
type Client struct {
	name       string
	endpoint   string
	httpClient *http.Client

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int
}

// NewClient creates a new HTTP JSON-RPC client.
func NewClient(name, endpoint string, timeout time.Duration) *Client {
	return &Client{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
	}
}

// Name returns the endpoint's configured name.
func (c *Client) Name() string {
	return c.name
}

// Health returns the endpoint's health status.
func (c *Client) Health() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// Call makes a single JSON-RPC call and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	start := time.Now()
	metrics.RPCCallsTotal.WithLabelValues(c.name, method).Inc()

	if params == nil {
		params = []any{}
	}
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		c.recordFailure(method)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		c.recordFailure(method)
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(method)
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	// Rate limit detection
	if resp.StatusCode == http.StatusTooManyRequests {
		c.recordFailure(method)
		return nil, fmt.Errorf("rate limited (429), retry after: %s", resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode == http.StatusForbidden {
		c.recordFailure(method)
		return nil, fmt.Errorf("ip blocked (403)")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure(method)
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.recordFailure(method)
		if detectThrottlePattern(string(body)) {
			return nil, fmt.Errorf("throttle detected in response: %s", string(body))
		}
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    *struct {
				Logs []string `json:"logs"`
			} `json:"data"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &rpcResp); err != nil {
		c.recordFailure(method)
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if rpcResp.Error != nil {
		if detectThrottlePattern(rpcResp.Error.Message) {
			c.recordFailure(method)
			return nil, fmt.Errorf("throttle in rpc error: %s", rpcResp.Error.Message)
		}
		if nodeStateCodes[rpcResp.Error.Code] {
			c.recordFailure(method)
		} else {
			// The endpoint answered; a rejected request says nothing about its health.
			metrics.RPCErrorsTotal.WithLabelValues(c.name, method).Inc()
			c.recordSuccess(time.Since(start))
		}
		rpcErr := &RPCError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
		if rpcResp.Error.Data != nil {
			rpcErr.Logs = rpcResp.Error.Data.Logs
		}
		return nil, rpcErr
	}

	latency := time.Since(start)
	metrics.RPCLatency.WithLabelValues(c.name, method).Observe(latency.Seconds())
	c.recordSuccess(latency)

	return rpcResp.Result, nil
}

func (c *Client) recordSuccess(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.successCount++
	c.requestCount++
	c.totalLatency += latency
	c.health.LastSuccessAt = time.Now()
	c.health.Available = true
	c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)
	c.health.Latency = c.totalLatency / time.Duration(c.successCount)
}

func (c *Client) recordFailure(method string) {
	metrics.RPCErrorsTotal.WithLabelValues(c.name, method).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount++
	c.requestCount++
	c.health.LastFailureAt = time.Now()
	c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)

	if c.health.ErrorRate > 0.5 {
		c.health.Available = false
	}
}
