package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for idempotent reads.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    250 * time.Millisecond,
	MaxDelay:        5 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFailover
	ActionFatal
)

// ClassifyError determines the transport-level action for an error. It only
// concerns reads and broadcast failover; submission verdicts are decided by
// the classify package.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return classifyRPCError(rpcErr)
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	// -32700: Parse error, -32600: Invalid Request, -32601: Method not found, -32602: Invalid params
	if strings.Contains(s, "-32700") || strings.Contains(s, "-32600") ||
		strings.Contains(s, "-32601") || strings.Contains(s, "-32602") {
		return ActionFatal
	}

	if strings.Contains(s, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(s, "403") || strings.Contains(sLower, "forbidden") ||
		strings.Contains(sLower, "quota") || strings.Contains(sLower, "plan limit") ||
		strings.Contains(sLower, "unauthorized") ||
		strings.Contains(sLower, "rate limit") ||
		strings.Contains(sLower, "throttle") ||
		strings.Contains(sLower, "count exceeded") {
		return ActionFailover
	}

	// Network, 5xx, etc
	return ActionRetry
}

// nodeStateCodes are JSON-RPC errors describing the answering node rather
// than the request: behind, unhealthy, or missing the requested slot.
var nodeStateCodes = map[int]bool{
	-32004: true, // block not available
	-32005: true, // node is behind / unhealthy
	-32007: true, // slot skipped or missing
	-32009: true, // slot missing in long-term storage
	-32014: true, // block status not yet available
	-32016: true, // minimum context slot not reached
}

func classifyRPCError(e *RPCError) ErrorAction {
	switch e.Code {
	// Parse error, Invalid Request, Method not found, Invalid params
	case -32700, -32600, -32601, -32602:
		return ActionFatal
	}
	if nodeStateCodes[e.Code] || detectThrottlePattern(e.Message) {
		return ActionFailover
	}
	// Anything else was decided by the ledger, e.g. a preflight failure;
	// another node would answer the same.
	return ActionFatal
}

// CallWithRetry executes an idempotent call with exponential backoff.
func CallWithRetry(
	ctx context.Context,
	c *Client,
	method string,
	params []any,
	config RetryConfig,
) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := c.Call(ctx, method, params)
		if err == nil {
			return result, nil
		}

		lastErr = err

		action := ClassifyError(err)
		if action == ActionFatal || action == ActionFailover {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// CallWithRetryAndFailover tries each endpoint in order with retry. Healthy
// endpoints are tried before unhealthy ones.
func CallWithRetryAndFailover(
	ctx context.Context,
	clients []*Client,
	method string,
	params []any,
	config RetryConfig,
) (json.RawMessage, error) {
	ordered := byHealth(clients)
	if len(ordered) == 0 {
		return nil, errors.New("no ledger endpoints configured")
	}

	var lastErr error
	for _, c := range ordered {
		result, err := CallWithRetry(ctx, c, method, params, config)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if ClassifyError(err) == ActionFatal || ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("all endpoints failed: %w", lastErr)
}

func byHealth(clients []*Client) []*Client {
	ordered := make([]*Client, 0, len(clients))
	var degraded []*Client
	for _, c := range clients {
		if c.Health().Available {
			ordered = append(ordered, c)
		} else {
			degraded = append(degraded, c)
		}
	}
	return append(ordered, degraded...)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
