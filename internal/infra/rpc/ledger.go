// Package rpc is the ledger client: JSON-RPC over HTTP against one or more
// Solana-style endpoints.
//
// Reads (blockhash, signature status, block height, health) are retried and
// fail over between endpoints. Broadcasts are never retried here; a
// broadcast only moves to the next endpoint when the previous one refused
// the request outright (rate limited or blocked).
package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/txsubmit/internal/core/domain"
)

// ErrBlockHeightExceeded is returned when a transaction can no longer land
// because its blockhash has expired.
var ErrBlockHeightExceeded = errors.New("block height exceeded")

// Ledger implements the submitter's ledger capability.
type Ledger struct {
	clients      []*Client
	retry        RetryConfig
	pollInterval time.Duration
}

// NewLedger creates a ledger over the given endpoints.
func NewLedger(clients []*Client, pollInterval time.Duration, retry RetryConfig) *Ledger {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig
	}
	return &Ledger{
		clients:      clients,
		retry:        retry,
		pollInterval: pollInterval,
	}
}

func (l *Ledger) read(ctx context.Context, method string, params []any, out any) error {
	raw, err := CallWithRetryAndFailover(ctx, l.clients, method, params, l.retry)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// GetCurrentReference fetches the latest blockhash.
func (l *Ledger) GetCurrentReference(
	ctx context.Context,
	commitment domain.Commitment,
) (domain.ConsensusReference, error) {
	var res struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	params := []any{map[string]any{"commitment": commitment}}
	if err := l.read(ctx, "getLatestBlockhash", params, &res); err != nil {
		return domain.ConsensusReference{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	if res.Value.Blockhash == "" {
		return domain.ConsensusReference{}, errors.New("get latest blockhash: empty blockhash")
	}

	return domain.ConsensusReference{
		Blockhash:       res.Value.Blockhash,
		LastValidHeight: res.Value.LastValidBlockHeight,
		Slot:            res.Context.Slot,
	}, nil
}

type signatureStatus struct {
	Slot               uint64 `json:"slot"`
	Confirmations      *int   `json:"confirmations"`
	Err                any    `json:"err"`
	ConfirmationStatus string `json:"confirmationStatus"`
}

func (l *Ledger) signatureStatus(ctx context.Context, sig domain.Signature) (*signatureStatus, error) {
	var res struct {
		Value []*signatureStatus `json:"value"`
	}
	params := []any{
		[]string{string(sig)},
		map[string]any{"searchTransactionHistory": false},
	}
	if err := l.read(ctx, "getSignatureStatuses", params, &res); err != nil {
		return nil, fmt.Errorf("get signature status: %w", err)
	}
	if len(res.Value) == 0 {
		return nil, nil
	}
	return res.Value[0], nil
}

// BlockHeight returns the current block height at commitment.
func (l *Ledger) BlockHeight(ctx context.Context, commitment domain.Commitment) (uint64, error) {
	var height uint64
	params := []any{map[string]any{"commitment": commitment}}
	if err := l.read(ctx, "getBlockHeight", params, &height); err != nil {
		return 0, fmt.Errorf("get block height: %w", err)
	}
	return height, nil
}

// AwaitConfirmation polls the signature status until it reaches commitment,
// reports an execution error, or the reference's last valid height passes.
func (l *Ledger) AwaitConfirmation(
	ctx context.Context,
	sig domain.Signature,
	ref domain.ConsensusReference,
	commitment domain.Commitment,
) (domain.Confirmation, error) {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		status, err := l.signatureStatus(ctx, sig)
		if err != nil {
			return domain.Confirmation{}, err
		}
		if status != nil {
			if status.Err != nil {
				return domain.Confirmation{Slot: status.Slot, Err: status.Err}, nil
			}
			if commitment.SatisfiedBy(status.ConfirmationStatus) {
				return domain.Confirmation{Slot: status.Slot}, nil
			}
		}

		height, err := l.BlockHeight(ctx, commitment)
		if err != nil {
			return domain.Confirmation{}, err
		}
		if height > ref.LastValidHeight {
			return domain.Confirmation{}, fmt.Errorf("signature %s has expired: %w", sig, ErrBlockHeightExceeded)
		}

		select {
		case <-ctx.Done():
			return domain.Confirmation{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SendTransaction broadcasts a signed, serialized transaction.
func (l *Ledger) SendTransaction(
	ctx context.Context,
	raw []byte,
	opts domain.SendOptions,
) (domain.Signature, error) {
	cfg := map[string]any{
		"encoding":      "base64",
		"skipPreflight": opts.SkipPreflight,
	}
	if opts.PreflightCommitment != "" {
		cfg["preflightCommitment"] = opts.PreflightCommitment
	}
	if opts.MaxRetries != nil {
		cfg["maxRetries"] = *opts.MaxRetries
	}
	params := []any{base64.StdEncoding.EncodeToString(raw), cfg}

	var lastErr error = errors.New("no ledger endpoints configured")
	for _, c := range byHealth(l.clients) {
		result, err := c.Call(ctx, "sendTransaction", params)
		if err != nil {
			lastErr = err
			if ClassifyError(err) == ActionFailover {
				continue
			}
			return "", fmt.Errorf("send transaction: %w", err)
		}

		var sig string
		if err := json.Unmarshal(result, &sig); err != nil {
			return "", fmt.Errorf("decode sendTransaction result: %w", err)
		}
		return domain.Signature(sig), nil
	}
	return "", fmt.Errorf("send transaction: %w", lastErr)
}

// Health reports an error unless at least one endpoint answers getHealth.
func (l *Ledger) Health(ctx context.Context) error {
	var status string
	if err := l.read(ctx, "getHealth", nil, &status); err != nil {
		return fmt.Errorf("ledger health: %w", err)
	}
	if status != "ok" {
		return fmt.Errorf("ledger health: %s", status)
	}
	return nil
}
