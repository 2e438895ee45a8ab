package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Signature identifies a submitted transaction on the ledger.
type Signature string

// Commitment is the durability level requested when reading ledger state.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

var commitmentRank = map[Commitment]int{
	CommitmentProcessed: 1,
	CommitmentConfirmed: 2,
	CommitmentFinalized: 3,
}

// SatisfiedBy reports whether a reported confirmation status is at least as
// durable as c.
func (c Commitment) SatisfiedBy(status string) bool {
	have, ok := commitmentRank[Commitment(status)]
	if !ok {
		return false
	}
	return have >= commitmentRank[c]
}

// Valid reports whether c is a known commitment level.
func (c Commitment) Valid() bool {
	_, ok := commitmentRank[c]
	return ok
}

// ConsensusReference anchors a transaction to a recent ledger state.
// It is fetched fresh for every attempt and never shared across attempts.
type ConsensusReference struct {
	Blockhash       string
	LastValidHeight uint64
	Slot            uint64
}

// SendOptions are passed through to the ledger client untouched.
type SendOptions struct {
	SkipPreflight       bool       `json:"skipPreflight,omitempty"`
	PreflightCommitment Commitment `json:"preflightCommitment,omitempty"`
	MaxRetries          *uint      `json:"maxRetries,omitempty"`
}

// SubmissionOptions configures a single Submit call.
type SubmissionOptions struct {
	// ID correlates transitions, errors and records; generated when empty.
	ID             string
	MaxRetries     int
	BaseRetryDelay time.Duration
	SendOptions    SendOptions
}

const (
	DefaultMaxRetries     = 3
	DefaultBaseRetryDelay = time.Second
)

// DefaultSubmissionOptions returns three retries with a one second base delay.
func DefaultSubmissionOptions() SubmissionOptions {
	return SubmissionOptions{
		MaxRetries:     DefaultMaxRetries,
		BaseRetryDelay: DefaultBaseRetryDelay,
	}
}

// Confirmation is the ledger's answer to a confirmation wait.
// A non-nil Err is a definitive on-chain failure.
type Confirmation struct {
	Slot uint64
	Err  any
}

// OnChainError is returned when the ledger confirms a transaction that failed
// during execution.
type OnChainError struct {
	Signature Signature
	Payload   any
}

func (e *OnChainError) Error() string {
	return fmt.Sprintf("transaction %s failed on-chain: %s", e.Signature, DescribeOnChainError(e.Payload))
}

// DescribeOnChainError renders a ledger error payload as text. Custom program
// errors become "instruction <i>: custom program error: 0x<code>" so numeric
// program codes can be matched.
func DescribeOnChainError(payload any) string {
	if m, ok := payload.(map[string]any); ok {
		if ie, ok := m["InstructionError"].([]any); ok && len(ie) == 2 {
			idx, _ := ie[0].(float64)
			if inner, ok := ie[1].(map[string]any); ok {
				if code, ok := inner["Custom"].(float64); ok {
					return fmt.Sprintf("instruction %d: custom program error: 0x%x", int(idx), uint64(code))
				}
			}
			if name, ok := ie[1].(string); ok {
				return fmt.Sprintf("instruction %d: %s", int(idx), name)
			}
		}
	}
	if s, ok := payload.(string); ok {
		return s
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}
