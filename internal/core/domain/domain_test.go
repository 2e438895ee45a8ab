package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVerdict_StringRoundTrip(t *testing.T) {
	verdicts := []Verdict{
		VerdictFatalOther,
		VerdictRetryable,
		VerdictRetryableNeedsFreshState,
		VerdictFatalUserCancelled,
		VerdictFatalProgramLogic,
		VerdictAborted,
	}
	for _, v := range verdicts {
		if got := ParseVerdict(v.String()); got != v {
			t.Errorf("ParseVerdict(%q) = %v, want %v", v.String(), got, v)
		}
	}

	if got := ParseVerdict("something_new"); got != VerdictFatalOther {
		t.Errorf("unknown names should parse as fatal_other, got %v", got)
	}
}

func TestVerdict_IsRetryable(t *testing.T) {
	tests := []struct {
		verdict Verdict
		expect  bool
	}{
		{VerdictRetryable, true},
		{VerdictRetryableNeedsFreshState, true},
		{VerdictFatalOther, false},
		{VerdictFatalUserCancelled, false},
		{VerdictFatalProgramLogic, false},
		{VerdictAborted, false},
	}
	for _, tt := range tests {
		if got := tt.verdict.IsRetryable(); got != tt.expect {
			t.Errorf("%v.IsRetryable() = %v, want %v", tt.verdict, got, tt.expect)
		}
	}
}

func TestCommitment_SatisfiedBy(t *testing.T) {
	tests := []struct {
		want   Commitment
		status string
		expect bool
	}{
		{CommitmentConfirmed, "processed", false},
		{CommitmentConfirmed, "confirmed", true},
		{CommitmentConfirmed, "finalized", true},
		{CommitmentFinalized, "confirmed", false},
		{CommitmentFinalized, "finalized", true},
		{CommitmentProcessed, "processed", true},
		{CommitmentConfirmed, "", false},
		{CommitmentConfirmed, "rooted", false},
	}
	for _, tt := range tests {
		if got := tt.want.SatisfiedBy(tt.status); got != tt.expect {
			t.Errorf("%s.SatisfiedBy(%q) = %v, want %v", tt.want, tt.status, got, tt.expect)
		}
	}

	if Commitment("eventually").Valid() {
		t.Error("unknown commitment reported valid")
	}
}

// payload decodes JSON the way the ledger client does, so numbers are float64.
func payload(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad payload %s: %v", raw, err)
	}
	return v
}

func TestDescribeOnChainError(t *testing.T) {
	tests := []struct {
		raw    string
		expect string
	}{
		{`{"InstructionError":[0,{"Custom":6000}]}`, "instruction 0: custom program error: 0x1770"},
		{`{"InstructionError":[2,{"Custom":3003}]}`, "instruction 2: custom program error: 0xbbb"},
		{`{"InstructionError":[1,"AccountAlreadyInitialized"]}`, "instruction 1: AccountAlreadyInitialized"},
		{`"BlockhashNotFound"`, "BlockhashNotFound"},
		{`{"InsufficientFundsForRent":{"account_index":0}}`, `{"InsufficientFundsForRent":{"account_index":0}}`},
	}
	for _, tt := range tests {
		if got := DescribeOnChainError(payload(t, tt.raw)); got != tt.expect {
			t.Errorf("DescribeOnChainError(%s) = %q, want %q", tt.raw, got, tt.expect)
		}
	}
}

func TestOnChainError_Error(t *testing.T) {
	err := &OnChainError{Signature: "5sig", Payload: payload(t, `{"InstructionError":[0,{"Custom":6001}]}`)}
	if !strings.Contains(err.Error(), "5sig") || !strings.Contains(err.Error(), "0x1771") {
		t.Errorf("unexpected error text %q", err.Error())
	}
}
