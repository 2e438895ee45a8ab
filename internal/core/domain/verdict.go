package domain

// Verdict is the classification of a submission failure.
type Verdict int

const (
	// VerdictFatalOther is the conservative default for unrecognized failures.
	VerdictFatalOther Verdict = iota
	VerdictRetryable
	// VerdictRetryableNeedsFreshState retries like VerdictRetryable, but the next
	// attempt must not reuse any previously fetched account snapshot.
	VerdictRetryableNeedsFreshState
	VerdictFatalUserCancelled
	VerdictFatalProgramLogic
	// VerdictAborted marks a submission stopped by context cancellation.
	// It is never produced from error text.
	VerdictAborted
)

var verdictNames = map[Verdict]string{
	VerdictFatalOther:               "fatal_other",
	VerdictRetryable:                "retryable",
	VerdictRetryableNeedsFreshState: "retryable_needs_fresh_state",
	VerdictFatalUserCancelled:       "fatal_user_cancelled",
	VerdictFatalProgramLogic:        "fatal_program_logic",
	VerdictAborted:                  "aborted",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return "unknown"
}

// ParseVerdict is the inverse of String. Unknown names map to VerdictFatalOther.
func ParseVerdict(s string) Verdict {
	for v, name := range verdictNames {
		if name == s {
			return v
		}
	}
	return VerdictFatalOther
}

// IsRetryable reports whether the submitter may try again after this verdict.
func (v Verdict) IsRetryable() bool {
	return v == VerdictRetryable || v == VerdictRetryableNeedsFreshState
}
