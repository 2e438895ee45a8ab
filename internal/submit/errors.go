package submit

import (
	"errors"
	"fmt"

	"github.com/vietddude/txsubmit/internal/core/domain"
)

var (
	// ErrConfirmationTimeout is returned when a sent transaction is not
	// confirmed within the confirmation window.
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")

	// ErrInvalidOptions is returned for negative retry budgets.
	ErrInvalidOptions = errors.New("invalid submission options")
)

// SubmitError is the terminal failure of a Submit call. Error returns a
// message safe to show a user; Unwrap exposes the raw cause for logging.
type SubmitError struct {
	ID       string
	Verdict  domain.Verdict
	Message  string
	Attempts int
	// Signature is the last signature obtained, empty when no attempt got
	// that far.
	Signature domain.Signature
	Err       error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Detail renders the raw cause with attempt metadata, for logs.
func (e *SubmitError) Detail() string {
	s := fmt.Sprintf("submission %s failed after %d attempt(s) [%s]", e.ID, e.Attempts, e.Verdict)
	if e.Signature != "" {
		s += fmt.Sprintf(" last signature %s", e.Signature)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
