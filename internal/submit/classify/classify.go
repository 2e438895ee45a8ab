// Package classify maps ledger submission failures to retry verdicts and to
// messages that can be shown to a user.
//
// Matching is case-insensitive substring search over the error text. Both
// Classify and FormatForUser are total: they accept any error, including nil,
// and never panic.
package classify

import (
	"strings"

	"github.com/vietddude/txsubmit/internal/core/domain"
)

// Classify returns the verdict for err. Unrecognized failures are not
// retried because retry safety cannot be shown for them.
func Classify(err error) domain.Verdict {
	if err == nil {
		return domain.VerdictFatalOther
	}
	return ClassifyMessage(err.Error())
}

// ClassifyMessage is Classify for a raw error string.
func ClassifyMessage(msg string) domain.Verdict {
	if m, ok := match(markerGroups, msg); ok {
		return m.verdict
	}
	return domain.VerdictFatalOther
}

func match(groups [][]marker, msg string) (marker, bool) {
	lower := strings.ToLower(msg)
	for _, group := range groups {
		for _, m := range group {
			for _, p := range m.patterns {
				if strings.Contains(lower, p) {
					return m, true
				}
			}
		}
	}
	return marker{}, false
}
