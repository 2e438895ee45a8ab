package classify

import (
	"fmt"
	"regexp"
	"strconv"
)

// LamportsPerSOL converts the ledger's native subunit into its display unit.
const LamportsPerSOL = 1_000_000_000

// Balance failures embed amounts in subunits, e.g.
// "Transfer: insufficient lamports 500000000, need 1000000000".
var balancePattern = regexp.MustCompile(`(?i)insufficient (?:lamports|funds|balance)[^0-9]*([0-9]+)[^0-9]+?need[^0-9]*([0-9]+)`)

// FormatForUser returns a sentence suitable for direct display.
func FormatForUser(err error) string {
	if err == nil {
		return "Operation failed."
	}
	return FormatMessage(err.Error())
}

// FormatMessage is FormatForUser for a raw error string.
func FormatMessage(msg string) string {
	m, ok := match(messageGroups, msg)
	if !ok {
		return "Operation failed: " + msg
	}
	if m.message == insufficientBalanceMessage {
		if detailed, ok := formatBalance(msg); ok {
			return detailed
		}
	}
	if m.message == "" {
		return "Operation failed: " + msg
	}
	return m.message
}

func formatBalance(msg string) (string, bool) {
	parts := balancePattern.FindStringSubmatch(msg)
	if len(parts) != 3 {
		return "", false
	}
	have, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return "", false
	}
	need, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return "", false
	}

	var short uint64
	if need > have {
		short = need - have
	}
	return fmt.Sprintf(
		"Insufficient balance: you have %.2f SOL but need %.2f SOL (short by %.2f SOL).",
		toDisplay(have), toDisplay(need), toDisplay(short),
	), true
}

func toDisplay(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}
