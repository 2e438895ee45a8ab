package classify

import "github.com/vietddude/txsubmit/internal/core/domain"

// marker is a group of lowercase substrings that share a verdict and, when
// set, a user-facing sentence.
type marker struct {
	verdict  domain.Verdict
	patterns []string
	message  string
}

// Program error codes emitted by the game program (Anchor custom errors
// start at 6000 = 0x1770).
const (
	CodeRoomUnavailable      = 6000
	CodeGameAlreadyStarted   = 6001
	CodeInvalidGameState     = 6002
	CodeSelectionTimeExpired = 6003
)

// programLogicMarkers are business-state conflicts reported by the program.
// Retrying cannot help and may duplicate side effects.
var programLogicMarkers = []marker{
	{
		verdict:  domain.VerdictFatalProgramLogic,
		patterns: []string{"room unavailable", "roomunavailable", "0x1770", "error number: 6000", `"custom":6000`},
		message:  "This room is no longer available. Another player may have joined or it was closed.",
	},
	{
		verdict:  domain.VerdictFatalProgramLogic,
		patterns: []string{"game already started", "gamealreadystarted", "0x1771", "error number: 6001", `"custom":6001`},
		message:  "This game has already started. Refresh to see its current state.",
	},
	{
		verdict:  domain.VerdictFatalProgramLogic,
		patterns: []string{"invalid game state", "invalidgamestate", "0x1772", "error number: 6002", `"custom":6002`},
		message:  "The game is not in a state that allows this action. Refresh and try again.",
	},
	{
		verdict:  domain.VerdictFatalProgramLogic,
		patterns: []string{"selection time expired", "selectiontimeexpired", "0x1773", "error number: 6003", `"custom":6003`},
		message:  "The time to make your selection has expired.",
	},
}

const cancelledMessage = "Transaction was cancelled in your wallet."

var userCancelledMarkers = []marker{
	{
		verdict:  domain.VerdictFatalUserCancelled,
		patterns: []string{"user rejected", "user denied", "user cancelled", "user canceled"},
		message:  cancelledMessage,
	},
}

// retryableMarkers are checked in order; the fresh-state group comes first
// so it is not swallowed by the generic simulation marker.
var retryableMarkers = []marker{
	{
		verdict: domain.VerdictRetryableNeedsFreshState,
		patterns: []string{
			"accountdidnotdeserialize", "failed to deserialize the account",
			"accountdidnotserialize", "failed to serialize the account",
			"0xbbb", "0xbbc",
		},
		message: "Game data changed while your transaction was in flight. Please try again.",
	},
	{
		verdict: domain.VerdictRetryable,
		patterns: []string{
			"blockhash not found", "block height exceeded", "blockhash expired",
			"transaction expired",
		},
		message: "The network moved on before your transaction landed. Please try again.",
	},
	{
		verdict:  domain.VerdictRetryable,
		patterns: []string{"simulation failed", "simulation error"},
		message:  "Transaction simulation failed. Please try again.",
	},
	{
		verdict:  domain.VerdictRetryable,
		patterns: []string{"(429)", "http 429", "too many requests", "rate limit"},
		message:  "The network is busy right now. Please wait a moment and try again.",
	},
	{
		verdict: domain.VerdictRetryable,
		patterns: []string{
			"network error", "network request failed", "failed to fetch",
			"connection reset", "connection refused", "econnreset", "econnrefused",
			"broken pipe", "no such host", "http 502", "http 503", "http 504",
			"service unavailable", "bad gateway",
			"node is behind", "node is unhealthy",
		},
		message: "Network error. Check your connection and try again.",
	},
	{
		verdict:  domain.VerdictRetryable,
		patterns: []string{"timeout", "timed out", "deadline exceeded"},
		message:  "The request timed out. Please try again.",
	},
}

const insufficientBalanceMessage = "Insufficient balance to complete this transaction."

var fatalOtherMarkers = []marker{
	{
		verdict: domain.VerdictFatalOther,
		patterns: []string{
			"insufficient funds", "insufficient lamports", "insufficient balance",
			"debit an account but found no record of a prior credit",
		},
		message: insufficientBalanceMessage,
	},
	{
		verdict:  domain.VerdictFatalOther,
		patterns: []string{"invalid program id", "incorrect program id", "program id mismatch", "declaredprogramidmismatch"},
		message:  "The app is pointing at the wrong program. Please reload the page.",
	},
	{
		verdict:  domain.VerdictFatalOther,
		patterns: []string{"constraintmut", "a mut constraint was violated", "0x7d0"},
		message:  "The other player's account is missing or cannot be updated. The game may have been closed.",
	},
}

// markerGroups is the classification priority order; first match wins.
var markerGroups = [][]marker{
	programLogicMarkers,
	userCancelledMarkers,
	retryableMarkers,
	fatalOtherMarkers,
}

// messageGroups is the order used to pick a user-facing sentence. The
// specific fatal sentences come before the retryable ones, because a
// preflight failure reports "simulation failed" with the real cause in the
// program logs that follow.
var messageGroups = [][]marker{
	programLogicMarkers,
	userCancelledMarkers,
	fatalOtherMarkers,
	retryableMarkers,
}
