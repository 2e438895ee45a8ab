package submit

import (
	"context"

	"github.com/vietddude/txsubmit/internal/core/domain"
)

// Broadcaster sends a signed, serialized transaction to the ledger.
type Broadcaster interface {
	SendTransaction(ctx context.Context, raw []byte, opts domain.SendOptions) (domain.Signature, error)
}

// SendRaw returns a SendFunc that broadcasts the same pre-signed bytes on
// every attempt. Such a transaction is bound to the blockhash it was signed
// with; once that expires every further attempt fails until the caller
// re-signs, so callers that can re-sign should build their own SendFunc from
// Attempt.Reference.
func SendRaw(b Broadcaster, raw []byte) SendFunc {
	return func(ctx context.Context, a Attempt) (domain.Signature, error) {
		return b.SendTransaction(ctx, raw, a.SendOptions)
	}
}
