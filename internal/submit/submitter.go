// Package submit sends transactions to the ledger and waits for confirmation,
// retrying with exponential backoff when a failure is classified as
// retryable.
//
// A Submitter holds no per-call state; concurrent Submit calls are fully
// independent and are not de-duplicated against each other.
package submit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/txsubmit/internal/core/domain"
	"github.com/vietddude/txsubmit/internal/submit/classify"
)

// LedgerClient is the ledger capability the submitter needs.
type LedgerClient interface {
	// GetCurrentReference returns a fresh consensus reference.
	GetCurrentReference(ctx context.Context, commitment domain.Commitment) (domain.ConsensusReference, error)

	// AwaitConfirmation blocks until sig reaches commitment, fails on-chain,
	// or can no longer land under ref.
	AwaitConfirmation(
		ctx context.Context,
		sig domain.Signature,
		ref domain.ConsensusReference,
		commitment domain.Commitment,
	) (domain.Confirmation, error)
}

// Attempt describes one try handed to a SendFunc.
type Attempt struct {
	Index       int
	Reference   domain.ConsensusReference
	SendOptions domain.SendOptions
	// NeedsFreshState is set when the previous attempt failed because an
	// account could not be (de)serialized. The SendFunc must re-read any
	// account data instead of resending a cached payload.
	NeedsFreshState bool
}

// SendFunc signs and broadcasts a transaction and returns its signature.
// The submitter never inspects transaction contents.
type SendFunc func(ctx context.Context, a Attempt) (domain.Signature, error)

// Config holds timing that is fixed for every Submit call.
type Config struct {
	Commitment     domain.Commitment
	ConfirmTimeout time.Duration
	// SettleDelay is applied after a confirmation, before returning.
	SettleDelay time.Duration
	// ResendDelay is applied before every attempt after the first.
	ResendDelay time.Duration
	MaxJitter   time.Duration
}

// DefaultConfig provides the production timings.
var DefaultConfig = Config{
	Commitment:     domain.CommitmentConfirmed,
	ConfirmTimeout: 60 * time.Second,
	SettleDelay:    1 * time.Second,
	ResendDelay:    500 * time.Millisecond,
	MaxJitter:      500 * time.Millisecond,
}

// Submitter runs the attempt, confirm, classify and backoff loop.
type Submitter struct {
	ledger   LedgerClient
	cfg      Config
	observer Observer
	jitter   func(max time.Duration) time.Duration
}

// Option customizes a Submitter.
type Option func(*Submitter)

// WithObserver sets the transition observer.
func WithObserver(o Observer) Option {
	return func(s *Submitter) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithJitter replaces the random jitter source. fn receives the configured
// maximum and must return a value in [0, max].
func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(s *Submitter) {
		if fn != nil {
			s.jitter = fn
		}
	}
}

// New creates a Submitter. Zero fields in cfg take DefaultConfig values,
// except SettleDelay, ResendDelay and MaxJitter, for which zero is honoured.
func New(ledger LedgerClient, cfg Config, opts ...Option) *Submitter {
	if cfg.Commitment == "" {
		cfg.Commitment = DefaultConfig.Commitment
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfig.ConfirmTimeout
	}
	s := &Submitter{
		ledger:   ledger,
		cfg:      cfg,
		observer: nopObserver{},
		jitter:   randomJitter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

// call carries the identity of one Submit invocation.
type call struct {
	id    string
	start time.Time
}

// Submit sends a transaction through send and waits for it to be
// confirmed. It makes at most opts.MaxRetries+1 attempts. Fatal verdicts end
// the call immediately; retryable ones are absorbed until the budget is spent.
// Failures are returned as *SubmitError.
func (s *Submitter) Submit(
	ctx context.Context,
	send SendFunc,
	opts domain.SubmissionOptions,
) (domain.Signature, error) {
	if opts.MaxRetries < 0 {
		return "", fmt.Errorf("%w: max retries %d", ErrInvalidOptions, opts.MaxRetries)
	}
	if opts.BaseRetryDelay <= 0 {
		opts.BaseRetryDelay = domain.DefaultBaseRetryDelay
	}

	c := call{id: opts.ID, start: time.Now()}
	if c.id == "" {
		c.id = uuid.NewString()
	}

	var (
		lastErr    error
		lastSig    domain.Signature
		verdict    domain.Verdict
		freshState bool
	)

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, s.cfg.ResendDelay); err != nil {
				return "", s.abort(ctx, c, attempt-1, lastSig, err)
			}
		}

		s.emit(ctx, c, Transition{State: StateAttempting, Attempt: attempt})

		sig, err := s.attempt(ctx, c, send, Attempt{
			Index:           attempt,
			SendOptions:     opts.SendOptions,
			NeedsFreshState: freshState,
		})
		if sig != "" {
			lastSig = sig
		}
		if err == nil {
			// Confirmed; cancellation during the settle delay does not
			// change the outcome.
			_ = sleep(ctx, s.cfg.SettleDelay)
			s.emit(ctx, c, Transition{State: StateSuccess, Attempt: attempt, Signature: sig})
			return sig, nil
		}

		if ctx.Err() != nil {
			return "", s.abort(ctx, c, attempt, lastSig, ctx.Err())
		}

		lastErr = err
		verdict = classify.Classify(err)
		s.emit(ctx, c, Transition{
			State:     StateClassified,
			Attempt:   attempt,
			Signature: sig,
			Verdict:   verdict,
			Err:       err,
		})

		if !verdict.IsRetryable() {
			return "", s.fail(ctx, c, attempt, verdict, lastSig, err)
		}
		if attempt == opts.MaxRetries {
			break
		}

		freshState = verdict == domain.VerdictRetryableNeedsFreshState
		delay := s.backoff(attempt, opts.BaseRetryDelay)
		s.emit(ctx, c, Transition{State: StateRetrying, Attempt: attempt, Verdict: verdict, Delay: delay})
		if err := sleep(ctx, delay); err != nil {
			return "", s.abort(ctx, c, attempt, lastSig, err)
		}
	}

	return "", s.fail(ctx, c, opts.MaxRetries, verdict, lastSig, lastErr)
}

// attempt fetches a fresh reference, sends, and confirms against that same
// reference.
func (s *Submitter) attempt(ctx context.Context, c call, send SendFunc, a Attempt) (domain.Signature, error) {
	ref, err := s.ledger.GetCurrentReference(ctx, s.cfg.Commitment)
	if err != nil {
		return "", fmt.Errorf("fetch consensus reference: %w", err)
	}
	a.Reference = ref

	sig, err := send(ctx, a)
	if err != nil {
		return "", err
	}
	if sig == "" {
		return "", errors.New("send returned an empty signature")
	}

	s.emit(ctx, c, Transition{State: StateConfirming, Attempt: a.Index, Signature: sig})
	return sig, s.confirm(ctx, sig, ref)
}

type confirmResult struct {
	conf domain.Confirmation
	err  error
}

// confirm races the ledger's confirmation wait against ConfirmTimeout. The
// losing wait is cancelled through its context; the broadcast transaction
// itself may still land.
func (s *Submitter) confirm(ctx context.Context, sig domain.Signature, ref domain.ConsensusReference) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan confirmResult, 1)
	go func() {
		conf, err := s.ledger.AwaitConfirmation(waitCtx, sig, ref, s.cfg.Commitment)
		done <- confirmResult{conf: conf, err: err}
	}()

	timer := time.NewTimer(s.cfg.ConfirmTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("confirm %s: %w", sig, r.err)
		}
		if r.conf.Err != nil {
			return &domain.OnChainError{Signature: sig, Payload: r.conf.Err}
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s not confirmed within %s", ErrConfirmationTimeout, sig, s.cfg.ConfirmTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoff returns base*2^attempt plus jitter in [0, MaxJitter].
func (s *Submitter) backoff(attempt int, base time.Duration) time.Duration {
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	return delay + s.jitter(s.cfg.MaxJitter)
}

func (s *Submitter) fail(
	ctx context.Context,
	c call,
	attempt int,
	verdict domain.Verdict,
	sig domain.Signature,
	err error,
) error {
	msg := classify.FormatForUser(err)
	if sig != "" && verdict.IsRetryable() {
		msg += fmt.Sprintf(" The last transaction (%s) may still confirm; check it before sending again.", sig)
	}
	serr := &SubmitError{
		ID:        c.id,
		Verdict:   verdict,
		Message:   msg,
		Attempts:  attempt + 1,
		Signature: sig,
		Err:       err,
	}
	s.emit(ctx, c, Transition{State: StateTerminal, Attempt: attempt, Signature: sig, Verdict: verdict, Err: err})
	return serr
}

func (s *Submitter) abort(ctx context.Context, c call, attempt int, sig domain.Signature, err error) error {
	serr := &SubmitError{
		ID:        c.id,
		Verdict:   domain.VerdictAborted,
		Message:   "Submission was cancelled before it completed.",
		Attempts:  attempt + 1,
		Signature: sig,
		Err:       err,
	}
	s.emit(ctx, c, Transition{State: StateTerminal, Attempt: attempt, Signature: sig, Verdict: domain.VerdictAborted, Err: err})
	return serr
}

func (s *Submitter) emit(ctx context.Context, c call, t Transition) {
	t.ID = c.id
	t.Elapsed = time.Since(c.start)
	s.observer.Observe(ctx, t)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
