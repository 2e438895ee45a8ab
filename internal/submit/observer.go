package submit

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/txsubmit/internal/core/domain"
	"github.com/vietddude/txsubmit/internal/metrics"
)

// State is a step of the per-call submission state machine.
type State string

const (
	StateAttempting State = "attempting"
	StateConfirming State = "confirming"
	StateClassified State = "classified"
	StateRetrying   State = "retrying"
	StateSuccess    State = "success"
	StateTerminal   State = "terminal"
)

// Transition is emitted once per state change of a Submit call.
type Transition struct {
	ID        string
	State     State
	Attempt   int
	Signature domain.Signature
	Verdict   domain.Verdict
	// Delay is the backoff about to be applied, set on StateRetrying.
	Delay   time.Duration
	Elapsed time.Duration
	Err     error
}

// Observer receives submission transitions. Implementations must not block.
type Observer interface {
	Observe(ctx context.Context, t Transition)
}

// Observers fans a transition out to several observers.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, t Transition) {
	for _, obs := range o {
		obs.Observe(ctx, t)
	}
}

type nopObserver struct{}

func (nopObserver) Observe(context.Context, Transition) {}

// LogObserver writes transitions to a slog logger. With Verbose unset only
// success and terminal transitions are logged at Info; the rest go to Debug.
type LogObserver struct {
	Logger  *slog.Logger
	Verbose bool
}

func (l LogObserver) Observe(ctx context.Context, t Transition) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		"id", t.ID,
		"state", string(t.State),
		"attempt", t.Attempt,
		"elapsed", t.Elapsed,
	}
	if t.Signature != "" {
		attrs = append(attrs, "signature", string(t.Signature))
	}
	if t.State == StateClassified || t.State == StateTerminal {
		attrs = append(attrs, "verdict", t.Verdict.String())
	}
	if t.Delay > 0 {
		attrs = append(attrs, "delay", t.Delay)
	}
	if t.Err != nil {
		attrs = append(attrs, "error", t.Err)
	}

	switch t.State {
	case StateTerminal:
		logger.WarnContext(ctx, "Submission failed", attrs...)
	case StateSuccess:
		logger.InfoContext(ctx, "Submission confirmed", attrs...)
	default:
		if l.Verbose {
			logger.InfoContext(ctx, "Submission transition", attrs...)
		} else {
			logger.DebugContext(ctx, "Submission transition", attrs...)
		}
	}
}

// MetricsObserver records transitions as Prometheus metrics.
type MetricsObserver struct{}

func (MetricsObserver) Observe(_ context.Context, t Transition) {
	switch t.State {
	case StateAttempting:
		metrics.AttemptsTotal.Inc()
	case StateClassified:
		metrics.VerdictsTotal.WithLabelValues(t.Verdict.String()).Inc()
	case StateRetrying:
		metrics.BackoffSeconds.Observe(t.Delay.Seconds())
	case StateSuccess:
		metrics.SubmissionsTotal.WithLabelValues("confirmed").Inc()
		metrics.SubmissionDuration.WithLabelValues("confirmed").Observe(t.Elapsed.Seconds())
		metrics.AttemptsPerSubmission.Observe(float64(t.Attempt + 1))
	case StateTerminal:
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		metrics.SubmissionDuration.WithLabelValues("failed").Observe(t.Elapsed.Seconds())
		metrics.AttemptsPerSubmission.Observe(float64(t.Attempt + 1))
	}
}
