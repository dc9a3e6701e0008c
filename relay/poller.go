package relay

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Policy bounds the poll loop. Both the attempt ceiling and the wall-clock
// deadline are enforced; whichever trips first ends the session as exhausted.
type Policy struct {
	Interval       time.Duration
	MaxAttempts    int
	RequestTimeout time.Duration
	MaxWait        time.Duration // 0 disables the wall-clock deadline
}

// DefaultPolicy is 5s between attempts, 60 attempts, 10s per request and 5
// minutes overall. These are client-side constants, not negotiated with the
// relay.
func DefaultPolicy() Policy {
	return Policy{
		Interval:       5 * time.Second,
		MaxAttempts:    60,
		RequestTimeout: 10 * time.Second,
		MaxWait:        5 * time.Minute,
	}
}

// Outcome is the poller's terminal state. Cancellation is distinct from both
// success and exhaustion: a cancelled poller reports neither a token nor a
// timeout.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeCancelled Outcome = "cancelled"
)

// Result is what the poller hands back to its owner.
type Result struct {
	Outcome  Outcome
	Token    *IssuedToken
	Attempts int
}

// Poller drives the bounded retry loop for a single state token at a time.
// Negative results are never cached across state tokens.
type Poller struct {
	client  Client
	policy  Policy
	nowTime func() time.Time
}

// PollerOption modifies a Poller at construction.
type PollerOption func(*Poller)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) PollerOption {
	return func(p *Poller) {
		p.nowTime = nowFunc
	}
}

func NewPoller(client Client, policy Policy, options ...PollerOption) (*Poller, error) {
	if client == nil {
		return nil, errors.New("[relay.NewPoller] client is required")
	}
	if policy.MaxAttempts <= 0 {
		return nil, errors.New("[relay.NewPoller] MaxAttempts must be positive")
	}
	p := &Poller{
		client:  client,
		policy:  policy,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// Run polls until the relay yields a token, the policy is exhausted, or ctx
// is cancelled. Cancellation is cooperative: it is observed before each
// attempt, after each attempt returns, and while sleeping between attempts,
// so cancellation latency is bounded by the per-request timeout. A token that
// arrives after cancellation is discarded, never reported as success.
func (p *Poller) Run(ctx context.Context, stateToken string) Result {
	deadline := p.nowTime().Add(p.policy.MaxWait)

	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeCancelled, Attempts: attempt - 1}
		}
		if p.policy.MaxWait > 0 && !p.nowTime().Before(deadline) {
			return Result{Outcome: OutcomeExhausted, Attempts: attempt - 1}
		}

		attemptStart := p.nowTime()
		res := p.fetchOnce(ctx, stateToken)
		latency := p.nowTime().Sub(attemptStart)

		if ctx.Err() != nil {
			return Result{Outcome: OutcomeCancelled, Attempts: attempt}
		}
		if res.Outcome == OutcomeSuccess {
			log.Debug().Int("attempt", attempt).Dur("latency", latency).Msg("relay token recovered")
			return Result{Outcome: OutcomeSucceeded, Token: res.Token, Attempts: attempt}
		}
		if res.Err != nil {
			log.Debug().Err(res.Err).Int("attempt", attempt).Msg("relay token not ready")
		}

		if attempt == p.policy.MaxAttempts {
			break
		}
		if !p.sleepRemainder(ctx, latency) {
			return Result{Outcome: OutcomeCancelled, Attempts: attempt}
		}
	}
	return Result{Outcome: OutcomeExhausted, Attempts: p.policy.MaxAttempts}
}

func (p *Poller) fetchOnce(ctx context.Context, stateToken string) FetchResult {
	if p.policy.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.policy.RequestTimeout)
		defer cancel()
	}
	return p.client.FetchToken(ctx, stateToken)
}

// sleepRemainder waits out what is left of the poll interval after the
// attempt's own latency. Returns false if ctx was cancelled while waiting.
func (p *Poller) sleepRemainder(ctx context.Context, latency time.Duration) bool {
	wait := p.policy.Interval - latency
	if wait <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
