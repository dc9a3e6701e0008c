package relay_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/internal/utils"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/relay"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/relay/relayfakes"
)

func fastPolicy(maxAttempts int) relay.Policy {
	return relay.Policy{
		Interval:       time.Millisecond,
		MaxAttempts:    maxAttempts,
		RequestTimeout: 50 * time.Millisecond,
		MaxWait:        time.Minute,
	}
}

func notReady() relay.FetchResult {
	return relay.FetchResult{Outcome: relay.OutcomeNotReady}
}

func success(accessToken string) relay.FetchResult {
	return relay.FetchResult{
		Outcome: relay.OutcomeSuccess,
		Token:   &relay.IssuedToken{AccessToken: utils.Ptr(accessToken), ExpiresIn: 3600},
	}
}

func TestPoller_SuccessStopsTheLoop(t *testing.T) {
	client := relayfakes.NewFakeClient(notReady(), notReady(), notReady(), success("tok"))
	poller, err := relay.NewPoller(client, fastPolicy(60))
	require.NoError(t, err)

	result := poller.Run(context.Background(), "state-1")
	require.Equal(t, relay.OutcomeSucceeded, result.Outcome)
	require.Equal(t, 4, result.Attempts)
	require.Equal(t, 4, client.Calls(), "no attempt after success")
	require.Equal(t, "tok", utils.Value(result.Token.AccessToken))
}

func TestPoller_FirstAttemptSuccess(t *testing.T) {
	client := relayfakes.NewFakeClient(success("tok"))
	poller, err := relay.NewPoller(client, fastPolicy(60))
	require.NoError(t, err)

	result := poller.Run(context.Background(), "state-1")
	require.Equal(t, relay.OutcomeSucceeded, result.Outcome)
	require.Equal(t, 1, client.Calls())
}

func TestPoller_ExhaustsAfterMaxAttempts(t *testing.T) {
	client := relayfakes.NewFakeClient()
	poller, err := relay.NewPoller(client, fastPolicy(60))
	require.NoError(t, err)

	result := poller.Run(context.Background(), "state-1")
	require.Equal(t, relay.OutcomeExhausted, result.Outcome)
	require.Equal(t, 60, result.Attempts)
	require.Equal(t, 60, client.Calls(), "exactly the attempt ceiling, never more")
	require.Nil(t, result.Token)
}

func TestPoller_TransientErrorsAreRetried(t *testing.T) {
	client := relayfakes.NewFakeClient(
		relay.FetchResult{Outcome: relay.OutcomeTransient, Err: context.DeadlineExceeded},
		notReady(),
		success("tok"),
	)
	poller, err := relay.NewPoller(client, fastPolicy(60))
	require.NoError(t, err)

	result := poller.Run(context.Background(), "state-1")
	require.Equal(t, relay.OutcomeSucceeded, result.Outcome)
	require.Equal(t, 3, result.Attempts)
}

func TestPoller_CancelledBeforeStart(t *testing.T) {
	client := relayfakes.NewFakeClient()
	poller, err := relay.NewPoller(client, fastPolicy(60))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := poller.Run(ctx, "state-1")
	require.Equal(t, relay.OutcomeCancelled, result.Outcome)
	require.Equal(t, 0, client.Calls())
}

func TestPoller_CancelledMidFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int64
	client := relay.ClientFunc(func(reqCtx context.Context, stateToken string) relay.FetchResult {
		if calls.Add(1) == 3 {
			// Cancellation lands while attempt 3 is still in flight.
			cancel()
		}
		return notReady()
	})

	poller, err := relay.NewPoller(client, fastPolicy(60))
	require.NoError(t, err)

	result := poller.Run(ctx, "state-1")
	require.Equal(t, relay.OutcomeCancelled, result.Outcome)
	require.Equal(t, 3, result.Attempts)
	require.EqualValues(t, 3, calls.Load(), "no attempt issued after cancellation")
}

func TestPoller_StaleSuccessAfterCancellationIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := relay.ClientFunc(func(reqCtx context.Context, stateToken string) relay.FetchResult {
		// The relay hands back a token, but the session was cancelled while
		// the request was in flight.
		cancel()
		return success("stale")
	})

	poller, err := relay.NewPoller(client, fastPolicy(60))
	require.NoError(t, err)

	result := poller.Run(ctx, "state-1")
	require.Equal(t, relay.OutcomeCancelled, result.Outcome)
	require.Nil(t, result.Token)
}

func TestPoller_WallClockDeadline(t *testing.T) {
	base := time.Now()
	var ticks atomic.Int64
	// Every clock read advances 20s, so the 1 minute MaxWait trips long
	// before the attempt ceiling.
	nowFunc := func() time.Time {
		return base.Add(time.Duration(ticks.Add(1)) * 20 * time.Second)
	}

	client := relayfakes.NewFakeClient()
	poller, err := relay.NewPoller(client, fastPolicy(60), relay.WithNowTime(nowFunc))
	require.NoError(t, err)

	result := poller.Run(context.Background(), "state-1")
	require.Equal(t, relay.OutcomeExhausted, result.Outcome)
	require.Less(t, result.Attempts, 60)
}

func TestNewPoller_Validation(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		_, err := relay.NewPoller(nil, fastPolicy(60))
		require.Error(t, err)
	})

	t.Run("non-positive attempts", func(t *testing.T) {
		_, err := relay.NewPoller(relayfakes.NewFakeClient(), fastPolicy(0))
		require.Error(t, err)
	})
}
