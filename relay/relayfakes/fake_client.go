package relayfakes

import (
	"context"
	"sync"

	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/relay"
)

var _ relay.Client = (*FakeClient)(nil)

// FakeClient replays scripted fetch results in order, then falls back to
// not-ready forever.
type FakeClient struct {
	lock    sync.Mutex
	results []relay.FetchResult
	calls   int
}

func NewFakeClient(results ...relay.FetchResult) *FakeClient {
	return &FakeClient{results: results}
}

func (f *FakeClient) FetchToken(ctx context.Context, stateToken string) relay.FetchResult {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls++
	if len(f.results) > 0 {
		result := f.results[0]
		f.results = f.results[1:]
		return result
	}
	return relay.FetchResult{Outcome: relay.OutcomeNotReady}
}

// Calls reports how many fetches were issued.
func (f *FakeClient) Calls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}
