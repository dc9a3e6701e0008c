// Package relay recovers the credential a callback relay eventually holds for
// a sign-in session. The relay offers no push channel, so recovery is
// pull-based: a bounded poll loop against GET {base}/token/{state}.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/internal/utils"
)

// AttemptOutcome classifies one relay round trip.
type AttemptOutcome string

const (
	OutcomeNotReady  AttemptOutcome = "not_ready"
	OutcomeSuccess   AttemptOutcome = "success"
	OutcomeTransient AttemptOutcome = "transient_error"
)

// TokenPayload is the relay's response body. The not-ready shape is any
// non-2xx status; only a 2xx body with success set and a non-empty access
// token counts.
type TokenPayload struct {
	Success bool         `json:"success"`
	Token   *IssuedToken `json:"token,omitempty"`
}

// IssuedToken is the token material held by the relay.
type IssuedToken struct {
	AccessToken *string `json:"access_token,omitempty"`
	ExpiresIn   int     `json:"expires_in,omitempty"`
}

// FetchResult carries the classified outcome of one relay request. Err is the
// underlying cause for retryable outcomes, kept for logging only; it is never
// escalated out of the poll loop.
type FetchResult struct {
	Outcome AttemptOutcome
	Token   *IssuedToken
	Err     error
}

// Client fetches the token a relay may hold for a state token.
type Client interface {
	FetchToken(ctx context.Context, stateToken string) FetchResult
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, stateToken string) FetchResult

func (f ClientFunc) FetchToken(ctx context.Context, stateToken string) FetchResult {
	return f(ctx, stateToken)
}

var MissingBaseURLErr = errors.New("relay base url is required")

// HTTPClient polls a relay endpoint over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient validates the relay base URL; a bad relay URL is a
// configuration error and is rejected before any session starts.
func NewHTTPClient(baseURL string, requestTimeout time.Duration) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, MissingBaseURLErr
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[relay.NewHTTPClient] parse base url")
	}
	if !u.IsAbs() {
		return nil, errors.New("[relay.NewHTTPClient] relay base url must be absolute")
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// FetchToken performs GET {base}/token/{state} and classifies the response.
// Anything short of a well-formed payload with a non-empty access token is
// retryable: from the client's vantage point "not yet ready" and a network
// blip are indistinguishable.
func (c *HTTPClient) FetchToken(ctx context.Context, stateToken string) FetchResult {
	endpoint := fmt.Sprintf("%s/token/%s", c.baseURL, url.PathEscape(stateToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return FetchResult{Outcome: OutcomeTransient, Err: errors.Wrap(err, "[relay.FetchToken] build request")}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FetchResult{Outcome: OutcomeTransient, Err: errors.Wrap(err, "[relay.FetchToken] request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FetchResult{Outcome: OutcomeNotReady, Err: errors.Errorf("[relay.FetchToken] status %d", resp.StatusCode)}
	}

	var payload TokenPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return FetchResult{Outcome: OutcomeTransient, Err: errors.Wrap(err, "[relay.FetchToken] decode payload")}
	}
	if !payload.Success || payload.Token == nil || strings.TrimSpace(utils.Value(payload.Token.AccessToken)) == "" {
		// A 2xx without a usable token is still not ready. Never surface a
		// partial credential as success.
		return FetchResult{Outcome: OutcomeNotReady}
	}
	return FetchResult{Outcome: OutcomeSuccess, Token: payload.Token}
}
