// Package authurl builds the provider-facing authorization URL for the
// implicit/token response mode. The provider redirects the resulting token to
// the callback relay, never back to this client.
package authurl

import (
	"context"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

var (
	MissingClientIDErr = errors.New("client id is required")
	MissingCallbackErr = errors.New("callback url is required")
	InvalidCallbackErr = errors.New("callback url must be absolute")
	MissingAuthURLErr  = errors.New("authorization endpoint is required")
)

// Builder produces authorization URLs. It performs no I/O and the same inputs
// always produce the same URL.
type Builder struct {
	cfg oauth2.Config
}

// New validates the client identity and callback relay URL up front. These
// are configuration errors, caught before any sign-in session starts.
func New(clientID, callbackURL string, scopes []string, endpoint oauth2.Endpoint) (*Builder, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, MissingClientIDErr
	}
	if strings.TrimSpace(callbackURL) == "" {
		return nil, MissingCallbackErr
	}
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, errors.Wrap(err, "[authurl.New] parse callback url")
	}
	if !u.IsAbs() {
		return nil, InvalidCallbackErr
	}
	if strings.TrimSpace(endpoint.AuthURL) == "" {
		return nil, MissingAuthURLErr
	}
	return &Builder{cfg: oauth2.Config{
		ClientID:    clientID,
		RedirectURL: callbackURL,
		Scopes:      scopes,
		Endpoint:    endpoint,
	}}, nil
}

// AuthorizationURL returns the URL the external browser should open. The
// state token is round-tripped by the provider as the anti-forgery value and
// doubles as the relay lookup key.
func (b *Builder) AuthorizationURL(state string) string {
	return b.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "token"))
}

// DiscoverEndpoint resolves the provider's authorization endpoint from an
// OIDC issuer via its discovery document, for deployments that configure an
// issuer instead of a raw authorize URL.
func DiscoverEndpoint(ctx context.Context, issuer string) (oauth2.Endpoint, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return oauth2.Endpoint{}, errors.Wrap(err, "[authurl.DiscoverEndpoint] oidc.NewProvider")
	}
	return provider.Endpoint(), nil
}
