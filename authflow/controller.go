// Package authflow sequences browser hand-off and relay polling into one
// user-visible sign-in flow with at most one live session.
package authflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/authurl"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/browser"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/credentials"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/internal/utils"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/relay"
)

const (
	stateTokenLength = 32
	updateBuffer     = 32
)

// CompletionFunc is invoked once per successful session, after the credential
// has been installed into the store.
type CompletionFunc func(cred credentials.Credential)

// Deps holds the controller's collaborators.
type Deps struct {
	Builder  *authurl.Builder
	Launcher browser.Launcher
	Relay    relay.Client
	Store    *credentials.Store
}

// Controller owns session identity, drives the browser hand-off, runs the
// background poller and applies its result. At most one Session is live per
// Controller; starting a new sign-in cancels the previous one.
type Controller struct {
	deps       Deps
	poller     *relay.Poller
	updates    chan Update
	onComplete CompletionFunc

	nowTime    func() time.Time
	stateToken func() (string, error)

	mu      sync.Mutex
	current *Session
	wg      sync.WaitGroup
}

// ControllerOption modifies a Controller at construction.
type ControllerOption func(*Controller)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

// WithStateTokenSource overrides the state token generator (testing only; the
// default draws from crypto/rand).
func WithStateTokenSource(gen func() (string, error)) ControllerOption {
	return func(c *Controller) {
		c.stateToken = gen
	}
}

// WithCompletion registers a callback fired after a credential is installed.
// The callback runs on the worker goroutine and must not call back into the
// Controller.
func WithCompletion(fn CompletionFunc) ControllerOption {
	return func(c *Controller) {
		c.onComplete = fn
	}
}

func NewController(deps Deps, policy relay.Policy, options ...ControllerOption) (*Controller, error) {
	if deps.Builder == nil {
		return nil, errors.New("[NewController] Builder is required")
	}
	if deps.Launcher == nil {
		return nil, errors.New("[NewController] Launcher is required")
	}
	if deps.Relay == nil {
		return nil, errors.New("[NewController] Relay is required")
	}
	if deps.Store == nil {
		return nil, errors.New("[NewController] Store is required")
	}

	controller := &Controller{
		deps:       deps,
		updates:    make(chan Update, updateBuffer),
		nowTime:    time.Now,
		stateToken: newStateToken,
	}
	for _, opt := range options {
		opt(controller)
	}

	poller, err := relay.NewPoller(deps.Relay, policy, relay.WithNowTime(controller.nowTime))
	if err != nil {
		return nil, errors.Wrap(err, "[NewController] relay.NewPoller")
	}
	controller.poller = poller
	return controller, nil
}

// Updates is the stream the UI layer consumes.
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

// BeginSignIn starts a brand-new session, cancelling any in-flight one first.
// It returns the new session ID as soon as the browser launch and the
// background poller have been issued; the outcome arrives later through
// Updates. A launch failure is fatal to the attempt and the poller is never
// started.
func (c *Controller) BeginSignIn(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.active() {
		c.current.cancel()
	}

	stateToken, err := c.stateToken()
	if err != nil {
		return "", errors.Wrap(err, "[BeginSignIn] state token generation")
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	session := &Session{
		ID:         uuid.New().String(),
		StateToken: stateToken,
		Status:     StatusAwaitingBrowser,
		StartedAt:  c.nowTime(),
		cancel:     cancel,
	}
	c.current = session
	c.emit(session, "Opening your browser to sign in...")

	if err := c.deps.Launcher.Open(c.deps.Builder.AuthorizationURL(stateToken)); err != nil {
		cancel()
		session.Status = StatusFailed
		c.emit(session, "Could not open a browser. Try again.")
		return session.ID, errors.Wrap(err, "[BeginSignIn] launcher.Open")
	}

	session.Status = StatusPolling
	c.emit(session, "Waiting for sign-in to finish in the browser...")
	log.Info().Str("session_id", session.ID).Msg("sign-in session started")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		result := c.poller.Run(sessionCtx, stateToken)
		c.finish(session, result)
	}()
	return session.ID, nil
}

// Cancel aborts the in-flight session, if any. Safe to call when nothing is
// running.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.active() {
		c.current.cancel()
	}
}

// CurrentSession returns a snapshot of the most recent session.
func (c *Controller) CurrentSession() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Session{}, false
	}
	return *c.current, true
}

// Wait blocks until any background poller has finished. Used on shutdown and
// in tests.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// finish applies a poller result. It runs on the worker goroutine; everything
// it touches is guarded by the controller mutex, and results for superseded
// sessions are discarded whether or not they carry a token.
func (c *Controller) finish(session *Session, result relay.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != session {
		// A newer session took over; whatever this one recovered is stale.
		session.Status = StatusCancelled
		return
	}

	switch result.Outcome {
	case relay.OutcomeSucceeded:
		var accessToken string
		if result.Token != nil {
			accessToken = strings.TrimSpace(utils.Value(result.Token.AccessToken))
		}
		if accessToken == "" {
			session.Status = StatusFailed
			c.emit(session, "Sign-in failed. Try again.")
			return
		}
		cred := credentials.New(accessToken, utils.Value(result.Token).ExpiresIn, c.nowTime())
		if err := c.deps.Store.Install(session.ID, cred); err != nil {
			log.Error().Err(err).Str("session_id", session.ID).Msg("credential install rejected")
			session.Status = StatusFailed
			c.emit(session, "Sign-in failed. Try again.")
			return
		}
		session.Status = StatusSucceeded
		c.emit(session, "Signed in.")
		log.Info().Str("session_id", session.ID).Int("attempts", result.Attempts).Msg("sign-in succeeded")
		if c.onComplete != nil {
			c.onComplete(cred)
		}
	case relay.OutcomeExhausted:
		session.Status = StatusTimedOut
		c.emit(session, "Sign-in timed out. Try again.")
		log.Warn().Str("session_id", session.ID).Int("attempts", result.Attempts).Msg("sign-in timed out")
	case relay.OutcomeCancelled:
		session.Status = StatusCancelled
		c.emit(session, "Sign-in cancelled.")
	}
}

// emit queues a status update. Must be called with the mutex held so updates
// leave in transition order. A consumer that has stopped draining loses the
// oldest update rather than wedging the worker.
func (c *Controller) emit(session *Session, message string) {
	update := Update{
		SessionID:     session.ID,
		Status:        session.Status,
		Message:       message,
		SignInEnabled: session.Status.Terminal(),
		Spinner:       session.Status == StatusAwaitingBrowser || session.Status == StatusPolling,
	}
	for {
		select {
		case c.updates <- update:
			return
		default:
		}
		select {
		case dropped := <-c.updates:
			log.Warn().Str("session_id", dropped.SessionID).Msg("status update dropped: consumer not draining")
		default:
		}
	}
}

// newStateToken draws the anti-forgery state value. It is the sole defense
// against cross-session token theft at the relay, so it must come from a
// cryptographically secure source.
func newStateToken() (string, error) {
	bytes := make([]byte, stateTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[newStateToken] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
