package authflow

import (
	"context"
	"time"
)

// Status is the lifecycle state of a sign-in session.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusAwaitingBrowser Status = "awaiting_browser"
	StatusPolling         Status = "polling"
	StatusSucceeded       Status = "succeeded"
	StatusFailed          Status = "failed"
	StatusTimedOut        Status = "timed_out"
	StatusCancelled       Status = "cancelled"
)

// Terminal reports whether no further transitions can happen for a session in
// this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusCancelled:
		return true
	}
	return false
}

// Session is one attempt to acquire a credential. ID identifies the session
// in logs and status updates; StateToken is the secret anti-forgery value
// sent to the provider and used as the relay lookup key, and must never be
// logged. Sessions are single-use: a new sign-in always mints a new Session.
type Session struct {
	ID         string
	StateToken string
	Status     Status
	StartedAt  time.Time

	cancel context.CancelFunc
}

func (s *Session) active() bool {
	return s != nil && (s.Status == StatusAwaitingBrowser || s.Status == StatusPolling)
}
