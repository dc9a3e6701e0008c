package credentials

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	EmptyAccessTokenErr = errors.New("empty access token")
	AlreadyInstalledErr = errors.New("credential already installed for session")
)

// Store owns the active credential. It is the only state shared between the
// sign-in worker and the foreground; installs and reads synchronize on the
// same mutex, so a credential installed before a completion callback fires is
// visible to the callback's goroutine.
type Store struct {
	mu        sync.RWMutex
	active    *Credential
	sessionID string
}

func NewStore() *Store {
	return &Store{}
}

// Install makes cred the active credential on behalf of sessionID. A session
// installs at most once; repeat installs for the same session are rejected so
// a duplicate poll result cannot double-apply.
func (s *Store) Install(sessionID string, cred Credential) error {
	if strings.TrimSpace(cred.AccessToken) == "" {
		return EmptyAccessTokenErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID != "" && sessionID == s.sessionID {
		return AlreadyInstalledErr
	}
	c := cred
	s.active = &c
	s.sessionID = sessionID
	return nil
}

// Active returns the current credential, if one has been installed.
func (s *Store) Active() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return Credential{}, false
	}
	return *s.active, true
}

// Clear drops the active credential (sign-out).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	s.sessionID = ""
}
