package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/credential"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

const credentialKey = "session"

// ErrNoSession is returned by Restore when nothing usable is stored.
var ErrNoSession = errors.New("not logged in")

// stored is the keyring payload.
type stored struct {
	User   api.User   `json:"user"`
	Tokens api.Tokens `json:"tokens"`
}

// Save persists the session so later commands can reuse it.
func Save(creds *credential.Store, s *Session) error {
	s.mu.RLock()
	payload := stored{User: api.UserFromModel(s.actor), Tokens: s.tokens}
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return api.ErrAuthenticationRequired
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return creds.Set(credentialKey, string(data))
}

// Restore loads a previously saved session. An expired session is
// removed and reported as ErrNoSession.
func Restore(creds *credential.Store, clock timetrack.Clock) (*Session, error) {
	raw, err := creds.Get(credentialKey)
	if errors.Is(err, credential.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var payload stored
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}

	s, err := New(payload.User.ToModel(), payload.Tokens, clock)
	if err != nil || !s.Valid() {
		_ = creds.Delete(credentialKey)
		return nil, ErrNoSession
	}
	return s, nil
}

// Forget closes s (if given) and removes the persisted session.
func Forget(creds *credential.Store, s *Session) error {
	if s != nil {
		s.Close()
	}
	return creds.Delete(credentialKey)
}
