// Package session holds the per-session delegated credential. A Session is
// passed explicitly to every gateway and tree call so concurrent sessions never
// share credential state.
package session

import (
	"sync"

	"github.com/repolens/cli/entity"
)

// Session is one local browsing session.
type Session struct {
	// ID is unique per session. Account is the local account the session
	// belongs to and keys the persisted credential.
	ID      string
	Account string
	Tokens  *TokenStore
}

func New(id, account string) *Session {
	return &Session{
		ID:      id,
		Account: account,
		Tokens:  &TokenStore{},
	}
}

// TokenStore holds the delegated credential of one session. It does no I/O.
// Only the authorization coordinator calls Set and Clear.
type TokenStore struct {
	mu         sync.RWMutex
	credential *entity.Credential
}

// Get reports the session authorization. Not authorized is the zero value.
func (t *TokenStore) Get() entity.Authorization {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.credential == nil {
		return entity.Authorization{}
	}
	identity := t.credential.Identity
	return entity.Authorization{Authorized: true, Identity: &identity}
}

// AccessToken returns the bearer token, or "" when not authorized.
func (t *TokenStore) AccessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.credential == nil {
		return ""
	}
	return t.credential.AccessToken
}

func (t *TokenStore) Set(cred *entity.Credential) {
	if cred == nil || cred.AccessToken == "" {
		t.Clear()
		return
	}
	c := *cred
	t.mu.Lock()
	t.credential = &c
	t.mu.Unlock()
}

func (t *TokenStore) Clear() {
	t.mu.Lock()
	t.credential = nil
	t.mu.Unlock()
}
