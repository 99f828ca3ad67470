package model

import (
	"crypto/subtle"
	"time"
)

// AuthProtocol identifies how a provider runs its authorization handshake.
type AuthProtocol string

const (
	ProtocolOAuth2 AuthProtocol = "oauth2"
	ProtocolOAuth1 AuthProtocol = "oauth1"
)

// AuthState is the per-provider position in the connect flow.
type AuthState string

const (
	AuthStateUnauthenticated  AuthState = "UNAUTHENTICATED"
	AuthStateAwaitingCallback AuthState = "AWAITING_CALLBACK"
	AuthStateAuthenticated    AuthState = "AUTHENTICATED"
)

// PendingState is the anti-forgery material issued with an authorize redirect.
// OAuth2 providers use State; OAuth1 providers use the temporary credential pair,
// whose secret never leaves the server.
type PendingState struct {
	Protocol      AuthProtocol `json:"protocol"`
	State         string       `json:"state,omitempty"`
	RequestToken  string       `json:"request_token,omitempty"`
	RequestSecret string       `json:"-"`
	IssuedAt      time.Time    `json:"issued_at"`
}

// Callback carries the query parameters a provider sends back to the callback route.
type Callback struct {
	Code             string
	State            string
	OAuthToken       string
	Verifier         string
	Denied           string
	Error            string
	ErrorDescription string
}

// Matches reports whether cb echoes exactly the material stored in p.
func (p PendingState) Matches(cb Callback) bool {
	switch p.Protocol {
	case ProtocolOAuth1:
		echoed := cb.OAuthToken
		if echoed == "" {
			echoed = cb.Denied
		}
		if p.RequestToken == "" || echoed == "" {
			return false
		}
		if cb.Denied == "" && cb.Verifier == "" {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(p.RequestToken), []byte(echoed)) == 1
	default:
		if p.State == "" || cb.State == "" {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(p.State), []byte(cb.State)) == 1
	}
}

// AuthRequest is what a provider hands back when an authorize redirect is started.
type AuthRequest struct {
	URL     string
	Pending PendingState
}

// ProviderSession is the slice of a browser session owned by one provider.
type ProviderSession struct {
	Pending    *PendingState `json:"pending,omitempty"`
	Credential *Credential   `json:"-"`
	Profile    *Profile      `json:"profile,omitempty"`
}

// State derives the connect-flow position from what the slot holds.
func (p *ProviderSession) State() AuthState {
	switch {
	case p == nil:
		return AuthStateUnauthenticated
	case p.Credential != nil:
		return AuthStateAuthenticated
	case p.Pending != nil:
		return AuthStateAwaitingCallback
	default:
		return AuthStateUnauthenticated
	}
}

// Session is the server-side record behind a session cookie.
type Session struct {
	ID        string                      `json:"id"`
	Providers map[string]*ProviderSession `json:"providers"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, Providers: map[string]*ProviderSession{}, CreatedAt: now, UpdatedAt: now}
}

// Provider returns the slot for name, creating it when missing.
func (s *Session) Provider(name string) *ProviderSession {
	if s.Providers == nil {
		s.Providers = map[string]*ProviderSession{}
	}
	ps, ok := s.Providers[name]
	if !ok {
		ps = &ProviderSession{}
		s.Providers[name] = ps
	}
	return ps
}

// Lookup returns the slot for name without creating it.
func (s *Session) Lookup(name string) (*ProviderSession, bool) {
	if s == nil || s.Providers == nil {
		return nil, false
	}
	ps, ok := s.Providers[name]
	return ps, ok
}

// Clone returns a deep copy so callers never share pointers with the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt, Providers: make(map[string]*ProviderSession, len(s.Providers))}
	for name, ps := range s.Providers {
		if ps == nil {
			continue
		}
		cp := &ProviderSession{}
		if ps.Pending != nil {
			p := *ps.Pending
			cp.Pending = &p
		}
		if ps.Credential != nil {
			c := ps.Credential.Clone()
			cp.Credential = &c
		}
		if ps.Profile != nil {
			p := *ps.Profile
			cp.Profile = &p
		}
		out.Providers[name] = cp
	}
	return out
}

// ProviderStatus summarises one provider for the session that asked.
type ProviderStatus struct {
	Name      string       `json:"name"`
	Protocol  AuthProtocol `json:"protocol"`
	State     AuthState    `json:"state"`
	Connected bool         `json:"connected"`
}
