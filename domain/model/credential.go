package model

import "time"

// Credential stores platform OAuth credentials for one session and provider.
type Credential struct {
	Protocol     AuthProtocol `json:"protocol"`
	AccessToken  string       `json:"access_token"`
	AccessSecret string       `json:"-"`
	TokenType    string       `json:"token_type,omitempty"`
	// ActorID is the provider identity that authors posts (LinkedIn person URN, Twitter user id, channel id).
	ActorID    string     `json:"actor_id"`
	Scopes     []string   `json:"scopes,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ObtainedAt time.Time  `json:"obtained_at"`
}

func (c Credential) Clone() Credential {
	out := c
	if c.Scopes != nil {
		out.Scopes = append([]string(nil), c.Scopes...)
	}
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

// Profile is the user-visible identity cached during the handshake.
type Profile struct {
	Provider string `json:"provider"`
	Subject  string `json:"sub,omitempty"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Picture  string `json:"picture,omitempty"`
}
