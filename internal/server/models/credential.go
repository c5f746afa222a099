package models

import (
	"encoding/json"
	"time"
)

// Credential is the per-user OAuth credential blob. It is serialized as one
// JSON object and always replaced atomically: the access and refresh tokens
// must stay paired from a single provider response.
type Credential struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry"`
}

// MarshalCredential serializes the blob for storage.
func MarshalCredential(c *Credential) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalCredential parses a stored blob.
func UnmarshalCredential(raw string) (*Credential, error) {
	c := &Credential{}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, err
	}
	return c, nil
}
