package entity

import "time"

// Credential is a delegated-provider token plus the identity it was issued for.
// AccessToken and RefreshToken never leave the process.
type Credential struct {
	AccessToken  string    `json:"access_token" mapstructure:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty" mapstructure:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty" mapstructure:"token_type"`
	Expiry       time.Time `json:"expiry,omitempty" mapstructure:"expiry"`
	Scope        string    `json:"scope,omitempty" mapstructure:"scope"`
	Identity     Identity  `json:"identity" mapstructure:"identity"`
}

// Expired reports whether the access token is past its expiry. Tokens without
// an expiry never expire.
func (c *Credential) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && now.After(c.Expiry)
}
