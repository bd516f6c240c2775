package identity

import "time"

// SignUpInput is a new citizen account.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	BirthDate string // 2006-01-02
}

// SignUpResult reports the Cognito subject of the new user.
type SignUpResult struct {
	Subject     string
	Confirmed   bool
	Destination string // masked address the code was sent to
}

// Tokens are the credentials of a signed-in user.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past its lifetime at now.
func (t Tokens) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// SignInResult holds tokens, or the session of a pending TOTP challenge.
type SignInResult struct {
	Tokens       *Tokens
	TOTPRequired bool
	Session      string
}

// User is the profile Cognito keeps for an access token.
type User struct {
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	BirthDate     string
	TOTPEnabled   bool
}
