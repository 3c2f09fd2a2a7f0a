package domain

import "time"

// LoginOutcome distinguishes a clean login from one that issued tokens
// for an account whose password has expired.
type LoginOutcome int

const (
	LoginSuccess LoginOutcome = iota
	LoginPasswordExpired
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type LoginResult struct {
	Tokens  TokenPair
	Outcome LoginOutcome
}

// Actor is the per-request snapshot resolved from an access token subject.
type Actor struct {
	User User
	Role Role
}
