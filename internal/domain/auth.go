package domain

import "time"

// IssuedToken is the result of a successful sign-in: the bearer token and
// the window it is valid for.
type IssuedToken struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
