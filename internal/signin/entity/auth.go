package entity

import "time"

// Form holds the sign-in input as the user fills it. It is owned by the
// flow; other components read it through accessors only.
type Form struct {
	FullName string
	Phone    string
	OTP      string
}

type User struct {
	ID       int64
	FullName string
	Phone    string
}

// Session is the credential set returned by a successful verification.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Expired reports whether the session's access token is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
