package models

import "time"

// RegistrationRequest is a pending sign-up waiting for its one-time code.
type RegistrationRequest struct {
	ID     int64
	Email  string
	Code   string
	SentOn time.Time
	Trials int
}

// Expired reports whether more than window has passed since the code was sent.
func (r *RegistrationRequest) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(r.SentOn) > window
}
