package domain

import "time"

// TokenKind differentiates single-use action tokens.
type TokenKind string

const (
	TokenKindPasswordReset TokenKind = "PASSWORD_RESET"
	TokenKindEmailVerify   TokenKind = "EMAIL_VERIFY"
)

// ActionToken is a single-use, time-limited token mailed to a member for
// password resets and email verification.
type ActionToken struct {
	ID        string
	ProfileID string
	Kind      TokenKind
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token is unconsumed and unexpired.
func (t *ActionToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
