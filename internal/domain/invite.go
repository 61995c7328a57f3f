package domain

import "time"

// InviteCodeLength is the fixed length of generated invite codes.
const InviteCodeLength = 8

// InviteCodeAlphabet is the character set invite codes are drawn from.
const InviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Invite is a single-use, time-limited signup code tied to an issuing member.
type Invite struct {
	ID         string
	Code       string
	IssuerID   string
	Consumed   bool
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	RedeemedBy *string
	CreatedAt  time.Time
}

// Expired reports whether the invite's expiry has passed.
func (i *Invite) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// Redeemable reports whether the invite can still be consumed.
func (i *Invite) Redeemable(now time.Time) bool {
	return !i.Consumed && !i.Expired(now)
}
