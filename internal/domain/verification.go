package domain

import "time"

// ActivationThreshold is the number of confirming attestations required to
// move a pending member to ACTIVE. A single dissent rejects immediately; the
// asymmetry is intentional.
const ActivationThreshold = 2

// Verification is an append-only peer attestation about a pending member.
// Rows are never updated or deleted.
type Verification struct {
	ID         string
	InviteeID  string
	VerifierID string
	Confirmed  bool
	Reason     *string
	CreatedAt  time.Time
}
