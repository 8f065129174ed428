package handlers

import "time"

// ChallengeResponse is returned when an OTP challenge is issued. The code is
// included the way the reference deployment surfaces it on screen; real
// deployments deliver it through the configured notifier instead.
type ChallengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	Code        string    `json:"code,omitempty"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionResponse is returned on successful OTP verification
type SessionResponse struct {
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReceiptResponse is returned on a successful vote cast
type ReceiptResponse struct {
	TransactionHash string    `json:"transaction_hash"`
	ElectionID      string    `json:"election_id"`
	CastAt          time.Time `json:"cast_at"`
}

// VoteCountResponse carries the ledger total for the conductor dashboard
type VoteCountResponse struct {
	TotalVotes int `json:"total_votes"`
}
