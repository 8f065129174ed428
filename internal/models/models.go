package models

import "time"

// Election status values. Transitions are one-directional:
// pending -> active -> completed.
const (
	ElectionPending   = "pending"
	ElectionActive    = "active"
	ElectionCompleted = "completed"
)

// Notification kinds
const (
	KindInfo    = "info"
	KindSuccess = "success"
	KindWarning = "warning"
)

// Voter represents a registered voter. The secret key is a pseudonymous
// ledger key, never a login credential; votes reference it instead of the
// voter's identity.
type Voter struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	GovID          string    `json:"gov_id"`
	DOB            string    `json:"dob"` // YYYY-MM-DD
	SecretKey      string    `json:"secret_key,omitempty"`
	Approved       bool      `json:"approved"`
	EligibleToVote bool      `json:"eligible_to_vote"`
	HasVoted       bool      `json:"has_voted"`
	VoteReceipt    *string   `json:"vote_receipt,omitempty"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// Party represents a candidate party. Once approved it may be referenced
// by elections and is otherwise immutable.
type Party struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Candidate    string    `json:"candidate"`
	Position     string    `json:"position"`
	Symbol       string    `json:"symbol"`
	Email        string    `json:"email"`
	Approved     bool      `json:"approved"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Election holds an ordered set of approved parties and a status.
// At most one election is active at any time.
type Election struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	PartyIDs  []string  `json:"party_ids"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Vote is an anonymized ledger entry. It carries the casting voter's secret
// key and an encoded party reference instead of identities, so the
// collection alone cannot be joined back to a voter.
type Vote struct {
	ID              string    `json:"id"`
	ElectionID      string    `json:"election_id"`
	VoterSecretKey  string    `json:"-"`
	EncodedPartyID  string    `json:"-"`
	TransactionHash string    `json:"transaction_hash"`
	CastAt          time.Time `json:"cast_at"`
}

// VoteRecord is the conductor-facing view of a vote: metadata only, never
// the decoded choice or the secret key.
type VoteRecord struct {
	CastAt          time.Time `json:"cast_at"`
	TransactionHash string    `json:"transaction_hash"`
}

// Notification is an append-only event entry for conductor review.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
