package handlers

import "time"

// VoterLoginRequest starts a voter login by email or government voter ID
type VoterLoginRequest struct {
	Identifier string `json:"identifier"`
}

// ConductorLoginRequest starts a conductor login with the credential pair
type ConductorLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest submits an OTP code for an outstanding challenge
type VerifyRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

// ResendRequest asks for a fresh OTP on an outstanding challenge
type ResendRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// ElectionCreateRequest represents a request to create an election
type ElectionCreateRequest struct {
	Name     string    `json:"name"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	PartyIDs []string  `json:"party_ids"`
}

// VoteRequest represents a vote submission for a party on the active ballot
type VoteRequest struct {
	PartyID string `json:"party_id"`
}
