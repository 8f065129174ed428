package services

import (
	"context"
	"time"

	"github.com/atulzaware51/blockchain-evoting/internal/models"
)

// Broadcaster pushes event messages to connected conductor clients
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// IdentityServicer defines the interface for voter and party identity operations
type IdentityServicer interface {
	RegisterVoter(ctx context.Context, in RegisterVoterInput) (*models.Voter, error)
	RegisterParty(ctx context.Context, in RegisterPartyInput) (*models.Party, error)
	ApproveVoter(ctx context.Context, id string) (*models.Voter, error)
	RejectVoter(ctx context.Context, id string) error
	ApproveParty(ctx context.Context, id string) (*models.Party, error)
	RejectParty(ctx context.Context, id string) error
	GetVoter(ctx context.Context, id string) (*models.Voter, error)
	FindVoterByIdentifier(ctx context.Context, identifier string) (*models.Voter, error)
	ListPendingVoters(ctx context.Context) ([]models.Voter, error)
	ListPendingParties(ctx context.Context) ([]models.Party, error)
	Stats(ctx context.Context) (*DashboardStats, error)
}

// ElectionServicer defines the interface for election lifecycle operations
type ElectionServicer interface {
	CreateElection(ctx context.Context, in CreateElectionInput) (*models.Election, error)
	ActivateElection(ctx context.Context, id string) (*models.Election, error)
	ActiveElection(ctx context.Context) (*models.Election, error)
	GetElection(ctx context.Context, id string) (*models.Election, error)
	ListElections(ctx context.Context) ([]models.Election, error)
	Ballot(ctx context.Context) (*BallotData, error)
}

// LedgerServicer defines the interface for the vote ledger
type LedgerServicer interface {
	CastVote(ctx context.Context, voterID, partyID string) (*Receipt, error)
	RecordsFor(ctx context.Context, electionID string) ([]models.VoteRecord, error)
	CountVotes(ctx context.Context) (int, error)
	ReceiptQR(ctx context.Context, voterID string) ([]byte, error)
}

// NotificationServicer defines the interface for the conductor notification log
type NotificationServicer interface {
	Add(ctx context.Context, message, kind string) error
	List(ctx context.Context, unreadOnly bool) ([]models.Notification, error)
	MarkAllRead(ctx context.Context) error
	UnreadCount(ctx context.Context) (int, error)
}

// RegisterVoterInput carries the fields a voter submits on registration
type RegisterVoterInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	GovID string `json:"gov_id"`
	DOB   string `json:"dob"`
}

// RegisterPartyInput carries the fields a party submits on registration
type RegisterPartyInput struct {
	Name      string `json:"name"`
	Candidate string `json:"candidate"`
	Position  string `json:"position"`
	Symbol    string `json:"symbol"`
	Email     string `json:"email"`
}

// CreateElectionInput carries the fields for a new election
type CreateElectionInput struct {
	Name     string    `json:"name"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	PartyIDs []string  `json:"party_ids"`
}

// DashboardStats summarizes the store for the conductor dashboard
type DashboardStats struct {
	ApprovedVoters  int `json:"approved_voters"`
	PendingVoters   int `json:"pending_voters"`
	ApprovedParties int `json:"approved_parties"`
	PendingParties  int `json:"pending_parties"`
	TotalVotes      int `json:"total_votes"`
}

// BallotData is the active election together with its candidate parties,
// in ballot order
type BallotData struct {
	Election *models.Election `json:"election"`
	Parties  []models.Party   `json:"parties"`
}

// Receipt is the proof returned to a voter after a successful cast
type Receipt struct {
	TransactionHash string    `json:"transaction_hash"`
	ElectionID      string    `json:"election_id"`
	CastAt          time.Time `json:"cast_at"`
}

// Ensure concrete types implement interfaces
var (
	_ IdentityServicer     = (*IdentityService)(nil)
	_ ElectionServicer     = (*ElectionService)(nil)
	_ LedgerServicer       = (*LedgerService)(nil)
	_ NotificationServicer = (*NotificationService)(nil)
)
