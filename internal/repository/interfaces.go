package repository

import (
	"context"

	"github.com/atulzaware51/blockchain-evoting/internal/models"
)

// VoterRepository defines voter data operations
type VoterRepository interface {
	CreateVoter(ctx context.Context, voter models.Voter) error
	GetVoter(ctx context.Context, id string) (*models.Voter, error)
	FindVoterByIdentifier(ctx context.Context, identifier string) (*models.Voter, error)
	VoterIdentityTaken(ctx context.Context, email, govID string) (bool, error)
	ListPendingVoters(ctx context.Context) ([]models.Voter, error)
	ApproveVoter(ctx context.Context, id string) error
	DeletePendingVoter(ctx context.Context, id string) error
	CountVoters(ctx context.Context) (approved, pending int, err error)
}

// PartyRepository defines party data operations
type PartyRepository interface {
	CreateParty(ctx context.Context, party models.Party) error
	GetParty(ctx context.Context, id string) (*models.Party, error)
	PartyIdentityTaken(ctx context.Context, name, email string) (bool, error)
	ListPendingParties(ctx context.Context) ([]models.Party, error)
	ListApprovedParties(ctx context.Context) ([]models.Party, error)
	ApproveParty(ctx context.Context, id string) error
	DeletePendingParty(ctx context.Context, id string) error
	CountParties(ctx context.Context) (approved, pending int, err error)
}

// ElectionRepository defines election data operations.
// ActivateElection applies its three-part side effect (demote the previously
// active election, activate the target, broadcast eligibility to approved
// voters) in a single transaction.
type ElectionRepository interface {
	CreateElection(ctx context.Context, election models.Election) error
	GetElection(ctx context.Context, id string) (*models.Election, error)
	ActiveElection(ctx context.Context) (*models.Election, error)
	ListElections(ctx context.Context) ([]models.Election, error)
	ActivateElection(ctx context.Context, id string) error
}

// VoteRepository defines vote ledger operations.
// CastVote inserts the vote and flips the voter's has_voted flag in one
// transaction, guarded by a compare-and-set on the flag.
type VoteRepository interface {
	CastVote(ctx context.Context, voterID string, vote models.Vote) error
	RecordsFor(ctx context.Context, electionID string) ([]models.VoteRecord, error)
	CountVotes(ctx context.Context) (int, error)
}

// NotificationRepository defines the append-only notification log
type NotificationRepository interface {
	AddNotification(ctx context.Context, n models.Notification) error
	ListNotifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context) error
	CountUnreadNotifications(ctx context.Context) (int, error)
}

// FullRepository combines all repository interfaces.
// Use this when a service needs access to multiple domains.
type FullRepository interface {
	VoterRepository
	PartyRepository
	ElectionRepository
	VoteRepository
	NotificationRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
