package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/atulzaware51/blockchain-evoting/internal/errors"
	"github.com/atulzaware51/blockchain-evoting/internal/logger"
	"github.com/atulzaware51/blockchain-evoting/internal/models"
	"github.com/atulzaware51/blockchain-evoting/internal/repository"
)

// ElectionServiceRepository defines the repository methods needed by ElectionService
type ElectionServiceRepository interface {
	repository.ElectionRepository
	repository.PartyRepository
}

// ElectionService owns the election lifecycle state machine:
// pending -> active -> completed, one-directional, at most one active.
type ElectionService struct {
	log         logger.Logger
	repo        ElectionServiceRepository
	notify      NotificationServicer
	broadcaster Broadcaster
	now         func() time.Time
}

// NewElectionService creates a new ElectionService
func NewElectionService(log logger.Logger, repo ElectionServiceRepository, notify NotificationServicer) *ElectionService {
	return &ElectionService{
		log:    log,
		repo:   repo,
		notify: notify,
		now:    time.Now,
	}
}

// SetBroadcaster sets the broadcaster for pushing events to conductor clients
func (s *ElectionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetNow sets the clock (for testing)
func (s *ElectionService) SetNow(now func() time.Time) {
	s.now = now
}

func (s *ElectionService) broadcast(msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(msgType, payload)
	}
}

// CreateElection creates a pending election over already-approved parties
func (s *ElectionService) CreateElection(ctx context.Context, in CreateElectionInput) (*models.Election, error) {
	if in.Name == "" {
		return nil, errors.InvalidInput("election name is required")
	}
	if len(in.PartyIDs) == 0 {
		return nil, ErrEmptyPartySet
	}
	if !in.StartAt.Before(in.EndAt) {
		return nil, ErrInvalidDateRange
	}

	seen := make(map[string]bool, len(in.PartyIDs))
	for _, partyID := range in.PartyIDs {
		if seen[partyID] {
			return nil, ErrDuplicateParty
		}
		seen[partyID] = true

		party, err := s.repo.GetParty(ctx, partyID)
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFoundf("party %s not found", partyID)
		}
		if err != nil {
			return nil, err
		}
		if !party.Approved {
			return nil, ErrUnapprovedParty
		}
	}

	election := models.Election{
		ID:        GenerateID("E"),
		Name:      in.Name,
		StartAt:   in.StartAt,
		EndAt:     in.EndAt,
		PartyIDs:  in.PartyIDs,
		Status:    models.ElectionPending,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateElection(ctx, election); err != nil {
		return nil, err
	}

	s.log.Info("Election created", "election_id", election.ID, "name", election.Name, "parties", len(election.PartyIDs))
	return &election, nil
}

// ActivateElection promotes a pending election to active. The repository
// applies the demotion of the previous active election, the promotion, and
// the eligibility broadcast as one transaction.
func (s *ElectionService) ActivateElection(ctx context.Context, id string) (*models.Election, error) {
	if err := s.repo.ActivateElection(ctx, id); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrNotFound):
			return nil, errors.NotFoundf("election %s not found", id)
		case stderrors.Is(err, repository.ErrElectionTerminal):
			return nil, ErrAlreadyTerminal
		default:
			return nil, err
		}
	}

	election, err := s.repo.GetElection(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("Election activated", "election_id", id, "name", election.Name)
	if s.notify != nil {
		if err := s.notify.Add(ctx, fmt.Sprintf("Election activated: %s", election.Name), models.KindSuccess); err != nil {
			s.log.Error("Failed to record notification", "error", err)
		}
	}
	s.broadcast("election_status", map[string]interface{}{
		"election_id": election.ID,
		"name":        election.Name,
		"status":      election.Status,
	})

	return election, nil
}

// ActiveElection returns the currently active election, or nil when none
func (s *ElectionService) ActiveElection(ctx context.Context) (*models.Election, error) {
	election, err := s.repo.ActiveElection(ctx)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return election, err
}

// GetElection retrieves an election by id
func (s *ElectionService) GetElection(ctx context.Context, id string) (*models.Election, error) {
	election, err := s.repo.GetElection(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFoundf("election %s not found", id)
	}
	return election, err
}

// ListElections returns all elections for the conductor view
func (s *ElectionService) ListElections(ctx context.Context) ([]models.Election, error) {
	return s.repo.ListElections(ctx)
}

// Ballot returns the active election and its parties in ballot order.
// Fails with ErrNoActiveElection when no election is active.
func (s *ElectionService) Ballot(ctx context.Context) (*BallotData, error) {
	election, err := s.ActiveElection(ctx)
	if err != nil {
		return nil, err
	}
	if election == nil {
		return nil, ErrNoActiveElection
	}

	parties := make([]models.Party, 0, len(election.PartyIDs))
	for _, partyID := range election.PartyIDs {
		party, err := s.repo.GetParty(ctx, partyID)
		if err != nil {
			return nil, err
		}
		parties = append(parties, *party)
	}

	return &BallotData{Election: election, Parties: parties}, nil
}
