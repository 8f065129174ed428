package services

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/atulzaware51/blockchain-evoting/internal/errors"
	"github.com/atulzaware51/blockchain-evoting/internal/logger"
	"github.com/atulzaware51/blockchain-evoting/internal/models"
	"github.com/atulzaware51/blockchain-evoting/internal/repository"
)

// IdentityServiceRepository defines the repository methods needed by IdentityService
type IdentityServiceRepository interface {
	repository.VoterRepository
	repository.PartyRepository
	repository.VoteRepository
}

// IdentityService handles voter and party registration and approval
type IdentityService struct {
	log         logger.Logger
	repo        IdentityServiceRepository
	notify      NotificationServicer
	broadcaster Broadcaster
	now         func() time.Time
	randReader  io.Reader // for testing: defaults to crypto/rand.Reader
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(log logger.Logger, repo IdentityServiceRepository, notify NotificationServicer) *IdentityService {
	return &IdentityService{
		log:        log,
		repo:       repo,
		notify:     notify,
		now:        time.Now,
		randReader: rand.Reader,
	}
}

// SetBroadcaster sets the broadcaster for pushing events to conductor clients
func (s *IdentityService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetNow sets the clock (for testing age calculation)
func (s *IdentityService) SetNow(now func() time.Time) {
	s.now = now
}

// SetRandReader sets a custom random reader (for testing)
func (s *IdentityService) SetRandReader(reader io.Reader) {
	s.randReader = reader
}

func (s *IdentityService) broadcast(msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(msgType, payload)
	}
}

// addNotification appends to the conductor log. A logging failure never
// aborts the operation that triggered it.
func (s *IdentityService) addNotification(ctx context.Context, message, kind string) {
	if err := s.notify.Add(ctx, message, kind); err != nil {
		s.log.Error("Failed to record notification", "message", message, "error", err)
	}
}

// RegisterVoter creates an unapproved voter with a fresh secret key.
// The voter must be 18 or older and the email and government voter ID must
// be unused.
func (s *IdentityService) RegisterVoter(ctx context.Context, in RegisterVoterInput) (*models.Voter, error) {
	if in.Name == "" || in.Email == "" || in.GovID == "" || in.DOB == "" {
		return nil, errors.InvalidInput("name, email, voter ID and date of birth are required")
	}

	age, err := CalculateAge(in.DOB, s.now())
	if err != nil {
		return nil, errors.InvalidInput("date of birth must be YYYY-MM-DD")
	}
	if age < 18 {
		return nil, ErrUnderage
	}

	taken, err := s.repo.VoterIdentityTaken(ctx, in.Email, in.GovID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errors.Conflict("email or voter ID is already registered")
	}

	secretKey, err := GenerateSecretKey(s.randReader)
	if err != nil {
		return nil, err
	}

	voter := models.Voter{
		ID:           GenerateID("V"),
		Name:         in.Name,
		Email:        in.Email,
		GovID:        in.GovID,
		DOB:          in.DOB,
		SecretKey:    secretKey,
		RegisteredAt: s.now(),
	}
	if err := s.repo.CreateVoter(ctx, voter); err != nil {
		return nil, err
	}

	s.log.Info("Voter registered", "voter_id", voter.ID, "email", voter.Email)
	s.addNotification(ctx, fmt.Sprintf("New voter registration: %s (%s)", voter.Name, voter.Email), models.KindInfo)
	s.broadcast("voter_registered", map[string]interface{}{"voter_id": voter.ID, "name": voter.Name})

	return &voter, nil
}

// RegisterParty creates an unapproved party. Name and contact email must be
// unused.
func (s *IdentityService) RegisterParty(ctx context.Context, in RegisterPartyInput) (*models.Party, error) {
	if in.Name == "" || in.Candidate == "" || in.Position == "" || in.Email == "" {
		return nil, errors.InvalidInput("party name, candidate, position and email are required")
	}

	taken, err := s.repo.PartyIdentityTaken(ctx, in.Name, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errors.Conflict("party name or email is already registered")
	}

	party := models.Party{
		ID:           GenerateID("P"),
		Name:         in.Name,
		Candidate:    in.Candidate,
		Position:     in.Position,
		Symbol:       in.Symbol,
		Email:        in.Email,
		RegisteredAt: s.now(),
	}
	if err := s.repo.CreateParty(ctx, party); err != nil {
		return nil, err
	}

	s.log.Info("Party registered", "party_id", party.ID, "name", party.Name)
	s.addNotification(ctx, fmt.Sprintf("New party registration: %s - %s for %s", party.Name, party.Candidate, party.Position), models.KindInfo)
	s.broadcast("party_registered", map[string]interface{}{"party_id": party.ID, "name": party.Name})

	return &party, nil
}

// ApproveVoter marks a voter approved. When an election is already active,
// eligibility is granted in the same step: approvals landing mid-election
// still get to vote.
func (s *IdentityService) ApproveVoter(ctx context.Context, id string) (*models.Voter, error) {
	if err := s.repo.ApproveVoter(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFoundf("voter %s not found", id)
		}
		return nil, err
	}

	voter, err := s.repo.GetVoter(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("Voter approved", "voter_id", id, "eligible", voter.EligibleToVote)
	s.addNotification(ctx, fmt.Sprintf("Voter approved: %s", voter.Name), models.KindSuccess)
	s.broadcast("voter_approved", map[string]interface{}{"voter_id": id})

	return voter, nil
}

// RejectVoter irrevocably removes a pending voter. Rejecting an approved or
// unknown voter is reported as not found.
func (s *IdentityService) RejectVoter(ctx context.Context, id string) error {
	if err := s.repo.DeletePendingVoter(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFoundf("pending voter %s not found", id)
		}
		return err
	}
	s.log.Info("Voter rejected", "voter_id", id)
	return nil
}

// ApproveParty marks a party approved
func (s *IdentityService) ApproveParty(ctx context.Context, id string) (*models.Party, error) {
	if err := s.repo.ApproveParty(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFoundf("party %s not found", id)
		}
		return nil, err
	}

	party, err := s.repo.GetParty(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("Party approved", "party_id", id)
	s.addNotification(ctx, fmt.Sprintf("Party approved: %s", party.Name), models.KindSuccess)
	s.broadcast("party_approved", map[string]interface{}{"party_id": id})

	return party, nil
}

// RejectParty irrevocably removes a pending party
func (s *IdentityService) RejectParty(ctx context.Context, id string) error {
	if err := s.repo.DeletePendingParty(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFoundf("pending party %s not found", id)
		}
		return err
	}
	s.log.Info("Party rejected", "party_id", id)
	return nil
}

// GetVoter retrieves a voter by id
func (s *IdentityService) GetVoter(ctx context.Context, id string) (*models.Voter, error) {
	voter, err := s.repo.GetVoter(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFoundf("voter %s not found", id)
	}
	return voter, err
}

// FindVoterByIdentifier resolves an email or government voter ID to a voter
func (s *IdentityService) FindVoterByIdentifier(ctx context.Context, identifier string) (*models.Voter, error) {
	voter, err := s.repo.FindVoterByIdentifier(ctx, identifier)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound("voter not found, please register first")
	}
	return voter, err
}

// ListPendingVoters returns voters awaiting conductor approval
func (s *IdentityService) ListPendingVoters(ctx context.Context) ([]models.Voter, error) {
	return s.repo.ListPendingVoters(ctx)
}

// ListPendingParties returns parties awaiting conductor approval
func (s *IdentityService) ListPendingParties(ctx context.Context) ([]models.Party, error) {
	return s.repo.ListPendingParties(ctx)
}

// Stats returns the conductor dashboard counters
func (s *IdentityService) Stats(ctx context.Context) (*DashboardStats, error) {
	approvedVoters, pendingVoters, err := s.repo.CountVoters(ctx)
	if err != nil {
		return nil, err
	}
	approvedParties, pendingParties, err := s.repo.CountParties(ctx)
	if err != nil {
		return nil, err
	}
	votes, err := s.repo.CountVotes(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		ApprovedVoters:  approvedVoters,
		PendingVoters:   pendingVoters,
		ApprovedParties: approvedParties,
		PendingParties:  pendingParties,
		TotalVotes:      votes,
	}, nil
}
