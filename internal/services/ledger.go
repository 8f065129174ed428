package services

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"io"
	"slices"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/atulzaware51/blockchain-evoting/internal/errors"
	"github.com/atulzaware51/blockchain-evoting/internal/logger"
	"github.com/atulzaware51/blockchain-evoting/internal/models"
	"github.com/atulzaware51/blockchain-evoting/internal/repository"
)

// LedgerServiceRepository defines the repository methods needed by LedgerService
type LedgerServiceRepository interface {
	repository.VoterRepository
	repository.ElectionRepository
	repository.VoteRepository
}

// LedgerService records anonymized votes and issues receipts
type LedgerService struct {
	log         logger.Logger
	repo        LedgerServiceRepository
	broadcaster Broadcaster
	randReader  io.Reader // for testing: defaults to crypto/rand.Reader
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(log logger.Logger, repo LedgerServiceRepository) *LedgerService {
	return &LedgerService{
		log:        log,
		repo:       repo,
		randReader: rand.Reader,
	}
}

// SetBroadcaster sets the broadcaster for pushing events to conductor clients
func (s *LedgerService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetRandReader sets a custom random reader (for testing)
func (s *LedgerService) SetRandReader(reader io.Reader) {
	s.randReader = reader
}

// CastVote records one vote for the active election. Preconditions, in
// order: an election is active, the party is on its ballot, the voter is
// approved and eligible, and the voter has not voted. The ledger entry is
// keyed by the voter's secret key, never the voter id; the voter's
// has_voted flip and the vote insert commit atomically.
func (s *LedgerService) CastVote(ctx context.Context, voterID, partyID string) (*Receipt, error) {
	active, err := s.repo.ActiveElection(ctx)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoActiveElection
	}
	if err != nil {
		return nil, err
	}

	if !slices.Contains(active.PartyIDs, partyID) {
		return nil, ErrPartyNotOnBallot
	}

	voter, err := s.repo.GetVoter(ctx, voterID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFoundf("voter %s not found", voterID)
	}
	if err != nil {
		return nil, err
	}
	if !voter.Approved || !voter.EligibleToVote {
		return nil, ErrNotEligible
	}
	if voter.HasVoted {
		return nil, ErrAlreadyVoted
	}

	castAt := time.Now()
	hash, err := TransactionHash(s.randReader, voter.SecretKey, active.ID, castAt)
	if err != nil {
		return nil, err
	}

	vote := models.Vote{
		ID:              GenerateID("VOTE"),
		ElectionID:      active.ID,
		VoterSecretKey:  voter.SecretKey,
		EncodedPartyID:  EncodePartyID(partyID),
		TransactionHash: hash,
		CastAt:          castAt,
	}

	// The repository re-checks has_voted with a compare-and-set; a
	// concurrent cast that slipped past the read above loses here.
	if err := s.repo.CastVote(ctx, voterID, vote); err != nil {
		if stderrors.Is(err, repository.ErrAlreadyVoted) {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	s.log.Info("Vote recorded", "election_id", active.ID, "tx_hash", hash)

	if s.broadcaster != nil {
		if count, err := s.repo.CountVotes(ctx); err == nil {
			s.broadcaster.Broadcast("vote_cast", map[string]interface{}{"total_votes": count})
		}
	}

	return &Receipt{TransactionHash: hash, ElectionID: active.ID, CastAt: castAt}, nil
}

// RecordsFor returns vote metadata for conductor review: timestamps and
// transaction hashes only
func (s *LedgerService) RecordsFor(ctx context.Context, electionID string) ([]models.VoteRecord, error) {
	if _, err := s.repo.GetElection(ctx, electionID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFoundf("election %s not found", electionID)
		}
		return nil, err
	}
	return s.repo.RecordsFor(ctx, electionID)
}

// CountVotes returns the total number of votes on the ledger
func (s *LedgerService) CountVotes(ctx context.Context) (int, error) {
	return s.repo.CountVotes(ctx)
}

// ReceiptQR renders a voter's transaction-hash receipt as a QR PNG
func (s *LedgerService) ReceiptQR(ctx context.Context, voterID string) ([]byte, error) {
	voter, err := s.repo.GetVoter(ctx, voterID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFoundf("voter %s not found", voterID)
	}
	if err != nil {
		return nil, err
	}
	if !voter.HasVoted || voter.VoteReceipt == nil {
		return nil, ErrNoReceipt
	}
	return qrcode.Encode(*voter.VoteReceipt, qrcode.Medium, 256)
}
