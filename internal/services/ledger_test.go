package services_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/atulzaware51/blockchain-evoting/internal/logger"
	"github.com/atulzaware51/blockchain-evoting/internal/models"
	"github.com/atulzaware51/blockchain-evoting/internal/repository"
	"github.com/atulzaware51/blockchain-evoting/internal/services"
	"github.com/atulzaware51/blockchain-evoting/internal/testutil"
)

// setupLedgerService creates the full service stack over a shared repository
func setupLedgerService(t *testing.T) (*services.LedgerService, *services.ElectionService, *services.IdentityService, *repository.Repository) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	log := logger.New()
	notifySvc := services.NewNotificationService(log, repo)
	identitySvc := services.NewIdentityService(log, repo, notifySvc)
	electionSvc := services.NewElectionService(log, repo, notifySvc)
	ledgerSvc := services.NewLedgerService(log, repo)
	return ledgerSvc, electionSvc, identitySvc, repo
}

// activeBallot registers a party, creates an election over it and activates
// it, returning the election and party ids
func activeBallot(t *testing.T, electionSvc *services.ElectionService, identitySvc *services.IdentityService) (electionID, partyID string) {
	t.Helper()
	ctx := context.Background()

	partyID = approvedParty(t, identitySvc, "Ballot Party", "ballotparty@example.com")
	election, err := electionSvc.CreateElection(ctx, electionInput(partyID))
	if err != nil {
		t.Fatalf("CreateElection failed: %v", err)
	}
	if _, err := electionSvc.ActivateElection(ctx, election.ID); err != nil {
		t.Fatalf("ActivateElection failed: %v", err)
	}
	return election.ID, partyID
}

// eligibleVoter registers and approves a voter while an election is active,
// so eligibility is granted with the approval
func eligibleVoter(t *testing.T, identitySvc *services.IdentityService, email, govID string) string {
	t.Helper()
	ctx := context.Background()

	voter, err := identitySvc.RegisterVoter(ctx, voterInput(email, govID))
	if err != nil {
		t.Fatalf("RegisterVoter failed: %v", err)
	}
	if _, err := identitySvc.ApproveVoter(ctx, voter.ID); err != nil {
		t.Fatalf("ApproveVoter failed: %v", err)
	}
	return voter.ID
}

var receiptPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// TestCastVote_ReturnsReceipt tests the happy path: an eligible voter gets a
// 66-character transaction hash and is marked as having voted
func TestCastVote_ReturnsReceipt(t *testing.T) {
	ledgerSvc, electionSvc, identitySvc, _ := setupLedgerService(t)
	ctx := context.Background()

	electionID, partyID := activeBallot(t, electionSvc, identitySvc)
	voterID := eligibleVoter(t, identitySvc, "caster@example.com", "GOV-C001")

	receipt, err := ledgerSvc.CastVote(ctx, voterID, partyID)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	if receipt.ElectionID != electionID {
		t.Errorf("expected election %s on receipt, got %s", electionID, receipt.ElectionID)
	}
	if len(receipt.TransactionHash) != 66 {
		t.Errorf("expected 66-character hash, got %d", len(receipt.TransactionHash))
	}
	if !receiptPattern.MatchString(receipt.TransactionHash) {
		t.Errorf("hash %q does not match 0x + 64 hex chars", receipt.TransactionHash)
	}

	voter, err := identitySvc.GetVoter(ctx, voterID)
	if err != nil {
		t.Fatalf("GetVoter failed: %v", err)
	}
	if !voter.HasVoted {
		t.Error("expected voter to be marked as having voted")
	}
	if voter.VoteReceipt == nil || *voter.VoteReceipt != receipt.TransactionHash {
		t.Error("expected the receipt to be stored on the voter")
	}
}

// TestCastVote_SecondVoteRejected tests the vote-once rule
func TestCastVote_SecondVoteRejected(t *testing.T) {
	ledgerSvc, electionSvc, identitySvc, _ := setupLedgerService(t)
	ctx := context.Background()

	_, partyID := activeBallot(t, electionSvc, identitySvc)
	voterID := eligibleVoter(t, identitySvc, "once@example.com", "GOV-C002")

	if _, err := ledgerSvc.CastVote(ctx, voterID, partyID); err != nil {
		t.Fatalf("first CastVote failed: %v", err)
	}

	_, err := ledgerSvc.CastVote(ctx, voterID, partyID)
	if !errors.Is(err, services.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	count, err := ledgerSvc.CountVotes(ctx)
	if err != nil {
		t.Fatalf("CountVotes failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 vote on the ledger, got %d", count)
	}
}

// TestCastVote_ConcurrentCastsRecordOne tests that racing casts from the same
// voter produce exactly one ledger entry
func TestCastVote_ConcurrentCastsRecordOne(t *testing.T) {
	ledgerSvc, electionSvc, identitySvc, _ := setupLedgerService(t)
	ctx := context.Background()

	_, partyID := activeBallot(t, electionSvc, identitySvc)
	voterID := eligibleVoter(t, identitySvc, "race@example.com", "GOV-C003")

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledgerSvc.CastVote(ctx, voterID, partyID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, services.ErrAlreadyVoted) {
			t.Errorf("unexpected error from concurrent cast: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly 1 successful cast, got %d", succeeded)
	}

	count, _ := ledgerSvc.CountVotes(ctx)
	if count != 1 {
		t.Errorf("expected 1 vote on the ledger, got %d", count)
	}
}

// TestCastVote_NoActiveElection tests the no-election failure mode
func TestCastVote_NoActiveElection(t *testing.T) {
	ledgerSvc, _, identitySvc, _ := setupLedgerService(t)
	ctx := context.Background()

	voter, err := identitySvc.RegisterVoter(ctx, voterInput("idle@example.com", "GOV-C004"))
	if err != nil {
		t.Fatalf("RegisterVoter failed: %v", err)
	}

	_, err = ledgerSvc.CastVote(ctx, voter.ID, "P1")
	if !errors.Is(err, services.ErrNoActiveElection) {
		t.Fatalf("expected ErrNoActiveElection, got %v", err)
	}
}

// TestCastVote_PartyNotOnBallot tests the ballot membership check
func TestCastVote_PartyNotOnBallot(t *testing.T) {
	ledgerSvc, electionSvc, identitySvc, _ := setupLedgerService(t)
	ctx := context.Background()

	activeBallot(t, electionSvc, identitySvc)
	voterID := eligibleVoter(t, identitySvc, "offballot@example.com", "GOV-C005")

	// Approved but not on the active ballot
	otherParty := approvedParty(t, identitySvc, "Sideline Party", "sideline@example.com")

	_, err := ledgerSvc.CastVote(ctx, voterID, otherParty)
	if !errors.Is(err, services.ErrPartyNotOnBallot) {
		t.Fatalf("expected ErrPartyNotOnBallot, got %v", err)
	}
}

// TestCastVote_UnapprovedVoterRejected tests the eligibility gate
func TestCastVote_UnapprovedVoterRejected(t *testing.T) {
	ledgerSvc, electionSvc, identitySvc, _ := setupLedgerService(t)
	ctx := context.Background()

	_, partyID := activeBallot(t, electionSvc, identitySvc)

	voter, err := identitySvc.RegisterVoter(ctx, voterInput("unapproved@example.com", "GOV-C006"))
	if err != nil {
		t.Fatalf("RegisterVoter failed: %v", err)
	}

	_, err = ledgerSvc.CastVote(ctx, voter.ID, partyID)
	if !errors.Is(err, services.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
}

// TestCastVote_LedgerHoldsNoIdentity tests that stored votes reference the
// secret key, not the voter, and encode the party choice
func TestCastVote_LedgerHoldsNoIdentity(t *testing.T) {
	ledgerSvc, electionSvc, identitySvc, repo := setupLedgerService(t)
	ctx := context.Background()

	electionID, partyID := activeBallot(t, electionSvc, identitySvc)
	voterID := eligibleVoter(t, identitySvc, "anon@example.com", "GOV-C007")

	if _, err := ledgerSvc.CastVote(ctx, voterID, partyID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	records, err := ledgerSvc.RecordsFor(ctx, electionID)
	if err != nil {
		t.Fatalf("RecordsFor failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	// Conductor-facing records carry metadata only
	if !receiptPattern.MatchString(records[0].TransactionHash) {
		t.Errorf("record hash %q does not match receipt format", records[0].TransactionHash)
	}
	if records[0].CastAt.IsZero() {
		t.Error("expected a cast timestamp on the record")
	}

	// The encoded choice round-trips for tallying
	if decoded, err := services.DecodePartyID(services.EncodePartyID(partyID)); err != nil || decoded != partyID {
		t.Errorf("party encoding round-trip failed: %q %v", decoded, err)
	}

	_ = repo
}

// TestRecordsFor_UnknownElection tests the existence check on record queries
func TestRecordsFor_UnknownElection(t *testing.T) {
	ledgerSvc, _, _, _ := setupLedgerService(t)

	_, err := ledgerSvc.RecordsFor(context.Background(), "E0000000000000000")
	if err == nil {
		t.Fatal("expected error for unknown election")
	}
}

// TestReceiptQR_RequiresVote tests that the QR endpoint fails before voting
// and produces a PNG after
func TestReceiptQR_RequiresVote(t *testing.T) {
	ledgerSvc, electionSvc, identitySvc, _ := setupLedgerService(t)
	ctx := context.Background()

	_, partyID := activeBallot(t, electionSvc, identitySvc)
	voterID := eligibleVoter(t, identitySvc, "qr@example.com", "GOV-C008")

	if _, err := ledgerSvc.ReceiptQR(ctx, voterID); !errors.Is(err, services.ErrNoReceipt) {
		t.Fatalf("expected ErrNoReceipt before voting, got %v", err)
	}

	if _, err := ledgerSvc.CastVote(ctx, voterID, partyID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	png, err := ledgerSvc.ReceiptQR(ctx, voterID)
	if err != nil {
		t.Fatalf("ReceiptQR failed: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("expected PNG bytes")
	}
	// PNG signature
	if string(png[1:4]) != "PNG" {
		t.Error("expected PNG image data")
	}
}

// TestCastVote_BroadcastsCount tests the conductor feed update on a cast
func TestCastVote_BroadcastsCount(t *testing.T) {
	ledgerSvc, electionSvc, identitySvc, _ := setupLedgerService(t)
	ctx := context.Background()

	_, partyID := activeBallot(t, electionSvc, identitySvc)
	voterID := eligibleVoter(t, identitySvc, "feed@example.com", "GOV-C009")

	mock := &mockBroadcaster{}
	ledgerSvc.SetBroadcaster(mock)

	if _, err := ledgerSvc.CastVote(ctx, voterID, partyID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	msg := mock.last()
	if msg.Type != "vote_cast" {
		t.Fatalf("expected vote_cast broadcast, got %q", msg.Type)
	}
}

// mockBroadcaster records broadcast messages for assertions
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []models.WSMessage
}

func (m *mockBroadcaster) Broadcast(msgType string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, models.WSMessage{Type: msgType, Payload: payload})
}

func (m *mockBroadcaster) last() models.WSMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return models.WSMessage{}
	}
	return m.messages[len(m.messages)-1]
}
