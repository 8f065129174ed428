package repository

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/atulzaware51/blockchain-evoting/internal/errors"
	"github.com/atulzaware51/blockchain-evoting/internal/models"
)

// newTestRepo creates a new in-memory repository for testing.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testVoter(id, email, govID string) models.Voter {
	return models.Voter{
		ID:           id,
		Name:         "Test Voter",
		Email:        email,
		GovID:        govID,
		DOB:          "1990-06-15",
		SecretKey:    "0x" + id + "secret",
		RegisteredAt: time.Now(),
	}
}

func testParty(id, name, email string) models.Party {
	return models.Party{
		ID:           id,
		Name:         name,
		Candidate:    "Candidate",
		Position:     "President",
		Symbol:       "star",
		Email:        email,
		RegisteredAt: time.Now(),
	}
}

func testElection(id string, partyIDs ...string) models.Election {
	return models.Election{
		ID:        id,
		Name:      "Test Election",
		StartAt:   time.Now(),
		EndAt:     time.Now().Add(24 * time.Hour),
		PartyIDs:  partyIDs,
		Status:    models.ElectionPending,
		CreatedAt: time.Now(),
	}
}

// ==================== Voter Tests ====================

func TestCreateVoter_DuplicateEmailConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateVoter(ctx, testVoter("V1", "a@example.com", "GOV-1")); err != nil {
		t.Fatalf("CreateVoter failed: %v", err)
	}

	err := repo.CreateVoter(ctx, testVoter("V2", "a@example.com", "GOV-2"))
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) || appErr.Kind != errors.ErrConflict {
		t.Fatalf("expected conflict error from unique constraint, got %v", err)
	}
}

func TestGetVoter_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetVoter(context.Background(), "V404")
	if !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindVoterByIdentifier_MatchesEitherColumn(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.CreateVoter(ctx, testVoter("V1", "find@example.com", "GOV-F1"))

	if v, err := repo.FindVoterByIdentifier(ctx, "find@example.com"); err != nil || v.ID != "V1" {
		t.Errorf("lookup by email: got %v, %v", v, err)
	}
	if v, err := repo.FindVoterByIdentifier(ctx, "GOV-F1"); err != nil || v.ID != "V1" {
		t.Errorf("lookup by gov id: got %v, %v", v, err)
	}
	if _, err := repo.FindVoterByIdentifier(ctx, "missing"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown identifier, got %v", err)
	}
}

func TestApproveVoter_NoElectionNoEligibility(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.CreateVoter(ctx, testVoter("V1", "appr@example.com", "GOV-A1"))

	if err := repo.ApproveVoter(ctx, "V1"); err != nil {
		t.Fatalf("ApproveVoter failed: %v", err)
	}

	v, _ := repo.GetVoter(ctx, "V1")
	if !v.Approved || v.EligibleToVote {
		t.Errorf("expected approved but ineligible, got %+v", v)
	}
}

func TestApproveVoter_ActiveElectionGrantsEligibility(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	setupBallot(t, repo)

	repo.CreateElection(ctx, testElection("E1", "P1"))
	if err := repo.ActivateElection(ctx, "E1"); err != nil {
		t.Fatalf("ActivateElection failed: %v", err)
	}

	repo.CreateVoter(ctx, testVoter("V1", "mid@example.com", "GOV-A2"))
	if err := repo.ApproveVoter(ctx, "V1"); err != nil {
		t.Fatalf("ApproveVoter failed: %v", err)
	}

	v, _ := repo.GetVoter(ctx, "V1")
	if !v.Approved || !v.EligibleToVote {
		t.Errorf("expected approval during an active election to grant eligibility, got %+v", v)
	}
}

func TestApproveVoter_Unknown(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.ApproveVoter(context.Background(), "V404"); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePendingVoter_SkipsApproved(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.CreateVoter(ctx, testVoter("V1", "del@example.com", "GOV-D1"))
	repo.ApproveVoter(ctx, "V1")

	if err := repo.DeletePendingVoter(ctx, "V1"); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for approved voter, got %v", err)
	}

	// Still present
	if _, err := repo.GetVoter(ctx, "V1"); err != nil {
		t.Errorf("expected approved voter to survive, got %v", err)
	}
}

// ==================== Election Tests ====================

func setupBallot(t *testing.T, repo *Repository) {
	t.Helper()
	ctx := context.Background()
	if err := repo.CreateParty(ctx, testParty("P1", "Party One", "p1@example.com")); err != nil {
		t.Fatalf("CreateParty failed: %v", err)
	}
	if err := repo.ApproveParty(ctx, "P1"); err != nil {
		t.Fatalf("ApproveParty failed: %v", err)
	}
}

func TestActivateElection_Transitions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	setupBallot(t, repo)

	repo.CreateElection(ctx, testElection("E1", "P1"))
	repo.CreateElection(ctx, testElection("E2", "P1"))

	if err := repo.ActivateElection(ctx, "E1"); err != nil {
		t.Fatalf("ActivateElection failed: %v", err)
	}

	active, err := repo.ActiveElection(ctx)
	if err != nil || active.ID != "E1" {
		t.Fatalf("expected E1 active, got %v, %v", active, err)
	}

	// Activating E2 demotes E1 in the same transaction
	if err := repo.ActivateElection(ctx, "E2"); err != nil {
		t.Fatalf("second ActivateElection failed: %v", err)
	}

	e1, _ := repo.GetElection(ctx, "E1")
	if e1.Status != models.ElectionCompleted {
		t.Errorf("expected E1 completed, got %q", e1.Status)
	}
	active, _ = repo.ActiveElection(ctx)
	if active.ID != "E2" {
		t.Errorf("expected E2 active, got %s", active.ID)
	}
}

func TestActivateElection_ErrorClassification(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	setupBallot(t, repo)

	repo.CreateElection(ctx, testElection("E1", "P1"))
	repo.ActivateElection(ctx, "E1")

	// Already active: terminal, not missing
	if err := repo.ActivateElection(ctx, "E1"); !stderrors.Is(err, ErrElectionTerminal) {
		t.Errorf("expected ErrElectionTerminal for active election, got %v", err)
	}

	if err := repo.ActivateElection(ctx, "E404"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown election, got %v", err)
	}
}

func TestActivateElection_GrantsEligibility(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	setupBallot(t, repo)

	repo.CreateVoter(ctx, testVoter("V1", "ok@example.com", "GOV-1"))
	repo.ApproveVoter(ctx, "V1")
	repo.CreateVoter(ctx, testVoter("V2", "no@example.com", "GOV-2"))

	repo.CreateElection(ctx, testElection("E1", "P1"))
	if err := repo.ActivateElection(ctx, "E1"); err != nil {
		t.Fatalf("ActivateElection failed: %v", err)
	}

	v1, _ := repo.GetVoter(ctx, "V1")
	if !v1.EligibleToVote {
		t.Error("expected approved voter to gain eligibility")
	}
	v2, _ := repo.GetVoter(ctx, "V2")
	if v2.EligibleToVote {
		t.Error("expected unapproved voter to stay ineligible")
	}
}

func TestGetElection_PreservesPartyOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, id := range []string{"P1", "P2", "P3"} {
		repo.CreateParty(ctx, testParty(id, "Party "+id, id+"@example.com"))
		_ = i
	}

	repo.CreateElection(ctx, testElection("E1", "P2", "P3", "P1"))

	e, err := repo.GetElection(ctx, "E1")
	if err != nil {
		t.Fatalf("GetElection failed: %v", err)
	}
	want := []string{"P2", "P3", "P1"}
	for i := range want {
		if e.PartyIDs[i] != want[i] {
			t.Fatalf("party order not preserved: got %v", e.PartyIDs)
		}
	}
}

// ==================== Vote Tests ====================

func TestCastVote_CompareAndSet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	setupBallot(t, repo)

	repo.CreateVoter(ctx, testVoter("V1", "cas@example.com", "GOV-C1"))
	repo.ApproveVoter(ctx, "V1")
	repo.CreateElection(ctx, testElection("E1", "P1"))
	repo.ActivateElection(ctx, "E1")

	vote := models.Vote{
		ID:              "VOTE1",
		ElectionID:      "E1",
		VoterSecretKey:  "0xV1secret",
		EncodedPartyID:  "UDE=",
		TransactionHash: "0xaaa",
		CastAt:          time.Now(),
	}
	if err := repo.CastVote(ctx, "V1", vote); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	v, _ := repo.GetVoter(ctx, "V1")
	if !v.HasVoted || v.VoteReceipt == nil || *v.VoteReceipt != "0xaaa" {
		t.Errorf("expected has_voted and receipt set, got %+v", v)
	}

	// Second cast loses the compare-and-set
	vote.ID = "VOTE2"
	vote.TransactionHash = "0xbbb"
	if err := repo.CastVote(ctx, "V1", vote); !stderrors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	count, _ := repo.CountVotes(ctx)
	if count != 1 {
		t.Errorf("expected 1 vote, got %d", count)
	}
}

func TestCastVote_UnknownVoter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	setupBallot(t, repo)
	repo.CreateElection(ctx, testElection("E1", "P1"))

	vote := models.Vote{ID: "VOTE1", ElectionID: "E1", VoterSecretKey: "0x0", EncodedPartyID: "UDE=", TransactionHash: "0xccc", CastAt: time.Now()}
	if err := repo.CastVote(ctx, "V404", vote); !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordsFor_MetadataOnly(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	setupBallot(t, repo)

	repo.CreateVoter(ctx, testVoter("V1", "meta@example.com", "GOV-M1"))
	repo.ApproveVoter(ctx, "V1")
	repo.CreateElection(ctx, testElection("E1", "P1"))
	repo.ActivateElection(ctx, "E1")

	vote := models.Vote{ID: "VOTE1", ElectionID: "E1", VoterSecretKey: "0xV1secret", EncodedPartyID: "UDE=", TransactionHash: "0xddd", CastAt: time.Now()}
	repo.CastVote(ctx, "V1", vote)

	records, err := repo.RecordsFor(ctx, "E1")
	if err != nil {
		t.Fatalf("RecordsFor failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].TransactionHash != "0xddd" {
		t.Errorf("expected hash on record, got %q", records[0].TransactionHash)
	}
}

// ==================== Notification Tests ====================

func TestNotifications_UnreadLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.AddNotification(ctx, models.Notification{ID: "N1", Message: "one", Kind: models.KindInfo, CreatedAt: time.Now()})
	repo.AddNotification(ctx, models.Notification{ID: "N2", Message: "two", Kind: models.KindSuccess, CreatedAt: time.Now()})

	count, err := repo.CountUnreadNotifications(ctx)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 unread, got %d, %v", count, err)
	}

	if err := repo.MarkNotificationsRead(ctx); err != nil {
		t.Fatalf("MarkNotificationsRead failed: %v", err)
	}

	count, _ = repo.CountUnreadNotifications(ctx)
	if count != 0 {
		t.Errorf("expected 0 unread, got %d", count)
	}

	all, _ := repo.ListNotifications(ctx, false)
	if len(all) != 2 {
		t.Errorf("expected 2 notifications retained, got %d", len(all))
	}
}

// ==================== Setup Tests ====================

func TestNew_MigrationError(t *testing.T) {
	// Invalid path fails during PRAGMA or migration
	if _, err := New("/proc/invalid/path/test.db"); err == nil {
		t.Error("expected error when migration fails, got nil")
	}
}
