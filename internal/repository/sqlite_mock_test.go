package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atulzaware51/blockchain-evoting/internal/models"
)

func testVoteFixture() models.Vote {
	return models.Vote{
		ID:              "VOTE1",
		ElectionID:      "E1",
		VoterSecretKey:  "0xkey",
		EncodedPartyID:  "UDE=",
		TransactionHash: "0xhash",
		CastAt:          time.Now(),
	}
}

// TestListPendingVoters_ScanError tests row scanning error
func TestListPendingVoters_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	// Too few columns triggers a scan error
	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow("V1", "Asha")

	mock.ExpectQuery("SELECT (.+) FROM voters WHERE approved").WillReturnRows(rows)

	if _, err := repo.ListPendingVoters(ctx); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

// TestListElections_QueryError tests query error propagation
func TestListElections_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM elections").
		WillReturnError(errors.New("query error"))

	if _, err := repo.ListElections(ctx); err == nil {
		t.Error("expected error from query, got nil")
	}
}

// TestCastVote_BeginError tests transaction start failure
func TestCastVote_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	mock.ExpectBegin().WillReturnError(errors.New("begin error"))

	if err := repo.CastVote(ctx, "V1", testVoteFixture()); err == nil {
		t.Error("expected error from begin, got nil")
	}
}

// TestCastVote_InsertErrorRollsBack tests that a failed insert aborts the
// has_voted flip
func TestCastVote_InsertErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE voters SET has_voted").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO votes").
		WillReturnError(errors.New("insert error"))
	mock.ExpectRollback()

	if err := repo.CastVote(ctx, "V1", testVoteFixture()); err == nil {
		t.Error("expected error from insert, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestActivateElection_DemoteErrorRollsBack tests the demotion error path
func TestActivateElection_DemoteErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE elections SET status = 'completed'").
		WillReturnError(errors.New("update error"))
	mock.ExpectRollback()

	if err := repo.ActivateElection(ctx, "E1"); err == nil {
		t.Error("expected error from demotion, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestCountVotes_QueryError tests count error propagation
func TestCountVotes_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := &Repository{db: db}
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM votes").
		WillReturnError(errors.New("query error"))

	if _, err := repo.CountVotes(ctx); err == nil {
		t.Error("expected error from query, got nil")
	}
}
