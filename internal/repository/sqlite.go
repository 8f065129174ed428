package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/mattn/go-sqlite3"

	"github.com/atulzaware51/blockchain-evoting/internal/errors"
	"github.com/atulzaware51/blockchain-evoting/internal/models"
)

// Repository provides data access methods backed by SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection; it also serializes
	// writers, which the CAS queries below rely on.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS voters (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			gov_id TEXT UNIQUE NOT NULL,
			dob TEXT NOT NULL,
			secret_key TEXT UNIQUE NOT NULL,
			approved BOOLEAN NOT NULL DEFAULT 0,
			eligible_to_vote BOOLEAN NOT NULL DEFAULT 0,
			has_voted BOOLEAN NOT NULL DEFAULT 0,
			vote_receipt TEXT,
			registered_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS parties (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			candidate TEXT NOT NULL,
			position TEXT NOT NULL,
			symbol TEXT,
			email TEXT UNIQUE NOT NULL,
			approved BOOLEAN NOT NULL DEFAULT 0,
			registered_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS elections (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			start_at DATETIME NOT NULL,
			end_at DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS election_parties (
			election_id TEXT NOT NULL,
			party_id TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			PRIMARY KEY (election_id, party_id),
			FOREIGN KEY (election_id) REFERENCES elections(id) ON DELETE CASCADE,
			FOREIGN KEY (party_id) REFERENCES parties(id)
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id TEXT PRIMARY KEY,
			election_id TEXT NOT NULL,
			voter_secret_key TEXT NOT NULL,
			encoded_party_id TEXT NOT NULL,
			transaction_hash TEXT UNIQUE NOT NULL,
			cast_at DATETIME NOT NULL,
			FOREIGN KEY (election_id) REFERENCES elections(id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			message TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'info',
			created_at DATETIME NOT NULL,
			read BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_voters_email ON voters(email)`,
		`CREATE INDEX IF NOT EXISTS idx_voters_gov_id ON voters(gov_id)`,
		`CREATE INDEX IF NOT EXISTS idx_elections_status ON elections(status)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_election ON votes(election_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// ==================== Voter Methods ====================

// CreateVoter inserts a new voter record
func (r *Repository) CreateVoter(ctx context.Context, voter models.Voter) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO voters (id, name, email, gov_id, dob, secret_key, approved, eligible_to_vote, has_voted, registered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		voter.ID, voter.Name, voter.Email, voter.GovID, voter.DOB, voter.SecretKey,
		voter.Approved, voter.EligibleToVote, voter.HasVoted, voter.RegisteredAt)
	if isUniqueViolation(err) {
		return errors.Conflict("email or voter ID is already registered")
	}
	return err
}

// GetVoter retrieves a voter by id
func (r *Repository) GetVoter(ctx context.Context, id string) (*models.Voter, error) {
	return r.scanVoter(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, gov_id, dob, secret_key, approved, eligible_to_vote, has_voted, vote_receipt, registered_at
		 FROM voters WHERE id = ?`, id))
}

// FindVoterByIdentifier looks a voter up by email or government voter ID
func (r *Repository) FindVoterByIdentifier(ctx context.Context, identifier string) (*models.Voter, error) {
	return r.scanVoter(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, gov_id, dob, secret_key, approved, eligible_to_vote, has_voted, vote_receipt, registered_at
		 FROM voters WHERE email = ? OR gov_id = ?`, identifier, identifier))
}

func (r *Repository) scanVoter(row *sql.Row) (*models.Voter, error) {
	var v models.Voter
	var receipt sql.NullString
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.GovID, &v.DOB, &v.SecretKey,
		&v.Approved, &v.EligibleToVote, &v.HasVoted, &receipt, &v.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if receipt.Valid {
		v.VoteReceipt = &receipt.String
	}
	return &v, nil
}

// VoterIdentityTaken reports whether any voter already uses the email or
// government voter ID
func (r *Repository) VoterIdentityTaken(ctx context.Context, email, govID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voters WHERE email = ? OR gov_id = ?`, email, govID).Scan(&count)
	return count > 0, err
}

// ListPendingVoters returns voters awaiting approval, oldest first
func (r *Repository) ListPendingVoters(ctx context.Context) ([]models.Voter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, gov_id, dob, secret_key, approved, eligible_to_vote, has_voted, vote_receipt, registered_at
		 FROM voters WHERE approved = 0 ORDER BY registered_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var voters []models.Voter
	for rows.Next() {
		var v models.Voter
		var receipt sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.GovID, &v.DOB, &v.SecretKey,
			&v.Approved, &v.EligibleToVote, &v.HasVoted, &receipt, &v.RegisteredAt); err != nil {
			return nil, err
		}
		if receipt.Valid {
			v.VoteReceipt = &receipt.String
		}
		voters = append(voters, v)
	}
	return voters, rows.Err()
}

// ApproveVoter marks a voter approved. The eligibility decision consults the
// election table inside the same statement, so an activation committing
// concurrently cannot leave an approved voter ineligible mid-election.
func (r *Repository) ApproveVoter(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE voters
		 SET approved = 1,
		     eligible_to_vote = eligible_to_vote OR EXISTS (SELECT 1 FROM elections WHERE status = 'active')
		 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePendingVoter removes a voter only while still unapproved.
// Rejection after approval is reported as not found.
func (r *Repository) DeletePendingVoter(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM voters WHERE id = ? AND approved = 0`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CountVoters returns approved and pending voter counts
func (r *Repository) CountVoters(ctx context.Context) (approved, pending int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(CASE WHEN approved = 1 THEN 1 END),
			COUNT(CASE WHEN approved = 0 THEN 1 END)
		 FROM voters`).Scan(&approved, &pending)
	return approved, pending, err
}

// ==================== Party Methods ====================

// CreateParty inserts a new party record
func (r *Repository) CreateParty(ctx context.Context, party models.Party) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO parties (id, name, candidate, position, symbol, email, approved, registered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		party.ID, party.Name, party.Candidate, party.Position, party.Symbol,
		party.Email, party.Approved, party.RegisteredAt)
	if isUniqueViolation(err) {
		return errors.Conflict("party name or email is already registered")
	}
	return err
}

// GetParty retrieves a party by id
func (r *Repository) GetParty(ctx context.Context, id string) (*models.Party, error) {
	var p models.Party
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, candidate, position, symbol, email, approved, registered_at
		 FROM parties WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Candidate, &p.Position, &p.Symbol, &p.Email, &p.Approved, &p.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PartyIdentityTaken reports whether any party already uses the name or email
func (r *Repository) PartyIdentityTaken(ctx context.Context, name, email string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parties WHERE name = ? OR email = ?`, name, email).Scan(&count)
	return count > 0, err
}

func (r *Repository) listParties(ctx context.Context, approved bool) ([]models.Party, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, candidate, position, symbol, email, approved, registered_at
		 FROM parties WHERE approved = ? ORDER BY registered_at`, approved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []models.Party
	for rows.Next() {
		var p models.Party
		if err := rows.Scan(&p.ID, &p.Name, &p.Candidate, &p.Position, &p.Symbol,
			&p.Email, &p.Approved, &p.RegisteredAt); err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

// ListPendingParties returns parties awaiting approval
func (r *Repository) ListPendingParties(ctx context.Context) ([]models.Party, error) {
	return r.listParties(ctx, false)
}

// ListApprovedParties returns approved parties
func (r *Repository) ListApprovedParties(ctx context.Context) ([]models.Party, error) {
	return r.listParties(ctx, true)
}

// ApproveParty marks a party approved
func (r *Repository) ApproveParty(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE parties SET approved = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePendingParty removes a party only while still unapproved
func (r *Repository) DeletePendingParty(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM parties WHERE id = ? AND approved = 0`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CountParties returns approved and pending party counts
func (r *Repository) CountParties(ctx context.Context) (approved, pending int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(CASE WHEN approved = 1 THEN 1 END),
			COUNT(CASE WHEN approved = 0 THEN 1 END)
		 FROM parties`).Scan(&approved, &pending)
	return approved, pending, err
}

// ==================== Election Methods ====================

// CreateElection inserts an election and its ordered party set in one transaction
func (r *Repository) CreateElection(ctx context.Context, election models.Election) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO elections (id, name, start_at, end_at, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		election.ID, election.Name, election.StartAt, election.EndAt, election.Status, election.CreatedAt)
	if err != nil {
		return err
	}

	for i, partyID := range election.PartyIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO election_parties (election_id, party_id, ordinal) VALUES (?, ?, ?)`,
			election.ID, partyID, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetElection retrieves an election with its ordered party ids
func (r *Repository) GetElection(ctx context.Context, id string) (*models.Election, error) {
	var e models.Election
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, start_at, end_at, status, created_at FROM elections WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.StartAt, &e.EndAt, &e.Status, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if e.PartyIDs, err = r.electionPartyIDs(ctx, e.ID); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) electionPartyIDs(ctx context.Context, electionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT party_id FROM election_parties WHERE election_id = ? ORDER BY ordinal`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ActiveElection returns the single active election, or ErrNotFound when none
func (r *Repository) ActiveElection(ctx context.Context) (*models.Election, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM elections WHERE status = 'active'`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetElection(ctx, id)
}

// ListElections returns all elections, newest first
func (r *Repository) ListElections(ctx context.Context) ([]models.Election, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, start_at, end_at, status, created_at FROM elections ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elections []models.Election
	for rows.Next() {
		var e models.Election
		if err := rows.Scan(&e.ID, &e.Name, &e.StartAt, &e.EndAt, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range elections {
		if elections[i].PartyIDs, err = r.electionPartyIDs(ctx, elections[i].ID); err != nil {
			return nil, err
		}
	}
	return elections, nil
}

// ActivateElection promotes a pending election to active. The demotion of
// any previously active election, the promotion itself, and the eligibility
// broadcast to approved voters commit atomically; a reader never observes
// two active elections or a half-updated eligibility set.
func (r *Repository) ActivateElection(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE elections SET status = 'completed' WHERE status = 'active'`); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE elections SET status = 'active' WHERE id = ? AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Classify: missing election vs. one that already left pending.
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM elections WHERE id = ?`, id).Scan(&status)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrElectionTerminal
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE voters SET eligible_to_vote = 1 WHERE approved = 1`); err != nil {
		return err
	}

	return tx.Commit()
}

// ==================== Vote Methods ====================

// CastVote records a vote and flips the voter's has_voted flag in a single
// transaction. The flag update is a compare-and-set so two concurrent casts
// for the same voter cannot both pass.
func (r *Repository) CastVote(ctx context.Context, voterID string, vote models.Vote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE voters SET has_voted = 1, vote_receipt = ? WHERE id = ? AND has_voted = 0`,
		vote.TransactionHash, voterID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var hasVoted bool
		err := tx.QueryRowContext(ctx,
			`SELECT has_voted FROM voters WHERE id = ?`, voterID).Scan(&hasVoted)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrAlreadyVoted
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO votes (id, election_id, voter_secret_key, encoded_party_id, transaction_hash, cast_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		vote.ID, vote.ElectionID, vote.VoterSecretKey, vote.EncodedPartyID,
		vote.TransactionHash, vote.CastAt); err != nil {
		return err
	}

	return tx.Commit()
}

// RecordsFor returns vote metadata for an election: timestamp and
// transaction hash only. The decoded choice and the secret key never leave
// the store through this path.
func (r *Repository) RecordsFor(ctx context.Context, electionID string) ([]models.VoteRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cast_at, transaction_hash FROM votes WHERE election_id = ? ORDER BY cast_at`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.VoteRecord
	for rows.Next() {
		var rec models.VoteRecord
		if err := rows.Scan(&rec.CastAt, &rec.TransactionHash); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountVotes returns the total number of votes cast across all elections
func (r *Repository) CountVotes(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`).Scan(&count)
	return count, err
}

// ==================== Notification Methods ====================

// AddNotification appends an entry to the notification log
func (r *Repository) AddNotification(ctx context.Context, n models.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, message, kind, created_at, read) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.Message, n.Kind, n.CreatedAt, n.Read)
	return err
}

// ListNotifications returns notifications, newest first
func (r *Repository) ListNotifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT id, message, kind, created_at, read FROM notifications ORDER BY created_at DESC`
	if unreadOnly {
		query = `SELECT id, message, kind, created_at, read FROM notifications WHERE read = 0 ORDER BY created_at DESC`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Message, &n.Kind, &n.CreatedAt, &n.Read); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationsRead marks every notification read
func (r *Repository) MarkNotificationsRead(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE read = 0`)
	return err
}

// CountUnreadNotifications returns the number of unread notifications
func (r *Repository) CountUnreadNotifications(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE read = 0`).Scan(&count)
	return count, err
}
