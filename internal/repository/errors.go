package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the store.
// This abstracts away the underlying storage implementation from the
// service layer.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyVoted is returned by CastVote when the voter's has_voted flag
// was already set. The flag flip is a compare-and-set inside the vote
// transaction, so concurrent casts cannot both succeed.
var ErrAlreadyVoted = errors.New("voter has already voted")

// ErrElectionTerminal is returned when activating an election that is no
// longer pending. Elections never move backwards.
var ErrElectionTerminal = errors.New("election is not pending")
