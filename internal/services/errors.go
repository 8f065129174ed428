package services

// Service errors
var (
	ErrUnderage         = &ServiceError{Message: "voter must be at least 18 years old"}
	ErrNoActiveElection = &ServiceError{Message: "no election is currently active"}
	ErrNotEligible      = &ServiceError{Message: "voter is not eligible to vote"}
	ErrAlreadyVoted     = &ServiceError{Message: "voter has already cast a vote"}
	ErrEmptyPartySet    = &ServiceError{Message: "election requires at least one party"}
	ErrInvalidDateRange = &ServiceError{Message: "election start must be before its end"}
	ErrUnapprovedParty  = &ServiceError{Message: "all included parties must be approved"}
	ErrDuplicateParty   = &ServiceError{Message: "a party may appear only once per election"}
	ErrAlreadyTerminal  = &ServiceError{Message: "election has already been activated or completed"}
	ErrPartyNotOnBallot = &ServiceError{Message: "party is not on the active ballot"}
	ErrNoReceipt        = &ServiceError{Message: "voter has no vote receipt"}
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}
