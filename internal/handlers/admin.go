package handlers

import (
	"net/http"

	"github.com/atulzaware51/blockchain-evoting/internal/services"
)

// handleGetStats returns the conductor dashboard counters
func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Identity.Stats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, stats)
}

// handleGetPendingVoters returns voters awaiting approval
func (h *Handlers) handleGetPendingVoters(w http.ResponseWriter, r *http.Request) {
	voters, err := h.Identity.ListPendingVoters(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, voters)
}

// handleApproveVoter approves a pending voter
func (h *Handlers) handleApproveVoter(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	voter, err := h.Identity.ApproveVoter(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, voter)
}

// handleRejectVoter removes a pending voter registration
func (h *Handlers) handleRejectVoter(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Identity.RejectVoter(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Voter registration rejected")
}

// handleGetPendingParties returns parties awaiting approval
func (h *Handlers) handleGetPendingParties(w http.ResponseWriter, r *http.Request) {
	parties, err := h.Identity.ListPendingParties(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, parties)
}

// handleApproveParty approves a pending party
func (h *Handlers) handleApproveParty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	party, err := h.Identity.ApproveParty(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, party)
}

// handleRejectParty removes a pending party registration
func (h *Handlers) handleRejectParty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Identity.RejectParty(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Party registration rejected")
}

// handleGetElections lists all elections, newest first
func (h *Handlers) handleGetElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.Election.ListElections(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, elections)
}

// handleCreateElection creates a new pending election
func (h *Handlers) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req ElectionCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	election, err := h.Election.CreateElection(r.Context(), services.CreateElectionInput{
		Name:     req.Name,
		StartAt:  req.StartAt,
		EndAt:    req.EndAt,
		PartyIDs: req.PartyIDs,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, election)
}

// handleActivateElection makes the election the single active one
func (h *Handlers) handleActivateElection(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	election, err := h.Election.ActivateElection(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, election)
}

// handleGetElectionVotes returns the anonymized vote records of an election
func (h *Handlers) handleGetElectionVotes(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	records, err := h.Ledger.RecordsFor(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, records)
}

// handleGetVoteCount returns the ledger total across all elections
func (h *Handlers) handleGetVoteCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Ledger.CountVotes(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, VoteCountResponse{TotalVotes: count})
}

// handleGetNotifications lists notifications, newest first. ?unread=true
// restricts to unread entries.
func (h *Handlers) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.Notify.List(r.Context(), unreadOnly)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, notifications)
}

// handleMarkNotificationsRead marks every notification as read
func (h *Handlers) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Notify.MarkAllRead(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Notifications marked read")
}
