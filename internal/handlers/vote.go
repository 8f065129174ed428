package handlers

import (
	"net/http"

	"github.com/atulzaware51/blockchain-evoting/internal/auth"
	"github.com/atulzaware51/blockchain-evoting/internal/services"
)

// handleVoterRegister accepts a public voter registration
func (h *Handlers) handleVoterRegister(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterVoterInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	voter, err := h.Identity.RegisterVoter(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondCreated(w, voter)
}

// handlePartyRegister accepts a public party registration
func (h *Handlers) handlePartyRegister(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterPartyInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	party, err := h.Identity.RegisterParty(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondCreated(w, party)
}

// handleVoterProfile returns the logged-in voter's record
func (h *Handlers) handleVoterProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondError(w, ErrUnauthorized)
		return
	}

	voter, err := h.Identity.GetVoter(r.Context(), session.Subject)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, voter)
}

// handleBallot returns the active election with its parties in ballot order
func (h *Handlers) handleBallot(w http.ResponseWriter, r *http.Request) {
	ballot, err := h.Election.Ballot(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, ballot)
}

// handleCastVote records the logged-in voter's vote and returns the receipt
func (h *Handlers) handleCastVote(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondError(w, ErrUnauthorized)
		return
	}

	var req VoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.PartyID == "" {
		respondError(w, BadRequest("Party ID is required"))
		return
	}

	receipt, err := h.Ledger.CastVote(r.Context(), session.Subject, req.PartyID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, ReceiptResponse{
		TransactionHash: receipt.TransactionHash,
		ElectionID:      receipt.ElectionID,
		CastAt:          receipt.CastAt,
	})
}

// handleReceiptQR returns the voter's vote receipt as a PNG QR code
func (h *Handlers) handleReceiptQR(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondError(w, ErrUnauthorized)
		return
	}

	png, err := h.Ledger.ReceiptQR(r.Context(), session.Subject)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
