package handlers

import (
	"net/http"

	"github.com/atulzaware51/blockchain-evoting/internal/auth"
)

// handleVoterLogin resolves the identifier to a registered voter and issues
// an OTP challenge
func (h *Handlers) handleVoterLogin(w http.ResponseWriter, r *http.Request) {
	var req VoterLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Identifier == "" {
		respondError(w, BadRequest("Identifier is required"))
		return
	}

	challenge, err := h.Auth.BeginVoterLogin(r.Context(), req.Identifier)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, challengeResponse(challenge))
}

// handleConductorLogin validates conductor credentials and issues an OTP
// challenge
func (h *Handlers) handleConductorLogin(w http.ResponseWriter, r *http.Request) {
	var req ConductorLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	challenge, err := h.Auth.BeginConductorLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, challengeResponse(challenge))
}

// handleVerify checks the submitted passcode and establishes a session
func (h *Handlers) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	session, err := h.Auth.Verify(req.ChallengeID, req.Code)
	if err != nil {
		respondError(w, err)
		return
	}

	auth.SetSessionCookie(w, session.Token)
	respondOK(w, SessionResponse{
		Role:      string(session.Role),
		ExpiresAt: session.ExpiresAt,
	})
}

// handleResend issues a fresh passcode for an outstanding challenge
func (h *Handlers) handleResend(w http.ResponseWriter, r *http.Request) {
	var req ResendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	challenge, err := h.Auth.Resend(r.Context(), req.ChallengeID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, challengeResponse(challenge))
}

// handleLogout invalidates the session and clears the cookie
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.Auth.Logout(cookie.Value)
	}

	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}

func challengeResponse(c *auth.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ChallengeID: c.ID,
		Code:        c.Code,
		Role:        string(c.Role),
		Status:      c.Status(c.IssuedAt),
		ExpiresAt:   c.ExpiresAt,
	}
}
