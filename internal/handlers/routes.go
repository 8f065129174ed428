package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger) // Custom conditional HTTP logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// Registration (public)
	r.Post("/api/voters", h.handleVoterRegister)
	r.Post("/api/parties", h.handlePartyRegister)

	// Auth (public)
	r.Post("/api/auth/voter/login", h.handleVoterLogin)
	r.Post("/api/auth/conductor/login", h.handleConductorLogin)
	r.Post("/api/auth/verify", h.handleVerify)
	r.Post("/api/auth/resend", h.handleResend)
	r.Post("/api/auth/logout", h.handleLogout)

	// Voter API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireVoter)

		r.Get("/api/voter/profile", h.handleVoterProfile)
		r.Get("/api/voter/ballot", h.handleBallot)
		r.Post("/api/voter/vote", h.handleCastVote)
		r.Get("/api/voter/receipt/qr", h.handleReceiptQR)
	})

	// Conductor API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireConductor)

		// Stats
		r.Get("/api/conductor/stats", h.handleGetStats)

		// Registration approvals
		r.Get("/api/conductor/voters/pending", h.handleGetPendingVoters)
		r.Post("/api/conductor/voters/{id}/approve", h.handleApproveVoter)
		r.Delete("/api/conductor/voters/{id}", h.handleRejectVoter)
		r.Get("/api/conductor/parties/pending", h.handleGetPendingParties)
		r.Post("/api/conductor/parties/{id}/approve", h.handleApproveParty)
		r.Delete("/api/conductor/parties/{id}", h.handleRejectParty)

		// Elections
		r.Get("/api/conductor/elections", h.handleGetElections)
		r.Post("/api/conductor/elections", h.handleCreateElection)
		r.Post("/api/conductor/elections/{id}/activate", h.handleActivateElection)
		r.Get("/api/conductor/elections/{id}/votes", h.handleGetElectionVotes)

		// Ledger
		r.Get("/api/conductor/votes/count", h.handleGetVoteCount)

		// Notifications
		r.Get("/api/conductor/notifications", h.handleGetNotifications)
		r.Post("/api/conductor/notifications/read", h.handleMarkNotificationsRead)

		// Live event feed
		r.Get("/ws", h.Hub.ServeWs)
	})

	return r
}
