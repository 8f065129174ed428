package handlers

import (
	"github.com/atulzaware51/blockchain-evoting/internal/auth"
	"github.com/atulzaware51/blockchain-evoting/internal/services"
	"github.com/atulzaware51/blockchain-evoting/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Identity services.IdentityServicer
	Election services.ElectionServicer
	Ledger   services.LedgerServicer
	Notify   services.NotificationServicer
	Auth     *auth.Authenticator
	Hub      *websocket.Hub
	Log      HTTPLogger
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	identity services.IdentityServicer,
	election services.ElectionServicer,
	ledger services.LedgerServicer,
	notify services.NotificationServicer,
	authenticator *auth.Authenticator,
	hub *websocket.Hub,
	log HTTPLogger,
) *Handlers {
	return &Handlers{
		Identity: identity,
		Election: election,
		Ledger:   ledger,
		Notify:   notify,
		Auth:     authenticator,
		Hub:      hub,
		Log:      log,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// NewForTesting creates a Handlers instance with the given authenticator and
// no websocket hub (API tests don't exercise the conductor feed)
func NewForTesting(
	identity services.IdentityServicer,
	election services.ElectionServicer,
	ledger services.LedgerServicer,
	notify services.NotificationServicer,
	authenticator *auth.Authenticator,
) *Handlers {
	return &Handlers{
		Identity: identity,
		Election: election,
		Ledger:   ledger,
		Notify:   notify,
		Auth:     authenticator,
		Log:      NoopHTTPLogger{},
	}
}
