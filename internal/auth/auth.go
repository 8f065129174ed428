package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	stderrors "errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atulzaware51/blockchain-evoting/internal/logger"
	"github.com/atulzaware51/blockchain-evoting/internal/models"
)

const (
	CookieName    = "evoting_session"
	SessionExpiry = 12 * time.Hour

	// OTPWindow is how long a passcode counts as fresh. The countdown is
	// advisory: Verify checks code equality only, matching the reference
	// behavior where an elapsed timer changes the displayed status but
	// never invalidates a correct code.
	OTPWindow = 90 * time.Second
)

// Role identifies what a session is allowed to do
type Role string

const (
	RoleVoter     Role = "voter"
	RoleConductor Role = "conductor"
)

// Challenge states
const (
	StatusOTPPending = "otp_pending"
	StatusExpired    = "expired"
)

// Authentication errors
var (
	ErrInvalidCredentials = stderrors.New("invalid conductor credentials")
	ErrInvalidCode        = stderrors.New("invalid passcode")
	ErrChallengeNotFound  = stderrors.New("no pending login challenge")
)

// Credentials is the conductor credential pair, injected at startup so
// deployment secrets never live in source
type Credentials struct {
	Email    string
	Password string
}

// Notifier delivers a one-time passcode over an out-of-band channel
type Notifier interface {
	SendOTP(ctx context.Context, recipient, code string) error
}

// LogNotifier writes the passcode to the application log. It stands in for
// a real email/SMS channel in local deployments.
type LogNotifier struct {
	Log logger.Logger
}

func (n LogNotifier) SendOTP(ctx context.Context, recipient, code string) error {
	n.Log.Info("OTP issued", "recipient", recipient, "code", code)
	return nil
}

// VoterResolver resolves a login identifier (email or government voter ID)
// to a registered voter
type VoterResolver interface {
	FindVoterByIdentifier(ctx context.Context, identifier string) (*models.Voter, error)
}

// Challenge is an outstanding OTP login attempt
type Challenge struct {
	ID        string    `json:"challenge_id"`
	Code      string    `json:"code"`
	Role      Role      `json:"role"`
	Subject   string    `json:"-"`
	Recipient string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Status reports the display state of the challenge at the given instant.
// An expired status does not block Verify.
func (c *Challenge) Status(now time.Time) string {
	if now.After(c.ExpiresAt) {
		return StatusExpired
	}
	return StatusOTPPending
}

// Session is an authenticated identity bound to a role
type Session struct {
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticator issues OTP challenges and manages authenticated sessions.
// All state is process-local and discarded on restart.
type Authenticator struct {
	log        logger.Logger
	voters     VoterResolver
	creds      Credentials
	notifier   Notifier
	mu         sync.RWMutex
	challenges map[string]*Challenge
	sessions   map[string]Session
	now        func() time.Time
	randReader io.Reader
}

// New creates a new Authenticator
func New(log logger.Logger, voters VoterResolver, creds Credentials, notifier Notifier) *Authenticator {
	return &Authenticator{
		log:        log,
		voters:     voters,
		creds:      creds,
		notifier:   notifier,
		challenges: make(map[string]*Challenge),
		sessions:   make(map[string]Session),
		now:        time.Now,
		randReader: rand.Reader,
	}
}

// SetNow sets the clock (for testing expiry behavior)
func (a *Authenticator) SetNow(now func() time.Time) {
	a.now = now
}

// BeginVoterLogin resolves the identifier to a registered voter and issues
// an OTP challenge bound to that voter
func (a *Authenticator) BeginVoterLogin(ctx context.Context, identifier string) (*Challenge, error) {
	voter, err := a.voters.FindVoterByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return a.issueChallenge(ctx, RoleVoter, voter.ID, voter.Email)
}

// BeginConductorLogin validates the injected credential pair and issues an
// OTP challenge for the conductor role
func (a *Authenticator) BeginConductorLogin(ctx context.Context, email, password string) (*Challenge, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.creds.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.creds.Password)) == 1
	if !emailOK || !passOK {
		return nil, ErrInvalidCredentials
	}
	return a.issueChallenge(ctx, RoleConductor, email, email)
}

func (a *Authenticator) issueChallenge(ctx context.Context, role Role, subject, recipient string) (*Challenge, error) {
	code, err := a.generateOTP()
	if err != nil {
		return nil, err
	}

	now := a.now()
	challenge := &Challenge{
		ID:        uuid.NewString(),
		Code:      code,
		Role:      role,
		Subject:   subject,
		Recipient: recipient,
		IssuedAt:  now,
		ExpiresAt: now.Add(OTPWindow),
	}

	a.mu.Lock()
	a.challenges[challenge.ID] = challenge
	a.mu.Unlock()

	if err := a.notifier.SendOTP(ctx, recipient, code); err != nil {
		a.log.Warn("OTP delivery failed", "recipient", recipient, "error", err)
	}

	return challenge, nil
}

// Verify checks the code against the outstanding challenge. Equality is the
// only check; an elapsed countdown does not reject a correct code, and a
// wrong code leaves the challenge in place for another attempt.
func (a *Authenticator) Verify(challengeID, code string) (*Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	challenge, ok := a.challenges[challengeID]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(challenge.Code)) != 1 {
		return nil, ErrInvalidCode
	}

	delete(a.challenges, challengeID)

	session := Session{
		Token:     uuid.NewString(),
		Role:      challenge.Role,
		Subject:   challenge.Subject,
		ExpiresAt: a.now().Add(SessionExpiry),
	}
	a.sessions[session.Token] = session

	a.log.Info("Session established", "role", session.Role)
	return &session, nil
}

// Resend discards the outstanding OTP, issues a fresh code and restarts
// the countdown
func (a *Authenticator) Resend(ctx context.Context, challengeID string) (*Challenge, error) {
	a.mu.Lock()
	challenge, ok := a.challenges[challengeID]
	if !ok {
		a.mu.Unlock()
		return nil, ErrChallengeNotFound
	}

	code, err := a.generateOTP()
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}

	now := a.now()
	challenge.Code = code
	challenge.IssuedAt = now
	challenge.ExpiresAt = now.Add(OTPWindow)
	recipient := challenge.Recipient
	copied := *challenge
	a.mu.Unlock()

	if err := a.notifier.SendOTP(ctx, recipient, code); err != nil {
		a.log.Warn("OTP delivery failed", "recipient", recipient, "error", err)
	}

	return &copied, nil
}

// ChallengeStatus returns the advisory display status for a challenge
func (a *Authenticator) ChallengeStatus(challengeID string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	challenge, ok := a.challenges[challengeID]
	if !ok {
		return "", ErrChallengeNotFound
	}
	return challenge.Status(a.now()), nil
}

// Logout invalidates a session token
func (a *Authenticator) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// ValidateSession checks a session token and returns the bound session
func (a *Authenticator) ValidateSession(token string) (*Session, bool) {
	a.mu.RLock()
	session, exists := a.sessions[token]
	a.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if a.now().After(session.ExpiresAt) {
		a.mu.Lock()
		delete(a.sessions, token)
		a.mu.Unlock()
		return nil, false
	}

	return &session, true
}

// GetSessionFromRequest extracts and validates the session from a request
func (a *Authenticator) GetSessionFromRequest(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return a.ValidateSession(cookie.Value)
}

type contextKey struct{}

// SessionFromContext returns the session stored by the auth middleware
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(contextKey{}).(*Session)
	return session, ok
}

// RequireRole returns middleware that rejects requests without a valid
// session for the given role, and stores the session on the context
func (a *Authenticator) RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := a.GetSessionFromRequest(r)
			if !ok || session.Role != role {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - please log in"}`))
				return
			}
			ctx := context.WithValue(r.Context(), contextKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVoter middleware for voter endpoints
func (a *Authenticator) RequireVoter(next http.Handler) http.Handler {
	return a.RequireRole(RoleVoter)(next)
}

// RequireConductor middleware for conductor endpoints
func (a *Authenticator) RequireConductor(next http.Handler) http.Handler {
	return a.RequireRole(RoleConductor)(next)
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateOTP returns a 6-digit numeric passcode
func (a *Authenticator) generateOTP() (string, error) {
	n, err := rand.Int(a.randReader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate passcode: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
