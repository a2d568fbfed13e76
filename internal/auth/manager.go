package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Manager owns the single authoritative Session and hides the fact that
// sign-in has two competing strategies. Construct one per process, pass it by
// reference; tests build a fresh Manager per case.
type Manager struct {
	mu sync.Mutex

	provider Provider
	logger   *slog.Logger

	state   State
	session *Session
	errMsg  string

	redirectConsumed bool
	listenerWired    bool
	unsubscribe      func()
}

// SignInResult reports how a sign-in attempt ended. RedirectStarted means
// control left the process: the eventual session arrives via RestoreSession
// after restart, and no error should be shown to the user.
type SignInResult struct {
	Session         *Session
	RedirectStarted bool
}

// NewManager builds a Manager in the Idle state.
func NewManager(provider Provider, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		provider: provider,
		logger:   logger,
		state:    StateIdle,
	}
}

// SignIn attempts the interactive popup strategy and, on a recoverable popup
// failure, falls back to the redirect handoff. Non-recoverable failures are
// terminal and never trigger the fallback.
func (m *Manager) SignIn(ctx context.Context) (SignInResult, error) {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.errMsg = ""
	m.mu.Unlock()

	identity, err := m.provider.SignInPopup(ctx)
	if err == nil {
		session := sessionFromIdentity(identity)
		m.setAuthenticated(session)
		return SignInResult{Session: session}, nil
	}

	if !IsRecoverable(err) {
		m.setError(err.Error())
		return SignInResult{}, fmt.Errorf("sign in: %w", err)
	}

	m.logger.Info("popup sign-in failed with recoverable cause, falling back to redirect",
		slog.Any("error", err),
	)
	if redirectErr := m.provider.BeginRedirect(ctx); redirectErr != nil {
		m.setError(redirectErr.Error())
		return SignInResult{}, fmt.Errorf("begin redirect sign-in: %w", redirectErr)
	}

	// Control leaves the process here; state stays Authenticating until the
	// redirect result is consumed after restart.
	return SignInResult{RedirectStarted: true}, nil
}

// SignOut clears the local session regardless of whether the provider-side
// invalidation succeeds. Local state is the source of truth for the rest of
// the application, so a provider failure is returned only for logging.
func (m *Manager) SignOut(ctx context.Context) error {
	providerErr := m.provider.SignOut(ctx)

	m.mu.Lock()
	m.session = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()

	if providerErr != nil {
		return fmt.Errorf("provider sign out: %w", providerErr)
	}
	return nil
}

// RestoreSession is invoked once at process start. It consumes a pending
// redirect result at most once, then wires the provider's live listener,
// which is the long-lived source of truth thereafter. A redirect-result error
// is recorded but does not prevent the listener from being wired.
func (m *Manager) RestoreSession(ctx context.Context) {
	m.mu.Lock()
	shouldConsume := !m.redirectConsumed
	m.redirectConsumed = true
	m.mu.Unlock()

	if shouldConsume {
		identity, err := m.provider.ConsumeRedirectResult(ctx)
		switch {
		case err != nil:
			m.logger.Error("consume redirect result failed", slog.Any("error", err))
			m.mu.Lock()
			m.errMsg = fmt.Sprintf("redirect sign-in failed: %v", err)
			m.mu.Unlock()
		case identity != nil:
			m.logger.Info("restored session from redirect result",
				slog.String("user_id", identity.UserID),
			)
			m.setAuthenticated(sessionFromIdentity(identity))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listenerWired {
		return
	}
	m.listenerWired = true
	m.unsubscribe = m.provider.Subscribe(m.onProviderChange)
}

// Close tears the Manager down, releasing the provider subscription.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// ClearError clears the error message without touching authentication state.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
	if m.state == StateError {
		m.state = StateIdle
	}
}

// Session returns a snapshot of the current session, or nil.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	snapshot := *m.session
	return &snapshot
}

// IsAuthenticated reports whether a session is active.
func (m *Manager) IsAuthenticated() bool {
	return m.Session() != nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the recorded error message, empty when none.
func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

func (m *Manager) setAuthenticated(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session
	m.state = StateAuthenticated
	m.errMsg = ""
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	m.state = StateError
	m.errMsg = msg
}

// onProviderChange applies provider-side session changes: sign-in elsewhere,
// token expiry, explicit provider sign-out.
func (m *Manager) onProviderChange(identity *Identity) {
	if identity == nil {
		m.mu.Lock()
		m.session = nil
		m.state = StateUnauthenticated
		m.mu.Unlock()
		m.logger.Info("provider session ended")
		return
	}
	m.setAuthenticated(sessionFromIdentity(identity))
	m.logger.Info("provider session updated", slog.String("user_id", identity.UserID))
}
