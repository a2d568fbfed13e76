package auth

import (
	"context"
	"errors"
	"fmt"
)

// Provider error codes. The popup-specific codes are the only ones that make
// the Manager fall back to the redirect strategy.
const (
	CodePopupBlocked      = "popup-blocked"
	CodePopupClosedByUser = "popup-closed-by-user"
	CodeCancelledPopup    = "cancelled-popup-request"
	CodeCOOPRejected      = "coop-rejected"
)

// ProviderError is a classified failure from the identity provider.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider error: %s", e.Code)
	}
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
}

// IsRecoverable reports whether err is one of the popup failures that trigger
// the redirect fallback. Anything else is terminal for the sign-in attempt.
func IsRecoverable(err error) bool {
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		return false
	}
	switch provErr.Code {
	case CodePopupBlocked, CodePopupClosedByUser, CodeCancelledPopup, CodeCOOPRejected:
		return true
	}
	return false
}

// Provider is the external identity capability: two competing sign-in
// strategies, sign-out, a consumable pending-redirect check, and a live
// state-change subscription.
type Provider interface {
	// SignInPopup runs the interactive strategy and resolves synchronously.
	SignInPopup(ctx context.Context) (*Identity, error)

	// BeginRedirect starts the handoff strategy. It never resolves in-process;
	// the eventual identity is obtained via ConsumeRedirectResult after restart.
	BeginRedirect(ctx context.Context) error

	// ConsumeRedirectResult returns the result of a previously started redirect
	// sign-in, or nil when none is pending. The result is consumed: a second
	// call observes no pending result.
	ConsumeRedirectResult(ctx context.Context) (*Identity, error)

	// SignOut invalidates the provider-side session.
	SignOut(ctx context.Context) error

	// Subscribe registers a listener for provider-side session changes. The
	// listener receives nil when the session ends. The returned function
	// unsubscribes.
	Subscribe(fn func(*Identity)) func()
}
