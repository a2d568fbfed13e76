package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumecheck/internal/api/middleware"
	"resumecheck/internal/auth"
)

// AuthHandler exposes the session manager over HTTP.
type AuthHandler struct {
	manager *auth.Manager
	tokens  *auth.TokenService
}

// NewAuthHandler builds the handler.
func NewAuthHandler(manager *auth.Manager, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{manager: manager, tokens: tokens}
}

type sessionResponse struct {
	State   string        `json:"state"`
	Session *auth.Session `json:"session,omitempty"`
	Token   string        `json:"token,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// SignIn runs the dual-strategy sign-in. A redirect handoff is not an error:
// the client gets 202 and the session arrives after the process restarts.
func (h *AuthHandler) SignIn(c *gin.Context) {
	log := middleware.LoggerFromContext(c)

	result, err := h.manager.SignIn(c.Request.Context())
	if err != nil {
		log.Warn("sign-in failed", slog.Any("error", err))
		Error(c, http.StatusUnauthorized, h.manager.Err())
		return
	}
	if result.RedirectStarted {
		c.JSON(http.StatusAccepted, gin.H{"status": "redirect_pending"})
		return
	}

	token, err := h.tokens.Mint(result.Session)
	if err != nil {
		log.Error("mint session token failed", slog.Any("error", err))
		Internal(c, "failed to issue session token")
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		State:   h.manager.State().String(),
		Session: result.Session,
		Token:   token,
	})
}

// SignOut clears the session. Local sign-out always succeeds; a provider-side
// failure is logged but not surfaced as a request failure.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.manager.SignOut(c.Request.Context()); err != nil {
		middleware.LoggerFromContext(c).Warn("provider sign-out failed", slog.Any("error", err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

// GetSession reports the current session state.
func (h *AuthHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionResponse{
		State:   h.manager.State().String(),
		Session: h.manager.Session(),
		Error:   h.manager.Err(),
	})
}

// ClearError drops the recorded error without touching authentication state.
func (h *AuthHandler) ClearError(c *gin.Context) {
	h.manager.ClearError()
	c.Status(http.StatusNoContent)
}
