package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"resumecheck/internal/config"
)

const redirectMarkerKey = "auth:redirect:state"

// markerStore persists the pending-redirect marker so the consume-at-most-once
// check survives a process restart.
type markerStore interface {
	Set(ctx context.Context, key, value string) error
	GetDel(ctx context.Context, key string) (string, bool, error)
}

// HTTPProvider implements Provider against the identity provider's REST API.
type HTTPProvider struct {
	client       *resty.Client
	markers      markerStore
	logger       *slog.Logger
	pollInterval time.Duration
}

// NewHTTPProvider builds the provider client.
func NewHTTPProvider(cfg config.AuthConfig, markers markerStore, logger *slog.Logger) *HTTPProvider {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(cfg.ProviderBaseURL).
		SetHeader("Authorization", "Bearer "+cfg.ProviderAPIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	return &HTTPProvider{
		client:       client,
		markers:      markers,
		logger:       logger,
		pollInterval: 30 * time.Second,
	}
}

type providerErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type redirectStartBody struct {
	State string `json:"state"`
}

// SignInPopup runs the interactive strategy. Provider-reported failures come
// back as *ProviderError so the Manager can classify them.
func (p *HTTPProvider) SignInPopup(ctx context.Context) (*Identity, error) {
	resp, err := p.client.R().SetContext(ctx).Post("/v1/signin/popup")
	if err != nil {
		return nil, fmt.Errorf("popup sign-in request: %w", err)
	}
	if resp.IsError() {
		return nil, parseProviderError(resp.Body())
	}

	var identity Identity
	if err := json.Unmarshal(resp.Body(), &identity); err != nil {
		return nil, fmt.Errorf("decode popup identity: %w", err)
	}
	return &identity, nil
}

// BeginRedirect starts the handoff strategy and persists the pending marker.
func (p *HTTPProvider) BeginRedirect(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Post("/v1/signin/redirect")
	if err != nil {
		return fmt.Errorf("begin redirect request: %w", err)
	}
	if resp.IsError() {
		return parseProviderError(resp.Body())
	}

	var body redirectStartBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return fmt.Errorf("decode redirect state: %w", err)
	}
	if err := p.markers.Set(ctx, redirectMarkerKey, body.State); err != nil {
		return fmt.Errorf("persist redirect marker: %w", err)
	}
	return nil
}

// ConsumeRedirectResult checks the persisted marker and, when one is pending,
// fetches the redirect outcome. The marker is removed atomically, so a second
// call observes no pending result.
func (p *HTTPProvider) ConsumeRedirectResult(ctx context.Context) (*Identity, error) {
	state, pending, err := p.markers.GetDel(ctx, redirectMarkerKey)
	if err != nil {
		return nil, fmt.Errorf("read redirect marker: %w", err)
	}
	if !pending {
		return nil, nil
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("state", state).
		Get("/v1/signin/redirect/result")
	if err != nil {
		return nil, fmt.Errorf("redirect result request: %w", err)
	}
	if resp.StatusCode() == http.StatusNoContent {
		return nil, nil
	}
	if resp.IsError() {
		return nil, parseProviderError(resp.Body())
	}

	var identity Identity
	if err := json.Unmarshal(resp.Body(), &identity); err != nil {
		return nil, fmt.Errorf("decode redirect identity: %w", err)
	}
	return &identity, nil
}

// SignOut invalidates the provider-side session.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Post("/v1/signout")
	if err != nil {
		return fmt.Errorf("sign-out request: %w", err)
	}
	if resp.IsError() {
		return parseProviderError(resp.Body())
	}
	return nil
}

// Subscribe polls the provider's session endpoint and invokes fn on changes.
// The returned function stops the polling loop.
func (p *HTTPProvider) Subscribe(fn func(*Identity)) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()

		var lastUserID string
		first := true
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}

			identity, err := p.currentSession(context.Background())
			if err != nil {
				p.logger.Warn("poll provider session failed", slog.Any("error", err))
				continue
			}

			userID := ""
			if identity != nil {
				userID = identity.UserID
			}
			if first || userID != lastUserID {
				first = false
				lastUserID = userID
				fn(identity)
			}
		}
	}()
	return func() { close(done) }
}

func (p *HTTPProvider) currentSession(ctx context.Context) (*Identity, error) {
	resp, err := p.client.R().SetContext(ctx).Get("/v1/session")
	if err != nil {
		return nil, fmt.Errorf("session request: %w", err)
	}
	if resp.StatusCode() == http.StatusNoContent || resp.StatusCode() == http.StatusUnauthorized {
		return nil, nil
	}
	if resp.IsError() {
		return nil, parseProviderError(resp.Body())
	}

	var identity Identity
	if err := json.Unmarshal(resp.Body(), &identity); err != nil {
		return nil, fmt.Errorf("decode session identity: %w", err)
	}
	return &identity, nil
}

func parseProviderError(body []byte) error {
	var parsed providerErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Code == "" {
		return &ProviderError{Code: "unknown", Message: string(body)}
	}
	return &ProviderError{Code: parsed.Code, Message: parsed.Message}
}
