package handlers

import (
	"context"
	"net/http"
	"time"

	"chatwidgets/internal/contextutil"
	"chatwidgets/internal/tokens"
)

// TokenIssuer mints feedback tokens.
type TokenIssuer interface {
	Issue(ctx context.Context) (tokens.Issued, error)
}

// TokenHandler serves GET /feedback-token.
type TokenHandler struct {
	issuer TokenIssuer
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(issuer TokenIssuer) *TokenHandler {
	return &TokenHandler{issuer: issuer}
}

// TokenResponse is the body of a token response. Clients read only Token.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// ServeHTTP issues a fresh token on every request.
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	issued, err := h.issuer.Issue(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to issue feedback token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	logger.DebugContext(ctx, "issued feedback token", "token_id", issued.ID)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(ctx, w, http.StatusOK, TokenResponse{
		Token:     issued.Token,
		ExpiresIn: int64(time.Until(issued.ExpiresAt).Round(time.Second) / time.Second),
	})
}
