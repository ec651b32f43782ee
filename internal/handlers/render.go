package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"chatwidgets/internal/contextutil"
	"chatwidgets/internal/service"
)

// maxMessageBytes bounds a chat message posted for rendering.
const maxMessageBytes = 1 << 20

// RenderResponse represents the HTTP response payload for a render.
type RenderResponse struct {
	Widget   string `json:"widget"`
	HTML     string `json:"html"`
	EmbedURL string `json:"embed_url,omitempty"`
	State    string `json:"state,omitempty"`
}

// RenderHandler handles POST /api/render.
type RenderHandler struct {
	renderService service.RenderService
}

// NewRenderHandler creates a new RenderHandler.
func NewRenderHandler(renderService service.RenderService) *RenderHandler {
	return &RenderHandler{renderService: renderService}
}

// ServeHTTP renders the chat message in the request body.
func (h *RenderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		logger.WarnContext(ctx, "failed to read request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !json.Valid(raw) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	out, err := h.renderService.Render(ctx, raw)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to render message")
		return
	}

	writeJSON(ctx, w, http.StatusOK, RenderResponse{
		Widget:   out.Widget,
		HTML:     out.HTML,
		EmbedURL: out.EmbedURL,
		State:    out.State,
	})
}
