package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_render_service.go -package=mocks -mock_names=RenderService=MockRenderService chatwidgets/internal/service RenderService

import (
	"context"
	"log/slog"

	"chatwidgets/internal/contextutil"
	"chatwidgets/internal/message"
	"chatwidgets/internal/widget"
)

// RenderResult is the server-side rendering of one chat message.
type RenderResult struct {
	Widget   string
	HTML     string
	EmbedURL string
	State    string
}

// RenderService renders the user-defined block of chat messages.
type RenderService interface {
	// Render decodes a raw chat message and renders its widget.
	Render(ctx context.Context, raw []byte) (RenderResult, error)
}

// renderService implements RenderService.
type renderService struct {
	dispatcher *widget.Dispatcher
	renderer   *widget.Renderer
	logger     *slog.Logger
}

// NewRenderService creates a new RenderService.
func NewRenderService(dispatcher *widget.Dispatcher, renderer *widget.Renderer) RenderService {
	return &renderService{
		dispatcher: dispatcher,
		renderer:   renderer,
		logger:     slog.Default(),
	}
}

// Render decodes raw and renders it. A message without a recognised block
// renders as the "none" widget with empty markup.
func (s *renderService) Render(ctx context.Context, raw []byte) (RenderResult, error) {
	logger := s.logger
	if l, ok := contextutil.LoggerFromContextOK(ctx); ok {
		logger = l
	}

	msg, err := message.Decode(raw)
	if err != nil {
		logger.WarnContext(ctx, "undecodable chat message", "error", err)
		return RenderResult{}, &ValidationError{Field: "message", Message: err.Error()}
	}

	w := s.dispatcher.Dispatch(msg)
	out, err := s.renderer.Render(ctx, w)
	if err != nil {
		logger.ErrorContext(ctx, "failed to render widget", "error", err, "widget", w.Kind())
		return RenderResult{}, WrapError(err, "failed to render widget")
	}

	logger.DebugContext(ctx, "rendered message", "message_id", msg.ID, "widget", out.Kind, "state", out.State)
	return RenderResult{
		Widget:   string(out.Kind),
		HTML:     string(out.HTML),
		EmbedURL: out.EmbedURL,
		State:    out.State,
	}, nil
}
