package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"chatwidgets/internal/contextutil"
	"chatwidgets/internal/feedback"
)

// DefaultSettleTimeout bounds how long Render waits for a feedback token.
const DefaultSettleTimeout = 5 * time.Second

// SelfRendering is implemented by registered widgets that produce their own markup.
type SelfRendering interface {
	Widget
	HTML() (template.HTML, error)
}

// Rendered is the server-side rendering of one widget.
type Rendered struct {
	Kind     Kind
	HTML     template.HTML // empty when nothing should be shown
	EmbedURL string        // set for a ready feedback widget
	State    string        // feedback controller state, if one ran
}

var referenceDocsTemplate = template.Must(template.New("reference_docs").Parse(
	`<div class="reference-docs" data-widget="reference_docs_button" data-payload="{{.}}"><button type="button">Reference documents</button></div>`))

// Renderer turns dispatched widgets into markup. Each feedback widget gets its
// own controller, so tokens are never shared between renders.
type Renderer struct {
	tokens  feedback.TokenSource
	timeout time.Duration
}

// NewRenderer creates a Renderer. A zero timeout uses DefaultSettleTimeout.
func NewRenderer(tokens feedback.TokenSource, timeout time.Duration) *Renderer {
	if timeout <= 0 {
		timeout = DefaultSettleTimeout
	}
	return &Renderer{tokens: tokens, timeout: timeout}
}

// Render produces markup for w. Failures inside a widget degrade to empty
// markup; an error is only returned when a template cannot be executed.
func (r *Renderer) Render(ctx context.Context, w Widget) (Rendered, error) {
	switch v := w.(type) {
	case nil, None:
		return Rendered{Kind: KindNone}, nil
	case ReferenceDocs:
		return r.renderReferenceDocs(v)
	case FeedbackHub:
		return r.renderFeedback(ctx, v)
	case SelfRendering:
		html, err := v.HTML()
		if err != nil {
			return Rendered{Kind: v.Kind()}, fmt.Errorf("render %s: %w", v.Kind(), err)
		}
		return Rendered{Kind: v.Kind(), HTML: html}, nil
	default:
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "no renderer for widget", "kind", w.Kind())
		return Rendered{Kind: w.Kind()}, nil
	}
}

func (r *Renderer) renderReferenceDocs(w ReferenceDocs) (Rendered, error) {
	payload, err := json.Marshal(w.Block)
	if err != nil {
		return Rendered{Kind: w.Kind()}, fmt.Errorf("encode reference docs payload: %w", err)
	}
	var buf bytes.Buffer
	if err := referenceDocsTemplate.Execute(&buf, string(payload)); err != nil {
		return Rendered{Kind: w.Kind()}, fmt.Errorf("render reference docs: %w", err)
	}
	return Rendered{Kind: w.Kind(), HTML: template.HTML(buf.String())}, nil
}

func (r *Renderer) renderFeedback(ctx context.Context, w FeedbackHub) (Rendered, error) {
	c := feedback.NewController(r.tokens)
	defer c.Unmount()

	c.Update(ctx, w.Params)

	waitCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	snap, err := c.Wait(waitCtx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "feedback token did not arrive in time", "error", err)
	}

	out := Rendered{Kind: w.Kind(), State: snap.State.String()}
	if !snap.Renderable() {
		return out, nil
	}
	html, err := feedback.RenderEmbed(snap)
	if err != nil {
		return out, fmt.Errorf("render feedback embed: %w", err)
	}
	out.HTML = html
	out.EmbedURL = snap.EmbedURL
	return out, nil
}
