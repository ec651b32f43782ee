package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"chatwidgets/internal/contextutil"
	"chatwidgets/internal/feedback"
	"chatwidgets/internal/service"
)

// FeedbackPageHandler serves the document loaded inside the feedback iframe.
type FeedbackPageHandler struct {
	validator  service.TokenValidator
	parser     goldmark.Markdown
	template   *template.Template
	submitPath string
}

// feedbackPageData holds template data for the feedback page.
type feedbackPageData struct {
	Token      string
	ProjectID  string
	Question   string
	Answer     string
	AnswerHTML template.HTML
	SubmitPath string
	Message    string
}

var feedbackPageTemplate = template.Must(template.New("feedback").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Rate this answer</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0;
      padding: 1rem;
      line-height: 1.5;
      font-size: 0.95rem;
    }
    .question {
      font-weight: 600;
      margin-bottom: 0.5rem;
    }
    .answer {
      max-height: 8rem;
      overflow-y: auto;
      border-left: 3px solid #cbd5e1;
      padding-left: 0.75rem;
      color: #334155;
    }
    .rating label {
      margin-right: 1rem;
    }
    textarea {
      width: 100%;
      min-height: 4rem;
      box-sizing: border-box;
    }
  </style>
</head>
<body>
{{- if .Message}}
  <p class="message">{{.Message}}</p>
{{- else}}
  <form method="post" action="{{.SubmitPath}}">
    <input type="hidden" name="auth_token" value="{{.Token}}">
    <input type="hidden" name="project_id" value="{{.ProjectID}}">
    <input type="hidden" name="question" value="{{.Question}}">
    <input type="hidden" name="answer" value="{{.Answer}}">
    <div class="question">{{.Question}}</div>
    <div class="answer">{{.AnswerHTML}}</div>
    <p class="rating">
      <label><input type="radio" name="rating" value="up" required> Helpful</label>
      <label><input type="radio" name="rating" value="down"> Not helpful</label>
    </p>
    <textarea name="comment" maxlength="2000" placeholder="Anything we should know?"></textarea>
    <p><button type="submit">Send feedback</button></p>
  </form>
{{- end}}
</body>
</html>`))

// NewFeedbackPageHandler creates a new handler for the feedback page.
// submitPath is where the form posts, normally /api/feedback.
func NewFeedbackPageHandler(validator service.TokenValidator, submitPath string) *FeedbackPageHandler {
	return &FeedbackPageHandler{
		validator: validator,
		// Raw HTML in answers is dropped; answers come from the model.
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
		),
		template:   feedbackPageTemplate,
		submitPath: submitPath,
	}
}

// ServeHTTP renders the rating form for the answer named in the query.
func (h *FeedbackPageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	data := feedbackPageData{
		Token:      q.Get(feedback.QueryAuthToken),
		ProjectID:  q.Get(feedback.QueryProjectID),
		Question:   q.Get(feedback.QueryQuestion),
		Answer:     q.Get(feedback.QueryAnswer),
		SubmitPath: h.submitPath,
	}

	if _, err := h.validator.Validate(data.Token); err != nil {
		logger.WarnContext(ctx, "feedback page with invalid token", "error", err)
		h.renderMessage(w, logger, r, http.StatusUnauthorized, "This feedback link has expired. Reload the conversation to rate this answer.")
		return
	}

	if strings.TrimSpace(data.ProjectID) == "" || strings.TrimSpace(data.Question) == "" || strings.TrimSpace(data.Answer) == "" {
		h.renderMessage(w, logger, r, http.StatusBadRequest, "This feedback link is incomplete.")
		return
	}

	answerHTML, err := h.renderMarkdown(data.Answer)
	if err != nil {
		logger.ErrorContext(ctx, "failed to render answer markdown", "error", err)
		http.Error(w, "failed to render feedback page", http.StatusInternalServerError)
		return
	}
	data.AnswerHTML = template.HTML(answerHTML)

	h.render(w, logger, r, http.StatusOK, data)
}

func (h *FeedbackPageHandler) renderMessage(w http.ResponseWriter, logger *slog.Logger, r *http.Request, status int, msg string) {
	h.render(w, logger, r, status, feedbackPageData{Message: msg})
}

func (h *FeedbackPageHandler) render(w http.ResponseWriter, logger *slog.Logger, r *http.Request, status int, data feedbackPageData) {
	var buf bytes.Buffer
	if err := h.template.Execute(&buf, data); err != nil {
		logger.ErrorContext(r.Context(), "failed to execute feedback template", "error", err)
		http.Error(w, "failed to render feedback page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *FeedbackPageHandler) renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
