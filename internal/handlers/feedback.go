package handlers

import (
	"encoding/json"
	"html/template"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"chatwidgets/internal/contextutil"
	"chatwidgets/internal/service"
)

// maxSubmitBytes bounds a feedback submission body.
const maxSubmitBytes = 256 << 10

// SubmitFeedbackRequest represents the HTTP request payload for a rating.
// The same field names are used for form posts from the feedback page.
type SubmitFeedbackRequest struct {
	AuthToken string `json:"auth_token"`
	ProjectID string `json:"project_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Rating    string `json:"rating"`
	Comment   string `json:"comment"`
}

// FeedbackResponse represents one stored rating.
type FeedbackResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Rating    string `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}

// FeedbackListResponse is the body of a listing.
type FeedbackListResponse struct {
	Feedback []FeedbackResponse `json:"feedback"`
}

// SubmitFeedbackHandler handles POST /api/feedback.
type SubmitFeedbackHandler struct {
	feedbackService service.FeedbackService
}

// NewSubmitFeedbackHandler creates a new SubmitFeedbackHandler.
func NewSubmitFeedbackHandler(feedbackService service.FeedbackService) *SubmitFeedbackHandler {
	return &SubmitFeedbackHandler{feedbackService: feedbackService}
}

var thanksTemplate = template.Must(template.New("thanks").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Thanks</title></head>
<body><p>Thanks for your feedback.</p></body>
</html>`))

// ServeHTTP accepts JSON or a form post. Form posts come from the embedded
// feedback page and get an HTML confirmation; JSON callers get the record.
func (h *SubmitFeedbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBytes)

	var req SubmitFeedbackRequest
	isForm := false
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	case "application/x-www-form-urlencoded", "multipart/form-data":
		isForm = true
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxSubmitBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			logger.WarnContext(ctx, "invalid form body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid form body")
			return
		}
		req = SubmitFeedbackRequest{
			AuthToken: r.PostFormValue("auth_token"),
			ProjectID: r.PostFormValue("project_id"),
			Question:  r.PostFormValue("question"),
			Answer:    r.PostFormValue("answer"),
			Rating:    r.PostFormValue("rating"),
			Comment:   r.PostFormValue("comment"),
		}
	default:
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported content type")
		return
	}

	fb, err := h.feedbackService.Submit(ctx, service.SubmitFeedbackRequest{
		Token:     req.AuthToken,
		ProjectID: req.ProjectID,
		Question:  req.Question,
		Answer:    req.Answer,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to store feedback")
		return
	}

	if isForm {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		if err := thanksTemplate.Execute(w, nil); err != nil {
			logger.ErrorContext(ctx, "failed to execute thanks template", "error", err)
		}
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toFeedbackResponse(fb))
}

// ListFeedbackHandler handles GET /api/projects/{projectID}/feedback.
type ListFeedbackHandler struct {
	feedbackService service.FeedbackService
}

// NewListFeedbackHandler creates a new ListFeedbackHandler.
func NewListFeedbackHandler(feedbackService service.FeedbackService) *ListFeedbackHandler {
	return &ListFeedbackHandler{feedbackService: feedbackService}
}

// ServeHTTP lists a project's ratings, newest first. ?limit=N caps the result.
func (h *ListFeedbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	projectID := strings.TrimSpace(chi.URLParam(r, "projectID"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	items, err := h.feedbackService.List(ctx, projectID, limit)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list feedback")
		return
	}

	resp := FeedbackListResponse{Feedback: make([]FeedbackResponse, 0, len(items))}
	for _, fb := range items {
		resp.Feedback = append(resp.Feedback, toFeedbackResponse(fb))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

func toFeedbackResponse(fb service.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        fb.ID,
		ProjectID: fb.ProjectID,
		Question:  fb.Question,
		Answer:    fb.Answer,
		Rating:    fb.Rating,
		Comment:   fb.Comment,
		CreatedAt: fb.CreatedAt.UTC().Format(time.RFC3339),
	}
}
