package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_token_validator.go -package=mocks chatwidgets/internal/service TokenValidator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_replay_guard.go -package=mocks chatwidgets/internal/service ReplayGuard
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_feedback_service.go -package=mocks -mock_names=FeedbackService=MockFeedbackService chatwidgets/internal/service FeedbackService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"chatwidgets/internal/contextutil"
	"chatwidgets/internal/storage"
	"chatwidgets/internal/tokens"
)

// MaxCommentLength bounds the free-text comment of a submission, in runes.
const MaxCommentLength = 2000

// TokenValidator checks feedback tokens.
// This interface is defined from the service layer's perspective (consumer-first).
type TokenValidator interface {
	Validate(token string) (*tokens.Claims, error)
}

// ReplayGuard records used token IDs.
type ReplayGuard interface {
	Consume(ctx context.Context, id string, ttl time.Duration) error
	Release(ctx context.Context, id string) error
}

// SubmitFeedbackRequest is a rating posted from the embedded feedback document.
type SubmitFeedbackRequest struct {
	Token     string
	ProjectID string
	Question  string
	Answer    string
	Rating    string
	Comment   string
}

// Feedback is a stored rating in the domain layer.
type Feedback struct {
	ID        string
	ProjectID string
	Question  string
	Answer    string
	Rating    string
	Comment   string
	CreatedAt time.Time
}

// FeedbackService accepts and lists answer ratings.
type FeedbackService interface {
	// Submit validates the token, consumes it and stores the rating.
	Submit(ctx context.Context, req SubmitFeedbackRequest) (Feedback, error)
	// List returns the newest ratings for a project.
	List(ctx context.Context, projectID string, limit int) ([]Feedback, error)
}

// feedbackService implements FeedbackService.
type feedbackService struct {
	validator TokenValidator
	guard     ReplayGuard
	store     storage.FeedbackStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(validator TokenValidator, guard ReplayGuard, store storage.FeedbackStore) FeedbackService {
	return &feedbackService{
		validator: validator,
		guard:     guard,
		store:     store,
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// Submit stores one rating. Field validation runs before the token is
// consumed, so a rejected form can be corrected and resent. A storage
// failure releases the token again.
func (s *feedbackService) Submit(ctx context.Context, req SubmitFeedbackRequest) (Feedback, error) {
	logger := s.loggerFrom(ctx)

	if err := validateSubmit(req); err != nil {
		logger.WarnContext(ctx, "invalid feedback submission", "error", err)
		return Feedback{}, err
	}

	claims, err := s.validator.Validate(req.Token)
	if err != nil {
		logger.WarnContext(ctx, "rejected feedback token", "error", err)
		return Feedback{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if err := s.guard.Consume(ctx, claims.ID, ttl); err != nil {
		if errors.Is(err, tokens.ErrTokenUsed) {
			logger.WarnContext(ctx, "feedback token reused", "token_id", claims.ID)
			return Feedback{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		logger.ErrorContext(ctx, "failed to record token use", "error", err)
		return Feedback{}, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	rec := &storage.FeedbackRecord{
		ProjectID: req.ProjectID,
		Question:  req.Question,
		Answer:    req.Answer,
		Rating:    storage.Rating(req.Rating),
		Comment:   strings.TrimSpace(req.Comment),
		TokenID:   claims.ID,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return Feedback{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		logger.ErrorContext(ctx, "failed to store feedback", "error", err)
		// Nothing was stored, so the token stays usable for a retry.
		if relErr := s.guard.Release(context.WithoutCancel(ctx), claims.ID); relErr != nil {
			logger.ErrorContext(ctx, "failed to release feedback token", "error", relErr, "token_id", claims.ID)
		}
		return Feedback{}, WrapError(err, "failed to store feedback")
	}

	logger.InfoContext(ctx, "feedback stored", "feedback_id", rec.ID, "project_id", rec.ProjectID, "rating", rec.Rating)
	return toFeedback(*rec), nil
}

// List returns up to limit ratings for projectID, newest first.
func (s *feedbackService) List(ctx context.Context, projectID string, limit int) ([]Feedback, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, &ValidationError{Field: "project_id", Message: "cannot be empty"}
	}
	if limit < 0 {
		return nil, &ValidationError{Field: "limit", Message: "must not be negative"}
	}

	records, err := s.store.ListByProject(ctx, projectID, limit)
	if err != nil {
		s.loggerFrom(ctx).ErrorContext(ctx, "failed to list feedback", "error", err, "project_id", projectID)
		return nil, WrapError(err, "failed to list feedback")
	}

	out := make([]Feedback, 0, len(records))
	for _, rec := range records {
		out = append(out, toFeedback(rec))
	}
	return out, nil
}

func validateSubmit(req SubmitFeedbackRequest) error {
	required := []struct {
		field string
		value string
	}{
		{"project_id", req.ProjectID},
		{"question", req.Question},
		{"answer", req.Answer},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "cannot be empty"}
		}
	}
	if !storage.Rating(req.Rating).Valid() {
		return &ValidationError{Field: "rating", Message: "must be up or down"}
	}
	if utf8.RuneCountInString(req.Comment) > MaxCommentLength {
		return &ValidationError{Field: "comment", Message: fmt.Sprintf("must be at most %d characters", MaxCommentLength)}
	}
	return nil
}

func toFeedback(rec storage.FeedbackRecord) Feedback {
	return Feedback{
		ID:        rec.ID,
		ProjectID: rec.ProjectID,
		Question:  rec.Question,
		Answer:    rec.Answer,
		Rating:    string(rec.Rating),
		Comment:   rec.Comment,
		CreatedAt: rec.CreatedAt,
	}
}

func (s *feedbackService) loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := contextutil.LoggerFromContextOK(ctx); ok {
		return l
	}
	return s.logger
}
