package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_feedback_store.go -package=mocks chatwidgets/internal/storage FeedbackStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a record violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// DefaultListLimit caps ListByProject when no limit is given.
const DefaultListLimit = 100

// FeedbackStore defines the interface for feedback storage operations.
type FeedbackStore interface {
	// Create stores a new feedback record, assigning ID and CreatedAt when empty.
	// Returns ErrDuplicate if the token was already used for a record.
	Create(ctx context.Context, rec *FeedbackRecord) error
	// GetByID returns a single record or ErrNotFound.
	GetByID(ctx context.Context, id string) (*FeedbackRecord, error)
	// ListByProject returns the newest records of a project first.
	ListByProject(ctx context.Context, projectID string, limit int) ([]FeedbackRecord, error)
}

// FeedbackRepo provides methods for feedback operations.
// It implements the FeedbackStore interface.
type FeedbackRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewFeedbackRepo creates a new FeedbackRepo.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db, now: time.Now}
}

// Create stores rec.
func (r *FeedbackRepo) Create(ctx context.Context, rec *FeedbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (id, project_id, question, answer, rating, comment, token_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProjectID, rec.Question, rec.Answer, string(rec.Rating), rec.Comment, rec.TokenID, rec.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// GetByID returns the record with id.
func (r *FeedbackRepo) GetByID(ctx context.Context, id string) (*FeedbackRecord, error) {
	var rec FeedbackRecord
	var rating string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, question, answer, rating, comment, token_id, created_at
		 FROM feedback WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.ProjectID, &rec.Question, &rec.Answer, &rating, &rec.Comment, &rec.TokenID, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	rec.Rating = Rating(rating)
	return &rec, nil
}

// ListByProject returns up to limit records for projectID, newest first.
func (r *FeedbackRepo) ListByProject(ctx context.Context, projectID string, limit int) ([]FeedbackRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, question, answer, rating, comment, token_id, created_at
		 FROM feedback WHERE project_id = ?
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	records := []FeedbackRecord{}
	for rows.Next() {
		var rec FeedbackRecord
		var rating string
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.Question, &rec.Answer, &rating, &rec.Comment, &rec.TokenID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		rec.Rating = Rating(rating)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}

	return records, nil
}
