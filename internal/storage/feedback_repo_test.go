package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFeedbackRepo_Create(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedbackRepo(db)
	ctx := context.Background()

	rec := &FeedbackRecord{
		ProjectID: "proj-42",
		Question:  "What is X?",
		Answer:    "X is **Y**.",
		Rating:    RatingUp,
		Comment:   "helpful",
		TokenID:   "jti-1",
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("Create() should assign an ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Create() should assign CreatedAt")
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ProjectID != rec.ProjectID || got.Question != rec.Question || got.Answer != rec.Answer {
		t.Errorf("GetByID() = %+v, want %+v", got, rec)
	}
	if got.Rating != RatingUp || got.Comment != "helpful" || got.TokenID != "jti-1" {
		t.Errorf("GetByID() = %+v, want rating/comment/token preserved", got)
	}
}

func TestFeedbackRepo_Create_DuplicateToken(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedbackRepo(db)
	ctx := context.Background()

	first := &FeedbackRecord{ProjectID: "p", Question: "q", Answer: "a", Rating: RatingUp, TokenID: "same"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := &FeedbackRecord{ProjectID: "p", Question: "q", Answer: "a", Rating: RatingDown, TokenID: "same"}
	if err := repo.Create(ctx, second); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create() error = %v, want %v", err, ErrDuplicate)
	}
}

func TestFeedbackRepo_Create_InvalidRating(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedbackRepo(db)

	rec := &FeedbackRecord{ProjectID: "p", Question: "q", Answer: "a", Rating: "meh", TokenID: "t"}
	err := repo.Create(context.Background(), rec)
	if err == nil {
		t.Fatal("Create() with invalid rating should fail")
	}
	if errors.Is(err, ErrDuplicate) {
		t.Errorf("Create() error = %v, want constraint failure other than duplicate", err)
	}
}

func TestFeedbackRepo_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedbackRepo(db)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want %v", err, ErrNotFound)
	}
}

func TestFeedbackRepo_ListByProject(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedbackRepo(db)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []*FeedbackRecord{
		{ProjectID: "p1", Question: "q1", Answer: "a1", Rating: RatingUp, TokenID: "t1", CreatedAt: base},
		{ProjectID: "p1", Question: "q2", Answer: "a2", Rating: RatingDown, TokenID: "t2", CreatedAt: base.Add(time.Minute)},
		{ProjectID: "p2", Question: "q3", Answer: "a3", Rating: RatingUp, TokenID: "t3", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range records {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := repo.ListByProject(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByProject() len = %d, want 2", len(got))
	}
	if got[0].Question != "q2" || got[1].Question != "q1" {
		t.Errorf("ListByProject() order = [%s %s], want newest first", got[0].Question, got[1].Question)
	}

	limited, err := repo.ListByProject(ctx, "p1", 1)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListByProject() with limit len = %d, want 1", len(limited))
	}

	empty, err := repo.ListByProject(ctx, "nobody", 10)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListByProject() for unknown project = %v, want empty slice", empty)
	}
}

func TestRating_Valid(t *testing.T) {
	tests := []struct {
		rating Rating
		want   bool
	}{
		{RatingUp, true},
		{RatingDown, true},
		{"", false},
		{"sideways", false},
	}
	for _, tt := range tests {
		if got := tt.rating.Valid(); got != tt.want {
			t.Errorf("Rating(%q).Valid() = %v, want %v", tt.rating, got, tt.want)
		}
	}
}
