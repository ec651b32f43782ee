package storage

import "time"

// Rating is a thumbs up/down verdict on an answer.
type Rating string

const (
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// Valid reports whether r is a known rating.
func (r Rating) Valid() bool {
	return r == RatingUp || r == RatingDown
}

// FeedbackRecord is one submitted rating of an assistant answer.
type FeedbackRecord struct {
	ID        string // UUID
	ProjectID string
	Question  string // the user turn
	Answer    string // the rated assistant turn
	Rating    Rating
	Comment   string
	TokenID   string // jti of the feedback token used to submit; unique
	CreatedAt time.Time
}
