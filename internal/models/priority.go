package models

import "errors"

// Priority classifies how urgently a piece of feedback should be triaged.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ClassifyRating maps a 1-5 star rating to a triage priority.
// Ratings outside the domain are rejected, never clamped.
func ClassifyRating(rating int) (Priority, error) {
	if rating < 1 || rating > 5 {
		return "", ErrInvalidRating
	}
	switch {
	case rating <= 2:
		return PriorityLow, nil
	case rating == 3:
		return PriorityMedium, nil
	default:
		return PriorityHigh, nil
	}
}
