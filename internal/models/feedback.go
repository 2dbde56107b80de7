package models

// Feedback is a one-shot rated comment, independent of any room.
type Feedback struct {
	ID        string `json:"id"` // ULID, server-assigned
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Body      string `json:"body"`
	Timestamp int64  `json:"ts"` // Unix ms
}
