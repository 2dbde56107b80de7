package models

// Message is one entry in a room's ordered conversation log.
type Message struct {
	ID            string   `json:"id"`             // ULID, server-assigned
	RoomID        string   `json:"room_id"`
	UserID        string   `json:"user_id"`
	Body          string   `json:"body"`
	IsUser        bool     `json:"is_user"`        // false for admin replies
	Priority      Priority `json:"priority,omitempty"`
	CorrelationID string   `json:"cid,omitempty"`  // client-generated, matches optimistic copies to pushed echoes
	Timestamp     int64    `json:"ts"`             // Unix ms
}
