package model

import "time"

// Reply is a comment attached to a Message.
// MessageID must reference an existing message; the store enforces this
// with a foreign key.
type Reply struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"messageId"`
	Content   string    `json:"content"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
}
