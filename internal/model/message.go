// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. The `json:"..."` struct tags
// decide the wire names the browser sees, so they follow the camelCase names
// the board's frontend has always used.
package model

import "time"

// Message is a posted note, either on the public feed or addressed to a
// named recipient.
//
// NULLABLE COLUMNS:
// SpotifyLink, Recipient and SenderName are optional in the store. We model
// them as *string so that "absent" (nil → JSON null) stays distinct from an
// empty string. A nil SenderName means the message was posted anonymously.
type Message struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	SpotifyLink *string   `json:"spotifyLink"`
	IsPublic    bool      `json:"isPublic"`
	Recipient   *string   `json:"recipient"`
	SenderName  *string   `json:"senderName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MessageWithReplies is a Message together with its replies, newest first.
//
// Replies is always non-nil for records built by the repositories so the
// JSON output is `"replies": []` rather than `"replies": null`.
type MessageWithReplies struct {
	Message
	Replies []Reply `json:"replies"`
}
