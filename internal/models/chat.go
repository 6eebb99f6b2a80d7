package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelKind distinguishes shared rooms from per-applicant intake channels.
type ChannelKind string

const (
	// ChannelLobby is a shared room anyone may join (commands, chat).
	ChannelLobby ChannelKind = "lobby"
	// ChannelIntake is a private per-applicant application channel.
	ChannelIntake ChannelKind = "intake"
)

// Channel is a chat room on the gateway. Intake channels are visible
// only to their owner and admins and are archived when the session ends.
type Channel struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Kind      ChannelKind `json:"kind"`
	OwnerID   uuid.UUID   `json:"owner_id,omitempty"`
	Archived  bool        `json:"archived"`
	CreatedAt time.Time   `json:"created_at"`
}

// Attachment is file metadata carried on a chat message.
type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// ChatMessage is one inbound or outbound chat message.
type ChatMessage struct {
	ID          uuid.UUID    `json:"id"`
	ChannelID   uuid.UUID    `json:"channel_id"`
	AuthorID    uuid.UUID    `json:"author_id"`
	AuthorName  string       `json:"author_name,omitempty"`
	AuthorRole  Role         `json:"author_role,omitempty"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	SentAt      time.Time    `json:"sent_at"`
}
