package messages

import (
	"errors"
	"time"

	"github.com/codegram/codegram/internal/profile"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Conversation is a direct-message thread between the current user and
// one peer.
type Conversation struct {
	ID            string       `json:"id"`
	Peer          profile.User `json:"peer"`
	Online        bool         `json:"online"`
	LastMessage   string       `json:"last_message"`
	LastMessageAt time.Time    `json:"last_message_at"`
	Age           string       `json:"age"`
	Unread        int          `json:"unread"`
}

// Message is one entry in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	Mine           bool      `json:"mine"`
	SentAt         time.Time `json:"sent_at"`
}

// SendInput is the body of a new message.
type SendInput struct {
	Text string `json:"text" validate:"required,max=2000"`
}
