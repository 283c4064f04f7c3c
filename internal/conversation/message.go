package conversation

import (
	"time"
)

// Role of a message author.
type Role string

const (
	// RoleUser is a turn typed by the user.
	RoleUser Role = "user"
	// RoleAssistant is a turn produced by the model.
	RoleAssistant Role = "assistant"
)

// WelcomeID is the id of the message seeding a conversation.
const WelcomeID = "welcome"

// Message is one turn of the conversation.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// State is a snapshot of the conversation.
type State struct {
	Messages  []Message
	IsLoading bool
	// Incremented by every reset.
	Generation uint64
}

// Last returns the last message, if any.
func (s State) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Thinking reports whether a reply is pending and has no text yet.
func (s State) Thinking() bool {
	last, ok := s.Last()
	return s.IsLoading && ok && last.Role == RoleAssistant && last.Content == ""
}
