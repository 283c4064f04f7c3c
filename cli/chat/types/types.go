package types

import (
	"github.com/malonaz/amity/internal/conversation"
)

// ChatOptions holds the options for the chat session.
type ChatOptions struct {
	Model       string
	SendOnEnter bool
	// Empty keeps input history in memory only.
	HistoryFile string
}

// StateMsg carries a conversation snapshot taken after a mutation.
type StateMsg struct {
	State conversation.State
}

// SendDoneMsg is sent when a send cycle returns.
type SendDoneMsg struct {
	Err error
}

// ResetDoneMsg is sent once the conversation and the remote session were reset.
type ResetDoneMsg struct {
	State conversation.State
}
