package session

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/malonaz/amity/cli/chat/types"
	"github.com/malonaz/amity/internal/conversation"
)

func (m *Model) sendMessage() tea.Cmd {
	userInput := strings.TrimSpace(m.textarea.Value())
	if userInput == "" || m.busy() {
		return nil
	}

	if err := m.history.Add(userInput); err != nil {
		log.Warn("saving input history", "error", err)
	}
	m.historyNavigating = false
	m.textarea.Reset()
	m.sending = true
	m.recalculateLayout()
	m.viewport.GotoBottom()

	ctx := m.ctx
	c := m.conversation
	return tea.Batch(
		func() tea.Msg {
			return types.SendDoneMsg{Err: c.Send(ctx, userInput)}
		},
		m.spinner.Tick,
	)
}

// resetConversation runs off the event loop: the conversation notifies the
// program synchronously while it resets.
func (m *Model) resetConversation() tea.Cmd {
	ctx := m.ctx
	c := m.conversation
	return func() tea.Msg {
		return types.ResetDoneMsg{State: c.Reset(ctx)}
	}
}

// lastReply returns the newest assistant message with content.
func (m *Model) lastReply() (conversation.Message, bool) {
	for i := len(m.state.Messages) - 1; i >= 0; i-- {
		msg := m.state.Messages[i]
		if msg.Role == conversation.RoleAssistant && msg.Content != "" {
			return msg, true
		}
	}
	return conversation.Message{}, false
}

func (m *Model) copyLastReply() tea.Cmd {
	if !m.clipboardEnabled {
		return m.alert.NewAlertCmd(bubbleup.WarnKey, "Clipboard unavailable")
	}
	msg, ok := m.lastReply()
	if !ok {
		return nil
	}
	clipboard.Write(clipboard.FmtText, []byte(msg.Content))
	return m.alert.NewAlertCmd(bubbleup.InfoKey, "Copied to clipboard!")
}
