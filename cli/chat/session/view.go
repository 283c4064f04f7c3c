package session

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/malonaz/amity/cli/chat/styles"
	"github.com/malonaz/amity/internal/conversation"
	"github.com/malonaz/amity/internal/persona"
)

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}
	if m.viewer != nil {
		return m.alert.Render(m.viewer.View())
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.confirmingReset:
		b.WriteString(m.renderConfirmDialog())
	case m.busy():
		b.WriteString(styles.DisabledTextAreaStyle.Render(m.textarea.View()))
	default:
		b.WriteString(styles.TextAreaStyle.Render(m.textarea.View()))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return m.alert.Render(b.String())
}

func (m *Model) renderHeader() string {
	left := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.LogoStyle.Render("A"),
		" ",
		styles.TitleStyle.Render(persona.Title),
		"  ",
		styles.OnlineDotStyle.Render("●"),
		" ",
		styles.StatusStyle.Render(persona.Status),
	)
	right := styles.ClearButtonStyle.Render(persona.ClearLabel + " (ctrl+l)")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return styles.HeaderStyle.Width(m.width).Render(line)
}

func (m *Model) renderHelp() string {
	send := "ctrl+j"
	if m.opts.SendOnEnter {
		send = "enter"
	}
	help := fmt.Sprintf("%s send • alt+p/n history • alt+w copy reply • alt+v read • ctrl+l clear • ctrl+c quit", send)
	if m.confirmingReset {
		help = "y confirm • n/esc cancel"
	}
	return styles.HelpStyle.Width(m.width).Render(help)
}

func (m *Model) renderConfirmDialog() string {
	var b strings.Builder
	b.WriteString(styles.ConfirmTitleStyle.Render(persona.ConfirmReset))
	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press Y to confirm, N or Esc to cancel"))
	return styles.ConfirmBoxStyle.Render(b.String())
}

func (m *Model) renderMessages() string {
	width := m.viewport.Width
	var blocks []string
	for i, msg := range m.state.Messages {
		last := i == len(m.state.Messages)-1
		if last && m.state.Thinking() {
			blocks = append(blocks, m.renderThinking())
			continue
		}
		streaming := last && m.state.IsLoading && msg.Role == conversation.RoleAssistant
		blocks = append(blocks, m.renderMessage(msg, !streaming, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg conversation.Message, finalized bool, width int) string {
	timestamp := styles.TimestampStyle.Render(msg.Timestamp.Format("15:04"))

	if msg.Role == conversation.RoleUser {
		// User bubbles wrap at the same width as rendered replies.
		contentWidth := min(lipgloss.Width(msg.Content), m.renderer.Width())
		content := lipgloss.NewStyle().Width(contentWidth).Render(msg.Content)
		bubble := styles.UserBubbleStyle.Render(content)
		row := lipgloss.JoinHorizontal(lipgloss.Top, bubble, " ", styles.UserAvatarStyle.Render("U"))
		block := lipgloss.JoinVertical(lipgloss.Right, row, timestamp)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	content := m.renderer.Render(msg.ID, msg.Content, finalized)
	bubble := styles.AmityBubbleStyle.Render(content)
	row := lipgloss.JoinHorizontal(lipgloss.Top, styles.AmityAvatarStyle.Render("A"), " ", bubble)
	return lipgloss.JoinVertical(lipgloss.Left, row, timestamp)
}

func (m *Model) renderThinking() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		styles.AmityAvatarStyle.Render("A"),
		" ",
		m.spinner.View(),
		styles.ThinkingStyle.Render(persona.Thinking),
	)
}
