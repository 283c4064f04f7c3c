package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/malonaz/amity/cli/chat/styles"
	"github.com/malonaz/amity/internal/conversation"
	"github.com/malonaz/amity/internal/markdown"
	"github.com/malonaz/amity/internal/persona"
)

var (
	userHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(styles.UserColor)
	amityHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.AmityColor)
	dividerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// ExitMsg is sent when the reader is closed.
type ExitMsg struct{}

// Model is a full-screen reader showing one message at a time.
type Model struct {
	messages     []conversation.Message
	currentIndex int
	viewport     viewport.Model
	renderer     *markdown.Renderer
	width        int
	height       int
}

// New creates a reader starting at the last message.
func New(messages []conversation.Message, width, height int) (*Model, error) {
	renderer, err := markdown.NewRenderer(max(width-2, 1))
	if err != nil {
		return nil, err
	}
	m := &Model{
		messages:     messages,
		currentIndex: max(len(messages)-1, 0),
		renderer:     renderer,
		width:        width,
		height:       height,
	}
	// Reserve 2 lines for the footer.
	m.viewport = viewport.New(width, max(height-2, 1))
	m.updateContent()
	return m, nil
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "alt+v":
			return m, func() tea.Msg { return ExitMsg{} }

		case "j", "left":
			if m.currentIndex > 0 {
				m.currentIndex--
				m.updateContent()
				m.viewport.GotoTop()
			}
			return m, nil

		case "k", "right":
			if m.currentIndex < len(m.messages)-1 {
				m.currentIndex++
				m.updateContent()
				m.viewport.GotoTop()
			}
			return m, nil

		case "g":
			m.viewport.GotoTop()
			return m, nil

		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.renderer.SetWidth(max(msg.Width-2, 1))
		m.updateContent()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the reader.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")
	footer := fmt.Sprintf(" %d/%d │ j/← older │ k/→ newer │ g/G top/bottom │ q exit",
		m.currentIndex+1, len(m.messages))
	b.WriteString(styles.HelpStyle.Render(footer))
	return b.String()
}

// SetMessages replaces the messages, keeping the position when it still exists.
func (m *Model) SetMessages(messages []conversation.Message) {
	m.messages = messages
	m.currentIndex = max(min(m.currentIndex, len(messages)-1), 0)
	m.updateContent()
}

// Current returns the message being shown.
func (m *Model) Current() (conversation.Message, bool) {
	if len(m.messages) == 0 {
		return conversation.Message{}, false
	}
	return m.messages[m.currentIndex], true
}

func (m *Model) updateContent() {
	msg, ok := m.Current()
	if !ok {
		m.viewport.SetContent("No messages")
		return
	}

	var b strings.Builder
	switch msg.Role {
	case conversation.RoleUser:
		b.WriteString(userHeaderStyle.Render("You"))
	default:
		b.WriteString(amityHeaderStyle.Render(persona.Name))
	}
	b.WriteString(styles.TimestampStyle.Render(" " + msg.Timestamp.Format("15:04")))
	b.WriteString("\n\n")
	b.WriteString(m.renderer.Render(msg.ID, msg.Content, true))
	m.viewport.SetContent(b.String())
}
