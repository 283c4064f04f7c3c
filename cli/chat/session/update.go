package session

import (
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.dalton.dog/bubbleup"

	"github.com/malonaz/amity/cli/chat/types"
	"github.com/malonaz/amity/cli/chat/viewer"
	"github.com/malonaz/amity/internal/conversation"
	"github.com/malonaz/amity/internal/persona"
)

// KeyMapSession holds the session level bindings.
type KeyMapSession struct {
	ClearHistory key.Binding
	Copy         key.Binding
	OpenReader   key.Binding
	Send         key.Binding
}

// KeyMapConfirm holds the bindings of the reset confirmation.
type KeyMapConfirm struct {
	Confirm key.Binding
	Cancel  key.Binding
}

type InputKeyMap struct {
	PreviousHistoryEntry key.Binding
	NextHistoryEntry     key.Binding
}

var keyMapSession = KeyMapSession{
	ClearHistory: key.NewBinding(
		key.WithKeys("ctrl+l"),
	),
	Copy: key.NewBinding(
		key.WithKeys("alt+w"),
	),
	OpenReader: key.NewBinding(
		key.WithKeys("alt+v"),
	),
	// Enter is added when send on enter is configured.
	Send: key.NewBinding(
		key.WithKeys("ctrl+j"),
	),
}

var keyMapConfirm = KeyMapConfirm{
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y", "enter"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
	),
}

var inputKeyMap = InputKeyMap{
	PreviousHistoryEntry: key.NewBinding(
		key.WithKeys("alt+p"),
	),
	NextHistoryEntry: key.NewBinding(
		key.WithKeys("alt+n"),
	),
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert model with every message
	outAlert, alertCmd := m.alert.Update(msg)
	m.alert = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	defer func() {
		switch msg.(type) {
		case spinner.TickMsg, cursor.BlinkMsg, tea.MouseMsg, types.StateMsg:
		default:
			log.Debug("update completed", "msg_type", fmt.Sprintf("%T", msg), "loading", m.state.IsLoading)
		}
	}()

	if m.viewer != nil {
		if cmd, handled := m.updateViewer(msg); handled {
			return m, tea.Batch(append(cmds, cmd)...)
		}
	}

	switch msg := msg.(type) {
	case tea.FocusMsg:
		m.textarea.Focus()
		cmds = append(cmds, textarea.Blink)
		return m, tea.Batch(cmds...)

	case tea.BlurMsg:
		m.textarea.Blur()
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

		if m.confirmingReset {
			switch {
			case key.Matches(msg, keyMapConfirm.Confirm):
				m.confirmingReset = false
				m.recalculateLayout()
				cmds = append(cmds, m.resetConversation())
			case key.Matches(msg, keyMapConfirm.Cancel):
				m.confirmingReset = false
				m.recalculateLayout()
			}
			return m, tea.Batch(cmds...)
		}

		switch {
		case key.Matches(msg, keyMapSession.ClearHistory):
			m.confirmingReset = true
			m.recalculateLayout()
			return m, tea.Batch(cmds...)
		case key.Matches(msg, keyMapSession.OpenReader):
			cmds = append(cmds, m.openViewer())
			return m, tea.Batch(cmds...)
		case key.Matches(msg, keyMapSession.Copy):
			cmds = append(cmds, m.copyLastReply())
			return m, tea.Batch(cmds...)
		case key.Matches(msg, inputKeyMap.PreviousHistoryEntry):
			if !m.busy() {
				if entry, ok := m.history.Previous(m.textarea.Value()); ok {
					m.textarea.SetValue(entry)
					m.historyNavigating = true
					m.adjustTextareaHeight()
				}
			}
			return m, tea.Batch(cmds...)
		case key.Matches(msg, inputKeyMap.NextHistoryEntry):
			if !m.busy() {
				if entry, ok := m.history.Next(); ok {
					m.textarea.SetValue(entry)
					m.historyNavigating = true
					m.adjustTextareaHeight()
				}
			}
			return m, tea.Batch(cmds...)
		}

		if m.isSendKey(msg) {
			cmds = append(cmds, m.sendMessage())
			return m, tea.Batch(cmds...)
		}

		if m.historyNavigating {
			switch msg.Type {
			case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete:
				m.history.Reset()
				m.historyNavigating = false
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()
		m.viewport.GotoBottom()
		return m, tea.Batch(cmds...)

	case types.StateMsg:
		if msg.State.Generation < m.state.Generation {
			// Posted before a reset that was already applied.
			log.Debug("dropping stale snapshot", "generation", msg.State.Generation, "current", m.state.Generation)
			return m, tea.Batch(cmds...)
		}
		m.applyState(msg.State)
		if m.viewer != nil {
			m.viewer.SetMessages(m.state.Messages)
		}
		if m.state.IsLoading {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case types.SendDoneMsg:
		m.sending = false
		if msg.Err != nil && !errors.Is(msg.Err, conversation.ErrEmptyInput) {
			// The reply already shows the fallback text.
			log.Warn("send finished with error", "error", msg.Err)
		}
		m.applyState(m.conversation.Snapshot())
		m.textarea.Focus()
		return m, tea.Batch(append(cmds, textarea.Blink)...)

	case types.ResetDoneMsg:
		m.sending = false
		m.renderer.Forget()
		m.applyState(msg.State)
		m.viewport.GotoBottom()
		cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.InfoKey, persona.ResetWelcome))
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.refreshViewport()
		}
		return m, tea.Batch(cmds...)
	}

	if !m.busy() && !m.confirmingReset {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.adjustTextareaHeight()
	}

	// Let the viewport scroll, but keep printable keys for the textarea.
	if key, ok := msg.(tea.KeyMsg); !ok || key.Type != tea.KeyRunes || m.busy() {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) isSendKey(msg tea.KeyMsg) bool {
	if key.Matches(msg, keyMapSession.Send) {
		return true
	}
	return m.opts.SendOnEnter && msg.Type == tea.KeyEnter && !msg.Alt
}

// applyState stores the snapshot and re-renders, following the bottom if it was there.
func (m *Model) applyState(state conversation.State) {
	wasLoading := m.busy()
	m.state = state
	if wasLoading != m.busy() {
		m.recalculateLayout()
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if wasAtBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) openViewer() tea.Cmd {
	v, err := viewer.New(m.state.Messages, m.width, m.height)
	if err != nil {
		log.Error("opening reader", "error", err)
		return m.alert.NewAlertCmd(bubbleup.ErrorKey, "Could not open the reader")
	}
	m.viewer = v
	return nil
}

// updateViewer routes input to the open reader. Everything else falls through.
func (m *Model) updateViewer(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case viewer.ExitMsg:
		m.viewer = nil
		m.refreshViewport()
		return nil, true
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return nil, false
		}
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return cmd, true
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return cmd, true
	case tea.WindowSizeMsg:
		m.viewer, _ = m.viewer.Update(msg)
	}
	return nil, false
}
