package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.dalton.dog/bubbleup"

	"github.com/malonaz/amity/cli/chat/styles"
	"github.com/malonaz/amity/cli/chat/types"
	"github.com/malonaz/amity/cli/chat/viewer"
	"github.com/malonaz/amity/internal/conversation"
	"github.com/malonaz/amity/internal/debug"
	"github.com/malonaz/amity/internal/history"
	"github.com/malonaz/amity/internal/markdown"
)

var log = debug.GetLogger()

// Conversation is the core the UI drives.
type Conversation interface {
	Send(ctx context.Context, text string) error
	Reset(ctx context.Context) conversation.State
	Snapshot() conversation.State
}

// Model represents the Bubble Tea model for the chat session.
type Model struct {
	// Core dependencies
	ctx          context.Context
	conversation Conversation
	opts         types.ChatOptions

	// Last snapshot received from the conversation.
	state conversation.State
	// Set between submitting text and the send returning.
	sending bool

	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *markdown.Renderer
	alert    bubbleup.AlertModel
	// Full-screen reader, set while open.
	viewer *viewer.Model

	// UI state
	width           int
	height          int
	ready           bool
	quitting        bool
	confirmingReset bool

	// Copy to clipboard
	clipboardEnabled bool

	// Program reference for sending messages from goroutines
	program   *tea.Program
	programMu sync.Mutex

	// Input history
	history           *history.History
	historyNavigating bool
}

// New creates a new chat session model.
func New(ctx context.Context, c Conversation, opts types.ChatOptions) (*Model, error) {
	if c == nil {
		return nil, errors.New("conversation is nil")
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Focus()
	ta.CharLimit = 0
	ta.SetWidth(styles.DefaultTextareaWidth)
	ta.SetHeight(styles.MinTextareaHeight)
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	if opts.SendOnEnter {
		// Enter sends, so newlines move to alt+enter.
		ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	renderer, err := markdown.NewRenderer(styles.DefaultTextareaWidth)
	if err != nil {
		return nil, err
	}

	h, err := history.New(opts.HistoryFile)
	if err != nil {
		log.Warn("loading input history, continuing without it", "error", err)
		h, _ = history.New("")
	}

	return &Model{
		ctx:          ctx,
		conversation: c,
		opts:         opts,
		state:        c.Snapshot(),
		textarea:     ta,
		spinner:      sp,
		renderer:     renderer,
		alert:        *bubbleup.NewAlertModel(40, false, 2),
		history:      h,
	}, nil
}

// EnableClipboard turns on Alt+W. Call it once the clipboard was initialized.
func (m *Model) EnableClipboard() {
	m.clipboardEnabled = true
}

// SetProgram sets the tea.Program reference for async message sending.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

// getProgram safely gets the program reference.
func (m *Model) getProgram() *tea.Program {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	return m.program
}

// Observe forwards a conversation snapshot to the program.
// It must be called from outside the event loop, as the conversation does.
func (m *Model) Observe(state conversation.State) {
	if p := m.getProgram(); p != nil {
		p.Send(types.StateMsg{State: state})
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.alert.Init(),
	)
}

// busy reports whether input is disabled.
func (m *Model) busy() bool {
	return m.sending || m.state.IsLoading
}
