package session

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/amity/cli/chat/types"
	"github.com/malonaz/amity/cli/chat/viewer"
	"github.com/malonaz/amity/internal/conversation"
	"github.com/malonaz/amity/internal/persona"
)

type fakeConversation struct {
	mu     sync.Mutex
	sent   []string
	resets int
	state  conversation.State
}

func newFakeConversation() *fakeConversation {
	return &fakeConversation{state: conversation.State{Messages: []conversation.Message{{
		ID: conversation.WelcomeID, Role: conversation.RoleAssistant, Content: persona.Welcome, Timestamp: time.Unix(0, 0),
	}}}}
}

func (f *fakeConversation) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeConversation) Reset(context.Context) conversation.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.state = conversation.State{
		Messages:   []conversation.Message{{ID: conversation.WelcomeID, Role: conversation.RoleAssistant, Content: persona.ResetWelcome}},
		Generation: uint64(f.resets),
	}
	return f.state
}

func (f *fakeConversation) Snapshot() conversation.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// collect runs cmd and every command batched under it, returning the messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func newTestModel(t *testing.T, opts types.ChatOptions) (*Model, *fakeConversation) {
	t.Helper()
	c := newFakeConversation()
	m, err := New(context.Background(), c, opts)
	require.NoError(t, err)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, c
}

func view(m *Model) string { return ansi.Strip(m.View()) }

func TestNewRequiresConversation(t *testing.T) {
	_, err := New(context.Background(), nil, types.ChatOptions{})
	require.Error(t, err)
}

func TestViewShowsHeaderAndWelcome(t *testing.T) {
	m, _ := newTestModel(t, types.ChatOptions{})
	out := view(m)
	assert.Contains(t, out, persona.Title)
	assert.Contains(t, out, persona.Status)
	assert.Contains(t, out, persona.ClearLabel)
	assert.Contains(t, out, "Hi there!")
}

func TestSendSubmitsTrimmedInput(t *testing.T) {
	m, c := newTestModel(t, types.ChatOptions{})
	m.textarea.SetValue("  hello  ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	require.True(t, m.sending)
	assert.Empty(t, m.textarea.Value())
	recalled, ok := m.history.Previous("")
	require.True(t, ok)
	assert.Equal(t, "hello", recalled)
	m.history.Reset()

	var done bool
	for _, msg := range collect(cmd) {
		if d, ok := msg.(types.SendDoneMsg); ok {
			require.NoError(t, d.Err)
			done = true
			m.Update(d)
		}
	}
	require.True(t, done)
	assert.Equal(t, []string{"hello"}, c.sent)
	assert.False(t, m.sending)
}

func TestSendIgnoredWhileLoading(t *testing.T) {
	m, c := newTestModel(t, types.ChatOptions{})
	state := c.Snapshot()
	state.IsLoading = true
	m.Update(types.StateMsg{State: state})

	m.textarea.SetValue("hello")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	for _, msg := range collect(cmd) {
		_, isDone := msg.(types.SendDoneMsg)
		assert.False(t, isDone)
	}
	assert.Empty(t, c.sent)
}

func TestEnterSendsWhenConfigured(t *testing.T) {
	m, _ := newTestModel(t, types.ChatOptions{SendOnEnter: true})
	m.textarea.SetValue("hi")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.sending)
}

func TestThinkingIndicator(t *testing.T) {
	m, c := newTestModel(t, types.ChatOptions{})
	state := c.Snapshot()
	state.IsLoading = true
	state.Messages = append(state.Messages,
		conversation.Message{ID: "u", Role: conversation.RoleUser, Content: "hello"},
		conversation.Message{ID: "a", Role: conversation.RoleAssistant},
	)
	m.Update(types.StateMsg{State: state})
	assert.Contains(t, view(m), persona.Thinking)

	state.Messages[2].Content = "Hi there!"
	m.Update(types.StateMsg{State: state})
	out := view(m)
	assert.NotContains(t, out, persona.Thinking)
	assert.Contains(t, out, "Hi there!")
}

func TestClearHistoryAsksForConfirmation(t *testing.T) {
	m, c := newTestModel(t, types.ChatOptions{})

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.True(t, m.confirmingReset)
	assert.Contains(t, view(m), persona.ConfirmReset)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.confirmingReset)
	assert.Zero(t, c.resets)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	assert.False(t, m.confirmingReset)

	var reset bool
	for _, msg := range collect(cmd) {
		if r, ok := msg.(types.ResetDoneMsg); ok {
			reset = true
			m.Update(r)
		}
	}
	require.True(t, reset)
	assert.Equal(t, 1, c.resets)
	require.Len(t, m.state.Messages, 1)
	assert.Contains(t, view(m), "Fresh start!")
}

func TestHistoryRecall(t *testing.T) {
	m, _ := newTestModel(t, types.ChatOptions{})
	require.NoError(t, m.history.Add("earlier question"))

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}, Alt: true})
	assert.Equal(t, "earlier question", m.textarea.Value())
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}, Alt: true})
	assert.Empty(t, m.textarea.Value())
}

func TestLastReply(t *testing.T) {
	m, c := newTestModel(t, types.ChatOptions{})
	state := c.Snapshot()
	state.Messages = append(state.Messages,
		conversation.Message{ID: "u", Role: conversation.RoleUser, Content: "hello"},
		conversation.Message{ID: "a", Role: conversation.RoleAssistant, Content: "reply"},
		conversation.Message{ID: "u2", Role: conversation.RoleUser, Content: "again"},
		conversation.Message{ID: "a2", Role: conversation.RoleAssistant},
	)
	m.Update(types.StateMsg{State: state})

	msg, ok := m.lastReply()
	require.True(t, ok)
	assert.Equal(t, "reply", msg.Content)
}

func TestCtrlCQuits(t *testing.T) {
	m, _ := newTestModel(t, types.ChatOptions{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestReaderOpensAndCloses(t *testing.T) {
	m, _ := newTestModel(t, types.ChatOptions{})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}, Alt: true})
	require.NotNil(t, m.viewer)
	assert.Contains(t, view(m), "1/1")

	// Keys go to the reader, not the input.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.Empty(t, m.textarea.Value())
	var exited bool
	for _, msg := range collect(cmd) {
		if _, ok := msg.(viewer.ExitMsg); ok {
			exited = true
			m.Update(msg)
		}
	}
	require.True(t, exited)
	assert.Nil(t, m.viewer)
	assert.Contains(t, view(m), persona.Title)
}

func TestStaleSnapshotAfterResetIsIgnored(t *testing.T) {
	m, c := newTestModel(t, types.ChatOptions{})
	stale := c.Snapshot()
	stale.IsLoading = true
	stale.Messages = append(stale.Messages,
		conversation.Message{ID: "u", Role: conversation.RoleUser, Content: "hello"},
		conversation.Message{ID: "a", Role: conversation.RoleAssistant, Content: "par"},
	)
	m.Update(types.StateMsg{State: stale})
	require.True(t, m.busy())

	m.Update(types.ResetDoneMsg{State: c.Reset(context.Background())})
	m.Update(types.StateMsg{State: stale})

	assert.Equal(t, uint64(1), m.state.Generation)
	require.Len(t, m.state.Messages, 1)
	assert.False(t, m.busy())
	out := view(m)
	assert.Contains(t, out, "Fresh start!")
	assert.NotContains(t, out, "par")
}
