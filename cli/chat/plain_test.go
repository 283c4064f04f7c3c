package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/amity/internal/cli"
	"github.com/malonaz/amity/internal/configuration"
	"github.com/malonaz/amity/internal/conversation"
	"github.com/malonaz/amity/internal/llm"
	"github.com/malonaz/amity/internal/llm/llmtest"
	"github.com/malonaz/amity/internal/persona"
)

type scriptedPrompter struct {
	inputs []string
}

func (p *scriptedPrompter) Prompt() (string, error) {
	if len(p.inputs) == 0 {
		return "", io.EOF
	}
	input := p.inputs[0]
	p.inputs = p.inputs[1:]
	return input, nil
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previousOutput, previousNoColor := cli.Output, color.NoColor
	cli.Output = &buf
	color.NoColor = true
	t.Cleanup(func() {
		cli.Output = previousOutput
		color.NoColor = previousNoColor
	})
	return &buf
}

func newPlainLoop(t *testing.T, factory *llmtest.Factory, confirm bool, inputs ...string) *plainLoop {
	t.Helper()
	client, err := llm.NewClient(context.Background(), factory.New, &llm.SessionConfig{Model: "test-model"})
	require.NoError(t, err)
	p := &printer{}
	orchestrator, err := conversation.NewOrchestrator(client, conversation.WithObserver(p.observe))
	require.NoError(t, err)
	return &plainLoop{
		conversation: orchestrator,
		prompter:     &scriptedPrompter{inputs: inputs},
		confirm:      func(string) bool { return confirm },
	}
}

func TestPlainStreamsReply(t *testing.T) {
	out := captureOutput(t)
	factory := &llmtest.Factory{Scripts: [][]llmtest.Reply{{
		{Fragments: []string{"Hi", " there", "!"}},
	}}}
	loop := newPlainLoop(t, factory, false, "hello", "/exit", "never read")

	require.NoError(t, loop.run(context.Background(), persona.Title))

	text := out.String()
	assert.Contains(t, text, persona.Title)
	assert.Contains(t, text, "Hi there! I'm Amity.")
	assert.Contains(t, text, persona.Name+": Hi there!\n")
	assert.Equal(t, []string{"hello"}, factory.Sessions()[0].Sent())
}

func TestPlainShowsFallbackOnFailure(t *testing.T) {
	out := captureOutput(t)
	factory := &llmtest.Factory{Scripts: [][]llmtest.Reply{{
		{Fragments: []string{"Hel"}, Err: errors.New("boom")},
	}}}
	loop := newPlainLoop(t, factory, false, "hello")

	require.NoError(t, loop.run(context.Background(), persona.Title))

	text := out.String()
	assert.Contains(t, text, persona.Name+": Hel\n")
	assert.Contains(t, text, persona.Name+": "+persona.Fallback)
}

func TestPlainClearNeedsConfirmation(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		out := captureOutput(t)
		factory := &llmtest.Factory{}
		loop := newPlainLoop(t, factory, false, "/clear")

		require.NoError(t, loop.run(context.Background(), persona.Title))
		assert.NotContains(t, out.String(), persona.ResetWelcome)
		assert.Len(t, factory.Sessions(), 1)
	})

	t.Run("confirmed", func(t *testing.T) {
		out := captureOutput(t)
		factory := &llmtest.Factory{Scripts: [][]llmtest.Reply{
			nil,
			{{Fragments: []string{"new session"}}},
		}}
		loop := newPlainLoop(t, factory, true, "/clear", "hello again")

		require.NoError(t, loop.run(context.Background(), persona.Title))
		text := out.String()
		assert.Contains(t, text, persona.ResetWelcome)
		assert.Contains(t, text, persona.Name+": new session\n")
		sessions := factory.Sessions()
		require.Len(t, sessions, 2)
		assert.Empty(t, sessions[0].Sent())
		assert.Equal(t, []string{"hello again"}, sessions[1].Sent())
	})
}

func TestPlainSkipsBlankInput(t *testing.T) {
	captureOutput(t)
	factory := &llmtest.Factory{}
	loop := newPlainLoop(t, factory, false, "   ", "")

	require.NoError(t, loop.run(context.Background(), persona.Title))
	assert.Empty(t, factory.Sessions()[0].Sent())
}

func TestPlainStopsOnCancelledContext(t *testing.T) {
	captureOutput(t)
	factory := &llmtest.Factory{}
	loop := newPlainLoop(t, factory, false, "hello")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, loop.run(ctx, persona.Title))
	assert.Empty(t, factory.Sessions()[0].Sent())
}

func TestNewSessionConfig(t *testing.T) {
	config := &configuration.Config{
		Chat:    &configuration.ChatConfig{Model: "gemini-3-flash-preview", Temperature: 0.8, TopP: 0.95, TopK: 40},
		Persona: &configuration.PersonaConfig{SystemInstructionTemplate: "You are {{ .Name }}."},
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	sessionConfig, err := newSessionConfig(config, "other-model", 1.2, now)
	require.NoError(t, err)
	assert.Equal(t, "other-model", sessionConfig.Model)
	assert.Equal(t, "You are Amity.", sessionConfig.SystemInstruction)
	assert.InDelta(t, 1.2, sessionConfig.Temperature, 1e-6)
	assert.InDelta(t, 0.95, sessionConfig.TopP, 1e-6)
	assert.InDelta(t, 40, sessionConfig.TopK, 1e-6)

	_, err = newSessionConfig(config, "m", 2.5, now)
	require.Error(t, err)

	config.Persona.SystemInstructionTemplate = "{{ .Missing"
	_, err = newSessionConfig(config, "m", 1, now)
	require.Error(t, err)
}
