package chat

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.design/x/clipboard"

	"github.com/malonaz/amity/cli/chat/session"
	"github.com/malonaz/amity/cli/chat/types"
	"github.com/malonaz/amity/internal/cli"
	"github.com/malonaz/amity/internal/configuration"
	"github.com/malonaz/amity/internal/conversation"
	"github.com/malonaz/amity/internal/debug"
	"github.com/malonaz/amity/internal/llm"
	"github.com/malonaz/amity/internal/persona"
)

var log = debug.GetLogger()

// NewCmd instantiates and returns the chat command.
func NewCmd(config *configuration.Config) *cobra.Command {
	var opts struct {
		Model       string
		Temperature float32
		Plain       bool
		SendOnEnter bool
	}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Amity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Set defaults
			if opts.Model == "" {
				opts.Model = config.Chat.Model
			}
			if !cmd.Flags().Changed("temperature") {
				opts.Temperature = config.Chat.Temperature
			}
			if !cmd.Flags().Changed("send-on-enter") {
				opts.SendOnEnter = config.UI.SendOnEnter
			}

			sessionConfig, err := newSessionConfig(config, opts.Model, opts.Temperature, time.Now())
			if err != nil {
				return err
			}
			client, err := llm.NewClient(ctx, llm.NewGeminiFactory(ctx, config.Env.APIKey), sessionConfig)
			if err != nil {
				return err
			}
			log.Info("starting chat", "model", client.Config().Model, "plain", opts.Plain, "session", client.SessionID())

			if opts.Plain {
				return runPlain(ctx, client, config.UI.HistoryFile)
			}

			chatOpts := types.ChatOptions{
				Model:       opts.Model,
				SendOnEnter: opts.SendOnEnter,
				HistoryFile: config.UI.HistoryFile,
			}
			return runTUI(ctx, client, chatOpts)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "Gemini model to chat with (defaults to the configured model)")
	cmd.Flags().Float32Var(&opts.Temperature, "temperature", 0, "Temperature (0.0-2.0)")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Use the line-mode interface instead of the full-screen one")
	cmd.Flags().BoolVar(&opts.SendOnEnter, "send-on-enter", false, "Send with Enter and insert newlines with Alt+Enter")

	return cmd
}

// newSessionConfig builds the remote session settings, rendering the persona template.
func newSessionConfig(config *configuration.Config, model string, temperature float32, now time.Time) (*llm.SessionConfig, error) {
	if temperature < 0 || temperature > 2 {
		return nil, errors.Errorf("temperature %v out of range [0, 2]", temperature)
	}
	systemInstruction, err := persona.Render(config.Persona.SystemInstructionTemplate, persona.NewTemplateData(now))
	if err != nil {
		return nil, errors.Wrap(err, "rendering persona")
	}
	return &llm.SessionConfig{
		Model:             model,
		SystemInstruction: systemInstruction,
		Temperature:       temperature,
		TopP:              config.Chat.TopP,
		TopK:              config.Chat.TopK,
	}, nil
}

func runTUI(ctx context.Context, client *llm.Client, chatOpts types.ChatOptions) error {
	// The orchestrator notifies the model, which is created after it.
	var m *session.Model
	orchestrator, err := conversation.NewOrchestrator(client,
		conversation.WithObserver(func(state conversation.State) {
			if m != nil {
				m.Observe(state)
			}
		}),
		conversation.WithPhaseObserver(func(phase conversation.Phase) {
			log.Debug("phase changed", "phase", phase.String())
		}),
	)
	if err != nil {
		return err
	}

	m, err = session.New(ctx, orchestrator, chatOpts)
	if err != nil {
		return err
	}
	if err := clipboard.Init(); err != nil {
		log.Warn("clipboard unavailable", "error", err)
	} else {
		m.EnableClipboard()
	}

	// Create the Bubble Tea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)

	// Set the program reference for async message sending
	m.SetProgram(p)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running chat: %w", err)
	}
	return nil
}

func runPlain(ctx context.Context, client *llm.Client, historyFile string) error {
	p := &printer{}
	orchestrator, err := conversation.NewOrchestrator(client, conversation.WithObserver(p.observe))
	if err != nil {
		return err
	}
	// Readline keeps its own history format.
	if historyFile != "" {
		historyFile += "_plain"
	}
	prompter, err := cli.NewPrompter(historyFile)
	if err != nil {
		return errors.Wrap(err, "initializing prompt")
	}
	defer prompter.Close()

	loop := &plainLoop{
		conversation: orchestrator,
		prompter:     prompter,
		confirm:      cli.QueryUser,
	}
	return loop.run(ctx, persona.Title)
}
