package chat

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"github.com/malonaz/amity/internal/cli"
	"github.com/malonaz/amity/internal/conversation"
	"github.com/malonaz/amity/internal/persona"
)

const (
	clearCommand = "/clear"
	exitCommand  = "/exit"
)

// printer streams replies to the terminal by printing what each snapshot
// adds to the reply being built.
type printer struct {
	mu         sync.Mutex
	generation uint64
	replyID    string
	printed    string
}

func (p *printer) observe(state conversation.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state.Generation != p.generation {
		p.generation = state.Generation
		p.replyID = ""
		p.printed = ""
	}

	last, ok := state.Last()
	if !ok || last.Role != conversation.RoleAssistant || last.ID == conversation.WelcomeID {
		return
	}
	if last.ID != p.replyID {
		p.replyID = last.ID
		p.printed = ""
		cli.AIName(persona.Name)
	}
	if strings.HasPrefix(last.Content, p.printed) {
		cli.AIOutput(last.Content[len(p.printed):])
	} else {
		// The reply was replaced, which is what a failed stream does.
		cli.AIOutput("\n")
		cli.AIName(persona.Name)
		cli.AIOutput(last.Content)
	}
	p.printed = last.Content
}

// Conversation is what the line-mode loop drives.
type Conversation interface {
	Send(ctx context.Context, text string) error
	Reset(ctx context.Context) conversation.State
	Snapshot() conversation.State
}

// Prompter reads one input from the user.
type Prompter interface {
	Prompt() (string, error)
}

type plainLoop struct {
	conversation Conversation
	prompter     Prompter
	confirm      func(question string) bool
}

func (l *plainLoop) run(ctx context.Context, title string) error {
	cli.Title("%s", title)
	cli.Status(persona.Status)
	for _, msg := range l.conversation.Snapshot().Messages {
		cli.AIMessage(persona.Name, msg.Content)
	}
	cli.Separator()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		text, err := l.prompter.Prompt()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return errors.Wrap(err, "reading input")
		}
		text = strings.TrimSpace(text)
		switch text {
		case "":
			continue
		case exitCommand:
			return nil
		case clearCommand:
			if !l.confirm(persona.ConfirmReset) {
				continue
			}
			state := l.conversation.Reset(ctx)
			cli.Separator()
			if last, ok := state.Last(); ok {
				cli.AIMessage(persona.Name, last.Content)
			}
			continue
		}

		err = l.conversation.Send(ctx, text)
		if err != nil && !errors.Is(err, conversation.ErrEmptyInput) {
			log.Warn("send finished with error", "error", err)
		}
		if errors.Is(err, conversation.ErrBusy) {
			cli.Notice("Amity is still answering.")
			continue
		}
		cli.AIOutput("\n")
	}
}
