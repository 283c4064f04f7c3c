// Package llmtest provides scripted sessions for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/malonaz/amity/internal/llm"
)

// Reply scripts one streamed reply.
type Reply struct {
	// Fragments emitted in order.
	Fragments []string
	// Returned after the fragments. Nil ends the stream normally.
	Err error
	// If set, the producer waits for Hold to be closed before emitting Fragments[HoldAt].
	// HoldAt == len(Fragments) holds before the terminal Err/EOF.
	Hold   chan struct{}
	HoldAt int
	// If set, the producer panics with this value after the fragments.
	Panic any
}

// Session is a scripted llm.Session.
type Session struct {
	id string

	mu      sync.Mutex
	replies []Reply
	sent    []string
}

// NewSession returns a session answering each send with the next reply.
// Once replies run out, sends end immediately with no fragments.
func NewSession(id string, replies ...Reply) *Session {
	return &Session{id: id, replies: replies}
}

// ID implements llm.Session.
func (s *Session) ID() string { return s.id }

// Sent returns the texts sent so far.
func (s *Session) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// SendMessageStream implements llm.Session.
func (s *Session) SendMessageStream(ctx context.Context, text string) *llm.Stream {
	s.mu.Lock()
	s.sent = append(s.sent, text)
	var reply Reply
	if len(s.replies) > 0 {
		reply = s.replies[0]
		s.replies = s.replies[1:]
	}
	s.mu.Unlock()

	return llm.NewStream(ctx, s.id, func(ctx context.Context, emit func(string) error) error {
		for i := 0; i <= len(reply.Fragments); i++ {
			if reply.Hold != nil && i == reply.HoldAt {
				select {
				case <-reply.Hold:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if i == len(reply.Fragments) {
				break
			}
			if err := emit(reply.Fragments[i]); err != nil {
				return err
			}
		}
		if reply.Panic != nil {
			panic(reply.Panic)
		}
		return reply.Err
	})
}

// Factory is a scripted llm.SessionFactory. Each new session takes the next script.
type Factory struct {
	// Scripts for successive sessions.
	Scripts [][]Reply
	// If set, returned by every call instead of a session.
	Err error

	mu       sync.Mutex
	sessions []*Session
	configs  []llm.SessionConfig
}

// New implements llm.SessionFactory.
func (f *Factory) New(_ context.Context, config *llm.SessionConfig) (llm.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, *config)
	if f.Err != nil {
		return nil, f.Err
	}
	var script []Reply
	if len(f.Scripts) > 0 {
		script = f.Scripts[0]
		f.Scripts = f.Scripts[1:]
	}
	session := NewSession(fmt.Sprintf("session-%d", len(f.sessions)+1), script...)
	f.sessions = append(f.sessions, session)
	return session, nil
}

// Sessions created so far.
func (f *Factory) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Session(nil), f.sessions...)
}

// Configs passed to the factory so far.
func (f *Factory) Configs() []llm.SessionConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.SessionConfig(nil), f.configs...)
}
