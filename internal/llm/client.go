package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/malonaz/amity/internal/debug"
)

var log = debug.GetLogger()

// Client owns the current remote session and mediates all communication with it.
// Construct it explicitly and inject it where it is needed.
type Client struct {
	factory SessionFactory
	config  SessionConfig

	mu      sync.RWMutex
	session Session
}

// NewClient creates a client and its first session.
func NewClient(ctx context.Context, factory SessionFactory, config *SessionConfig) (*Client, error) {
	if factory == nil {
		return nil, errors.New("session factory is nil")
	}
	if config == nil {
		return nil, errors.New("session config is nil")
	}
	c := &Client{
		factory: factory,
		config:  *config,
	}
	c.session = c.newSession(ctx)
	return c, nil
}

// newSession never fails: a factory error yields a session whose every send
// fails with that error, so the problem surfaces at call time.
func (c *Client) newSession(ctx context.Context) Session {
	config := c.config
	session, err := c.factory(ctx, &config)
	if err != nil {
		session = &failedSession{id: uuid.NewString(), err: err}
		log.Error("creating session", "session_id", session.ID(), "error", err)
		return session
	}
	log.Info("created session", "session_id", session.ID(), "model", config.Model)
	return session
}

func (c *Client) current() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SendMessageStream sends text on the current session.
// The text must be trimmed and non-empty.
func (c *Client) SendMessageStream(ctx context.Context, text string) *Stream {
	session := c.current()
	if strings.TrimSpace(text) == "" {
		return NewErrorStream(ctx, session.ID(), ErrEmptyMessage)
	}
	return session.SendMessageStream(ctx, text)
}

// ResetChat discards the current session and creates a new one with the same config.
func (c *Client) ResetChat(ctx context.Context) {
	session := c.newSession(ctx)
	c.mu.Lock()
	previous := c.session
	c.session = session
	c.mu.Unlock()
	log.Info("reset session", "previous_session_id", previous.ID(), "session_id", session.ID())
}

// SessionID returns the identity of the current session.
func (c *Client) SessionID() string {
	return c.current().ID()
}

// Config returns the session config.
func (c *Client) Config() SessionConfig {
	return c.config
}

type failedSession struct {
	id  string
	err error
}

func (s *failedSession) ID() string { return s.id }

func (s *failedSession) SendMessageStream(ctx context.Context, _ string) *Stream {
	return NewErrorStream(ctx, s.id, s.err)
}
