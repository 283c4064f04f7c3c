package llm

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrEmptyMessage is returned when asked to send blank text.
var ErrEmptyMessage = errors.New("message is empty")

// SessionConfig is fixed at construction and reused verbatim on every reset.
type SessionConfig struct {
	Model             string
	SystemInstruction string
	Temperature       float32
	TopP              float32
	TopK              float32
}

// Session is one remote conversational context.
// The remote side accumulates the turns, so only the new text is sent.
type Session interface {
	// ID identifies this session. A reset always yields a new ID.
	ID() string
	// SendMessageStream sends text and returns the reply as a stream of fragments.
	SendMessageStream(ctx context.Context, text string) *Stream
}

// SessionFactory creates sessions.
type SessionFactory func(ctx context.Context, config *SessionConfig) (Session, error)

// StreamError is returned when the remote call fails before or during fragment production.
type StreamError struct {
	SessionID string
	Err       error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream (session %s): %v", e.SessionID, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// IsStreamError reports whether err is or wraps a *StreamError.
func IsStreamError(err error) bool {
	var streamErr *StreamError
	return errors.As(err, &streamErr)
}
