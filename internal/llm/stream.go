package llm

import (
	"context"
	"io"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Producer pushes fragments through emit in arrival order.
// emit blocks until the consumer has taken the fragment, or the stream is closed.
type Producer func(ctx context.Context, emit func(fragment string) error) error

// Stream is a single pass, blocking iterator over the fragments of one reply.
// It is fed by one background goroutine through an unbuffered channel, so at
// most one fragment is in flight and it is received before the next is pulled.
type Stream struct {
	sessionID string
	fragments chan string
	cancel    context.CancelFunc
	wg        *conc.WaitGroup
	closeOnce sync.Once

	// Written by the producer before fragments is closed.
	err error
}

// NewStream starts produce in the background and returns the consuming end.
func NewStream(ctx context.Context, sessionID string, produce Producer) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		sessionID: sessionID,
		fragments: make(chan string),
		cancel:    cancel,
		wg:        conc.NewWaitGroup(),
	}
	s.wg.Go(func() {
		defer close(s.fragments)
		emit := func(fragment string) error {
			select {
			case s.fragments <- fragment:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var err error
		var catcher panics.Catcher
		catcher.Try(func() { err = produce(ctx, emit) })
		if recovered := catcher.Recovered(); recovered != nil {
			err = recovered.AsError()
		}
		if err != nil {
			s.err = &StreamError{SessionID: sessionID, Err: err}
		}
	})
	return s
}

// NewErrorStream returns a stream that fails immediately with err.
func NewErrorStream(ctx context.Context, sessionID string, err error) *Stream {
	return NewStream(ctx, sessionID, func(context.Context, func(string) error) error { return err })
}

// Recv blocks for the next fragment. It returns io.EOF once the reply is
// complete and a *StreamError if the remote call failed.
func (s *Stream) Recv() (string, error) {
	fragment, ok := <-s.fragments
	if ok {
		return fragment, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

// SessionID of the session that produced this stream.
func (s *Stream) SessionID() string { return s.sessionID }

// Close stops the producer and waits for it to exit. Safe to call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}
