package llm

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s *Stream) ([]string, error) {
	t.Helper()
	var fragments []string
	for {
		fragment, err := s.Recv()
		if err != nil {
			return fragments, err
		}
		fragments = append(fragments, fragment)
	}
}

func TestStreamInOrderThenEOF(t *testing.T) {
	s := NewStream(context.Background(), "s1", func(ctx context.Context, emit func(string) error) error {
		for _, f := range []string{"a", "b", "c"} {
			if err := emit(f); err != nil {
				return err
			}
		}
		return nil
	})
	defer s.Close()

	fragments, err := drain(t, s)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"a", "b", "c"}, fragments)

	// Stays at EOF.
	_, err = s.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestStreamErrorKeepsEarlierFragments(t *testing.T) {
	boom := errors.New("boom")
	s := NewStream(context.Background(), "s1", func(ctx context.Context, emit func(string) error) error {
		if err := emit("par"); err != nil {
			return err
		}
		return boom
	})
	defer s.Close()

	fragments, err := drain(t, s)
	assert.Equal(t, []string{"par"}, fragments)
	require.True(t, IsStreamError(err))
	assert.ErrorIs(t, err, boom)

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "s1", streamErr.SessionID)
}

func TestStreamOneFragmentInFlight(t *testing.T) {
	pulled := make(chan int, 10)
	s := NewStream(context.Background(), "s1", func(ctx context.Context, emit func(string) error) error {
		for i, f := range []string{"a", "b", "c"} {
			pulled <- i
			if err := emit(f); err != nil {
				return err
			}
		}
		return nil
	})
	defer s.Close()

	// The producer pulls the first fragment and blocks handing it over.
	assert.Equal(t, 0, <-pulled)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, pulled, 0)

	fragment, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "a", fragment)
	assert.Equal(t, 1, <-pulled)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, pulled, 0)
}

func TestStreamPanicBecomesStreamError(t *testing.T) {
	s := NewStream(context.Background(), "s1", func(ctx context.Context, emit func(string) error) error {
		panic("kaput")
	})
	defer s.Close()

	_, err := s.Recv()
	require.True(t, IsStreamError(err))
	assert.Contains(t, err.Error(), "kaput")
}

func TestStreamCloseUnblocksProducer(t *testing.T) {
	exited := make(chan error, 1)
	s := NewStream(context.Background(), "s1", func(ctx context.Context, emit func(string) error) error {
		err := emit("never received")
		exited <- err
		return err
	})

	s.Close()
	s.Close()
	select {
	case err := <-exited:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("producer did not exit")
	}
}

func TestNewErrorStream(t *testing.T) {
	s := NewErrorStream(context.Background(), "s9", ErrEmptyMessage)
	defer s.Close()

	_, err := s.Recv()
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, "s9", s.SessionID())
}
