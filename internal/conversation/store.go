package conversation

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrBusy is returned when a send starts while another is in flight.
	ErrBusy = errors.New("a reply is already in progress")
	// ErrEmptyInput is returned when the user input is blank.
	ErrEmptyInput = errors.New("input is empty")
)

// Cycle identifies the placeholder of one send cycle.
type Cycle struct {
	Generation  uint64
	AssistantID string
}

// Store is the in-memory conversation. All mutations are serialized.
type Store struct {
	mu         sync.Mutex
	messages   []*Message
	loading    bool
	generation uint64

	now   func() time.Time
	newID func() string
}

// NewStore creates a store seeded with an assistant welcome message.
func NewStore(welcome string, now func() time.Time, newID func() string) *Store {
	s := &Store{now: now, newID: newID}
	s.seed(welcome)
	return s
}

func (s *Store) seed(welcome string) {
	s.messages = []*Message{{
		ID:        WelcomeID,
		Role:      RoleAssistant,
		Content:   welcome,
		Timestamp: s.now(),
	}}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() State {
	messages := make([]Message, len(s.messages))
	for i, m := range s.messages {
		messages[i] = *m
	}
	return State{Messages: messages, IsLoading: s.loading, Generation: s.generation}
}

// Begin appends the user turn and an empty assistant placeholder, then marks the store loading.
func (s *Store) Begin(text string) (Cycle, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return Cycle{}, State{}, ErrBusy
	}
	user := &Message{ID: s.newID(), Role: RoleUser, Content: text, Timestamp: s.now()}
	assistant := &Message{ID: s.newID(), Role: RoleAssistant, Timestamp: s.now()}
	s.messages = append(s.messages, user, assistant)
	s.loading = true
	return Cycle{Generation: s.generation, AssistantID: assistant.ID}, s.snapshot(), nil
}

// find returns the cycle's placeholder, or nil if the cycle was superseded.
// Callers hold mu.
func (s *Store) find(cycle Cycle) *Message {
	if cycle.Generation != s.generation {
		return nil
	}
	// The placeholder is almost always last.
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == cycle.AssistantID {
			return s.messages[i]
		}
	}
	return nil
}

// Append adds a fragment to the cycle's placeholder.
// It returns false, and changes nothing, if the cycle was superseded by a reset.
func (s *Store) Append(cycle Cycle, fragment string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.find(cycle)
	if m == nil {
		return State{}, false
	}
	m.Content += fragment
	return s.snapshot(), true
}

// Fail replaces the placeholder content wholesale and clears loading.
func (s *Store) Fail(cycle Cycle, fallback string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.find(cycle)
	if m == nil {
		return State{}, false
	}
	m.Content = fallback
	s.loading = false
	return s.snapshot(), true
}

// Finish clears loading at the end of a successful cycle.
func (s *Store) Finish(cycle Cycle) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(cycle) == nil {
		return State{}, false
	}
	s.loading = false
	return s.snapshot(), true
}

// Reset starts a new generation holding only a fresh welcome message.
func (s *Store) Reset(welcome string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.loading = false
	s.seed(welcome)
	return s.snapshot()
}
