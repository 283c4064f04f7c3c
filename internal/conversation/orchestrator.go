package conversation

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/malonaz/amity/internal/debug"
	"github.com/malonaz/amity/internal/llm"
	"github.com/malonaz/amity/internal/persona"
)

var log = debug.GetLogger()

// ChatClient is what the orchestrator needs from the session client.
type ChatClient interface {
	SendMessageStream(ctx context.Context, text string) *llm.Stream
	ResetChat(ctx context.Context)
}

// Phase of the send cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseStreaming
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers a function called with a fresh snapshot after every store mutation.
func WithObserver(fn func(State)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithPhaseObserver registers a function called on every phase transition.
func WithPhaseObserver(fn func(Phase)) Option {
	return func(o *Orchestrator) { o.phaseObserver = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator overrides message id generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// Orchestrator drives one send/stream cycle at a time against the store.
type Orchestrator struct {
	client        ChatClient
	store         *Store
	observer      func(State)
	phaseObserver func(Phase)
	now           func() time.Time
	newID         func() string

	mu      sync.Mutex
	phase   Phase
	current *Cycle
	cancel  context.CancelFunc

	// Serializes observer calls. Snapshots older than the last delivered
	// generation are dropped.
	notifyMu  sync.Mutex
	delivered uint64
}

// NewOrchestrator creates an orchestrator with a conversation seeded with the welcome message.
func NewOrchestrator(client ChatClient, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, errors.New("chat client is nil")
	}
	o := &Orchestrator{
		client: client,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.store = NewStore(persona.Welcome, o.now, o.newID)
	return o, nil
}

// Snapshot of the conversation.
func (o *Orchestrator) Snapshot() State {
	return o.store.Snapshot()
}

// Phase of the current cycle.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Send runs a full cycle for text and blocks until the reply ends.
// A failed reply is not an error for the conversation: its content becomes the
// fallback text and the stream error is returned for logging only.
func (o *Orchestrator) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	cycle, state, err := o.store.Begin(text)
	if err != nil {
		o.mu.Unlock()
		cancel()
		return err
	}
	o.current = &cycle
	o.cancel = cancel
	o.mu.Unlock()
	o.transition(cycle, PhaseSending)
	o.notify(state)

	log.Info("sending", "assistant_id", cycle.AssistantID, "generation", cycle.Generation)
	stream := o.client.SendMessageStream(streamCtx, text)
	defer stream.Close()
	o.transition(cycle, PhaseStreaming)

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			if state, ok := o.store.Finish(cycle); ok {
				o.transition(cycle, PhaseCompleted)
				o.notify(state)
			}
			o.end(cycle)
			return nil
		}
		if err != nil {
			state, ok := o.store.Fail(cycle, persona.Fallback)
			if !ok {
				// Superseded by a reset, which also canceled the stream.
				log.Debug("dropping error of superseded reply", "assistant_id", cycle.AssistantID, "error", err)
				return nil
			}
			log.Error("reply failed", "assistant_id", cycle.AssistantID, "session_id", stream.SessionID(), "error", err)
			o.transition(cycle, PhaseFailed)
			o.notify(state)
			o.end(cycle)
			return err
		}

		state, ok := o.store.Append(cycle, fragment)
		if !ok {
			log.Debug("dropping fragments of superseded reply", "assistant_id", cycle.AssistantID)
			return nil
		}
		o.notify(state)
	}
}

// Reset clears the conversation to a single welcome message and recreates the remote session.
// It may be called at any time. A reply in flight is abandoned and its fragments dropped.
// No send can begin until the remote session has been replaced.
func (o *Orchestrator) Reset(ctx context.Context) State {
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.client.ResetChat(ctx)
	state := o.store.Reset(persona.ResetWelcome)
	o.current = nil
	o.cancel = nil
	o.phase = PhaseIdle
	o.mu.Unlock()

	log.Info("conversation reset", "generation", state.Generation)
	o.notifyPhase(PhaseIdle)
	o.notify(state)
	return state
}

// transition moves the phase if cycle is still the current one.
func (o *Orchestrator) transition(cycle Cycle, phase Phase) {
	o.mu.Lock()
	if o.current == nil || *o.current != cycle {
		o.mu.Unlock()
		return
	}
	o.phase = phase
	o.mu.Unlock()
	o.notifyPhase(phase)
}

func (o *Orchestrator) end(cycle Cycle) {
	o.transition(cycle, PhaseIdle)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current != nil && *o.current == cycle {
		o.current = nil
		o.cancel = nil
	}
}

func (o *Orchestrator) notify(state State) {
	if o.observer == nil {
		return
	}
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	if state.Generation < o.delivered {
		log.Debug("dropping snapshot of superseded generation", "generation", state.Generation, "delivered", o.delivered)
		return
	}
	o.delivered = state.Generation
	o.observer(state)
}

func (o *Orchestrator) notifyPhase(phase Phase) {
	if o.phaseObserver != nil {
		o.phaseObserver(phase)
	}
}
