package llm

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// chatStreamer is the part of *genai.Chat a session needs.
type chatStreamer interface {
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

// NewGeminiFactory returns a factory of Gemini chat sessions.
// The API key is not validated here: if genai refuses it, every session fails when used.
func NewGeminiFactory(ctx context.Context, apiKey string) SessionFactory {
	client, clientErr := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if clientErr != nil {
		clientErr = errors.Wrap(clientErr, "creating genai client")
	}

	return func(ctx context.Context, config *SessionConfig) (Session, error) {
		if clientErr != nil {
			return nil, clientErr
		}
		chat, err := client.Chats.Create(ctx, config.Model, generateContentConfig(config), nil)
		if err != nil {
			return nil, errors.Wrap(err, "creating chat")
		}
		return newGeminiSession(chat), nil
	}
}

func generateContentConfig(config *SessionConfig) *genai.GenerateContentConfig {
	result := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(config.Temperature),
		TopP:        genai.Ptr(config.TopP),
		TopK:        genai.Ptr(config.TopK),
	}
	if config.SystemInstruction != "" {
		result.SystemInstruction = genai.NewContentFromText(config.SystemInstruction, genai.RoleUser)
	}
	return result
}

type geminiSession struct {
	id   string
	chat chatStreamer
}

func newGeminiSession(chat chatStreamer) *geminiSession {
	return &geminiSession{id: uuid.NewString(), chat: chat}
}

func (s *geminiSession) ID() string { return s.id }

func (s *geminiSession) SendMessageStream(ctx context.Context, text string) *Stream {
	return NewStream(ctx, s.id, func(ctx context.Context, emit func(string) error) error {
		for response, err := range s.chat.SendMessageStream(ctx, genai.Part{Text: text}) {
			if err != nil {
				return errors.Wrap(err, "receiving chunk")
			}
			fragment := response.Text()
			if fragment == "" {
				continue
			}
			if err := emit(fragment); err != nil {
				return err
			}
		}
		return nil
	})
}
