// Package persona holds Amity's voice: the system instruction and the fixed
// strings the user sees.
package persona

import (
	"bytes"
	"os"
	"os/user"
	"runtime"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
)

const (
	// Name of the assistant.
	Name = "Amity"

	// Welcome seeds a new conversation.
	Welcome = "Hi there! I'm Amity. I'm here to help you with anything you need. How are you doing today? 😊"
	// ResetWelcome seeds a conversation after the user clears it.
	ResetWelcome = "Fresh start! What's on your mind? I'm ready to help! ✨"
	// Fallback replaces a reply whose stream failed.
	Fallback = "I'm so sorry, I encountered a little hiccup. Could you try saying that again? 🥺"
	// ConfirmReset is asked before clearing the conversation.
	ConfirmReset = "Are you sure you want to clear our conversation?"
	// Thinking is shown while the reply has not produced any text yet.
	Thinking = "Amity is thinking..."

	// Header strings.
	Title      = "Amity AI"
	Status     = "Friendly & Online"
	ClearLabel = "Clear History"
)

// SystemInstruction is the default persona. It contains no template actions, so it renders verbatim.
const SystemInstruction = `You are "Amity", a friendly, helpful, and polite AI assistant.
Your goal is to talk like a warm, supportive human.
- Use clear and simple language.
- Be empathetic and patient.
- Use emojis naturally to feel approachable (but don't overdo it).
- If you don't know something, admit it politely.
- Always be encouraging and positive.
- Format your responses with markdown for readability when appropriate (bullet points, bold text).`

// TemplateData for rendering the system instruction.
type TemplateData struct {
	Name     string
	Username string
	OS       string
	Date     string
}

// NewTemplateData gathers template data from the running process.
func NewTemplateData(now time.Time) TemplateData {
	data := TemplateData{
		Name: Name,
		OS:   runtime.GOOS,
		Date: now.Format("2006-01-02"),
	}
	if u, err := user.Current(); err == nil {
		data.Username = u.Username
		if data.Username == "" {
			data.Username = u.Name
		}
	} else {
		data.Username = os.Getenv("USER")
	}
	return data
}

// Render the system instruction template.
func Render(text string, data TemplateData) (string, error) {
	if text == "" {
		text = SystemInstruction
	}
	tmpl, err := template.New("system_instruction").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return "", errors.Wrap(err, "parsing system instruction template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "executing system instruction template")
	}
	return buf.String(), nil
}
