package history

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const maxSize = 1000

// History remembers what the user typed, for recall with Alt+P / Alt+N.
// It is an input convenience, not a record of the conversation.
type History struct {
	mu      sync.Mutex
	path    string
	entries []string
	// Position while navigating. len(entries) means "not navigating".
	cursor int
	// The draft the user was typing when navigation started.
	draft string
}

// New loads the history stored at path. An empty path keeps the history in memory only.
func New(path string) (*History, error) {
	h := &History{path: path}
	if err := h.load(); err != nil {
		return nil, err
	}
	h.cursor = len(h.entries)
	return h, nil
}

func (h *History) load() error {
	if h.path == "" {
		return nil
	}
	file, err := os.Open(h.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "opening history")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if entry := unescape(scanner.Text()); entry != "" {
			h.entries = append(h.entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "reading history")
	}
	h.trim()
	return nil
}

// save is called with mu held.
func (h *History) save() error {
	if h.path == "" {
		return nil
	}
	var b strings.Builder
	for _, entry := range h.entries {
		b.WriteString(escape(entry))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(h.path, []byte(b.String()), 0600); err != nil {
		return errors.Wrap(err, "writing history")
	}
	return nil
}

func (h *History) trim() {
	if len(h.entries) > maxSize {
		h.entries = h.entries[len(h.entries)-maxSize:]
	}
}

// Add records an entry and stops navigation. Repeating the last entry is a no-op.
func (h *History) Add(entry string) error {
	entry = strings.TrimSpace(entry)
	h.mu.Lock()
	defer h.mu.Unlock()
	defer h.stop()
	if entry == "" {
		return nil
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return nil
	}
	h.entries = append(h.entries, entry)
	h.trim()
	return h.save()
}

// Previous steps back. draft is the current input, restored when stepping past the newest entry.
func (h *History) Previous(draft string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor == len(h.entries) {
		h.draft = draft
	}
	if h.cursor == 0 {
		return h.entries[0], false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Next steps forward, ending on the saved draft.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor == len(h.entries) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		draft := h.draft
		h.draft = ""
		return draft, true
	}
	return h.entries[h.cursor], true
}

// Reset stops navigation. Call it when the recalled input is edited.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stop()
}

func (h *History) stop() {
	h.cursor = len(h.entries)
	h.draft = ""
}

// snapshot returns a copy of the entries, oldest first.
func (h *History) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
