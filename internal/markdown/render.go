package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/pkg/errors"
)

// Renderer turns assistant replies into terminal markdown.
// Finished messages are cached by id. The one streaming message is rendered
// incrementally: complete lines as markdown, the trailing partial line as plain text.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int
	cache   map[string]string

	streamingID    string
	streamingLines int
	streamingCache string
}

// NewRenderer creates a renderer wrapping at width.
func NewRenderer(width int) (*Renderer, error) {
	gr, err := glamour.NewTermRenderer(
		glamour.WithStyles(customStyle()),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating glamour renderer")
	}
	return &Renderer{
		glamour: gr,
		width:   width,
		cache:   map[string]string{},
	}, nil
}

// Width the renderer wraps at.
func (r *Renderer) Width() int { return r.width }

// SetWidth rebuilds the renderer when the width changes. Caches are dropped.
func (r *Renderer) SetWidth(width int) error {
	if width < 1 {
		width = 1
	}
	if r.width == width {
		return nil
	}
	renderer, err := NewRenderer(width)
	if err != nil {
		return err
	}
	*r = *renderer
	return nil
}

// Render renders content for message id. While streaming, pass finalized=false.
func (r *Renderer) Render(id, content string, finalized bool) string {
	if finalized {
		if md, ok := r.cache[id]; ok {
			return md
		}
		md := r.render(content)
		r.cache[id] = md
		if r.streamingID == id {
			r.streamingID = ""
		}
		return md
	}
	return r.renderIncremental(id, content)
}

// Forget drops every cached rendering. Call it when the conversation is reset.
func (r *Renderer) Forget() {
	r.cache = map[string]string{}
	r.streamingID = ""
}

func (r *Renderer) renderIncremental(id, content string) string {
	if r.streamingID != id {
		r.streamingID = id
		r.streamingLines = 0
		r.streamingCache = ""
	}
	if content == "" {
		return ""
	}

	lines := strings.Split(content, "\n")
	complete := len(lines) - 1
	if complete > r.streamingLines {
		r.streamingCache = r.render(strings.Join(lines[:complete], "\n"))
		r.streamingLines = complete
	}

	partial := lines[len(lines)-1]
	switch {
	case r.streamingCache == "":
		return partial
	case partial == "":
		return r.streamingCache
	default:
		return r.streamingCache + "\n" + partial
	}
}

func (r *Renderer) render(content string) string {
	rendered, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// customStyle returns a dracula style without outer margins.
func customStyle() ansi.StyleConfig {
	style := styles.DraculaStyleConfig
	zero := uint(0)
	style.Document.Margin = &zero
	style.CodeBlock.Margin = &zero
	style.CodeBlock.Indent = &zero
	style.CodeBlock.Prefix = ""
	style.CodeBlock.BlockPrefix = ""

	style.Code.Margin = &zero
	style.Code.Indent = &zero
	style.Code.Prefix = ""
	style.Code.Suffix = ""

	style.Paragraph.BlockPrefix = ""
	style.Paragraph.BlockSuffix = ""
	return style
}
