package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/muesli/reflow/wordwrap"
)

var (
	// Colors for different types of output
	amityColor     = color.New(color.FgHiMagenta)          // Rose-ish for Amity
	amityNameColor = color.New(color.FgHiMagenta, color.Bold)
	titleColor     = color.New(color.FgMagenta, color.Bold) // Bold magenta for titles
	statusColor    = color.New(color.FgGreen)
	separatorColor = color.New(color.FgHiBlack) // Dark grey for separators
	noticeColor    = color.New(color.FgYellow)
	promptColor    = color.New(color.FgHiBlue)

	width = goterm.Width()
)

// Output is where every helper prints. Tests swap it.
var Output io.Writer = color.Output

// Separator printed to cli.
func Separator() {
	separatorColor.Fprintln(Output, strings.Repeat("-", lineWidth()))
}

// Title printed to cli.
func Title(text string, args ...any) {
	w := lineWidth()
	title := "      " + fmt.Sprintf(text, args...) + "      "
	leftWidth := max((w-len(title))/2, 0)
	separator1 := strings.Repeat("-", leftWidth)
	separator2 := strings.Repeat("-", max(w-len(title)-len(separator1), 0))
	titleColor.Fprintf(Output, "%s%s%s\n", separator1, title, separator2)
}

// Status printed to cli.
func Status(text string) {
	statusColor.Fprintln(Output, "● "+text)
}

// AIName prints the speaker prefix for a reply.
func AIName(name string) {
	amityNameColor.Fprint(Output, name+": ")
}

// AIOutput printed to cli. text is printed verbatim.
func AIOutput(text string) {
	amityColor.Fprint(Output, text)
}

// AIMessage prints a complete message from name, wrapped to the terminal width.
func AIMessage(name, text string) {
	AIName(name)
	amityColor.Fprintln(Output, wordwrap.String(text, max(lineWidth()-len(name)-2, 20)))
}

// Notice printed to cli.
func Notice(text string) {
	noticeColor.Fprintln(Output, text)
}

func lineWidth() int {
	if width <= 0 {
		return 80
	}
	return width
}

// Prompter reads multi-line input. Ctrl+J submits what was typed so far.
type Prompter struct {
	rl     *readline.Instance
	submit bool
}

// NewPrompter creates a prompter persisting history to historyFile. An empty
// historyFile keeps history in memory.
func NewPrompter(historyFile string) (*Prompter, error) {
	p := &Prompter{}
	config := &readline.Config{
		Prompt:            promptColor.Sprint("> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistoryFile:       historyFile,
		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			if r == '\x0A' { // Ctrl + J
				p.submit = true
			}
			return r, true
		},
	}
	rl, err := readline.NewEx(config)
	if err != nil {
		return nil, err
	}
	p.rl = rl
	return p, nil
}

// Prompt reads until enter on a single line or Ctrl+J after several.
// It returns readline.ErrInterrupt or io.EOF when the user bails.
func (p *Prompter) Prompt() (string, error) {
	defer p.rl.SetPrompt(promptColor.Sprint("> "))
	p.submit = false
	var lines []string
	for {
		line, err := p.rl.Readline()
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
		if p.submit || !strings.HasSuffix(line, "\\") {
			break
		}
		// A trailing backslash continues the input on the next line.
		lines[len(lines)-1] = strings.TrimSuffix(line, "\\")
		p.rl.SetPrompt("")
	}
	return strings.Join(lines, "\n"), nil
}

// Close releases the terminal.
func (p *Prompter) Close() error {
	return p.rl.Close()
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
	}
	confirm := false
	survey.AskOne(surveyQuestion, &confirm)
	return confirm
}
