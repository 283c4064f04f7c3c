package session

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/malonaz/amity/cli/chat/styles"
)

// adjustTextareaHeight resizes the textarea based on content line count.
func (m *Model) adjustTextareaHeight() {
	lineCount := strings.Count(m.textarea.Value(), "\n") + 1
	newHeight := max(styles.MinTextareaHeight, min(lineCount, styles.MaxTextareaHeight))

	oldHeight := m.textarea.Height()
	if oldHeight == newHeight {
		return
	}
	m.textarea.SetHeight(newHeight)
	m.recalculateLayout()
	if m.ready {
		m.viewport.LineDown(newHeight - oldHeight)
	}
}

// recalculateLayout adjusts viewport and textarea dimensions based on current state.
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	bottomHeight := m.textarea.Height() + styles.InputBorderHeight
	if m.confirmingReset {
		bottomHeight = lipgloss.Height(m.renderConfirmDialog())
	}
	viewportHeight := m.height - styles.HeaderHeight - bottomHeight - styles.HelpHeight
	viewportHeight = max(viewportHeight, styles.MinViewportHeight)
	viewportWidth := m.width

	bubbleWidth := styles.BubbleWidth(viewportWidth)
	// Avatar, space, bubble frame.
	if err := m.renderer.SetWidth(bubbleWidth - styles.BubbleFrameSize() - 4); err != nil {
		log.Error("resizing markdown renderer", "error", err)
	}

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
		m.viewport.SetContent(m.renderMessages())
	}

	m.textarea.SetWidth(viewportWidth - styles.TextAreaStyle.GetHorizontalPadding() - styles.TextAreaStyle.GetHorizontalBorderSize())
}
