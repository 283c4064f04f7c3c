package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Layout constants
const (
	// Textarea
	MinTextareaHeight    = 3
	MaxTextareaHeight    = 12
	DefaultTextareaWidth = 80
	TextAreaPaddingLeft  = 1

	// Viewport
	MinViewportHeight = 1

	// Layout
	InputBorderHeight = 2
	HeaderHeight      = 2
	HelpHeight        = 1
	BubbleMargin      = 8

	// Confirmation dialog
	ConfirmPaddingHorizontal = 2
	ConfirmPaddingVertical   = 1
)

// Color palette
var (
	AmityColor     = lipgloss.Color("#F43F5E") // Rose
	AmityDimColor  = lipgloss.Color("#FFE4E6")
	UserColor      = lipgloss.Color("#4F46E5") // Indigo
	OnlineColor    = lipgloss.Color("#22C55E") // Green
	AccentColor    = lipgloss.Color("#F59E0B") // Amber
	MutedColor     = lipgloss.Color("#6B7280")
	TextColor      = lipgloss.Color("#F9FAFB")
	DimTextColor   = lipgloss.Color("#9CA3AF")
	BorderColor    = lipgloss.Color("#4B5563")
	HeaderBgColor  = lipgloss.Color("#1F2937")
	ButtonBgColor  = lipgloss.Color("#374151")
	TimestampColor = lipgloss.Color("#9CA3AF")
)

// Header
var (
	LogoStyle = lipgloss.NewStyle().
			Background(AmityColor).
			Foreground(TextColor).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	OnlineDotStyle = lipgloss.NewStyle().
			Foreground(OnlineColor)

	StatusStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)

	ClearButtonStyle = lipgloss.NewStyle().
				Foreground(DimTextColor).
				Background(ButtonBgColor).
				Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Background(HeaderBgColor).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(BorderColor)
)

// Messages
var (
	bubbleStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	UserBubbleStyle = lipgloss.NewStyle().
			Inherit(bubbleStyle).
			Foreground(TextColor).
			BorderForeground(UserColor)

	AmityBubbleStyle = lipgloss.NewStyle().
				Inherit(bubbleStyle).
				BorderForeground(AmityColor)

	UserAvatarStyle = lipgloss.NewStyle().
			Background(UserColor).
			Foreground(TextColor).
			Bold(true).
			Padding(0, 1)

	AmityAvatarStyle = lipgloss.NewStyle().
				Background(AmityDimColor).
				Foreground(AmityColor).
				Bold(true).
				Padding(0, 1)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(TimestampColor).
			Faint(true)

	ThinkingStyle = lipgloss.NewStyle().
			Foreground(AmityColor).
			Italic(true)
)

// Input area
var (
	TextAreaStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(UserColor).
			PaddingLeft(TextAreaPaddingLeft)

	DisabledTextAreaStyle = lipgloss.NewStyle().
				Inherit(TextAreaStyle).
				BorderForeground(BorderColor)
)

// Spinner
var (
	SpinnerStyle = lipgloss.NewStyle().
		Foreground(AmityColor)
)

// Help text
var (
	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)
)

// Confirmation dialog
var (
	ConfirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(AccentColor).
			Padding(ConfirmPaddingVertical, ConfirmPaddingHorizontal)

	ConfirmTitleStyle = lipgloss.NewStyle().
				Foreground(AccentColor).
				Bold(true)
)

// BubbleWidth returns the widest a message bubble may be in a viewport of the given width.
func BubbleWidth(viewportWidth int) int {
	w := viewportWidth - BubbleMargin
	if w < 10 {
		return viewportWidth
	}
	return w
}

// BubbleFrameSize returns the horizontal space a bubble's border and padding take.
func BubbleFrameSize() int {
	return AmityBubbleStyle.GetHorizontalFrameSize()
}
