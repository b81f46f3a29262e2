package style

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Colors, initialized to dark theme defaults. Updated via SetTheme().
var (
	Primary   color.Color = lipgloss.Color("#7C3AED")
	Secondary color.Color = lipgloss.Color("#06B6D4")
	Success   color.Color = lipgloss.Color("#22C55E")
	Warning   color.Color = lipgloss.Color("#F59E0B")
	Error     color.Color = lipgloss.Color("#EF4444")
	Muted     color.Color = lipgloss.Color("#6B7280")
	Dim       color.Color = lipgloss.Color("#374151")
	Border    color.Color = lipgloss.Color("#4B5563")

	GradColorA color.Color = lipgloss.Color("#7C3AED")
	GradColorB color.Color = lipgloss.Color("#06B6D4")

	// GlamourStyle is the glamour standard style for memo bodies.
	GlamourStyle = "dark"
)

// Base styles, rebuilt when the theme changes via rebuildStyles().
var (
	Bold      lipgloss.Style
	Faint     lipgloss.Style
	ErrorText lipgloss.Style

	// Header
	HeaderTitle  lipgloss.Style
	HeaderDetail lipgloss.Style
	HeaderTag    lipgloss.Style

	// Cards
	CardBorder lipgloss.Style
	CardID     lipgloss.Style
	CardMeta   lipgloss.Style
	CardTag    lipgloss.Style
	CardMore   lipgloss.Style

	// Placeholder shown while an entry has not been measured yet
	Placeholder lipgloss.Style

	// Status bar
	StatusBar      lipgloss.Style
	StatusBoundary lipgloss.Style
	SpinnerStyle   lipgloss.Style
	Hint           lipgloss.Style

	// Empty and error states
	EmptyState lipgloss.Style
	ErrorBox   lipgloss.Style

	// Scrollbar
	ScrollbarThumb lipgloss.Style
	ScrollbarTrack lipgloss.Style

	// Help
	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style
)

func init() {
	rebuildStyles()
}

// SetTheme applies a named theme, updating all color vars and rebuilding styles.
func SetTheme(name string) bool {
	t, ok := Themes[name]
	if !ok {
		return false
	}
	CurrentThemeName = name
	Primary = t.Primary
	Secondary = t.Secondary
	Success = t.Success
	Warning = t.Warning
	Error = t.Error
	Muted = t.Muted
	Dim = t.Dim
	Border = t.Border
	GradColorA = t.GradA
	GradColorB = t.GradB
	GlamourStyle = t.Glamour
	rebuildStyles()
	return true
}

// NextTheme returns the theme after the current one in ThemeNames order.
func NextTheme() string {
	for i, n := range ThemeNames {
		if n == CurrentThemeName {
			return ThemeNames[(i+1)%len(ThemeNames)]
		}
	}
	return ThemeNames[0]
}

// IsDark returns whether the current theme is dark.
func IsDark() bool {
	return CurrentThemeName != "light"
}

func rebuildStyles() {
	Bold = lipgloss.NewStyle().Bold(true)
	Faint = lipgloss.NewStyle().Foreground(Muted)
	ErrorText = lipgloss.NewStyle().Foreground(Error).Bold(true)

	HeaderTitle = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	HeaderDetail = lipgloss.NewStyle().Foreground(Muted)
	HeaderTag = lipgloss.NewStyle().Foreground(Secondary)

	CardBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
	CardID = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	CardMeta = lipgloss.NewStyle().Foreground(Muted)
	CardTag = lipgloss.NewStyle().Foreground(Secondary)
	CardMore = lipgloss.NewStyle().Foreground(Secondary).Italic(true)

	Placeholder = lipgloss.NewStyle().Foreground(Dim)

	StatusBar = lipgloss.NewStyle().Foreground(Muted)
	StatusBoundary = lipgloss.NewStyle().Foreground(Warning)
	SpinnerStyle = lipgloss.NewStyle().Foreground(Primary)
	Hint = lipgloss.NewStyle().Foreground(Dim)

	EmptyState = lipgloss.NewStyle().Foreground(Muted).Italic(true)
	ErrorBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Error).
		Foreground(Error).
		Padding(0, 1)

	ScrollbarThumb = lipgloss.NewStyle().Foreground(Muted)
	ScrollbarTrack = lipgloss.NewStyle().Foreground(Dim)

	HelpKey = lipgloss.NewStyle().Foreground(Secondary).Bold(true)
	HelpDesc = lipgloss.NewStyle().Foreground(Muted)
	HelpSeparator = lipgloss.NewStyle().Foreground(Dim)
}
