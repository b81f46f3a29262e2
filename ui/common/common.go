// Package common provides shared rendering helpers for the memos UI.
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/miosa/osa-memos/style"
)

// CappedWidth returns width capped at maxWidth for readability.
// If maxWidth <= 0, 120 is used as the default cap.
func CappedWidth(width, maxWidth int) int {
	limit := maxWidth
	if limit <= 0 {
		limit = 120
	}
	return min(width, limit)
}

// Truncate shortens s to maxLen runes, appending "…" if truncated.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}

// TruncatePath shortens a filesystem path to fit maxWidth columns.
// Strategy (first that fits): full path, ~/relative, …/last-two, …/basename.
func TruncatePath(path string, maxWidth int) string {
	if lipgloss.Width(path) <= maxWidth {
		return path
	}
	if p := homeRelative(path); p != path && lipgloss.Width(p) <= maxWidth {
		return p
	}

	parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
	if len(parts) >= 2 {
		lastTwo := "…/" + strings.Join(parts[len(parts)-2:], string(filepath.Separator))
		if lipgloss.Width(lastTwo) <= maxWidth {
			return lastTwo
		}
	}

	base := "…/" + filepath.Base(path)
	if lipgloss.Width(base) <= maxWidth {
		return base
	}
	return Truncate(base, maxWidth)
}

// PrettyPath replaces the home prefix with ~/ and truncates to 60 columns.
func PrettyPath(path string) string {
	return TruncatePath(homeRelative(path), 60)
}

func homeRelative(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(home, path); err == nil && !strings.HasPrefix(rel, "..") {
		return "~/" + rel
	}
	return path
}

// PadRight pads s on the right with spaces until the rendered display width
// equals width. Returns s unchanged if it already meets or exceeds width.
func PadRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// PadCenter centers s within width, padding both sides with spaces.
func PadCenter(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// Divider returns a horizontal rule of the given width in the border color.
func Divider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(style.Border).Render(strings.Repeat("─", width))
}

// HumanCount formats n compactly: 999, 1.2k, 3.4M.
func HumanCount(n int) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1_000_000:
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
}
