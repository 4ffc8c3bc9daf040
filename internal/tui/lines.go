package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"imgswap/internal/processor"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	infoStyle    = lipgloss.NewStyle().Foreground(ColorInk)
)

// FormatLine renders the status line of an update with a level glyph.
func FormatLine(u processor.ProgressUpdate) string {
	switch u.Level {
	case processor.LevelSuccess:
		return successStyle.Render("✓ " + u.Line)
	case processor.LevelWarn:
		return warnStyle.Render("⚠ " + u.Line)
	case processor.LevelError:
		return errorStyle.Render("✗ " + u.Line)
	default:
		return infoStyle.Render(u.Line)
	}
}

// PrintPlain drains updates, writing one line per status message, for
// terminals where the live view is unwanted.
func PrintPlain(w io.Writer, updates <-chan processor.ProgressUpdate) {
	total, processed := 0, 0
	for u := range updates {
		total += u.TotalDelta
		processed += u.ProcessedDelta
		if u.TotalDelta > 0 {
			fmt.Fprintf(w, "Found %d files to convert\n", u.TotalDelta)
		}
		if u.Line == "" {
			continue
		}
		if u.ProcessedDelta > 0 && total > 0 {
			fmt.Fprintf(w, "[%d/%d] %s\n", processed, total, FormatLine(u))
			continue
		}
		fmt.Fprintln(w, FormatLine(u))
	}
}
