package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"imgswap/internal/processor"
	"imgswap/pkg/imgutil"
)

type Model struct {
	updates    <-chan processor.ProgressUpdate
	cancel     func()
	title      string
	started    time.Time
	width      int
	total      int
	processed  int
	converted  int
	skipped    int
	errors     int
	deleted    int
	bytesSaved int64
	stopping   bool
	quitting   bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

// NewModel builds the live view. cancel, when non-nil, is called on ctrl+c;
// the view keeps draining updates until the run closes the channel.
func NewModel(title string, updates <-chan processor.ProgressUpdate, cancel func()) Model {
	return Model{title: title, updates: updates, cancel: cancel, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.processed += msg.ProcessedDelta
		m.converted += msg.ConvertedDelta
		m.skipped += msg.SkippedDelta
		m.errors += msg.ErrorDelta
		m.deleted += msg.DeletedDelta
		m.bytesSaved += msg.BytesSavedDelta
		if msg.Line != "" {
			return m, tea.Sequence(tea.Println(FormatLine(processor.ProgressUpdate(msg))), listenForUpdates(m.updates))
		}
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && !m.stopping {
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.processed) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render(m.title),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed, m.total)) +
			dimStyle.Render(fmt.Sprintf("  converted:%d skipped:%d errors:%d", m.converted, m.skipped, m.errors)),
		labelStyle.Render(fmt.Sprintf("Size change: %s", savedLabel(m.bytesSaved))),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}
	if m.stopping {
		lines = append(lines, warnStyle.Render("Stopping after the current file..."))
	}
	if m.deleted > 0 {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("Originals deleted: %d", m.deleted)))
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func savedLabel(saved int64) string {
	if saved < 0 {
		return "+" + imgutil.FormatSize(-saved)
	}
	return "-" + imgutil.FormatSize(saved)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
