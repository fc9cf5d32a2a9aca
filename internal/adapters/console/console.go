// Package console prints the run dashboard as terminal tables.
package console

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/okian/cfcoach/internal/domain/difficulty"
	"github.com/okian/cfcoach/internal/domain/report"
)

const (
	weakRows          = 5
	markerOptimal     = "✅"
	markerStretch     = "💪"
	noRecommendations = "no recommendations today"
)

var (
	accent    = lipgloss.Color("#14B8A6")
	highlight = lipgloss.Color("#8B5CF6")
	warm      = lipgloss.Color("#F59E0B")
	muted     = lipgloss.Color("#6B7280")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Italic(true).Foreground(muted)
)

// Option applies a configuration option to the Dashboard.
type Option func(*Dashboard)

// WithWriter sets the output destination.
func WithWriter(w io.Writer) Option {
	return func(d *Dashboard) {
		if w != nil {
			d.out = w
		}
	}
}

// WithWindow sets the window used for the difficulty marker.
func WithWindow(w difficulty.Window) Option {
	return func(d *Dashboard) { d.window = w }
}

// Dashboard renders weak areas and recommendations.
type Dashboard struct {
	out    io.Writer
	window difficulty.Window
}

// New creates a dashboard writing to stdout by default.
func New(opts ...Option) *Dashboard {
	d := &Dashboard{out: os.Stdout, window: difficulty.DefaultWindow}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Show writes the dashboard for rep.
func (d *Dashboard) Show(rep report.Report) error {
	if _, err := lipgloss.Fprintln(d.out, d.Render(rep)); err != nil {
		return fmt.Errorf("console: write dashboard: %w", err)
	}
	return nil
}

// Render returns the dashboard as a string.
func (d *Dashboard) Render(rep report.Report) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(rep.Handle+"'s Weak Areas") + "\n")
	sb.WriteString(d.weakTable(rep) + "\n\n")
	sb.WriteString(titleStyle.Render("Today's Recommended Problems") + "\n")
	if len(rep.Recommendations) == 0 {
		sb.WriteString(mutedStyle.Render(noRecommendations))
	} else {
		sb.WriteString(d.recTable(rep))
	}
	return sb.String()
}

func (d *Dashboard) weakTable(rep report.Report) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Tag", "Accuracy (%)", "Total Attempted").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case 0:
				return cellStyle.Foreground(highlight)
			default:
				return cellStyle.Align(lipgloss.Right)
			}
		})
	n := min(weakRows, len(rep.Weaknesses))
	for _, w := range rep.Weaknesses[:n] {
		t.Row(w.Topic, report.FormatAccuracy(w.Accuracy), strconv.Itoa(w.Attempts))
	}
	return t.String()
}

func (d *Dashboard) recTable(rep report.Report) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "Name", "Rating", "Tags", "URL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case 0:
				return cellStyle.Foreground(warm)
			case 2:
				return cellStyle.Align(lipgloss.Right)
			default:
				return cellStyle
			}
		})
	for _, p := range rep.Recommendations {
		marker := markerStretch
		if d.window.Contains(p.Rating, rep.Rating) {
			marker = markerOptimal
		}
		t.Row(p.ID(), p.Name, fmt.Sprintf("%d %s", p.Rating, marker), p.Topics, p.URL)
	}
	return t.String()
}
