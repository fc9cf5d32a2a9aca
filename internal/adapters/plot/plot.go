// Package plot renders the accuracy trend of the weakest topics as a PNG.
package plot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/okian/cfcoach/internal/domain/report"
)

// ErrNotEnoughData is returned when fewer than two runs are available.
var ErrNotEnoughData = errors.New("plot: at least two runs are required")

// Default chart configuration.
const (
	defaultWidth  = 1000
	defaultHeight = 500
	defaultTitle  = "Accuracy Trend for Weak Tags"
	minRuns       = 2
	minSide       = 200
	slots         = report.RecordSlots
	dateFormat    = "2006-01-02"
	// One point per pixel.
	pixelDPI = 72
)

// FileName returns the conventional plot file name for a handle.
func FileName(handle string) string {
	return "progress_" + handle + ".png"
}

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width >= minSide && height >= minSide {
			r.width, r.height = width, height
		}
	}
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		if title != "" {
			r.title = title
		}
	}
}

// Renderer draws line charts of per-slot accuracy over runs.
type Renderer struct {
	width  int
	height int
	title  string
}

// New creates a renderer with configuration options.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: defaultWidth, height: defaultHeight, title: defaultTitle}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// series is one weak-topic slot. A run without that slot breaks the line,
// so the points are kept as contiguous segments.
type series struct {
	label    string
	segments []plotter.XYs
}

// Render writes the PNG for recs (oldest first). Each weak-topic slot is one
// line, labelled with the topic of that slot in the newest run.
func (r *Renderer) Render(w io.Writer, recs []report.Record) error {
	if len(recs) < minRuns {
		return ErrNotEnoughData
	}
	p, err := r.chart(recs)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(r.width), vg.Length(r.height)),
		vgimg.UseDPI(pixelDPI),
	)
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("plot: encode png: %w", err)
	}
	return nil
}

// RenderFile renders into path, replacing any previous image atomically.
func (r *Renderer) RenderFile(path string, recs []report.Record) error {
	if len(recs) < minRuns {
		return ErrNotEnoughData
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".plot-*.png")
	if err != nil {
		return fmt.Errorf("plot: create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := r.Render(tmp, recs); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("plot: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("plot: rename: %w", err)
	}
	return nil
}

func (r *Renderer) chart(recs []report.Record) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = r.title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Accuracy (%)"
	p.X.Tick.Marker = plot.TimeTicks{Format: dateFormat}
	p.Y.Min, p.Y.Max = 0, 100
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, s := range seriesOf(recs) {
		col := plotutil.Color(i)
		var thumbs []plot.Thumbnailer
		for _, seg := range s.segments {
			l, pts, err := plotter.NewLinePoints(seg)
			if err != nil {
				return nil, fmt.Errorf("plot: %s: %w", s.label, err)
			}
			l.Color = col
			l.Width = vg.Points(2)
			pts.Color = col
			pts.Shape = draw.CircleGlyph{}
			pts.Radius = vg.Points(3)
			p.Add(l, pts)
			if thumbs == nil {
				thumbs = []plot.Thumbnailer{l, pts}
			}
		}
		p.Legend.Add(s.label, thumbs...)
	}
	return p, nil
}

// seriesOf splits recs into one series per slot that appears in any run.
// X values are Unix seconds of the run date; accuracies are clamped to [0,100].
func seriesOf(recs []report.Record) []series {
	last := recs[len(recs)-1]
	var out []series
	for slot := 0; slot < slots; slot++ {
		s := series{}
		if slot < len(last.WeakTopics) {
			s.label = last.WeakTopics[slot]
		}
		var cur plotter.XYs
		for _, rec := range recs {
			if slot >= len(rec.Accuracies) {
				if len(cur) > 0 {
					s.segments = append(s.segments, cur)
					cur = nil
				}
				continue
			}
			cur = append(cur, plotter.XY{
				X: float64(rec.Date.Unix()),
				Y: max(0, min(rec.Accuracies[slot], 100)),
			})
		}
		if len(cur) > 0 {
			s.segments = append(s.segments, cur)
		}
		if len(s.segments) == 0 {
			continue
		}
		if s.label == "" {
			s.label = fmt.Sprintf("slot %d", slot+1)
		}
		out = append(out, s)
	}
	return out
}
