// Package export renders pipeline summaries to files.
package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phoenixcrm/leadview/pkg/analysis"

	svg "github.com/ajstarks/svgo"
	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

// FunnelOptions configures a funnel chart export.
type FunnelOptions struct {
	Path   string
	Format string // "svg" or "png"; inferred from Path when empty
	Counts []analysis.StageCount
	Title  string
}

const (
	funnelWidth   = 640
	funnelMargin  = 24
	funnelLabelW  = 120
	funnelBarH    = 28
	funnelBarGap  = 10
	funnelHeaderH = 40
)

// stage colours, indexed in pipeline order; other stages use the last entry
var funnelPalette = []string{"#6c8ebf", "#d6b656", "#82b366", "#9673a6", "#2e7d32", "#888888"}

// SaveFunnel writes a horizontal bar chart of lead counts per stage.
func SaveFunnel(opts FunnelOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("funnel export: output path required")
	}
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.Path)), ".")
	}
	if opts.Title == "" {
		opts.Title = "Lead pipeline"
	}

	switch format {
	case "svg":
		return saveFunnelSVG(opts)
	case "png":
		return saveFunnelPNG(opts)
	default:
		return fmt.Errorf("funnel export: unsupported format %q (use svg or png)", format)
	}
}

type funnelBar struct {
	label string
	color string
	y     int
	width int
}

func layoutFunnel(counts []analysis.StageCount) ([]funnelBar, int) {
	maxCount := 0
	for _, c := range counts {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	barSpace := funnelWidth - 2*funnelMargin - funnelLabelW - 40

	bars := make([]funnelBar, len(counts))
	for i, c := range counts {
		w := 0
		if maxCount > 0 {
			w = c.Count * barSpace / maxCount
		}
		if c.Count > 0 && w < 2 {
			w = 2
		}
		stage := c.Stage
		if stage == "" {
			stage = "(none)"
		}
		color := funnelPalette[len(funnelPalette)-1]
		if i < len(funnelPalette)-1 {
			color = funnelPalette[i]
		}
		bars[i] = funnelBar{
			label: fmt.Sprintf("%s (%d)", stage, c.Count),
			color: color,
			y:     funnelHeaderH + funnelMargin + i*(funnelBarH+funnelBarGap),
			width: w,
		}
	}
	height := funnelHeaderH + 2*funnelMargin + len(counts)*(funnelBarH+funnelBarGap)
	return bars, height
}

func saveFunnelSVG(opts FunnelOptions) error {
	f, err := os.Create(opts.Path)
	if err != nil {
		return fmt.Errorf("funnel export: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	bars, height := layoutFunnel(opts.Counts)

	canvas := svg.New(w)
	canvas.Start(funnelWidth, height)
	canvas.Rect(0, 0, funnelWidth, height, "fill:#ffffff")
	canvas.Text(funnelMargin, funnelMargin+8, opts.Title, "font-family:sans-serif;font-size:16px;font-weight:bold;fill:#222222")
	for _, b := range bars {
		canvas.Text(funnelMargin, b.y+funnelBarH/2+5, b.label, "font-family:sans-serif;font-size:12px;fill:#333333")
		canvas.Rect(funnelMargin+funnelLabelW, b.y, b.width, funnelBarH, "fill:"+b.color)
	}
	canvas.End()

	if err := w.Flush(); err != nil {
		return fmt.Errorf("funnel export: %w", err)
	}
	return f.Close()
}

func saveFunnelPNG(opts FunnelOptions) error {
	bars, height := layoutFunnel(opts.Counts)

	dc := gg.NewContext(funnelWidth, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor("#222222")
	dc.DrawString(opts.Title, funnelMargin, funnelMargin+8)
	for _, b := range bars {
		dc.SetHexColor("#333333")
		dc.DrawString(b.label, funnelMargin, float64(b.y+funnelBarH/2+5))
		if b.width > 0 {
			dc.SetHexColor(b.color)
			dc.DrawRectangle(funnelMargin+funnelLabelW, float64(b.y), float64(b.width), funnelBarH)
			dc.Fill()
		}
	}
	if err := dc.SavePNG(opts.Path); err != nil {
		return fmt.Errorf("funnel export: %w", err)
	}
	return nil
}
