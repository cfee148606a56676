// Package export writes ride series as standalone SVG charts.
package export

import (
	"fmt"
	"html"
	"io"
	"math"
	"os"
	"strings"
)

var palette = []string{"#00ccff", "#ffcc00", "#ff4444", "#00ff88", "#ff00ff"}

// Line is one plotted series. X and Y must have equal length; NaN points
// break the path.
type Line struct {
	Name  string
	X, Y  []float64
	Color string
}

type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
	Lines  []Line
}

const margin = 50.0

// SVG renders the chart. A chart with no plottable points renders "".
func (c Chart) SVG() string {
	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 400
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	n := 0
	for _, l := range c.Lines {
		for i := 0; i < len(l.X) && i < len(l.Y); i++ {
			if !finite(l.X[i]) || !finite(l.Y[i]) {
				continue
			}
			minX, maxX = math.Min(minX, l.X[i]), math.Max(maxX, l.X[i])
			minY, maxY = math.Min(minY, l.Y[i]), math.Max(maxY, l.Y[i])
			n++
		}
	}
	if n < 2 {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.05
	maxY += rangeY * 0.05
	rangeY = maxY - minY

	plotW := float64(c.Width) - 2*margin
	plotH := float64(c.Height) - 2*margin
	px := func(x float64) float64 { return margin + (x-minX)/rangeX*plotW }
	py := func(y float64) float64 { return margin + plotH - (y-minY)/rangeY*plotH }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="monospace" font-size="12">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, c.Width, c.Height, c.Width, c.Height))

	if c.Title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="#ffffff" text-anchor="middle" font-size="16">%s</text>
`, float64(c.Width)/2, margin/2, html.EscapeString(c.Title)))
	}

	// axes
	sb.WriteString(fmt.Sprintf(`<g stroke="#444466" stroke-width="1">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
`, margin, margin, margin, margin+plotH, margin, margin+plotH, margin+plotW, margin+plotH))

	sb.WriteString(`<g fill="#888899">` + "\n")
	for i := 0; i <= 4; i++ {
		f := float64(i) / 4
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>
`, margin+f*plotW, margin+plotH+16, tick(minX+f*rangeX)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="end">%s</text>
`, margin-4, margin+plotH-f*plotH+4, tick(minY+f*rangeY)))
	}
	if c.XLabel != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>
`, margin+plotW/2, float64(c.Height)-10, html.EscapeString(c.XLabel)))
	}
	if c.YLabel != "" {
		sb.WriteString(fmt.Sprintf(`<text x="14" y="%.1f" text-anchor="middle" transform="rotate(-90 14 %.1f)">%s</text>
`, margin+plotH/2, margin+plotH/2, html.EscapeString(c.YLabel)))
	}
	sb.WriteString("</g>\n")

	for li, l := range c.Lines {
		color := l.Color
		if color == "" {
			color = palette[li%len(palette)]
		}

		var d strings.Builder
		pen := false
		for i := 0; i < len(l.X) && i < len(l.Y); i++ {
			if !finite(l.X[i]) || !finite(l.Y[i]) {
				pen = false
				continue
			}
			cmd := " L"
			if !pen {
				cmd = " M"
			}
			d.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, px(l.X[i]), py(l.Y[i])))
			pen = true
		}
		if d.Len() == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="%s"/>
`, color, strings.TrimSpace(d.String())))

		if l.Name != "" {
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s">%s</text>
`, margin+plotW-120, margin+14*float64(li+1), color, html.EscapeString(l.Name)))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func (c Chart) WriteTo(w io.Writer) (int64, error) {
	svg := c.SVG()
	if svg == "" {
		return 0, fmt.Errorf("export: chart %q has fewer than two points", c.Title)
	}
	n, err := io.WriteString(w, svg)
	return int64(n), err
}

// Save writes the chart to path.
func (c Chart) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func tick(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1000:
		return fmt.Sprintf("%.0f", v)
	case a >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
