// Package export renders canvases, orbits and particle snapshots as SVG.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/tui"
)

const background = "#0a0a0a"

// orbitColors cycles across traced particles.
var orbitColors = []string{"#00ff88", "#00ccff", "#ff00ff", "#ffaa00", "#ff4444", "#ffffff"}

var braille = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func header(sb *strings.Builder, w, h float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background)
}

// CanvasToSVG draws every lit braille dot as a circle. Each dot occupies
// a scale x scale square.
func CanvasToSVG(canvas *tui.Canvas, scale float64) string {
	if canvas == nil || scale <= 0 {
		return ""
	}
	var sb strings.Builder
	header(&sb, float64(canvas.Width)*scale*2, float64(canvas.Height)*scale*4)
	sb.WriteString("<g fill=\"#00ff00\">\n")
	r := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			cell := canvas.Grid[row][col]
			if cell < 0x2800 {
				continue
			}
			pattern := cell - 0x2800
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&braille[dy][dx] == 0 {
						continue
					}
					cx := float64(col*2+dx)*scale + scale/2
					cy := float64(row*4+dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
				}
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

type bounds struct{ minX, maxX, minY, maxY float64 }

func (b *bounds) pad() {
	rx, ry := b.maxX-b.minX, b.maxY-b.minY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	b.minX -= rx * 0.1
	b.maxX += rx * 0.1
	b.minY -= ry * 0.1
	b.maxY += ry * 0.1
}

func (b bounds) project(x, y float64, w, h int) (float64, float64) {
	px := (x - b.minX) / (b.maxX - b.minX) * float64(w)
	py := float64(h) - (y-b.minY)/(b.maxY-b.minY)*float64(h)
	return px, py
}

// OrbitToSVG draws one polyline per traced particle.
func OrbitToSVG(orbit *analysis.Orbit, width, height int) string {
	if orbit == nil || width <= 0 || height <= 0 {
		return ""
	}
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	n := 0
	for _, pts := range orbit.Points {
		for _, p := range pts {
			b.minX, b.maxX = math.Min(b.minX, p.X), math.Max(b.maxX, p.X)
			b.minY, b.maxY = math.Min(b.minY, p.Y), math.Max(b.maxY, p.Y)
			n++
		}
	}
	if n == 0 {
		return ""
	}
	b.pad()

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	for k, pts := range orbit.Points {
		if len(pts) == 0 {
			continue
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, orbitColors[k%len(orbitColors)])
		for i, p := range pts {
			x, y := b.project(p.X, p.Y, width, height)
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// SnapshotToSVG plots the xy projection of every particle inside the root
// cube of the given half extent. Particles outside the cube are skipped.
func SnapshotToSVG(ps *particle.Store, halfExtent float64, size int) string {
	if ps == nil || halfExtent <= 0 || size <= 0 {
		return ""
	}
	b := bounds{-halfExtent, halfExtent, -halfExtent, halfExtent}
	var sb strings.Builder
	header(&sb, float64(size), float64(size))
	sb.WriteString("<g fill=\"#00ccff\">\n")
	for _, p := range ps.All() {
		x, y := p.Position.X(), p.Position.Y()
		if math.Abs(x) > halfExtent || math.Abs(y) > halfExtent {
			continue
		}
		cx, cy := b.project(x, y, size, size)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1.5\"/>\n", cx, cy)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
