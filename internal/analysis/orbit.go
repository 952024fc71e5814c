package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/sim"
)

type Point struct{ X, Y float64 }

// Orbit is the xy projection of selected particles' trajectories.
type Orbit struct {
	Particles []int
	Points    [][]Point
}

// TraceOrbits steps ps in place and records the xy position of each
// listed particle before every tick.
func TraceOrbits(ctx context.Context, s *sim.Simulator, ps *particle.Store, ids []int, cfg sim.Config) (*Orbit, error) {
	orbit := &Orbit{
		Particles: ids,
		Points:    make([][]Point, len(ids)),
	}
	for _, id := range ids {
		if id < 0 || id >= ps.Len() {
			return nil, fmt.Errorf("particle %d out of range [0, %d): %w", id, ps.Len(), dynamo.ErrParameterBounds)
		}
	}

	err := s.RunWithCallback(ctx, ps, cfg, func(ps *particle.Store, t float64) bool {
		for k, id := range ids {
			p := ps.At(id).Position
			orbit.Points[k] = append(orbit.Points[k], Point{X: p.X(), Y: p.Y()})
		}
		return true
	})
	return orbit, err
}

// orbitGlyphs marks successive particles.
var orbitGlyphs = []rune{'•', '∘', '×', '+', '◆', '▪'}

// OrbitToASCII plots every traced particle on one canvas.
func OrbitToASCII(orbit *Orbit, width, height int) string {
	if orbit == nil || width <= 0 || height <= 0 {
		return ""
	}

	first := true
	var minX, maxX, minY, maxY float64
	for _, pts := range orbit.Points {
		for _, p := range pts {
			if first {
				minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
				first = false
				continue
			}
			if p.X < minX {
				minX = p.X
			}
			if p.X > maxX {
				maxX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}
	if first {
		return ""
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			canvas[row][col] = '─'
		}
	}

	for k, pts := range orbit.Points {
		glyph := orbitGlyphs[k%len(orbitGlyphs)]
		for _, p := range pts {
			col := int((p.X - minX) / rangeX * float64(width-1))
			row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
			if row >= 0 && row < height && col >= 0 && col < width {
				canvas[row][col] = glyph
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
