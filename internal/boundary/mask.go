package boundary

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
)

// Mask is a boolean study-area raster co-registered to the working grid.
// Pixels outside the boundary polygon are excluded from all statistics.
type Mask struct {
	Grid  raster.Grid `json:"grid"`
	Cells []bool      `json:"cells"`
}

// RasterizeMask burns the boundary onto the grid: a cell is inside when its
// pixel center falls within the polygon.
func RasterizeMask(mp orb.MultiPolygon, grid raster.Grid) *Mask {
	cells := make([]bool, grid.Pixels())
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			cx, cy := grid.PixelCenter(x, y)
			cells[y*grid.Width+x] = planar.MultiPolygonContains(mp, orb.Point{cx, cy})
		}
	}
	return &Mask{Grid: grid, Cells: cells}
}

// FullMask covers the whole grid. Used when no boundary is supplied.
func FullMask(grid raster.Grid) *Mask {
	cells := make([]bool, grid.Pixels())
	for i := range cells {
		cells[i] = true
	}
	return &Mask{Grid: grid, Cells: cells}
}

// CoveredCount returns the number of cells inside the study area.
func (m *Mask) CoveredCount() int {
	n := 0
	for _, c := range m.Cells {
		if c {
			n++
		}
	}
	return n
}
