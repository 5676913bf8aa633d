package raster

import "math"

// Grid describes the georeferencing of a raster: pixel dimensions, affine
// transform (GDAL order: originX, pixelW, rotX, originY, rotY, pixelH) and
// the CRS as WKT. Two rasters are co-registered only when their grids are
// exactly equal.
type Grid struct {
	Width, Height int
	GeoTransform  [6]float64
	Projection    string
}

func (g Grid) Same(other Grid) bool {
	return g.Width == other.Width &&
		g.Height == other.Height &&
		g.GeoTransform == other.GeoTransform &&
		g.Projection == other.Projection
}

func (g Grid) Pixels() int {
	return g.Width * g.Height
}

// PixelCenter returns the projected coordinates of the center of pixel (x, y).
func (g Grid) PixelCenter(x, y int) (float64, float64) {
	gt := g.GeoTransform
	cx := gt[0] + gt[1]*(float64(x)+0.5) + gt[2]*(float64(y)+0.5)
	cy := gt[3] + gt[4]*(float64(x)+0.5) + gt[5]*(float64(y)+0.5)
	return cx, cy
}

// Bounds returns the extent of the grid as minX, minY, maxX, maxY.
// Assumes the usual north-up transform (negative pixel height).
func (g Grid) Bounds() (float64, float64, float64, float64) {
	gt := g.GeoTransform
	minX := gt[0]
	maxY := gt[3]
	maxX := gt[0] + gt[1]*float64(g.Width)
	minY := gt[3] + gt[5]*float64(g.Height)
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return minX, minY, maxX, maxY
}

// Raster is a single-band grid of float64 samples in row-major order.
// Nodata is encoded as NaN. Rasters are treated as immutable once built:
// every transformation in the pipeline allocates a new one.
type Raster struct {
	Grid
	Data []float64
}

// New allocates a raster on the given grid with every pixel set to nodata.
func New(grid Grid) *Raster {
	data := make([]float64, grid.Pixels())
	for i := range data {
		data[i] = math.NaN()
	}
	return &Raster{Grid: grid, Data: data}
}

// NewFilled allocates a raster on the given grid with every pixel set to v.
func NewFilled(grid Grid, v float64) *Raster {
	data := make([]float64, grid.Pixels())
	for i := range data {
		data[i] = v
	}
	return &Raster{Grid: grid, Data: data}
}

func (r *Raster) Clone() *Raster {
	data := make([]float64, len(r.Data))
	copy(data, r.Data)
	return &Raster{Grid: r.Grid, Data: data}
}

func (r *Raster) At(x, y int) float64 {
	return r.Data[y*r.Width+x]
}

func (r *Raster) Set(x, y int, v float64) {
	r.Data[y*r.Width+x] = v
}

// ValidCount counts pixels that are not nodata.
func (r *Raster) ValidCount() int {
	n := 0
	for _, v := range r.Data {
		if !IsNoData(v) {
			n++
		}
	}
	return n
}

func IsNoData(v float64) bool {
	return math.IsNaN(v)
}
