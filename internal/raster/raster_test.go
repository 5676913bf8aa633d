package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid(w, h int) Grid {
	return Grid{
		Width:        w,
		Height:       h,
		GeoTransform: [6]float64{500000, 10, 0, 5600000, 0, -10},
		Projection:   `LOCAL_CS["test"]`,
	}
}

func TestGridSame(t *testing.T) {
	g := testGrid(4, 3)
	assert.True(t, g.Same(testGrid(4, 3)))

	shifted := testGrid(4, 3)
	shifted.GeoTransform[0] += 10
	assert.False(t, g.Same(shifted))

	resized := testGrid(5, 3)
	assert.False(t, g.Same(resized))

	reprojected := testGrid(4, 3)
	reprojected.Projection = `LOCAL_CS["other"]`
	assert.False(t, g.Same(reprojected))
}

func TestGridPixelCenter(t *testing.T) {
	g := testGrid(4, 3)
	x, y := g.PixelCenter(0, 0)
	assert.Equal(t, 500005.0, x)
	assert.Equal(t, 5599995.0, y)
}

func TestGridBounds(t *testing.T) {
	g := testGrid(4, 3)
	minX, minY, maxX, maxY := g.Bounds()
	assert.Equal(t, 500000.0, minX)
	assert.Equal(t, 500040.0, maxX)
	assert.Equal(t, 5599970.0, minY)
	assert.Equal(t, 5600000.0, maxY)
}

func TestNewIsAllNoData(t *testing.T) {
	r := New(testGrid(3, 2))
	require.Len(t, r.Data, 6)
	assert.Equal(t, 0, r.ValidCount())
}

func TestCloneDoesNotAliasData(t *testing.T) {
	r := NewFilled(testGrid(2, 2), 1.5)
	c := r.Clone()
	c.Set(0, 0, 9)

	assert.Equal(t, 1.5, r.At(0, 0))
	assert.Equal(t, 9.0, c.At(0, 0))
}

func TestIsNoData(t *testing.T) {
	assert.True(t, IsNoData(math.NaN()))
	assert.False(t, IsNoData(0))
	assert.False(t, IsNoData(-3.5))
}

func TestAlignNoopWhenCoRegistered(t *testing.T) {
	ref := NewFilled(testGrid(3, 3), 2)
	target := NewFilled(testGrid(3, 3), 7)

	out, err := Align(ref, target, Bilinear)
	require.NoError(t, err)
	assert.Equal(t, target.Data, out.Data)

	// The result is a copy, not the input raster.
	out.Set(0, 0, 0)
	assert.Equal(t, 7.0, target.At(0, 0))
}

func TestAlignRejectsUndefinedCRS(t *testing.T) {
	ref := NewFilled(testGrid(3, 3), 2)
	target := NewFilled(testGrid(3, 3), 7)
	target.Projection = ""

	_, err := Align(ref, target, NearestNeighbor)
	require.Error(t, err)
	assert.True(t, AsGridMismatch(err))
}
