package zonal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantmetrics/lai-forecast-poc/internal/boundary"
	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
)

func testGrid(w, h int) raster.Grid {
	return raster.Grid{
		Width:        w,
		Height:       h,
		GeoTransform: [6]float64{0, 1, 0, 0, 0, -1},
		Projection:   `LOCAL_CS["test"]`,
	}
}

func rasterOf(grid raster.Grid, values ...float64) *raster.Raster {
	r := raster.New(grid)
	copy(r.Data, values)
	return r
}

func TestAggregateCountsCoverAllPixels(t *testing.T) {
	grid := testGrid(2, 2)
	lai := rasterOf(grid, 1, 2, 3, 4)
	classes := rasterOf(grid, 1, 1, 2, 2)
	mask := boundary.FullMask(grid)

	stats, err := Aggregate(lai, classes, mask, []int{1, 2})
	require.NoError(t, err)

	total := 0
	for _, s := range stats {
		total += s.Count
	}
	assert.Equal(t, grid.Pixels(), total)
}

func TestAggregateBasicStatistics(t *testing.T) {
	grid := testGrid(2, 2)
	lai := rasterOf(grid, 2, 4, 10, 10)
	classes := rasterOf(grid, 1, 1, 2, 2)
	mask := boundary.FullMask(grid)

	stats, err := Aggregate(lai, classes, mask, []int{1, 2})
	require.NoError(t, err)

	assert.Equal(t, 2, stats[1].Count)
	assert.Equal(t, 3.0, stats[1].Mean)
	assert.Equal(t, 2.0, stats[1].Min)
	assert.Equal(t, 4.0, stats[1].Max)
	assert.Equal(t, 3.0, stats[1].Median)

	assert.Equal(t, 2, stats[2].Count)
	assert.Equal(t, 10.0, stats[2].Mean)
	assert.Equal(t, 0.0, stats[2].Std)
}

func TestAggregateEmitsZeroCountEntries(t *testing.T) {
	grid := testGrid(2, 1)
	lai := rasterOf(grid, 1, 2)
	classes := rasterOf(grid, 1, 1)
	mask := boundary.FullMask(grid)

	stats, err := Aggregate(lai, classes, mask, []int{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, 0, stats[2].Count)
	assert.True(t, math.IsNaN(stats[2].Mean))
	assert.True(t, math.IsNaN(stats[2].Std))
	assert.Equal(t, 0, stats[3].Count)
}

func TestAggregateExcludesNoDataAndMaskedPixels(t *testing.T) {
	grid := testGrid(2, 2)
	lai := rasterOf(grid, 1, math.NaN(), 3, 4)
	classes := rasterOf(grid, 1, 1, 1, 1)
	mask := boundary.FullMask(grid)
	mask.Cells[3] = false // drop the pixel holding 4

	stats, err := Aggregate(lai, classes, mask, []int{1})
	require.NoError(t, err)

	assert.Equal(t, 2, stats[1].Count)
	assert.Equal(t, 2.0, stats[1].Mean)
}

func TestAggregateIgnoresUndeclaredClasses(t *testing.T) {
	grid := testGrid(2, 1)
	lai := rasterOf(grid, 1, 2)
	classes := rasterOf(grid, 1, 9)
	mask := boundary.FullMask(grid)

	stats, err := Aggregate(lai, classes, mask, []int{1})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[1].Count)
}

func TestAggregateRejectsMismatchedGrids(t *testing.T) {
	lai := raster.New(testGrid(2, 2))
	classes := raster.New(testGrid(3, 2))
	mask := boundary.FullMask(testGrid(2, 2))

	_, err := Aggregate(lai, classes, mask, []int{1})
	require.Error(t, err)
	assert.True(t, raster.AsGridMismatch(err))
}

func TestAggregateIsDeterministic(t *testing.T) {
	grid := testGrid(4, 4)
	lai := raster.New(grid)
	classes := raster.New(grid)
	for i := range lai.Data {
		lai.Data[i] = 0.1 * float64(i*i%17)
		classes.Data[i] = float64(1 + i%3)
	}
	mask := boundary.FullMask(grid)

	first, err := Aggregate(lai, classes, mask, []int{1, 2, 3})
	require.NoError(t, err)
	second, err := Aggregate(lai, classes, mask, []int{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReclassifyDigitIndices(t *testing.T) {
	grid := testGrid(2, 2)
	src := rasterOf(grid, 6134, 6110, 2100, math.NaN())

	out := Reclassify(src, []int{1, 2, 3}, map[int]int{611: 610})

	assert.Equal(t, 613.0, out.At(0, 0))
	assert.Equal(t, 610.0, out.At(1, 0)) // 611 folded into 610
	assert.Equal(t, 210.0, out.At(0, 1))
	assert.Equal(t, float64(OutOfClass), out.At(1, 1))
}

func TestReclassifyShortCodesKeepAvailableDigits(t *testing.T) {
	grid := testGrid(2, 1)
	src := rasterOf(grid, 61, -5)

	out := Reclassify(src, []int{1, 2, 3}, nil)

	assert.Equal(t, 61.0, out.At(0, 0))
	assert.Equal(t, float64(OutOfClass), out.At(1, 0))
}

func TestReclassifyDoesNotMutateInput(t *testing.T) {
	grid := testGrid(2, 1)
	src := rasterOf(grid, 6134, 2100)

	_ = Reclassify(src, []int{1, 2}, nil)

	assert.Equal(t, 6134.0, src.At(0, 0))
}

func TestDeclared(t *testing.T) {
	grid := testGrid(3, 1)
	classes := rasterOf(grid, 2, 0, 1)

	assert.Equal(t, []int{1, 2}, Declared(classes))
}
