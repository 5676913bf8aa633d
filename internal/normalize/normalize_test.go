package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
	"github.com/verdantmetrics/lai-forecast-poc/internal/zonal"
)

func testGrid(w, h int) raster.Grid {
	return raster.Grid{
		Width:        w,
		Height:       h,
		GeoTransform: [6]float64{0, 1, 0, 0, 0, -1},
		Projection:   `LOCAL_CS["test"]`,
	}
}

func stats(count int, mean float64) zonal.ClassStatistics {
	return zonal.ClassStatistics{Count: count, Mean: mean}
}

func TestDeriveFactorRatio(t *testing.T) {
	factor, ok := DeriveFactor(stats(10, 3.0), stats(10, 1.5))
	require.True(t, ok)
	assert.Equal(t, 2.0, factor)
}

func TestDeriveFactorScaleConsistency(t *testing.T) {
	base := stats(10, 6.0)
	for _, k := range []float64{0.5, 2, 10} {
		unscaled, ok := DeriveFactor(base, stats(10, 2.0))
		require.True(t, ok)
		scaled, ok := DeriveFactor(base, stats(10, 2.0*k))
		require.True(t, ok)
		assert.InDelta(t, unscaled/k, scaled, 1e-12)
	}
}

func TestDeriveFactorUndefinedWhenPredictedEmpty(t *testing.T) {
	_, ok := DeriveFactor(stats(10, 3.0), stats(0, math.NaN()))
	assert.False(t, ok)
}

func TestDeriveFactorUndefinedWhenBaseEmpty(t *testing.T) {
	_, ok := DeriveFactor(stats(0, math.NaN()), stats(10, 3.0))
	assert.False(t, ok)
}

func TestDeriveFactorZeroPredictedMeanIsNoop(t *testing.T) {
	factor, ok := DeriveFactor(stats(10, 3.0), stats(5, 0))
	require.True(t, ok)
	assert.Equal(t, 1.0, factor)
}

func TestDeriveFactorsReportsUndefinedClasses(t *testing.T) {
	baseStats := map[int]zonal.ClassStatistics{
		1: stats(4, 2.0),
		2: stats(0, math.NaN()),
		3: stats(4, 5.0),
	}
	predictedStats := map[int]zonal.ClassStatistics{
		1: stats(4, 1.0),
		2: stats(4, 1.0),
		3: stats(0, math.NaN()),
	}

	factors, undefined := DeriveFactors(baseStats, predictedStats, []int{1, 2, 3})

	require.Len(t, factors, 1)
	assert.Equal(t, 2.0, factors[1])

	require.Len(t, undefined, 2)
	assert.Equal(t, UndefinedFactor{Class: 2, Reason: "no base-period pixels"}, undefined[0])
	assert.Equal(t, UndefinedFactor{Class: 3, Reason: "no forecast-period pixels"}, undefined[1])
}

func TestApplyScalesByClassFactor(t *testing.T) {
	grid := testGrid(2, 2)
	forecast := raster.New(grid)
	copy(forecast.Data, []float64{1, 1, 5, 5})
	classes := raster.New(grid)
	copy(classes.Data, []float64{1, 1, 2, 2})

	out, err := Apply(forecast, classes, map[int]float64{1: 3.0, 2: 2.0})
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 3, 10, 10}, out.Data)
}

func TestApplyExcludesClassesWithoutFactor(t *testing.T) {
	grid := testGrid(2, 1)
	forecast := raster.New(grid)
	copy(forecast.Data, []float64{1, 5})
	classes := raster.New(grid)
	copy(classes.Data, []float64{1, 2})

	out, err := Apply(forecast, classes, map[int]float64{1: 2.0})
	require.NoError(t, err)

	assert.Equal(t, 2.0, out.At(0, 0))
	assert.True(t, raster.IsNoData(out.At(1, 0)))
}

func TestApplyPropagatesNoData(t *testing.T) {
	grid := testGrid(2, 1)
	forecast := raster.New(grid)
	copy(forecast.Data, []float64{math.NaN(), 5})
	classes := raster.New(grid)
	copy(classes.Data, []float64{1, math.NaN()})

	out, err := Apply(forecast, classes, map[int]float64{1: 2.0})
	require.NoError(t, err)

	assert.True(t, raster.IsNoData(out.At(0, 0)))
	assert.True(t, raster.IsNoData(out.At(1, 0)))
}

func TestApplyDoesNotMutateInputs(t *testing.T) {
	grid := testGrid(1, 1)
	forecast := raster.New(grid)
	forecast.Data[0] = 2
	classes := raster.New(grid)
	classes.Data[0] = 1

	_, err := Apply(forecast, classes, map[int]float64{1: 10})
	require.NoError(t, err)

	assert.Equal(t, 2.0, forecast.Data[0])
	assert.Equal(t, 1.0, classes.Data[0])
}

func TestApplyRejectsMismatchedGrids(t *testing.T) {
	forecast := raster.New(testGrid(2, 1))
	classes := raster.New(testGrid(1, 2))

	_, err := Apply(forecast, classes, nil)
	require.Error(t, err)
	assert.True(t, raster.AsGridMismatch(err))
}
