// Package normalize derives per-class scale factors between base-period and
// forecast-period LAI statistics and applies them pixel-wise.
package normalize

import (
	"math"
	"slices"

	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
	"github.com/verdantmetrics/lai-forecast-poc/internal/zonal"
)

// UndefinedFactor records a class whose normalization factor could not be
// derived on a given date. Non-fatal: the class is excluded from that date's
// normalized output.
type UndefinedFactor struct {
	Class  int
	Reason string
}

// DeriveFactor returns the multiplicative factor aligning forecast-period
// LAI to the base-period scale for one class.
//
// Factor = base.Mean / predicted.Mean when both samples are non-empty and
// the predicted mean is nonzero. A zero predicted mean with pixels present
// yields exactly 1.0 (no-op scaling rather than a division by zero). An
// empty sample on either side leaves the factor undefined (ok == false).
func DeriveFactor(base, predicted zonal.ClassStatistics) (float64, bool) {
	if base.Count == 0 || predicted.Count == 0 {
		return math.NaN(), false
	}
	if predicted.Mean == 0 {
		return 1.0, true
	}
	return base.Mean / predicted.Mean, true
}

// DeriveFactors derives factors for every declared class, reporting the
// classes whose factor is undefined in ascending class order.
func DeriveFactors(baseStats, predictedStats map[int]zonal.ClassStatistics, classIDs []int) (map[int]float64, []UndefinedFactor) {
	factors := make(map[int]float64, len(classIDs))
	var undefined []UndefinedFactor

	ids := slices.Clone(classIDs)
	slices.Sort(ids)

	for _, id := range ids {
		base := baseStats[id]
		predicted := predictedStats[id]

		if factor, ok := DeriveFactor(base, predicted); ok {
			factors[id] = factor
			continue
		}

		reason := "no forecast-period pixels"
		if base.Count == 0 {
			reason = "no base-period pixels"
		}
		undefined = append(undefined, UndefinedFactor{Class: id, Reason: reason})
	}

	return factors, undefined
}

// Apply scales every forecast LAI pixel by its class factor. A pixel is
// nodata in the output when its LAI is nodata, its class is nodata, or its
// class has no defined factor. The inputs are never mutated.
func Apply(forecastLAI, classes *raster.Raster, factors map[int]float64) (*raster.Raster, error) {
	if !forecastLAI.Grid.Same(classes.Grid) {
		return nil, &raster.GridMismatchError{Reason: "forecast LAI and class rasters are not co-registered"}
	}

	out := raster.New(forecastLAI.Grid)
	for i, v := range forecastLAI.Data {
		if raster.IsNoData(v) {
			continue
		}
		c := classes.Data[i]
		if raster.IsNoData(c) {
			continue
		}
		factor, ok := factors[int(c)]
		if !ok {
			continue
		}
		out.Data[i] = v * factor
	}
	return out, nil
}
