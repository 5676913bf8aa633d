// Package zonal computes per-vegetation-class statistics of LAI rasters.
package zonal

import (
	"math"
	"slices"

	"github.com/verdantmetrics/lai-forecast-poc/internal/boundary"
	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
	"gonum.org/v1/gonum/stat"
)

// ClassStatistics summarizes the LAI sample of one vegetation class on one
// date. Count is the number of qualifying pixels; every float field is NaN
// when Count == 0 (and Std additionally when Count == 1), so callers must
// gate on Count before using them.
type ClassStatistics struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Aggregate computes ClassStatistics for every declared class. A pixel
// contributes to class c iff the mask covers it, the class raster assigns c,
// and the LAI value is not nodata. Classes with no qualifying pixels still
// get an entry. Samples are gathered in row-major order and reduced with a
// fixed-order pass, so identical inputs produce bit-identical output.
func Aggregate(lai, classes *raster.Raster, mask *boundary.Mask, classIDs []int) (map[int]ClassStatistics, error) {
	if !lai.Grid.Same(classes.Grid) {
		return nil, &raster.GridMismatchError{Reason: "LAI and class rasters are not co-registered"}
	}
	if !lai.Grid.Same(mask.Grid) {
		return nil, &raster.GridMismatchError{Reason: "LAI raster and study-area mask are not co-registered"}
	}

	declared := make(map[int]struct{}, len(classIDs))
	for _, id := range classIDs {
		declared[id] = struct{}{}
	}

	samples := make(map[int][]float64, len(classIDs))
	for i, v := range lai.Data {
		if !mask.Cells[i] || raster.IsNoData(v) {
			continue
		}
		c := classes.Data[i]
		if raster.IsNoData(c) {
			continue
		}
		id := int(c)
		if _, ok := declared[id]; !ok {
			continue
		}
		samples[id] = append(samples[id], v)
	}

	result := make(map[int]ClassStatistics, len(classIDs))
	for _, id := range classIDs {
		result[id] = summarize(samples[id])
	}
	return result, nil
}

func summarize(values []float64) ClassStatistics {
	if len(values) == 0 {
		nan := math.NaN()
		return ClassStatistics{Count: 0, Mean: nan, Std: nan, Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan}
	}

	mean, std := stat.MeanStdDev(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return ClassStatistics{
		Count:  len(values),
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}
