// Package pipeline drives the per-day normalization run: align, aggregate,
// derive factors, apply, and collect statistics for every date shared by the
// base and forecast LAI collections.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
	"github.com/verdantmetrics/lai-forecast-poc/internal/boundary"
	"github.com/verdantmetrics/lai-forecast-poc/internal/normalize"
	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
	"github.com/verdantmetrics/lai-forecast-poc/internal/utils"
	"github.com/verdantmetrics/lai-forecast-poc/internal/zonal"
)

const (
	PeriodBase      = "base"
	PeriodPredicted = "predicted"
)

// StatRow is one line of the output statistics table: one (date, class,
// period) triple. Float fields are NaN for zero-count classes; consumers
// gate on pixel_count.
type StatRow struct {
	Date   time.Time `csv:"date"`
	Class  int       `csv:"vegetation_class"`
	Count  int       `csv:"pixel_count"`
	Mean   float64   `csv:"mean_lai"`
	Std    float64   `csv:"std_lai"`
	Min    float64   `csv:"min_lai"`
	Q1     float64   `csv:"q1_lai"`
	Median float64   `csv:"median_lai"`
	Q3     float64   `csv:"q3_lai"`
	Max    float64   `csv:"max_lai"`
	Period string    `csv:"period"`
}

type Inputs struct {
	BaseLAI     map[time.Time]*raster.Raster
	ForecastLAI map[time.Time]*raster.Raster

	// BaseClasses is the reference grid every raster is aligned to.
	BaseClasses     *raster.Raster
	ForecastClasses *raster.Raster

	Mask *boundary.Mask

	// ClassIDs is the closed class enumeration. When empty, the union of
	// classes present in the two class rasters is used.
	ClassIDs []int

	// Workers caps concurrent per-date processing. Defaults to 4.
	Workers int
}

type SkippedDate struct {
	Date   time.Time
	Reason string
}

type FailedDate struct {
	Date time.Time
	Err  error
}

// FactorWarning records an undefined normalization factor for one class on
// one date. Never fatal.
type FactorWarning struct {
	Date   time.Time
	Class  int
	Reason string
}

type Summary struct {
	Processed []time.Time
	Skipped   []SkippedDate
	Failed    []FailedDate
	Warnings  []FactorWarning
}

func (s Summary) String() string {
	return fmt.Sprintf("%d dates processed, %d skipped, %d failed, %d factor warnings",
		len(s.Processed), len(s.Skipped), len(s.Failed), len(s.Warnings))
}

type Result struct {
	// Normalized holds one forecast raster per successfully processed date.
	Normalized map[time.Time]*raster.Raster
	Stats      []StatRow
	Summary    Summary
}

// fragment is the immutable per-date output merged after all workers finish.
type fragment struct {
	normalized *raster.Raster
	rows       []StatRow
	warnings   []normalize.UndefinedFactor
	err        error
}

// Run executes the daily pipeline. Shared-input problems (nil rasters, a
// mask off the reference grid, an unalignable forecast class map) are fatal;
// a single date's failure is recorded in the summary and never aborts
// sibling dates.
func Run(ctx context.Context, in Inputs) (*Result, error) {
	if in.BaseClasses == nil || in.ForecastClasses == nil {
		return nil, errors.New("base and forecast class rasters are required")
	}
	if in.Mask == nil {
		return nil, errors.New("study-area mask is required")
	}
	if !in.Mask.Grid.Same(in.BaseClasses.Grid) {
		return nil, &raster.GridMismatchError{Reason: "study-area mask is not on the reference grid"}
	}

	classIDs := slices.Clone(in.ClassIDs)
	if len(classIDs) == 0 {
		classIDs = unionClasses(in.BaseClasses, in.ForecastClasses)
	}
	slices.Sort(classIDs)

	// The class rasters are date-independent: align the forecast map to the
	// reference grid once instead of per date.
	forecastClasses, err := raster.Align(in.BaseClasses, in.ForecastClasses, raster.NearestNeighbor)
	if err != nil {
		return nil, fmt.Errorf("failed to align forecast class raster: %w", err)
	}

	shared, skipped := matchDates(in.BaseLAI, in.ForecastLAI)

	workers := in.Workers
	if workers < 1 {
		workers = 4
	}

	var (
		mu        sync.Mutex
		fragments = make(map[time.Time]*fragment, len(shared))
		bar       = progressbar.Default(int64(len(shared)), "Processing dates")
		wp        = workerpool.New(workers)
	)

	for _, date := range shared {
		// Caller-level abort: checked between dates, never mid-date.
		if ctx.Err() != nil {
			skipped = append(skipped, SkippedDate{Date: date, Reason: "run aborted"})
			continue
		}

		d := date
		wp.Submit(func() {
			frag := processDate(d, in, forecastClasses, classIDs)
			mu.Lock()
			fragments[d] = frag
			bar.Add(1)
			mu.Unlock()
		})
	}

	wp.StopWait()
	bar.Finish()
	fmt.Println()

	return merge(shared, skipped, fragments), nil
}

func processDate(date time.Time, in Inputs, forecastClasses *raster.Raster, classIDs []int) *fragment {
	baseLAI, err := raster.Align(in.BaseClasses, in.BaseLAI[date], raster.Bilinear)
	if err != nil {
		return &fragment{err: fmt.Errorf("aligning base LAI: %w", err)}
	}
	forecastLAI, err := raster.Align(in.BaseClasses, in.ForecastLAI[date], raster.Bilinear)
	if err != nil {
		return &fragment{err: fmt.Errorf("aligning forecast LAI: %w", err)}
	}

	baseStats, err := zonal.Aggregate(baseLAI, in.BaseClasses, in.Mask, classIDs)
	if err != nil {
		return &fragment{err: fmt.Errorf("aggregating base period: %w", err)}
	}
	predictedStats, err := zonal.Aggregate(forecastLAI, forecastClasses, in.Mask, classIDs)
	if err != nil {
		return &fragment{err: fmt.Errorf("aggregating forecast period: %w", err)}
	}

	factors, undefined := normalize.DeriveFactors(baseStats, predictedStats, classIDs)

	normalized, err := normalize.Apply(forecastLAI, forecastClasses, factors)
	if err != nil {
		return &fragment{err: fmt.Errorf("applying factors: %w", err)}
	}

	rows := make([]StatRow, 0, 2*len(classIDs))
	for _, id := range classIDs {
		rows = append(rows, statRow(date, id, baseStats[id], PeriodBase))
		rows = append(rows, statRow(date, id, predictedStats[id], PeriodPredicted))
	}

	return &fragment{normalized: normalized, rows: rows, warnings: undefined}
}

func statRow(date time.Time, class int, s zonal.ClassStatistics, period string) StatRow {
	return StatRow{
		Date:   date,
		Class:  class,
		Count:  s.Count,
		Mean:   s.Mean,
		Std:    s.Std,
		Min:    s.Min,
		Q1:     s.Q1,
		Median: s.Median,
		Q3:     s.Q3,
		Max:    s.Max,
		Period: period,
	}
}

// matchDates pairs the two collections: only dates present in both are
// processed; the rest are skipped with a reason, in ascending order.
func matchDates(base, forecast map[time.Time]*raster.Raster) ([]time.Time, []SkippedDate) {
	var shared []time.Time
	var skipped []SkippedDate

	for _, date := range utils.GetSortedKeys(base, true) {
		if _, ok := forecast[date]; ok {
			shared = append(shared, date)
		} else {
			skipped = append(skipped, SkippedDate{Date: date, Reason: "no matching forecast date"})
		}
	}
	for _, date := range utils.GetSortedKeys(forecast, true) {
		if _, ok := base[date]; !ok {
			skipped = append(skipped, SkippedDate{Date: date, Reason: "no matching base date"})
		}
	}

	return shared, skipped
}

// merge reduces per-date fragments into the final result in date order, so
// the output is identical no matter how many workers produced them.
func merge(shared []time.Time, skipped []SkippedDate, fragments map[time.Time]*fragment) *Result {
	result := &Result{Normalized: make(map[time.Time]*raster.Raster)}
	result.Summary.Skipped = skipped

	for _, date := range shared {
		frag, ok := fragments[date]
		if !ok {
			// Submission stopped before this date (aborted run).
			continue
		}
		if frag.err != nil {
			result.Summary.Failed = append(result.Summary.Failed, FailedDate{Date: date, Err: frag.err})
			continue
		}

		result.Normalized[date] = frag.normalized
		result.Stats = append(result.Stats, frag.rows...)
		for _, w := range frag.warnings {
			result.Summary.Warnings = append(result.Summary.Warnings, FactorWarning{
				Date:   date,
				Class:  w.Class,
				Reason: w.Reason,
			})
		}
		result.Summary.Processed = append(result.Summary.Processed, date)
	}

	return result
}

func unionClasses(rasters ...*raster.Raster) []int {
	seen := make(map[int]struct{})
	for _, r := range rasters {
		for _, id := range zonal.Declared(r) {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
