package output

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/verdantmetrics/lai-forecast-poc/internal/pipeline"
)

type seriesStyle struct {
	minMax color.Color
	band   color.Color
	median color.Color
}

var (
	baseStyle = seriesStyle{
		minMax: color.RGBA{A: 255},
		band:   color.RGBA{R: 144, G: 238, B: 144, A: 128},
		median: color.RGBA{G: 128, A: 255},
	}
	predictedStyle = seriesStyle{
		minMax: color.RGBA{R: 255, A: 255},
		band:   color.RGBA{R: 173, G: 216, B: 230, A: 128},
		median: color.RGBA{B: 255, A: 255},
	}
)

// WriteComparisonPlots renders one PNG per vegetation class comparing the
// base and predicted daily LAI distributions: a Q1-Q3 band, thin min/max
// lines and a bold median line per period, over day of year.
func WriteComparisonPlots(rows []pipeline.StatRow, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %v", err)
	}

	classes := make(map[int]struct{})
	for _, row := range rows {
		classes[row.Class] = struct{}{}
	}
	ids := make([]int, 0, len(classes))
	for id := range classes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var paths []string
	for _, id := range ids {
		path := filepath.Join(dir, fmt.Sprintf("lai_comparison_%d.png", id))
		if err := comparisonPlot(rows, id, path); err != nil {
			return nil, fmt.Errorf("plotting class %d: %w", id, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func comparisonPlot(rows []pipeline.StatRow, class int, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Daily LAI for vegetation class %d: base vs predicted", class)
	p.X.Label.Text = "Day of Year"
	p.Y.Label.Text = "LAI"
	p.Y.Min = 0

	if err := addPeriodSeries(p, classRows(rows, class, pipeline.PeriodBase), "base", baseStyle); err != nil {
		return err
	}
	if err := addPeriodSeries(p, classRows(rows, class, pipeline.PeriodPredicted), "predicted", predictedStyle); err != nil {
		return err
	}

	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}

func classRows(rows []pipeline.StatRow, class int, period string) []pipeline.StatRow {
	var out []pipeline.StatRow
	for _, row := range rows {
		if row.Class == class && row.Period == period && row.Count > 0 {
			out = append(out, row)
		}
	}
	slices.SortFunc(out, func(a, b pipeline.StatRow) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

func addPeriodSeries(p *plot.Plot, rows []pipeline.StatRow, label string, style seriesStyle) error {
	if len(rows) == 0 {
		return nil
	}

	band := make(plotter.XYs, 0, 2*len(rows))
	minPts := make(plotter.XYs, 0, len(rows))
	maxPts := make(plotter.XYs, 0, len(rows))
	medianPts := make(plotter.XYs, 0, len(rows))

	for _, row := range rows {
		day := float64(row.Date.YearDay())
		if !math.IsNaN(row.Q3) {
			band = append(band, plotter.XY{X: day, Y: row.Q3})
		}
		minPts = append(minPts, plotter.XY{X: day, Y: row.Min})
		maxPts = append(maxPts, plotter.XY{X: day, Y: row.Max})
		medianPts = append(medianPts, plotter.XY{X: day, Y: row.Median})
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if !math.IsNaN(rows[i].Q1) {
			band = append(band, plotter.XY{X: float64(rows[i].Date.YearDay()), Y: rows[i].Q1})
		}
	}

	if len(band) > 2 {
		poly, err := plotter.NewPolygon(band)
		if err != nil {
			return err
		}
		poly.Color = style.band
		poly.LineStyle.Width = 0
		p.Add(poly)
		p.Legend.Add(label+" Q1-Q3", poly)
	}

	for _, series := range []struct {
		pts   plotter.XYs
		width vg.Length
		color color.Color
		name  string
	}{
		{minPts, vg.Points(0.5), style.minMax, label + " min"},
		{maxPts, vg.Points(0.5), style.minMax, label + " max"},
		{medianPts, vg.Points(2), style.median, label + " median"},
	} {
		line, err := plotter.NewLine(series.pts)
		if err != nil {
			return err
		}
		line.Color = series.color
		line.Width = series.width
		p.Add(line)
		p.Legend.Add(series.name, line)
	}

	return nil
}
