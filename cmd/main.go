package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/verdantmetrics/lai-forecast-poc/internal/boundary"
	"github.com/verdantmetrics/lai-forecast-poc/internal/cache"
	"github.com/verdantmetrics/lai-forecast-poc/internal/catalog"
	"github.com/verdantmetrics/lai-forecast-poc/internal/notification"
	"github.com/verdantmetrics/lai-forecast-poc/internal/pipeline"
	"github.com/verdantmetrics/lai-forecast-poc/internal/properties"
	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
	"github.com/verdantmetrics/lai-forecast-poc/internal/zonal"
	"github.com/verdantmetrics/lai-forecast-poc/output"
)

// Vegetation class codes keep their first three digits; the 611/612/613
// subtypes fold into 610, matching the reference classification.
var (
	classDigitIndices = []int{1, 2, 3}
	classReplacements = map[int]int{611: 610, 612: 610, 613: 610}
)

func printBanner() {
	figure1 := figure.NewFigure("LAI", "isometric1", true)
	figure2 := figure.NewFigure("Forecast", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <base-vegetation.tif> <predicted-vegetation.tif> <base-lai-dir> <forecast-lai-dir> <boundary.geojson> <output-dir>\n", os.Args[0])
	os.Exit(2)
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment")
	}

	printBanner()

	if len(os.Args) != 7 {
		usage()
	}
	baseVegPath, predictedVegPath := os.Args[1], os.Args[2]
	baseLAIDir, forecastLAIDir := os.Args[3], os.Args[4]
	boundaryPath, outputDir := os.Args[5], os.Args[6]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, baseVegPath, predictedVegPath, baseLAIDir, forecastLAIDir, boundaryPath, outputDir); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		notification.SendDiscordErrorNotification(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, baseVegPath, predictedVegPath, baseLAIDir, forecastLAIDir, boundaryPath, outputDir string) error {
	// Shared inputs: a failure here is fatal, every date depends on them.
	baseVeg, err := raster.Read(baseVegPath)
	if err != nil {
		return err
	}
	predictedVeg, err := raster.Read(predictedVegPath)
	if err != nil {
		return err
	}

	baseClasses := zonal.Reclassify(baseVeg, classDigitIndices, classReplacements)
	forecastClasses := zonal.Reclassify(predictedVeg, classDigitIndices, classReplacements)

	mask, err := buildMask(boundaryPath, baseClasses.Grid)
	if err != nil {
		return err
	}
	fmt.Printf("Study area covers %d of %d pixels\n", mask.CoveredCount(), baseClasses.Pixels())

	baseLAI, err := loadDailyRasters(baseLAIDir, "base")
	if err != nil {
		return err
	}
	forecastLAI, err := loadDailyRasters(forecastLAIDir, "forecast")
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, pipeline.Inputs{
		BaseLAI:         baseLAI,
		ForecastLAI:     forecastLAI,
		BaseClasses:     baseClasses,
		ForecastClasses: forecastClasses,
		Mask:            mask,
		Workers:         properties.Workers(),
	})
	if err != nil {
		return err
	}

	if err := writeOutputs(result, baseClasses, forecastClasses, baseVegPath, predictedVegPath, outputDir); err != nil {
		return err
	}

	printSummary(result.Summary)
	notifyCompletion(result.Summary)
	return nil
}

func buildMask(boundaryPath string, grid raster.Grid) (*boundary.Mask, error) {
	maskCache := cache.NewFileCache[boundary.Mask]("masks")
	key := maskCache.GenerateKey(boundaryPath, grid.Width, grid.Height, grid.GeoTransform, grid.Projection)

	if properties.MaskCacheEnabled() {
		if cached, ok := maskCache.Get(key); ok {
			fmt.Println("Using cached study-area mask")
			return &cached, nil
		}
	}

	geom, err := boundary.LoadBoundary(boundaryPath)
	if err != nil {
		return nil, err
	}
	projected, err := boundary.ReprojectBoundary(geom, grid.Projection)
	if err != nil {
		return nil, fmt.Errorf("failed to reproject boundary: %w", err)
	}

	mask := boundary.RasterizeMask(projected, grid)
	if properties.MaskCacheEnabled() {
		if err := maskCache.Set(key, *mask); err != nil {
			fmt.Println("Warning: failed to cache mask:", err)
		}
	}
	return mask, nil
}

func loadDailyRasters(dir, label string) (map[time.Time]*raster.Raster, error) {
	paths, warnings, err := catalog.EnumerateDaily(dir, ".tif")
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		fmt.Println("Warning:", warning)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s-period LAI rasters found in %s", label, dir)
	}

	rasters := make(map[time.Time]*raster.Raster, len(paths))
	for date, path := range paths {
		r, err := raster.Read(path)
		if err != nil {
			return nil, err
		}
		rasters[date] = r
	}
	fmt.Printf("Loaded %d %s-period LAI rasters from %s\n", len(rasters), label, dir)
	return rasters, nil
}

func writeOutputs(result *pipeline.Result, baseClasses, forecastClasses *raster.Raster, baseVegPath, predictedVegPath, outputDir string) error {
	if err := output.WriteStatistics(result.Stats, filepath.Join(outputDir, "stat_lai.csv")); err != nil {
		return err
	}

	predictYear, err := catalog.YearFromFilename(predictedVegPath)
	if err != nil {
		predictYear = 0
	}
	rasterDir := filepath.Join(outputDir, fmt.Sprintf("generated_lai_%d", predictYear))
	if _, err := output.WriteRasters(result.Normalized, rasterDir, "lai"); err != nil {
		return err
	}

	if _, err := output.WriteComparisonPlots(result.Stats, filepath.Join(outputDir, "plots")); err != nil {
		return err
	}

	for _, cm := range []struct {
		classes *raster.Raster
		source  string
	}{
		{baseClasses, baseVegPath},
		{forecastClasses, predictedVegPath},
	} {
		year, err := catalog.YearFromFilename(cm.source)
		if err != nil {
			continue
		}
		imagePath := filepath.Join(outputDir, fmt.Sprintf("landuse_%d.png", year))
		if err := output.CreateClassMapImage(cm.classes, imagePath); err != nil {
			return err
		}
	}

	fmt.Println("Outputs written to", outputDir)
	return nil
}

func printSummary(s pipeline.Summary) {
	fmt.Println("Run summary:", s)
	for _, skip := range s.Skipped {
		fmt.Printf("  skipped %s: %s\n", skip.Date.Format("2006-01-02"), skip.Reason)
	}
	for _, fail := range s.Failed {
		fmt.Printf("  failed %s: %v\n", fail.Date.Format("2006-01-02"), fail.Err)
	}
	for _, warn := range s.Warnings {
		fmt.Printf("  undefined factor on %s for class %d: %s\n", warn.Date.Format("2006-01-02"), warn.Class, warn.Reason)
	}
}

func notifyCompletion(s pipeline.Summary) {
	if len(s.Failed) > 0 || len(s.Skipped) > 0 {
		notification.SendDiscordWarnNotification(s.String())
		return
	}
	notification.SendDiscordSuccessNotification(s.String())
}
