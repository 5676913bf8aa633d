package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/verdantmetrics/lai-forecast-poc/internal/pipeline"
)

// WriteStatistics saves the per-day per-class statistics table as CSV, one
// row per (date, class, period) triple.
func WriteStatistics(rows []pipeline.StatRow, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create statistics file: %v", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write statistics CSV: %v", err)
	}

	return nil
}
