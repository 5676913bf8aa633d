package output

import (
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verdantmetrics/lai-forecast-poc/internal/catalog"
	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
	"github.com/verdantmetrics/lai-forecast-poc/internal/utils"
)

// WriteRasters persists one normalized GeoTIFF per forecast date into dir,
// named `<prefix>_<YYYYDDD>.tif`. Writes run concurrently; the first failure
// cancels the rest. Returns the written paths in date order.
func WriteRasters(normalized map[time.Time]*raster.Raster, dir, prefix string) ([]string, error) {
	dates := utils.GetSortedKeys(normalized, true)

	var g errgroup.Group
	g.SetLimit(4)

	paths := make([]string, len(dates))
	for i, date := range dates {
		path := filepath.Join(dir, catalog.DailyFileName(prefix, date))
		paths[i] = path
		r := normalized[date]
		g.Go(func() error {
			if err := raster.Write(path, r); err != nil {
				return fmt.Errorf("writing raster for %s: %w", date.Format("2006-01-02"), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
