package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/verdantmetrics/lai-forecast-poc/internal/properties"
	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
	"github.com/verdantmetrics/lai-forecast-poc/internal/zonal"
)

// CreateClassMapImage renders a vegetation class raster as a PNG using the
// configured class color map. Unmapped classes render gray, nodata and
// out-of-class pixels render black.
func CreateClassMapImage(classes *raster.Raster, outputImagePath string) error {
	if err := os.MkdirAll(filepath.Dir(outputImagePath), 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %v", err)
	}

	dc := gg.NewContext(classes.Width, classes.Height)
	for y := 0; y < classes.Height; y++ {
		for x := 0; x < classes.Width; x++ {
			v := classes.At(x, y)
			if raster.IsNoData(v) || int(v) == zonal.OutOfClass {
				dc.SetRGB(0, 0, 0)
				dc.SetPixel(x, y)
				continue
			}

			c, ok := properties.ClassColorMap[int(v)]
			if !ok {
				c = properties.Color{R: 128, G: 128, B: 128}
			}
			dc.SetRGB255(int(c.R), int(c.G), int(c.B))
			dc.SetPixel(x, y)
		}
	}

	if err := dc.SavePNG(outputImagePath); err != nil {
		return fmt.Errorf("failed to save class map image: %v", err)
	}
	return nil
}
