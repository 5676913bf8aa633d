package raster

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/airbusgeo/godal"
)

var registerDrivers sync.Once

func gdalSetup() {
	registerDrivers.Do(godal.RegisterAll)
}

// silenceWarnings keeps GDAL warnings (stale statistics, slightly off-spec
// tags) from surfacing as errors while still failing on real errors.
func silenceWarnings(ec godal.ErrorCategory, code int, msg string) error {
	if ec <= godal.CE_Warning {
		return nil
	}
	return fmt.Errorf("gdal: %s", msg)
}

// Read loads the first band of a raster file. Pixels equal to the file's
// nodata sentinel come back as NaN, matching the in-memory convention.
func Read(path string) (*Raster, error) {
	gdalSetup()

	ds, err := godal.Open(path, godal.ErrLogger(silenceWarnings))
	if err != nil {
		return nil, &RasterReadError{Path: path, Err: err}
	}
	defer ds.Close()

	sr := ds.SpatialRef()
	defer sr.Close()
	wkt, err := sr.WKT()
	if err != nil || wkt == "" {
		return nil, &RasterReadError{Path: path, Err: errors.New("undefined CRS")}
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, &RasterReadError{Path: path, Err: err}
	}

	st := ds.Structure()
	grid := Grid{
		Width:        st.SizeX,
		Height:       st.SizeY,
		GeoTransform: gt,
		Projection:   wkt,
	}

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, &RasterReadError{Path: path, Err: errors.New("raster has no bands")}
	}
	band := bands[0]

	data := make([]float64, grid.Pixels())
	if err := band.Read(0, 0, data, grid.Width, grid.Height); err != nil {
		return nil, &RasterReadError{Path: path, Err: err}
	}

	if nodata, ok := band.NoData(); ok {
		for i, v := range data {
			if v == nodata {
				data[i] = math.NaN()
			}
		}
	}

	return &Raster{Grid: grid, Data: data}, nil
}

// Write persists a raster as a single-band Float32 GeoTIFF with LZW
// compression and NaN nodata, embedding transform and CRS.
func Write(path string, r *Raster) error {
	gdalSetup()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &RasterWriteError{Path: path, Err: err}
	}

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, r.Width, r.Height,
		godal.CreationOption("COMPRESS=LZW"), godal.ErrLogger(silenceWarnings))
	if err != nil {
		return &RasterWriteError{Path: path, Err: err}
	}

	if err := ds.SetGeoTransform(r.GeoTransform); err != nil {
		ds.Close()
		return &RasterWriteError{Path: path, Err: err}
	}

	sr, err := godal.NewSpatialRefFromWKT(r.Projection)
	if err != nil {
		ds.Close()
		return &RasterWriteError{Path: path, Err: err}
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		ds.Close()
		return &RasterWriteError{Path: path, Err: err}
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(math.NaN()); err != nil {
		ds.Close()
		return &RasterWriteError{Path: path, Err: err}
	}
	if err := band.Write(0, 0, r.Data, r.Width, r.Height); err != nil {
		ds.Close()
		return &RasterWriteError{Path: path, Err: err}
	}

	if err := ds.Close(); err != nil {
		return &RasterWriteError{Path: path, Err: err}
	}
	return nil
}
