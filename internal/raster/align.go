package raster

import (
	"errors"
	"math"
	"strconv"

	"github.com/airbusgeo/godal"
	"github.com/verdantmetrics/lai-forecast-poc/internal/utils"
)

// Resampling selects the gdalwarp kernel used by Align.
type Resampling string

const (
	// NearestNeighbor preserves discrete class labels.
	NearestNeighbor Resampling = "near"
	// Bilinear is used for continuous LAI rasters.
	Bilinear Resampling = "bilinear"
)

// Align returns a copy of target resampled and reprojected onto reference's
// grid. When the grids already match the target is cloned without touching
// GDAL, which keeps fully co-registered inputs cheap and CGO-free.
func Align(reference, target *Raster, method Resampling) (*Raster, error) {
	if target.Projection == "" {
		return nil, &GridMismatchError{Reason: "target raster has an undefined CRS"}
	}
	if reference.Projection == "" {
		return nil, &GridMismatchError{Reason: "reference raster has an undefined CRS"}
	}
	if target.Grid.Same(reference.Grid) {
		return target.Clone(), nil
	}

	var out *Raster
	var err error
	// GDAL warp contexts are not safe for concurrent use.
	utils.ExecuteWithGDALLock(func() {
		out, err = warpToGrid(reference.Grid, target, method)
	})
	if err != nil {
		return nil, err
	}

	if out.ValidCount() == 0 {
		return nil, &GridMismatchError{Reason: "reprojection produced zero valid pixels"}
	}
	return out, nil
}

func warpToGrid(grid Grid, target *Raster, method Resampling) (*Raster, error) {
	gdalSetup()

	src, err := toMemDataset(target)
	if err != nil {
		return nil, &GridMismatchError{Reason: "failed to stage source raster", Err: err}
	}
	defer src.Close()

	minX, minY, maxX, maxY := grid.Bounds()
	switches := []string{
		"-of", "MEM",
		"-t_srs", grid.Projection,
		"-te", ftoa(minX), ftoa(minY), ftoa(maxX), ftoa(maxY),
		"-ts", strconv.Itoa(grid.Width), strconv.Itoa(grid.Height),
		"-r", string(method),
		"-srcnodata", "nan",
		"-dstnodata", "nan",
	}

	warped, err := src.Warp("", switches, godal.ErrLogger(silenceWarnings))
	if err != nil {
		return nil, &GridMismatchError{Reason: "reprojection failed", Err: err}
	}
	defer warped.Close()

	st := warped.Structure()
	if st.SizeX != grid.Width || st.SizeY != grid.Height {
		return nil, &GridMismatchError{Reason: "warp output does not match the reference shape"}
	}

	data := make([]float64, grid.Pixels())
	if err := warped.Bands()[0].Read(0, 0, data, grid.Width, grid.Height); err != nil {
		return nil, &GridMismatchError{Reason: "failed to read warped raster", Err: err}
	}

	return &Raster{Grid: grid, Data: data}, nil
}

func toMemDataset(r *Raster) (*godal.Dataset, error) {
	ds, err := godal.Create(godal.Memory, "", 1, godal.Float64, r.Width, r.Height,
		godal.ErrLogger(silenceWarnings))
	if err != nil {
		return nil, err
	}
	if err := ds.SetGeoTransform(r.GeoTransform); err != nil {
		ds.Close()
		return nil, err
	}
	sr, err := godal.NewSpatialRefFromWKT(r.Projection)
	if err != nil {
		ds.Close()
		return nil, err
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		ds.Close()
		return nil, err
	}
	band := ds.Bands()[0]
	if err := band.SetNoData(math.NaN()); err != nil {
		ds.Close()
		return nil, err
	}
	if err := band.Write(0, 0, r.Data, r.Width, r.Height); err != nil {
		ds.Close()
		return nil, err
	}
	return ds, nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AsGridMismatch reports whether err is a GridMismatchError.
func AsGridMismatch(err error) bool {
	var gm *GridMismatchError
	return errors.As(err, &gm)
}
