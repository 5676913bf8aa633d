package boundary

import (
	"errors"
	"fmt"
	"os"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/verdantmetrics/lai-forecast-poc/internal/utils"
)

// BoundaryReadError reports a study-area boundary that could not be loaded.
type BoundaryReadError struct {
	Path string
	Err  error
}

func (e *BoundaryReadError) Error() string {
	return fmt.Sprintf("failed to read boundary %s: %v", e.Path, e.Err)
}

func (e *BoundaryReadError) Unwrap() error { return e.Err }

// LoadBoundary reads the study-area polygon(s) from a GeoJSON file.
// All polygonal geometries in the file are merged into one MultiPolygon.
func LoadBoundary(path string) (orb.MultiPolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &BoundaryReadError{Path: path, Err: err}
	}

	var geoms []orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		for _, feat := range fc.Features {
			geoms = append(geoms, feat.Geometry)
		}
	} else if g, gerr := geojson.UnmarshalGeometry(data); gerr == nil {
		geoms = append(geoms, g.Geometry())
	} else if err != nil {
		return nil, &BoundaryReadError{Path: path, Err: err}
	}

	var mp orb.MultiPolygon
	for _, g := range geoms {
		switch geom := g.(type) {
		case orb.Polygon:
			mp = append(mp, geom)
		case orb.MultiPolygon:
			mp = append(mp, geom...)
		}
	}
	if len(mp) == 0 {
		return nil, &BoundaryReadError{Path: path, Err: errors.New("file contains zero polygonal geometries")}
	}

	return mp, nil
}

// ReprojectBoundary transforms a WGS84 (GeoJSON) boundary into the CRS given
// as WKT, so the mask can be rasterized on the working grid directly.
func ReprojectBoundary(mp orb.MultiPolygon, dstWKT string) (orb.MultiPolygon, error) {
	var out orb.MultiPolygon
	var err error
	utils.ExecuteWithGDALLock(func() {
		out, err = reprojectLocked(mp, dstWKT)
	})
	return out, err
}

func reprojectLocked(mp orb.MultiPolygon, dstWKT string) (orb.MultiPolygon, error) {
	srcSR, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return nil, err
	}
	defer srcSR.Close()

	dstSR, err := godal.NewSpatialRefFromWKT(dstWKT)
	if err != nil {
		return nil, err
	}
	defer dstSR.Close()

	tr, err := godal.NewTransform(srcSR, dstSR)
	if err != nil {
		return nil, err
	}
	defer tr.Close()

	out := make(orb.MultiPolygon, len(mp))
	for pi, poly := range mp {
		outPoly := make(orb.Polygon, len(poly))
		for ri, ring := range poly {
			xs := make([]float64, len(ring))
			ys := make([]float64, len(ring))
			for i, pt := range ring {
				xs[i] = pt.Lon()
				ys[i] = pt.Lat()
			}
			if err := tr.TransformEx(xs, ys, nil, nil); err != nil {
				return nil, fmt.Errorf("boundary transform error: %w", err)
			}
			outRing := make(orb.Ring, len(ring))
			for i := range ring {
				outRing[i] = orb.Point{xs[i], ys[i]}
			}
			outPoly[ri] = outRing
		}
		out[pi] = outPoly
	}
	return out, nil
}
