package raster

import "fmt"

// GridMismatchError reports rasters that are not co-registered, or an
// alignment that could not produce a usable grid.
type GridMismatchError struct {
	Reason string
	Err    error
}

func (e *GridMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("grid mismatch: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("grid mismatch: %s", e.Reason)
}

func (e *GridMismatchError) Unwrap() error { return e.Err }

type RasterReadError struct {
	Path string
	Err  error
}

func (e *RasterReadError) Error() string {
	return fmt.Sprintf("failed to read raster %s: %v", e.Path, e.Err)
}

func (e *RasterReadError) Unwrap() error { return e.Err }

type RasterWriteError struct {
	Path string
	Err  error
}

func (e *RasterWriteError) Error() string {
	return fmt.Sprintf("failed to write raster %s: %v", e.Path, e.Err)
}

func (e *RasterWriteError) Unwrap() error { return e.Err }
