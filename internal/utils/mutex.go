package utils

import "sync"

var gdalMu sync.Mutex

// ExecuteWithGDALLock serializes calls into GDAL. Warp contexts and driver
// registration are not safe for concurrent use from multiple goroutines.
func ExecuteWithGDALLock(fn func()) {
	gdalMu.Lock()
	defer gdalMu.Unlock()
	fn()
}
