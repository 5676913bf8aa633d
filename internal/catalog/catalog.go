// Package catalog maps date-encoded raster filenames to calendar dates.
// Daily LAI files follow the `<prefix>_<YYYYDDD>.tif` convention (year plus
// three-digit day of year); vegetation maps carry a plain `_<YYYY>` suffix.
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// EnumerateDaily walks dir recursively and returns a date -> path collection
// for every file with the given extension whose name encodes a YYYYDDD date.
// Files whose names do not parse are skipped and reported as warnings, not
// errors. When two files map to the same date the lexically later path wins.
func EnumerateDaily(dir, ext string) (map[time.Time]string, []string, error) {
	byDate := make(map[time.Time]string)
	var warnings []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}

		date, err := ParseDailyDate(filepath.Base(path))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", path, err))
			return nil
		}

		if prev, ok := byDate[date]; !ok || path > prev {
			byDate[date] = path
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate %s: %w", dir, err)
	}

	return byDate, warnings, nil
}

// ParseDailyDate extracts the YYYYDDD date from a filename such as
// lai_2020123.tif. The date is the last underscore-separated field of the
// stem and must be exactly seven digits.
func ParseDailyDate(filename string) (time.Time, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	fields := strings.Split(stem, "_")
	token := fields[len(fields)-1]

	if len(token) != 7 {
		return time.Time{}, fmt.Errorf("no YYYYDDD date in filename %q", filename)
	}
	year, err := strconv.Atoi(token[:4])
	if err != nil {
		return time.Time{}, fmt.Errorf("no YYYYDDD date in filename %q", filename)
	}
	doy, err := strconv.Atoi(token[4:])
	if err != nil || doy < 1 || doy > 366 {
		return time.Time{}, fmt.Errorf("invalid day of year in filename %q", filename)
	}

	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1), nil
}

// YearFromFilename extracts the trailing `_<YYYY>` year of a vegetation map
// filename such as landuse_2020.tif.
func YearFromFilename(filename string) (int, error) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	fields := strings.Split(stem, "_")
	year, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, fmt.Errorf("no trailing year in filename %q", filename)
	}
	return year, nil
}

// DailyFileName renders the output naming convention for a date.
func DailyFileName(prefix string, date time.Time) string {
	return fmt.Sprintf("%s_%04d%03d.tif", prefix, date.Year(), date.YearDay())
}
