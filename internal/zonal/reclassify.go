package zonal

import (
	"slices"
	"strconv"

	"github.com/verdantmetrics/lai-forecast-poc/internal/raster"
)

// OutOfClass marks pixels that carry no usable vegetation class.
const OutOfClass = 0

// Reclassify collapses multi-digit vegetation class codes into working
// classes by keeping only the selected (1-based) digit positions, e.g.
// indices [1,2] turn code 6134 into class 61. Replacements then fold
// equivalent classes together (611/612/613 -> 610 in the reference data).
// Nodata and non-positive codes map to OutOfClass. The input is not mutated.
func Reclassify(src *raster.Raster, digitIndices []int, replacements map[int]int) *raster.Raster {
	out := raster.NewFilled(src.Grid, OutOfClass)

	for i, v := range src.Data {
		if raster.IsNoData(v) {
			continue
		}
		code := int(v)
		if code <= 0 {
			continue
		}

		digits := strconv.Itoa(code)
		var kept []byte
		for _, idx := range digitIndices {
			if idx >= 1 && idx <= len(digits) {
				kept = append(kept, digits[idx-1])
			}
		}
		if len(kept) == 0 {
			continue
		}

		class, err := strconv.Atoi(string(kept))
		if err != nil {
			continue
		}
		if repl, ok := replacements[class]; ok {
			class = repl
		}
		out.Data[i] = float64(class)
	}

	return out
}

// Declared returns the sorted set of classes present in a class raster,
// excluding OutOfClass. Used as the default class enumeration when the
// caller does not configure one explicitly.
func Declared(classes *raster.Raster) []int {
	seen := make(map[int]struct{})
	for _, v := range classes.Data {
		if raster.IsNoData(v) {
			continue
		}
		if id := int(v); id != OutOfClass {
			seen[id] = struct{}{}
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
