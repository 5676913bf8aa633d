package properties

import (
	"os"
	"strconv"
)

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

// Workers returns the per-date worker count for the daily pipeline.
func Workers() int {
	n, err := strconv.Atoi(os.Getenv("LAI_WORKERS"))
	if err != nil || n < 1 {
		return 4
	}
	return n
}

// MaskCacheEnabled toggles the on-disk cache for rasterized boundary masks.
func MaskCacheEnabled() bool {
	return os.Getenv("LAI_MASK_CACHE") != "false"
}

type Color struct {
	R, G, B uint8
}

// ClassColorMap colors vegetation classes in rendered class-map images.
// Classes outside the map fall back to gray.
var ClassColorMap = map[int]Color{
	100: {34, 139, 34},  // forest
	200: {154, 205, 50}, // grassland
	300: {218, 165, 32}, // cropland
	400: {70, 130, 180}, // water / wetland
	610: {139, 137, 112},
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
