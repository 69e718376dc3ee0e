package dashboard

import (
	"math"
	"strconv"
	"time"
)

// CaseWindowDays is the number of days a case stays open after it is recorded.
const CaseWindowDays = 14

const mapSearchURL = "https://www.google.com/maps/search/?api=1&query="

// DaysRemaining returns the whole days left in the case window at now. It
// never goes below zero, and a timestamp in the future counts as recorded now.
func DaysRemaining(ts, now time.Time) int {
	elapsed := now.Sub(ts)
	if elapsed < 0 {
		elapsed = 0
	}
	days := int(math.Floor(elapsed.Hours() / 24))
	return max(0, CaseWindowDays-days)
}

// MapURL returns an external map search link for the coordinates.
func MapURL(lat, lng float64) string {
	return mapSearchURL + formatCoord(lat) + "," + formatCoord(lng)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
