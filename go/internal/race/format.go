package race

import (
	"fmt"
	"time"
)

// FormatDuration renders elapsed race time as mm:ss. Minutes are not wrapped
// into hours, so 75 minutes 3 seconds is "75:03".
func FormatDuration(elapsed time.Duration) string {
	secs := int64(elapsed / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// FormatEnergy renders accumulated energy with one decimal place.
func FormatEnergy(wh float64) string {
	return fmt.Sprintf("%.1f Wh", wh)
}
