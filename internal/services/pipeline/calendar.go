package pipeline

import "time"

// Calendar feature names, appended after the target column.
const (
	FeatureDayOfWeek  = "day_of_week"
	FeatureDayOfMonth = "day_of_month"
	FeatureMonth      = "month"
)

// calendarFeatures returns day of week (Monday = 0), day of month and month.
func calendarFeatures(d time.Time) []float64 {
	dow := (int(d.Weekday()) + 6) % 7
	return []float64{float64(dow), float64(d.Day()), float64(d.Month())}
}
