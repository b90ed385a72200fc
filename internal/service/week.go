package service

import "time"

// WeekWindow returns the Monday 00:00:00.000 to Sunday 23:59:59.999 window
// containing now, in now's location.
func WeekWindow(now time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	loc := now.Location()

	monday := time.Date(y, m, d-daysSinceMonday, 0, 0, 0, 0, loc)
	sunday := time.Date(y, m, d-daysSinceMonday+6, 23, 59, 59, int(999*time.Millisecond), loc)
	return monday, sunday
}

// PreviousWeekWindow is WeekWindow shifted back by seven calendar days.
func PreviousWeekWindow(now time.Time) (time.Time, time.Time) {
	monday, sunday := WeekWindow(now)
	return monday.AddDate(0, 0, -7), sunday.AddDate(0, 0, -7)
}
