// Package calendar builds the day index of a year and navigates it.
package calendar

import (
	"time"

	"github.com/julianstephens/fleetcal/internal/models"
)

// NotFound is returned by lookups that find no matching day.
const NotFound = -1

// DaysInMonth returns the number of days of month in year. Day 0 of the next
// month normalizes to the last day of month, which covers leap years.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// GenerateYear returns every day of year from 1 January to 31 December in order.
func GenerateYear(year int) []models.Day {
	days := make([]models.Day, 0, 366)
	for month := 1; month <= 12; month++ {
		n := DaysInMonth(year, month)
		for day := 1; day <= n; day++ {
			wd := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday()
			days = append(days, models.Day{
				Day:          day,
				Month:        month,
				Year:         year,
				Weekday:      wd,
				WeekdayName:  WeekdayName(wd),
				WeekdayShort: WeekdayShort(wd),
			})
		}
	}
	return days
}

// IndexOfToday returns the position of today in days. When today is not part
// of the sequence (a different year was generated) it returns NotFound, false.
func IndexOfToday(days []models.Day, today models.DateKey) (int, bool) {
	for i, d := range days {
		if d.Day == today.Day && d.Month == today.Month && d.Year == today.Year {
			return i, true
		}
	}
	return NotFound, false
}

// TodayOrFirst is IndexOfToday with the fallback to the first day applied.
func TodayOrFirst(days []models.Day, today models.DateKey) int {
	if i, ok := IndexOfToday(days, today); ok {
		return i
	}
	return 0
}
