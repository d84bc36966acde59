package models

import "time"

// Day is one entry of the generated calendar for a year.
type Day struct {
	Day          int
	Month        int
	Year         int
	Weekday      time.Weekday
	WeekdayName  string // full name, e.g. "lunes"
	WeekdayShort string // abbreviated name, e.g. "lun"
}

func (d Day) Key() DateKey {
	return DateKey{Year: d.Year, Month: d.Month, Day: d.Day}
}
