package calendar

import "time"

// Spanish (es-ES) calendar names, lowercase as the locale writes them.
var (
	weekdayNames = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	weekdayShort = [...]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}
	monthNames   = [...]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}
)

// WeekdayName returns the full es-ES name of wd.
func WeekdayName(wd time.Weekday) string {
	return weekdayNames[wd]
}

// WeekdayShort returns the abbreviated es-ES name of wd.
func WeekdayShort(wd time.Weekday) string {
	return weekdayShort[wd]
}

// MonthName returns the es-ES name of month (1-12), or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
