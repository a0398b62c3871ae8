package reporte

import (
	"fmt"
	"time"
)

var (
	monthNames = [...]string{
		"", "Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	dayNames = [...]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}
)

func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month]
}

func DayName(d time.Weekday) string { return dayNames[d] }

func date(year, month, day int, loc *time.Location) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}

func lastDayOfMonth(year, month int) int {
	return date(year, month+1, 0, time.UTC).Day()
}

// dueDate is the given day of the month, clamped to its last day.
func dueDate(year, month, day int, loc *time.Location) time.Time {
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return date(year, month, day, loc)
}

func truncateDay(t time.Time) time.Time {
	return date(t.Year(), int(t.Month()), t.Day(), t.Location())
}

func daysBetween(from, to time.Time) int {
	return int(truncateDay(to).Sub(truncateDay(from)).Hours() / 24)
}

func weekOfMonth(day int) int {
	return (day-1)/7 + 1
}

// weekRange renders the days of the week bucket, e.g. "Semana 5 (29-31)".
func weekRange(week, year, month int) string {
	first := (week-1)*7 + 1
	last := week * 7
	if lastDay := lastDayOfMonth(year, month); last > lastDay {
		last = lastDay
	}
	return fmt.Sprintf("Semana %d (%d-%d)", week, first, last)
}
