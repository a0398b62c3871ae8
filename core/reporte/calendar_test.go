package reporte

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthAndDayNames(t *testing.T) {
	assert.Equal(t, "Enero", MonthName(1))
	assert.Equal(t, "Diciembre", MonthName(12))
	assert.Equal(t, "", MonthName(0))
	assert.Equal(t, "", MonthName(13))
	assert.Equal(t, "Miércoles", DayName(time.Wednesday))
}

func TestDueDate(t *testing.T) {
	tests := []struct {
		name             string
		year, month, day int
		want             time.Time
	}{
		{name: "regular", year: 2024, month: 3, day: 10, want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{name: "clamped to leap february", year: 2024, month: 2, day: 31, want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{name: "clamped to february", year: 2023, month: 2, day: 30, want: time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{name: "at least the first", year: 2024, month: 4, day: 0, want: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dueDate(tt.year, tt.month, tt.day, time.UTC))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, daysBetween(from, from.Add(23*time.Hour)))
	assert.Equal(t, 26, daysBetween(from, time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, 29, lastDayOfMonth(2024, 2))
	assert.Equal(t, 31, lastDayOfMonth(2024, 12))
}

func TestWeekRange(t *testing.T) {
	assert.Equal(t, 1, weekOfMonth(1))
	assert.Equal(t, 1, weekOfMonth(7))
	assert.Equal(t, 2, weekOfMonth(8))
	assert.Equal(t, 5, weekOfMonth(31))
	assert.Equal(t, "Semana 1 (1-7)", weekRange(1, 2024, 3))
	assert.Equal(t, "Semana 5 (29-31)", weekRange(5, 2024, 3))
	assert.Equal(t, "Semana 5 (29-29)", weekRange(5, 2024, 2))
}
