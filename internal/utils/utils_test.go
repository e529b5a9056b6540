package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("Valid date", func(t *testing.T) {
		date, err := ParseDate("2024-01-15")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), date)
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("2024/01/15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date format")
	})

	t.Run("Invalid day", func(t *testing.T) {
		_, err := ParseDate("2024-02-30")
		assert.Error(t, err)
	})
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"2024-01-10", "2024-01-15", 5},
		{"2024-01-15", "2024-01-10", -5},
		{"2024-02-28", "2024-03-01", 2}, // leap year
		{"2023-02-28", "2023-03-01", 1},
		{"2024-01-10", "2024-01-10", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			a, _ := ParseDate(tt.a)
			b, _ := ParseDate(tt.b)
			assert.Equal(t, tt.expected, DaysBetween(a, b))
		})
	}

	t.Run("Ignores time of day", func(t *testing.T) {
		a := time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC)
		b := time.Date(2024, 1, 11, 0, 1, 0, 0, time.UTC)
		assert.Equal(t, 1, DaysBetween(a, b))
	})
}

func TestDivRoundHalfUp(t *testing.T) {
	tests := []struct {
		num, den, expected int64
	}{
		{39195, 10, 3920},
		{39194, 10, 3919},
		{5, 10, 1},
		{4, 10, 0},
		{-5, 10, -1},
		{100, 100, 1},
		{0, 7, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, DivRoundHalfUp(tt.num, tt.den), "%d/%d", tt.num, tt.den)
	}
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, int64(5000), PercentOf(10000, 50))
	assert.Equal(t, int64(1307), PercentOf(1005, 130)) // 1306.5 rounds up
	assert.Equal(t, int64(0), PercentOf(10000, 0))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "123.45", FormatCents(12345))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-1.00", FormatCents(-100))
}
