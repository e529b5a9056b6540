package utils

import "fmt"

// DivRoundHalfUp divides num by den and rounds half away from zero.
// den must be positive.
func DivRoundHalfUp(num, den int64) int64 {
	if den <= 0 {
		panic("utils: DivRoundHalfUp with non-positive denominator")
	}
	if num >= 0 {
		return (num*2 + den) / (den * 2)
	}
	return -((-num*2 + den) / (den * 2))
}

// PercentOf returns percent% of cents, rounded half-up to the cent.
func PercentOf(cents int64, percent int64) int64 {
	return DivRoundHalfUp(cents*percent, 100)
}

// FormatCents renders cents as a decimal amount, e.g. 12345 -> "123.45".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
