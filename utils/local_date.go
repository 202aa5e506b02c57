package utils

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// ParseLocalDate accepts a YYYY-MM-DD string verbatim as the user's local day.
func ParseLocalDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid local date %q: %w", s, err)
	}
	return d, nil
}

// DaysBetween returns to - from in whole calendar days.
func DaysBetween(from, to civil.Date) int {
	return to.DaysSince(from)
}

func AddDays(d civil.Date, n int) civil.Date {
	return d.AddDays(n)
}

func SameDay(a *civil.Date, b civil.Date) bool {
	return a != nil && *a == b
}
