// Package academic holds academic-year conventions: the "YYYY-YYYY"
// identifier, the configurable start month, and month ordering relative
// to it.
package academic

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DefaultStartMonth is the calendar month the academic year begins in.
const DefaultStartMonth = 4 // April

var (
	ErrInvalidYear = errors.New("invalid_academic_year")

	yearPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)
)

// Validate checks the "YYYY-YYYY" form and that the second year follows
// the first.
func Validate(year string) error {
	if !yearPattern.MatchString(year) {
		return ErrInvalidYear
	}
	start, _ := strconv.Atoi(year[:4])
	end, _ := strconv.Atoi(year[5:])
	if end != start+1 {
		return ErrInvalidYear
	}
	return nil
}

// StartYear returns the first calendar year of a validated academic year.
func StartYear(year string) int {
	start, _ := strconv.Atoi(year[:4])
	return start
}

// Current resolves the academic year a given instant falls in. Months at
// or after the start month belong to the year that began that calendar
// year; earlier months belong to the year that began the previous one.
func Current(now time.Time, startMonth int) string {
	if startMonth < 1 || startMonth > 12 {
		startMonth = DefaultStartMonth
	}
	y := now.Year()
	if int(now.Month()) >= startMonth {
		return fmt.Sprintf("%d-%d", y, y+1)
	}
	return fmt.Sprintf("%d-%d", y-1, y)
}

// Position maps a calendar month to its zero-based position in the
// academic ordering, e.g. with an April start April is 0 and March is 11.
func Position(month, startMonth int) int {
	if startMonth < 1 || startMonth > 12 {
		startMonth = DefaultStartMonth
	}
	return (month - startMonth + 12) % 12
}

// CalendarYear returns the calendar year a given month of the academic
// year falls in.
func CalendarYear(year string, month, startMonth int) int {
	if startMonth < 1 || startMonth > 12 {
		startMonth = DefaultStartMonth
	}
	start := StartYear(year)
	if month >= startMonth {
		return start
	}
	return start + 1
}
