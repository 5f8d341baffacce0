package intake

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const daysPerYear = 365.25

var (
	tenureDate        = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	tenureYearsMonths = regexp.MustCompile(`(?i)(\d+)\s+(?:years?|ans?)\s+(\d+)\s+(?:months?|mois)`)
	tenureYears       = regexp.MustCompile(`(?i)(\d+)\s+(?:years?|ans?)\b`)
	tenureMonths      = regexp.MustCompile(`(?i)(\d+)\s+(?:months?|mois)\b`)
)

// ParseTenure converts a seniority string to years. It accepts a start
// date as dd/mm/yyyy, or a duration such as "3 years 6 months",
// "2 years", "8 months" and the French "3 ans 6 mois". Anything else is 0.
func ParseTenure(s string, now time.Time) float64 {
	s = strings.TrimSpace(s)

	if m := tenureDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		years := now.Sub(start).Hours() / 24 / daysPerYear
		return math.Max(0, years)
	}

	if m := tenureYearsMonths.FindStringSubmatch(s); m != nil {
		years, _ := strconv.Atoi(m[1])
		months, _ := strconv.Atoi(m[2])
		return float64(years) + float64(months)/12
	}

	if m := tenureYears.FindStringSubmatch(s); m != nil {
		years, _ := strconv.Atoi(m[1])
		return float64(years)
	}

	if m := tenureMonths.FindStringSubmatch(s); m != nil {
		months, _ := strconv.Atoi(m[1])
		return float64(months) / 12
	}

	return 0
}
