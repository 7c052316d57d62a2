package textutil

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	MinYear = 2000
	MaxYear = 2100
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
var emailSepRegex = regexp.MustCompile(`[;,]`)

// ParseYears parses user input like "2025", "2021-2024" or
// "2023, 2025-2026" into a deduplicated, ascending list of years.
// Years outside [2000, 2100] are dropped, unparsable parts are
// ignored; input with nothing usable yields an empty slice.
func ParseYears(text string) []int {
	seen := map[int]bool{}
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, errA := strconv.Atoi(strings.TrimSpace(lo))
			b, errB := strconv.Atoi(strings.TrimSpace(hi))
			if errA != nil || errB != nil || a > b {
				continue
			}
			for y := a; y <= b; y++ {
				seen[y] = true
			}
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		seen[y] = true
	}

	years := []int{}
	for y := range seen {
		if y >= MinYear && y <= MaxYear {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// ValidateEmails splits a comma/semicolon separated recipient list and
// validates each address, naming every offender in the returned error.
func ValidateEmails(raw string) ([]string, error) {
	var emails []string
	var bad []string
	for _, e := range emailSepRegex.Split(raw, -1) {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !emailRegex.MatchString(e) {
			bad = append(bad, e)
			continue
		}
		emails = append(emails, e)
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("invalid email(s): %s", strings.Join(bad, ", "))
	}
	return emails, nil
}
