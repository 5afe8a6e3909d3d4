package normalizer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date format")

// Common date formats used by banks and POS exports.
var dateFormats = []string{
	// American (MM-DD-YYYY variants)
	"01/02/2006",
	"01-02-2006",
	"1/2/2006",

	// ISO (YYYY-MM-DD)
	"2006-01-02",
	"2006/01/02",

	// European (DD-MM-YYYY variants)
	"02-01-2006",
	"02/01/2006",
	"2-1-2006",

	// With time
	"01/02/2006 15:04",
	"02-01-2006 15:04",
	"2006-01-02 15:04:05",
}

// ParseFlexibleDate attempts to parse a date using multiple formats.
// A preferred user-friendly format (e.g. "MM/DD/YYYY") is tried first.
func ParseFlexibleDate(raw string, preferredFormat string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}

	if loc == nil {
		loc = time.UTC
	}

	if preferredFormat != "" {
		goFormat := convertDateFormat(preferredFormat)
		if t, err := time.ParseInLocation(goFormat, raw, loc); err == nil {
			return t, nil
		}
	}

	for _, format := range dateFormats {
		if t, err := time.ParseInLocation(format, raw, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, ErrInvalidDate
}

// convertDateFormat converts user-friendly format strings to Go format
// e.g., "MM/DD/YYYY" -> "01/02/2006"
func convertDateFormat(format string) string {
	replacements := map[string]string{
		"YYYY": "2006",
		"YY":   "06",
		"MM":   "01",
		"DD":   "02",
		"HH":   "15",
		"mm":   "04",
		"ss":   "05",
	}

	result := format
	for pattern, goFmt := range replacements {
		result = strings.ReplaceAll(result, pattern, goFmt)
	}
	return result
}

var (
	mdyPattern = regexp.MustCompile(`^\d{1,2}[-/]\d{1,2}[-/]\d{4}$`)
	isoPattern = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}$`)
)

// DetectDateFormat guesses the date format from sample column values.
func DetectDateFormat(samples []string) string {
	if len(samples) == 0 {
		return "MM/DD/YYYY"
	}

	sample := strings.TrimSpace(samples[0])

	if isoPattern.MatchString(sample) {
		if strings.Contains(sample, "/") {
			return "YYYY/MM/DD"
		}
		return "YYYY-MM-DD"
	}

	if mdyPattern.MatchString(sample) {
		// A leading component > 12 can only be a day
		parts := strings.FieldsFunc(sample, func(r rune) bool {
			return r == '-' || r == '/'
		})
		if len(parts) >= 2 {
			first, _ := strconv.Atoi(parts[0])
			if first > 12 {
				if strings.Contains(sample, "/") {
					return "DD/MM/YYYY"
				}
				return "DD-MM-YYYY"
			}
		}

		if strings.Contains(sample, "/") {
			return "MM/DD/YYYY"
		}
		return "MM-DD-YYYY"
	}

	return "MM/DD/YYYY"
}

var spacePattern = regexp.MustCompile(`\s+`)

// CleanDescription normalizes merchant/description text.
func CleanDescription(raw string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(raw), " ")
}
