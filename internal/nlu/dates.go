// internal/nlu/dates.go
package nlu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Session scheduling accepts looser date phrasing than validity windows:
// admins type "schedule Excel Workshop tomorrow" far more often than they
// type an ISO date. Everything normalizes to YYYY-MM-DD relative to the
// supplied reference time.

var (
	sessionISOPattern     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	sessionSlashPattern   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	sessionMonthPattern   = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\b`)
	sessionWeekdayPattern = regexp.MustCompile(`(?i)\bnext\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	sessionTodayPattern   = regexp.MustCompile(`(?i)\btoday\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var weekdaysByName = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

// ExtractSessionDate parses a session date from free text, ISO-normalized.
// Relative phrases resolve against now, never the ambient clock.
func ExtractSessionDate(text string, now time.Time) string {
	if m := sessionISOPattern.FindStringSubmatch(text); m != nil {
		return isoDateOrEmpty(m[1])
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "day after tomorrow") {
		return now.AddDate(0, 0, 2).Format("2006-01-02")
	}
	if strings.Contains(lower, "tomorrow") {
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	}
	if sessionTodayPattern.MatchString(text) {
		return now.Format("2006-01-02")
	}

	if m := sessionWeekdayPattern.FindStringSubmatch(text); m != nil {
		target := weekdaysByName[strings.ToLower(m[1])]
		days := (int(target) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return now.AddDate(0, 0, days).Format("2006-01-02")
	}

	if m := sessionMonthPattern.FindStringSubmatch(text); m != nil {
		month := monthsByName[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		candidate := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
		if isoDateOrEmpty(candidate) == "" {
			return ""
		}
		// Without an explicit year, a date already past rolls forward. The
		// rolled candidate can land on a day the next year does not have
		// (February 29), so it re-validates like any other parse.
		if m[3] == "" {
			parsed, _ := time.Parse("2006-01-02", candidate)
			if parsed.Before(now.Truncate(24 * time.Hour)) {
				candidate = isoDateOrEmpty(fmt.Sprintf("%04d-%02d-%02d", year+1, int(month), day))
			}
		}
		return candidate
	}

	if m := sessionSlashPattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return isoDateOrEmpty(fmt.Sprintf("%s-%02d-%02d", m[3], month, day))
	}

	return ""
}
