// Package hours handles the decimal-hours and date formats used in the
// spreadsheet cells: hours as decimals ("2.5"), dates as YYYY-MM-DD.
package hours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxPerDay is the largest number of hours a single worklog may carry.
const MaxPerDay = 24

// DateLayout is the cell format for worklog dates.
const DateLayout = "2006-01-02"

// Parse parses a decimal-hours cell value. It accepts anything strconv
// accepts ("2.5", "8", "0.25") and rejects empty strings.
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time value")
	}
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	return h, nil
}

// Validate checks the write-side rule: logged time must be positive and at
// most 24 hours.
func Validate(h float64) error {
	if h <= 0 {
		return fmt.Errorf("time logged must be greater than 0")
	}
	if h > MaxPerDay {
		return fmt.Errorf("time logged cannot exceed %d hours per day", MaxPerDay)
	}
	return nil
}

// FromSeconds converts a worklog duration to decimal hours.
func FromSeconds(seconds int) float64 {
	return float64(seconds) / 3600
}

// Format renders decimal hours the way the sheet displays them: two decimal
// places with trailing zeros (and a trailing dot) trimmed, so 2.50 -> "2.5"
// and 8.00 -> "8".
func Format(h float64) string {
	s := strconv.FormatFloat(h, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// ParseDate parses a YYYY-MM-DD cell value.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// FormatDate renders a date for a sheet cell; the zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// MonthRange returns the half-open [start, end) window for the calendar
// month containing ref, shifted by offset months (0 = current, -1 =
// previous).
func MonthRange(ref time.Time, offset int) (start, end time.Time) {
	start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	start = start.AddDate(0, offset, 0)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// ValidIssueKey reports whether s looks like a Jira issue key (PROJ-123).
func ValidIssueKey(s string) bool {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return false
	}
	return parts[0] != "" && parts[1] != "" && !strings.Contains(parts[1], "-")
}
