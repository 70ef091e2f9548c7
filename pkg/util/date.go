package util

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Period is an inclusive calendar range such as a train or test window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered, counting both ends.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// ParseDate parses a YYYY-MM-DD date. Returns (t, true) if it worked.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParsePeriod parses "2024-01-01 to 2024-03-31".
func ParsePeriod(s string) (Period, error) {
	parts := strings.Split(s, " to ")
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("period %q: expected '<start> to <end>'", s)
	}
	start, ok := ParseDate(parts[0])
	if !ok {
		return Period{}, fmt.Errorf("period %q: bad start date", s)
	}
	end, ok := ParseDate(parts[1])
	if !ok {
		return Period{}, fmt.Errorf("period %q: bad end date", s)
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("period %q: end before start", s)
	}
	return Period{Start: start, End: end}, nil
}
