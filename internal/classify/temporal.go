package classify

import (
	"regexp"
	"strconv"
	"time"
)

var relativeRangePattern = regexp.MustCompile(`last (\d+) (day|week|month|year)s?`)

var isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

// parseTimeRange looks for a relative phrase ("last 6 months") or a pair of
// explicit ISO dates in lower. now anchors relative phrases.
func parseTimeRange(lower string, now time.Time) (TimeRange, bool) {
	if m := relativeRangePattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return TimeRange{}, false
		}
		var start time.Time
		switch m[2] {
		case "day":
			start = now.AddDate(0, 0, -n)
		case "week":
			start = now.AddDate(0, 0, -7*n)
		case "month":
			start = now.AddDate(0, -n, 0)
		case "year":
			start = now.AddDate(-n, 0, 0)
		}
		return TimeRange{Start: start, End: now}, true
	}

	dates := isoDatePattern.FindAllStringSubmatch(lower, 2)
	if len(dates) == 0 {
		return TimeRange{}, false
	}
	start, ok := parseISODate(dates[0])
	if !ok {
		return TimeRange{}, false
	}
	if len(dates) == 1 {
		return TimeRange{Start: start, End: start.AddDate(0, 0, 1)}, true
	}
	end, ok := parseISODate(dates[1])
	if !ok || !end.After(start) {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}

func parseISODate(m []string) (time.Time, bool) {
	y, err1 := strconv.Atoi(m[1])
	mo, err2 := strconv.Atoi(m[2])
	d, err3 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), true
}

var depthBoundPattern = regexp.MustCompile(`(below|above|under|over|deeper than|shallower than) (\d+)\s*m`)

// parseDepthBounds looks for a one-sided depth constraint like "below 500m".
func parseDepthBounds(lower string) (DepthBounds, bool) {
	m := depthBoundPattern.FindStringSubmatch(lower)
	if m == nil {
		return DepthBounds{}, false
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return DepthBounds{}, false
	}
	switch m[1] {
	case "below", "under", "deeper than":
		return DepthBounds{MinMeters: v, HasMin: true}, true
	default: // above, over, shallower than
		return DepthBounds{MaxMeters: v, HasMax: true}, true
	}
}
