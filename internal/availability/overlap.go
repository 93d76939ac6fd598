package availability

import "time"

// DefaultLeadTime is the minimum gap between "now" and a slot's start for the
// slot to be offered in the availability grid.
const DefaultLeadTime = 2 * time.Hour

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether half-open [aStart,aEnd) and [bStart,bEnd)
// intersect. One interval ending exactly when the other begins is not an
// overlap. Both the availability report and reservation admission decide
// conflicts through this single predicate.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapsAny reports whether [start,end) intersects any busy interval.
func OverlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// TooSoon reports whether start violates the minimum lead time relative to
// now. A start exactly leadTime away is still bookable.
func TooSoon(start, now time.Time, leadTime time.Duration) bool {
	return start.Before(now.Add(leadTime))
}
