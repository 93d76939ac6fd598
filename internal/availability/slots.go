package availability

import "time"

const (
	ReasonBooked  = "booked"
	ReasonTooSoon = "too_soon"
)

// Slot is a candidate half-hour booking interval within a day's operating
// window. Slots are display data and are never persisted.
type Slot struct {
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"` // ReasonBooked or ReasonTooSoon when unavailable, else empty
}

// Slots returns the ordered candidate slots for day within w. Emission stops
// once a slot would start at or past the closing minute; the final slot's end
// may run past the nominal close and is intentionally not clipped. A closed
// window yields no slots. Identical inputs always yield identical output.
func Slots(day time.Time, w Window) []Slot {
	if !w.Open || w.EndMinute <= w.StartMinute {
		return nil
	}
	var out []Slot
	for m := w.StartMinute; m < w.EndMinute; m += SlotMinutes {
		out = append(out, Slot{
			Start: minuteOfDay(day, m),
			End:   minuteOfDay(day, m+SlotMinutes),
		})
	}
	return out
}

// minuteOfDay anchors a minutes-from-midnight offset to day's civil date,
// using time.Date so the result stays on the wall clock across DST edges.
func minuteOfDay(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, day.Location())
}

// Annotate marks each slot's availability against the busy intervals and the
// minimum lead time. A conflict disqualifies a slot regardless of timing, so
// ReasonBooked takes precedence over ReasonTooSoon when both apply.
func Annotate(slots []Slot, busy []Interval, now time.Time, leadTime time.Duration) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		switch {
		case OverlapsAny(s.Start, s.End, busy):
			s.Available = false
			s.Reason = ReasonBooked
		case TooSoon(s.Start, now, leadTime):
			s.Available = false
			s.Reason = ReasonTooSoon
		default:
			s.Available = true
			s.Reason = ""
		}
		out[i] = s
	}
	return out
}
