package availability

import "github.com/dakthi/venuebook/internal/model"

// Slots are fixed-length; the grid granularity is not configurable because
// the rendered calendar assumes half-hour rows.
const SlotMinutes = 30

// Default operating window applied when a facility has no rule for a weekday.
const (
	DefaultOpenMinute  = 9 * 60  // 09:00
	DefaultCloseMinute = 22 * 60 // 22:00
)

// Window is the resolved operating window for one facility-day, expressed in
// minutes from midnight of the facility's civil day.
type Window struct {
	StartMinute int  `json:"start_minute"`
	EndMinute   int  `json:"end_minute"`
	Open        bool `json:"open"`
}

// ResolveWindow maps an optional weekday rule to the window bookings must
// fall within. It is total: a nil rule yields the default open window, and a
// rule marked unavailable closes the whole day regardless of its times.
func ResolveWindow(rule *model.OperatingHoursRule) Window {
	if rule == nil {
		return Window{StartMinute: DefaultOpenMinute, EndMinute: DefaultCloseMinute, Open: true}
	}
	return Window{
		StartMinute: rule.StartMinute,
		EndMinute:   rule.EndMinute,
		Open:        rule.Available,
	}
}
