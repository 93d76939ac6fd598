package model

import "time"

// Facility is a bookable venue. Reference data for the booking engine;
// created and edited through the admin surface.
type Facility struct {
	ID          string
	Name        string
	Description string
	HourlyRate  *float64 // per-hour price; nil when the facility is free to book
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OperatingHoursRule overrides the default booking window for one weekday.
// At most one rule exists per (facility, weekday); absence means the default
// window applies and the day is open.
type OperatingHoursRule struct {
	FacilityID  string
	Weekday     int // 0=Sunday .. 6=Saturday, matching time.Weekday
	StartMinute int // minutes from midnight
	EndMinute   int
	Available   bool
}
