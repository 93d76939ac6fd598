package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dakthi/venuebook/internal/availability"
	"github.com/dakthi/venuebook/internal/model"
)

// Store is the durable state the booking engine needs. CreateReservation must
// run its conflict re-check and insert as one atomic unit so that of two
// racing admissions for overlapping intervals at most one succeeds; the loser
// gets ErrSlotUnavailable.
type Store interface {
	Facility(ctx context.Context, id string) (model.Facility, error)
	HoursRule(ctx context.Context, facilityID string, weekday int) (*model.OperatingHoursRule, error)
	BlockingReservations(ctx context.Context, facilityID string, from, to time.Time) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, res *model.Reservation) error
	TransitionReservation(ctx context.Context, id, toStatus string) (model.Reservation, error)
}

// ReportCache holds recently built availability reports. Reports are derived
// display data, so serving a slightly stale one is acceptable; writes
// invalidate the affected dates.
type ReportCache interface {
	Get(ctx context.Context, facilityID, date string) (*Report, bool)
	Set(ctx context.Context, facilityID, date string, r *Report)
	Invalidate(ctx context.Context, facilityID string, dates ...string)
}

// Report is the per-facility, per-date availability answer. JSON tags serve
// both the API response and the cached representation.
type Report struct {
	FacilityID    string              `json:"facility_id"`
	FacilityName  string              `json:"facility_name"`
	Date          string              `json:"date"` // YYYY-MM-DD in the venue's local calendar
	Window        availability.Window `json:"window"`
	Slots         []availability.Slot `json:"slots"`
	BlockingCount int                 `json:"blocking_count"`
}

// CreateRequest is an admission request for a concrete interval. Start/End
// are arbitrary instants; they do not have to align to the slot grid.
type CreateRequest struct {
	FacilityID    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Title         string
	Description   string
	Notes         string
	Start         time.Time
	End           time.Time
}

type Config struct {
	// LeadTime is the minimum gap between now and a slot's start for the
	// slot to appear bookable in the availability grid.
	LeadTime time.Duration
	// EnforceLeadTimeOnCreate extends the lead-time rule to direct
	// reservation writes. Off by default: the grid hides near-term slots
	// from self-service users, while staff-entered bookings may start
	// immediately.
	EnforceLeadTimeOnCreate bool
	// Location is the venue's civil calendar for interpreting dates.
	Location *time.Location
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type Service struct {
	store       Store
	cache       ReportCache
	logger      *slog.Logger
	leadTime    time.Duration
	enforceLead bool
	loc         *time.Location
	now         func() time.Time
}

func NewService(store Store, cache ReportCache, logger *slog.Logger, cfg Config) *Service {
	if cfg.LeadTime <= 0 {
		cfg.LeadTime = availability.DefaultLeadTime
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		cache:       cache,
		logger:      logger,
		leadTime:    cfg.LeadTime,
		enforceLead: cfg.EnforceLeadTimeOnCreate,
		loc:         cfg.Location,
		now:         cfg.Now,
	}
}

// Availability builds the slot grid for one facility and calendar date.
// Purely derived from current state; safe to recompute on every call.
func (s *Service) Availability(ctx context.Context, facilityID string, day time.Time) (*Report, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	date := dayStart.Format("2006-01-02")

	if s.cache != nil {
		if r, ok := s.cache.Get(ctx, facilityID, date); ok {
			return r, nil
		}
	}

	fac, err := s.store.Facility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if !fac.Active {
		return nil, ErrFacilityInactive
	}

	rule, err := s.store.HoursRule(ctx, facilityID, int(dayStart.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("load operating hours: %w", err)
	}
	win := availability.ResolveWindow(rule)

	report := &Report{
		FacilityID:   fac.ID,
		FacilityName: fac.Name,
		Date:         date,
		Window:       win,
	}

	if win.Open {
		dayEnd := dayStart.AddDate(0, 0, 1)
		existing, err := s.store.BlockingReservations(ctx, facilityID, dayStart, dayEnd)
		if err != nil {
			return nil, fmt.Errorf("load reservations: %w", err)
		}
		busy := make([]availability.Interval, 0, len(existing))
		for _, r := range existing {
			busy = append(busy, availability.Interval{Start: r.StartTime, End: r.EndTime})
		}
		slots := availability.Slots(dayStart, win)
		report.Slots = availability.Annotate(slots, busy, s.now(), s.leadTime)
		report.BlockingCount = len(existing)
	}

	if s.cache != nil {
		s.cache.Set(ctx, facilityID, date, report)
	}
	return report, nil
}

// Create admits or rejects a reservation request. The conflict check runs
// again inside the store's transaction regardless of any availability report
// the caller saw; the report can be stale the instant after it is produced.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	fac, err := s.store.Facility(ctx, req.FacilityID)
	if err != nil {
		return nil, err
	}
	if !fac.Active {
		return nil, ErrFacilityInactive
	}

	if s.enforceLead && availability.TooSoon(req.Start, s.now(), s.leadTime) {
		return nil, validationErr("start_time", fmt.Sprintf("bookings require at least %s notice", s.leadTime))
	}

	res := &model.Reservation{
		ID:            uuid.NewString(),
		FacilityID:    fac.ID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Notes:         strings.TrimSpace(req.Notes),
		StartTime:     req.Start,
		EndTime:       req.End,
		Status:        model.StatusPending,
		DurationHours: req.End.Sub(req.Start).Hours(),
	}
	if fac.HourlyRate != nil {
		rate := *fac.HourlyRate
		cost := res.DurationHours * rate
		res.HourlyRate = &rate
		res.TotalCost = &cost
	}

	if err := s.store.CreateReservation(ctx, res); err != nil {
		return nil, err
	}

	s.invalidateDates(ctx, fac.ID, res.StartTime, res.EndTime)
	s.logger.Info("reservation created",
		"reservation_id", res.ID,
		"facility_id", fac.ID,
		"start", res.StartTime.Format(time.RFC3339),
		"end", res.EndTime.Format(time.RFC3339),
	)
	return res, nil
}

// Transition moves a reservation through its status workflow
// (pending -> confirmed/cancelled, confirmed -> completed/cancelled).
func (s *Service) Transition(ctx context.Context, reservationID, toStatus string) (model.Reservation, error) {
	if !model.ValidStatus(toStatus) {
		return model.Reservation{}, validationErr("status", "unknown status "+toStatus)
	}
	res, err := s.store.TransitionReservation(ctx, reservationID, toStatus)
	if err != nil {
		return model.Reservation{}, err
	}

	s.invalidateDates(ctx, res.FacilityID, res.StartTime, res.EndTime)
	s.logger.Info("reservation status changed",
		"reservation_id", res.ID,
		"facility_id", res.FacilityID,
		"status", res.Status,
	)
	return res, nil
}

func validateCreate(req CreateRequest) error {
	switch {
	case strings.TrimSpace(req.FacilityID) == "":
		return validationErr("facility_id", "required")
	case strings.TrimSpace(req.CustomerName) == "":
		return validationErr("customer_name", "required")
	case strings.TrimSpace(req.CustomerEmail) == "":
		return validationErr("customer_email", "required")
	case strings.TrimSpace(req.Title) == "":
		return validationErr("title", "required")
	case req.Start.IsZero():
		return validationErr("start_time", "required")
	case req.End.IsZero():
		return validationErr("end_time", "required")
	case !req.Start.Before(req.End):
		return validationErr("end_time", "must be after start_time")
	}
	return nil
}

func (s *Service) invalidateDates(ctx context.Context, facilityID string, start, end time.Time) {
	if s.cache == nil {
		return
	}
	var dates []string
	first := start.In(s.loc)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, s.loc)
	last := end.In(s.loc)
	for !day.After(last) {
		dates = append(dates, day.Format("2006-01-02"))
		day = day.AddDate(0, 0, 1)
	}
	s.cache.Invalidate(ctx, facilityID, dates...)
}
