package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dakthi/venuebook/internal/booking"
	"github.com/dakthi/venuebook/internal/model"
	"github.com/dakthi/venuebook/libs/auth"
)

// AdminStore is the persistence surface the admin endpoints need beyond the
// booking engine itself.
type AdminStore interface {
	Facility(ctx context.Context, id string) (model.Facility, error)
	CreateFacility(ctx context.Context, fac *model.Facility) error
	UpdateFacility(ctx context.Context, fac *model.Facility) error
	ListFacilities(ctx context.Context, activeOnly bool) ([]model.Facility, error)
	ListHoursRules(ctx context.Context, facilityID string) ([]model.OperatingHoursRule, error)
	UpsertHoursRule(ctx context.Context, rule model.OperatingHoursRule) error
	DeleteHoursRule(ctx context.Context, facilityID string, weekday int) error
	ListReservations(ctx context.Context, facilityID string, limit int) ([]model.Reservation, error)
	Reservation(ctx context.Context, id string) (model.Reservation, error)
}

// AdminHandler serves the staff-facing management surface: facility CRUD,
// operating-hours rules, and reservation status changes.
type AdminHandler struct {
	svc       *booking.Service
	store     AdminStore
	logger    *slog.Logger
	jwtSecret string
}

func NewAdminHandler(svc *booking.Service, store AdminStore, logger *slog.Logger, jwtSecret string) *AdminHandler {
	return &AdminHandler{svc: svc, store: store, logger: logger, jwtSecret: jwtSecret}
}

func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.Handle("/api/v1/admin/facilities", h.requireAdmin(http.HandlerFunc(h.Facilities)))
	mux.Handle("/api/v1/admin/hours", h.requireAdmin(http.HandlerFunc(h.Hours)))
	mux.Handle("/api/v1/admin/reservations", h.requireAdmin(http.HandlerFunc(h.Reservations)))
	mux.Handle("/api/v1/admin/reservations/status", h.requireAdmin(http.HandlerFunc(h.TransitionReservation)))
}

// requireAdmin admits only bearer tokens with the admin role.
func (h *AdminHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeErrorMessage(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := auth.ParseAndVerifyHS256(token, h.jwtSecret)
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Role != "admin" {
			writeErrorMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type facilityRequest struct {
	FacilityID  string   `json:"facility_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	HourlyRate  *float64 `json:"hourly_rate"`
	Active      *bool    `json:"active"`
}

func (h *AdminHandler) Facilities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listFacilities(w, r)
	case http.MethodPost:
		h.createFacility(w, r)
	case http.MethodPut:
		h.updateFacility(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) listFacilities(w http.ResponseWriter, r *http.Request) {
	activeOnly := strings.TrimSpace(r.URL.Query().Get("active")) == "true"
	facs, err := h.store.ListFacilities(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("facility list failed", "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]facilityItem, 0, len(facs))
	for _, fac := range facs {
		items = append(items, facilityToItem(fac))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) createFacility(w http.ResponseWriter, r *http.Request) {
	var req facilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErrorMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.HourlyRate != nil && *req.HourlyRate < 0 {
		writeErrorMessage(w, http.StatusBadRequest, "hourly_rate must not be negative")
		return
	}

	fac := model.Facility{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		HourlyRate:  req.HourlyRate,
		Active:      true,
	}
	if req.Active != nil {
		fac.Active = *req.Active
	}
	if err := h.store.CreateFacility(r.Context(), &fac); err != nil {
		h.logger.Error("facility create failed", "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.logger.Info("facility created", "facility_id", fac.ID, "name", fac.Name)
	writeJSON(w, http.StatusCreated, facilityToItem(fac))
}

func (h *AdminHandler) updateFacility(w http.ResponseWriter, r *http.Request) {
	var req facilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.FacilityID = strings.TrimSpace(req.FacilityID)
	if req.FacilityID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "facility_id is required")
		return
	}
	if req.HourlyRate != nil && *req.HourlyRate < 0 {
		writeErrorMessage(w, http.StatusBadRequest, "hourly_rate must not be negative")
		return
	}

	fac, err := h.store.Facility(r.Context(), req.FacilityID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		fac.Name = name
	}
	fac.Description = strings.TrimSpace(req.Description)
	fac.HourlyRate = req.HourlyRate
	if req.Active != nil {
		fac.Active = *req.Active
	}
	if err := h.store.UpdateFacility(r.Context(), &fac); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facilityToItem(fac))
}

type hoursRuleRequest struct {
	FacilityID  string `json:"facility_id"`
	Weekday     *int   `json:"weekday"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Available   bool   `json:"available"`
}

type hoursRuleItem struct {
	FacilityID  string `json:"facility_id"`
	Weekday     int    `json:"weekday"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Available   bool   `json:"available"`
}

func (h *AdminHandler) Hours(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listHours(w, r)
	case http.MethodPut:
		h.upsertHours(w, r)
	case http.MethodDelete:
		h.deleteHours(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) listHours(w http.ResponseWriter, r *http.Request) {
	facilityID := strings.TrimSpace(r.URL.Query().Get("facility_id"))
	if facilityID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "facility_id is required")
		return
	}
	rules, err := h.store.ListHoursRules(r.Context(), facilityID)
	if err != nil {
		h.logger.Error("hours list failed", "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]hoursRuleItem, 0, len(rules))
	for _, rule := range rules {
		items = append(items, hoursRuleItem(rule))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) upsertHours(w http.ResponseWriter, r *http.Request) {
	var req hoursRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.FacilityID = strings.TrimSpace(req.FacilityID)
	if req.FacilityID == "" || req.Weekday == nil {
		writeErrorMessage(w, http.StatusBadRequest, "facility_id and weekday are required")
		return
	}
	if *req.Weekday < 0 || *req.Weekday > 6 {
		writeErrorMessage(w, http.StatusBadRequest, "weekday must be 0 (Sunday) through 6 (Saturday)")
		return
	}
	// An unavailable day closes regardless of its times, so only validate the
	// window when the day is open.
	if req.Available {
		if req.StartMinute < 0 || req.EndMinute > 24*60 || req.StartMinute >= req.EndMinute {
			writeErrorMessage(w, http.StatusBadRequest, "start_minute and end_minute must form a window within the day")
			return
		}
	}

	rule := model.OperatingHoursRule{
		FacilityID:  req.FacilityID,
		Weekday:     *req.Weekday,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		Available:   req.Available,
	}
	if err := h.store.UpsertHoursRule(r.Context(), rule); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hoursRuleItem(rule))
}

func (h *AdminHandler) deleteHours(w http.ResponseWriter, r *http.Request) {
	facilityID := strings.TrimSpace(r.URL.Query().Get("facility_id"))
	weekdayStr := strings.TrimSpace(r.URL.Query().Get("weekday"))
	weekday, err := strconv.Atoi(weekdayStr)
	if facilityID == "" || weekdayStr == "" || err != nil || weekday < 0 || weekday > 6 {
		writeErrorMessage(w, http.StatusBadRequest, "facility_id and weekday are required")
		return
	}
	if err := h.store.DeleteHoursRule(r.Context(), facilityID, weekday); err != nil {
		h.logger.Error("hours delete failed", "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Reservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	facilityID := strings.TrimSpace(r.URL.Query().Get("facility_id"))
	if facilityID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "facility_id is required")
		return
	}
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	reservations, err := h.store.ListReservations(r.Context(), facilityID, limit)
	if err != nil {
		h.logger.Error("reservation list failed", "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]reservationItem, 0, len(reservations))
	for _, res := range reservations {
		items = append(items, reservationToItem(res))
	}
	writeJSON(w, http.StatusOK, items)
}

type transitionRequest struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

func (h *AdminHandler) TransitionReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ReservationID = strings.TrimSpace(req.ReservationID)
	req.Status = strings.TrimSpace(req.Status)
	if req.ReservationID == "" || req.Status == "" {
		writeErrorMessage(w, http.StatusBadRequest, "reservation_id and status are required")
		return
	}

	res, err := h.svc.Transition(r.Context(), req.ReservationID, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToItem(res))
}
