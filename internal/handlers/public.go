package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dakthi/venuebook/internal/booking"
	"github.com/dakthi/venuebook/internal/model"
)

// FacilityLister is the read surface the public directory endpoint needs.
type FacilityLister interface {
	ListFacilities(ctx context.Context, activeOnly bool) ([]model.Facility, error)
}

// PublicHandler serves the unauthenticated booking surface: the facility
// directory, the availability grid, and reservation requests.
type PublicHandler struct {
	svc        *booking.Service
	facilities FacilityLister
	logger     *slog.Logger
	loc        *time.Location
}

func NewPublicHandler(svc *booking.Service, facilities FacilityLister, logger *slog.Logger, loc *time.Location) *PublicHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PublicHandler{svc: svc, facilities: facilities, logger: logger, loc: loc}
}

func (h *PublicHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/public/facilities", h.ListFacilities)
	mux.HandleFunc("/api/v1/public/availability", h.Availability)
	mux.HandleFunc("/api/v1/public/reservations", h.CreateReservation)
}

func (h *PublicHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	facs, err := h.facilities.ListFacilities(r.Context(), true)
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

func (h *PublicHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	facilityID := strings.TrimSpace(r.URL.Query().Get("facility_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if facilityID == "" || dateStr == "" {
		writeErrorMessage(w, http.StatusBadRequest, "facility_id and date are required")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	report, err := h.svc.Availability(r.Context(), facilityID, day)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type createReservationRequest struct {
	FacilityID    string `json:"facility_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Notes         string `json:"notes"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

func (h *PublicHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid end_time")
		return
	}

	res, err := h.svc.Create(r.Context(), booking.CreateRequest{
		FacilityID:    req.FacilityID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Title:         req.Title,
		Description:   req.Description,
		Notes:         req.Notes,
		Start:         start,
		End:           end,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservationToItem(*res))
}
