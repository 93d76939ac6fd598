package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dakthi/venuebook/internal/booking"
	"github.com/dakthi/venuebook/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps booking engine errors onto HTTP statuses. Unknown
// errors become opaque 500s so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *booking.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": ve.Reason,
			"field": ve.Field,
		})
	case errors.Is(err, booking.ErrFacilityNotFound):
		writeErrorMessage(w, http.StatusNotFound, "facility not found")
	case errors.Is(err, booking.ErrReservationNotFound):
		writeErrorMessage(w, http.StatusNotFound, "reservation not found")
	case errors.Is(err, booking.ErrFacilityInactive):
		writeErrorMessage(w, http.StatusUnprocessableEntity, "facility is not accepting bookings")
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeErrorMessage(w, http.StatusConflict, "time slot already booked")
	case errors.Is(err, booking.ErrInvalidTransition):
		writeErrorMessage(w, http.StatusConflict, "invalid status transition")
	default:
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

type reservationItem struct {
	ReservationID string   `json:"reservation_id"`
	FacilityID    string   `json:"facility_id"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	CustomerPhone string   `json:"customer_phone,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Status        string   `json:"status"`
	DurationHours float64  `json:"duration_hours"`
	HourlyRate    *float64 `json:"hourly_rate,omitempty"`
	TotalCost     *float64 `json:"total_cost,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

func reservationToItem(res model.Reservation) reservationItem {
	return reservationItem{
		ReservationID: res.ID,
		FacilityID:    res.FacilityID,
		CustomerName:  res.CustomerName,
		CustomerEmail: res.CustomerEmail,
		CustomerPhone: res.CustomerPhone,
		Title:         res.Title,
		Description:   res.Description,
		Notes:         res.Notes,
		StartTime:     res.StartTime.UTC().Format(time.RFC3339),
		EndTime:       res.EndTime.UTC().Format(time.RFC3339),
		Status:        res.Status,
		DurationHours: res.DurationHours,
		HourlyRate:    res.HourlyRate,
		TotalCost:     res.TotalCost,
		CreatedAt:     res.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type facilityItem struct {
	FacilityID  string   `json:"facility_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	HourlyRate  *float64 `json:"hourly_rate,omitempty"`
	Active      bool     `json:"active"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func facilityToItem(fac model.Facility) facilityItem {
	return facilityItem{
		FacilityID:  fac.ID,
		Name:        fac.Name,
		Description: fac.Description,
		HourlyRate:  fac.HourlyRate,
		Active:      fac.Active,
		CreatedAt:   fac.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   fac.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
