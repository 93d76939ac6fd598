package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dakthi/venuebook/internal/availability"
	"github.com/dakthi/venuebook/internal/booking"
	"github.com/dakthi/venuebook/internal/model"
	"github.com/dakthi/venuebook/internal/outbox"
)

const reservationColumns = `
	id, facility_id, customer_name, customer_email, COALESCE(customer_phone, ''),
	title, COALESCE(description, ''), COALESCE(notes, ''),
	start_time, end_time, status, duration_hours, hourly_rate, total_cost,
	created_at, updated_at`

func scanReservation(row pgx.Row) (model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID,
		&res.FacilityID,
		&res.CustomerName,
		&res.CustomerEmail,
		&res.CustomerPhone,
		&res.Title,
		&res.Description,
		&res.Notes,
		&res.StartTime,
		&res.EndTime,
		&res.Status,
		&res.DurationHours,
		&res.HourlyRate,
		&res.TotalCost,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	return res, err
}

func (r *Repository) BlockingReservations(ctx context.Context, facilityID string, from, to time.Time) ([]model.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE facility_id = $1
			AND status IN ('pending', 'confirmed')
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, facilityID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// CreateReservation admits the reservation inside one transaction: the
// facility row is locked, blocking reservations over the requested interval
// are re-read, and the insert only happens when no overlap remains. The
// exclusion constraint on the table is the last line of defence; either path
// surfaces as ErrSlotUnavailable.
func (r *Repository) CreateReservation(ctx context.Context, res *model.Reservation) error {
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		var facilityID string
		err := tx.QueryRow(ctx, `
			SELECT id FROM facilities WHERE id = $1 FOR UPDATE
		`, res.FacilityID).Scan(&facilityID)
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.ErrFacilityNotFound
		}
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT start_time, end_time
			FROM reservations
			WHERE facility_id = $1
				AND status IN ('pending', 'confirmed')
				AND start_time < $3
				AND end_time > $2
		`, res.FacilityID, res.StartTime, res.EndTime)
		if err != nil {
			return err
		}
		var busy []availability.Interval
		for rows.Next() {
			var iv availability.Interval
			if err := rows.Scan(&iv.Start, &iv.End); err != nil {
				rows.Close()
				return err
			}
			busy = append(busy, iv)
		}
		rows.Close()
		if rows.Err() != nil {
			return rows.Err()
		}
		if availability.OverlapsAny(res.StartTime, res.EndTime, busy) {
			return booking.ErrSlotUnavailable
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO reservations
				(id, facility_id, customer_name, customer_email, customer_phone,
				 title, description, notes, start_time, end_time, status,
				 duration_hours, hourly_rate, total_cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING created_at, updated_at
		`, res.ID, res.FacilityID, res.CustomerName, res.CustomerEmail, res.CustomerPhone,
			res.Title, res.Description, res.Notes, res.StartTime, res.EndTime, res.Status,
			res.DurationHours, res.HourlyRate, res.TotalCost).Scan(&res.CreatedAt, &res.UpdatedAt)
		if err != nil {
			return err
		}

		return r.insertReservationEvent(ctx, tx, outbox.EventReservationCreated, res)
	})
	if IsConflict(err) {
		return booking.ErrSlotUnavailable
	}
	return err
}

// TransitionReservation applies a status change under a row lock so two
// concurrent transitions serialize and the state machine is enforced against
// the committed status.
func (r *Repository) TransitionReservation(ctx context.Context, id, toStatus string) (model.Reservation, error) {
	var res model.Reservation
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := scanReservation(tx.QueryRow(ctx, `
			SELECT `+reservationColumns+`
			FROM reservations
			WHERE id = $1
			FOR UPDATE
		`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		if !model.CanTransition(current.Status, toStatus) {
			return booking.ErrInvalidTransition
		}

		res, err = scanReservation(tx.QueryRow(ctx, `
			UPDATE reservations
			SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+reservationColumns+`
		`, id, toStatus))
		if err != nil {
			return err
		}

		return r.insertReservationEvent(ctx, tx, outbox.EventReservationStatusChanged, &res)
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

func (r *Repository) Reservation(ctx context.Context, id string) (model.Reservation, error) {
	res, err := scanReservation(r.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

func (r *Repository) ListReservations(ctx context.Context, facilityID string, limit int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE facility_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, facilityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]model.Reservation, error) {
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type reservationEventPayload struct {
	ReservationID string    `json:"reservation_id"`
	FacilityID    string    `json:"facility_id"`
	CustomerEmail string    `json:"customer_email"`
	Title         string    `json:"title"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	TotalCost     *float64  `json:"total_cost,omitempty"`
}

func (r *Repository) insertReservationEvent(ctx context.Context, tx pgx.Tx, eventType string, res *model.Reservation) error {
	if r.outbox == nil {
		return nil
	}
	payload, err := json.Marshal(reservationEventPayload{
		ReservationID: res.ID,
		FacilityID:    res.FacilityID,
		CustomerEmail: res.CustomerEmail,
		Title:         res.Title,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Status:        res.Status,
		TotalCost:     res.TotalCost,
	})
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "reservation",
		AggregateID:   res.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}
