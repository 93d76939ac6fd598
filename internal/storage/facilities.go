package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dakthi/venuebook/internal/booking"
	"github.com/dakthi/venuebook/internal/model"
	"github.com/dakthi/venuebook/internal/outbox"
	"github.com/dakthi/venuebook/libs/db"
)

// Repository is the Postgres persistence layer for facilities, operating
// hours and reservations. It implements booking.Store.
type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, ob *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: ob}
}

func (r *Repository) Facility(ctx context.Context, id string) (model.Facility, error) {
	var fac model.Facility
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), hourly_rate, active, created_at, updated_at
		FROM facilities
		WHERE id = $1
	`, id).Scan(&fac.ID, &fac.Name, &fac.Description, &fac.HourlyRate, &fac.Active, &fac.CreatedAt, &fac.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Facility{}, booking.ErrFacilityNotFound
	}
	if err != nil {
		return model.Facility{}, err
	}
	return fac, nil
}

func (r *Repository) CreateFacility(ctx context.Context, fac *model.Facility) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO facilities (id, name, description, hourly_rate, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, fac.ID, fac.Name, fac.Description, fac.HourlyRate, fac.Active).Scan(&fac.CreatedAt, &fac.UpdatedAt)
}

func (r *Repository) UpdateFacility(ctx context.Context, fac *model.Facility) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE facilities
		SET name = $2,
			description = $3,
			hourly_rate = $4,
			active = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, fac.ID, fac.Name, fac.Description, fac.HourlyRate, fac.Active).Scan(&fac.CreatedAt, &fac.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.ErrFacilityNotFound
	}
	return err
}

func (r *Repository) ListFacilities(ctx context.Context, activeOnly bool) ([]model.Facility, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), hourly_rate, active, created_at, updated_at
		FROM facilities
		WHERE ($1 = false OR active)
		ORDER BY name ASC
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Facility
	for rows.Next() {
		var fac model.Facility
		if err := rows.Scan(&fac.ID, &fac.Name, &fac.Description, &fac.HourlyRate, &fac.Active, &fac.CreatedAt, &fac.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, fac)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// HoursRule returns the override for one weekday, or nil when the facility
// falls back to the default window.
func (r *Repository) HoursRule(ctx context.Context, facilityID string, weekday int) (*model.OperatingHoursRule, error) {
	var rule model.OperatingHoursRule
	err := r.pool.QueryRow(ctx, `
		SELECT facility_id, weekday, start_minute, end_minute, available
		FROM operating_hours_rules
		WHERE facility_id = $1 AND weekday = $2
	`, facilityID, weekday).Scan(&rule.FacilityID, &rule.Weekday, &rule.StartMinute, &rule.EndMinute, &rule.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *Repository) ListHoursRules(ctx context.Context, facilityID string) ([]model.OperatingHoursRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT facility_id, weekday, start_minute, end_minute, available
		FROM operating_hours_rules
		WHERE facility_id = $1
		ORDER BY weekday ASC
	`, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OperatingHoursRule
	for rows.Next() {
		var rule model.OperatingHoursRule
		if err := rows.Scan(&rule.FacilityID, &rule.Weekday, &rule.StartMinute, &rule.EndMinute, &rule.Available); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) UpsertHoursRule(ctx context.Context, rule model.OperatingHoursRule) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO operating_hours_rules (facility_id, weekday, start_minute, end_minute, available)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (facility_id, weekday) DO UPDATE
		SET start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			available = EXCLUDED.available,
			updated_at = now()
	`, rule.FacilityID, rule.Weekday, rule.StartMinute, rule.EndMinute, rule.Available)
	if err != nil {
		if isForeignKeyViolation(err) {
			return booking.ErrFacilityNotFound
		}
		return err
	}
	return nil
}

func (r *Repository) DeleteHoursRule(ctx context.Context, facilityID string, weekday int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM operating_hours_rules
		WHERE facility_id = $1 AND weekday = $2
	`, facilityID, weekday)
	return err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// IsConflict reports whether err is the exclusion-constraint violation raised
// when two committed reservations would overlap.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
