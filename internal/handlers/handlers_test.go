package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dakthi/venuebook/internal/availability"
	"github.com/dakthi/venuebook/internal/booking"
	"github.com/dakthi/venuebook/internal/model"
	"github.com/dakthi/venuebook/libs/auth"
)

const testSecret = "test-secret"

// memStore backs handler tests with in-memory state. It implements both the
// booking engine's Store and the admin surface's AdminStore.
type memStore struct {
	mu           sync.Mutex
	facilities   map[string]model.Facility
	rules        map[string]map[int]model.OperatingHoursRule
	reservations map[string]*model.Reservation
}

func newMemStore() *memStore {
	return &memStore{
		facilities:   map[string]model.Facility{},
		rules:        map[string]map[int]model.OperatingHoursRule{},
		reservations: map[string]*model.Reservation{},
	}
}

func (s *memStore) Facility(_ context.Context, id string) (model.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fac, ok := s.facilities[id]
	if !ok {
		return model.Facility{}, booking.ErrFacilityNotFound
	}
	return fac, nil
}

func (s *memStore) CreateFacility(_ context.Context, fac *model.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fac.CreatedAt = time.Now().UTC()
	fac.UpdatedAt = fac.CreatedAt
	s.facilities[fac.ID] = *fac
	return nil
}

func (s *memStore) UpdateFacility(_ context.Context, fac *model.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facilities[fac.ID]; !ok {
		return booking.ErrFacilityNotFound
	}
	fac.UpdatedAt = time.Now().UTC()
	s.facilities[fac.ID] = *fac
	return nil
}

func (s *memStore) ListFacilities(_ context.Context, activeOnly bool) ([]model.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Facility
	for _, fac := range s.facilities {
		if activeOnly && !fac.Active {
			continue
		}
		out = append(out, fac)
	}
	return out, nil
}

func (s *memStore) HoursRule(_ context.Context, facilityID string, weekday int) (*model.OperatingHoursRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if byDay, ok := s.rules[facilityID]; ok {
		if rule, ok := byDay[weekday]; ok {
			return &rule, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListHoursRules(_ context.Context, facilityID string) ([]model.OperatingHoursRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.OperatingHoursRule
	for _, rule := range s.rules[facilityID] {
		out = append(out, rule)
	}
	return out, nil
}

func (s *memStore) UpsertHoursRule(_ context.Context, rule model.OperatingHoursRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facilities[rule.FacilityID]; !ok {
		return booking.ErrFacilityNotFound
	}
	if s.rules[rule.FacilityID] == nil {
		s.rules[rule.FacilityID] = map[int]model.OperatingHoursRule{}
	}
	s.rules[rule.FacilityID][rule.Weekday] = rule
	return nil
}

func (s *memStore) DeleteHoursRule(_ context.Context, facilityID string, weekday int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules[facilityID], weekday)
	return nil
}

func (s *memStore) BlockingReservations(_ context.Context, facilityID string, from, to time.Time) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.FacilityID != facilityID || !model.Blocking(r.Status) {
			continue
		}
		if availability.Overlaps(r.StartTime, r.EndTime, from, to) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) CreateReservation(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reservations {
		if existing.FacilityID != res.FacilityID || !model.Blocking(existing.Status) {
			continue
		}
		if availability.Overlaps(res.StartTime, res.EndTime, existing.StartTime, existing.EndTime) {
			return booking.ErrSlotUnavailable
		}
	}
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	cp := *res
	s.reservations[res.ID] = &cp
	return nil
}

func (s *memStore) TransitionReservation(_ context.Context, id, toStatus string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	if !model.CanTransition(r.Status, toStatus) {
		return model.Reservation{}, booking.ErrInvalidTransition
	}
	r.Status = toStatus
	return *r, nil
}

func (s *memStore) ListReservations(_ context.Context, facilityID string, limit int) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.FacilityID == facilityID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) Reservation(_ context.Context, id string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return *r, nil
}

func testMux(t *testing.T, store *memStore) *http.ServeMux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := booking.NewService(store, nil, logger, booking.Config{
		Now: func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})

	mux := http.NewServeMux()
	NewPublicHandler(svc, store, logger, time.UTC).Register(mux)
	NewAdminHandler(svc, store, logger, testSecret).Register(mux)
	return mux
}

func seedFacility(store *memStore, id string, rate *float64) {
	store.facilities[id] = model.Facility{
		ID:         id,
		Name:       "Main Hall",
		HourlyRate: rate,
		Active:     true,
	}
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:  "staff-1",
		Role: role,
		Iat:  now.Unix(),
		Exp:  now.Add(time.Hour).Unix(),
	}, testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAvailabilityEndpoint(t *testing.T) {
	store := newMemStore()
	seedFacility(store, "main-hall", nil)
	mux := testMux(t, store)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/public/availability?facility_id=main-hall&date=2024-06-10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report booking.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Date != "2024-06-10" || len(report.Slots) != 26 {
		t.Fatalf("unexpected report: date=%s slots=%d", report.Date, len(report.Slots))
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/public/availability?facility_id=main-hall", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing date: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/public/availability?facility_id=main-hall&date=June+10", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/public/availability?facility_id=ghost&date=2024-06-10", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown facility: expected 404, got %d", rec.Code)
	}
}

func TestCreateReservationEndpoint(t *testing.T) {
	store := newMemStore()
	rate := 15.0
	seedFacility(store, "main-hall", &rate)
	mux := testMux(t, store)

	body := map[string]any{
		"facility_id":    "main-hall",
		"customer_name":  "Pat Lee",
		"customer_email": "pat@example.com",
		"title":          "Yoga class",
		"start_time":     "2024-06-10T14:00:00Z",
		"end_time":       "2024-06-10T16:00:00Z",
	}
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/public/reservations", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created reservationItem
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != model.StatusPending {
		t.Fatalf("expected pending reservation, got %s", created.Status)
	}
	if created.TotalCost == nil || *created.TotalCost != 30 {
		t.Fatalf("expected cost 30 for 2h at rate 15, got %v", created.TotalCost)
	}

	// Same interval again conflicts.
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/public/reservations", "", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	body["customer_name"] = " "
	body["start_time"] = "2024-06-11T14:00:00Z"
	body["end_time"] = "2024-06-11T16:00:00Z"
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/public/reservations", "", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name: expected 400, got %d", rec.Code)
	}

	body["customer_name"] = "Pat Lee"
	body["start_time"] = "not-a-time"
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/public/reservations", "", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad start_time: expected 400, got %d", rec.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	store := newMemStore()
	mux := testMux(t, store)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/admin/facilities", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/admin/facilities", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/admin/facilities", adminToken(t, "viewer"), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong role: expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/admin/facilities", adminToken(t, "admin"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin token: expected 200, got %d", rec.Code)
	}
}

func TestAdminFacilityLifecycle(t *testing.T) {
	store := newMemStore()
	mux := testMux(t, store)
	token := adminToken(t, "admin")

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/admin/facilities", token, map[string]any{
		"name":        "Dance Studio",
		"hourly_rate": 25.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created facilityItem
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.FacilityID == "" || !created.Active {
		t.Fatalf("unexpected created facility: %+v", created)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/admin/facilities", token, map[string]any{"name": " "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name: expected 400, got %d", rec.Code)
	}

	inactive := false
	rec = doJSON(t, mux, http.MethodPut, "/api/v1/admin/facilities", token, map[string]any{
		"facility_id": created.FacilityID,
		"name":        "Dance Studio",
		"active":      inactive,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Deactivated facilities drop off the public directory.
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/public/facilities", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public list: expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), created.FacilityID) {
		t.Fatal("inactive facility should not appear in the public directory")
	}
}

func TestAdminHoursRules(t *testing.T) {
	store := newMemStore()
	seedFacility(store, "main-hall", nil)
	mux := testMux(t, store)
	token := adminToken(t, "admin")

	weekday := 1
	rec := doJSON(t, mux, http.MethodPut, "/api/v1/admin/hours", token, map[string]any{
		"facility_id":  "main-hall",
		"weekday":      weekday,
		"start_minute": 600,
		"end_minute":   720,
		"available":    true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The rule now shapes the public grid: Mondays 10:00-12:00 = 4 slots.
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/public/availability?facility_id=main-hall&date=2024-06-10", "", nil)
	var report booking.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Slots) != 4 {
		t.Fatalf("expected 4 slots under the custom rule, got %d", len(report.Slots))
	}

	rec = doJSON(t, mux, http.MethodPut, "/api/v1/admin/hours", token, map[string]any{
		"facility_id":  "main-hall",
		"weekday":      9,
		"start_minute": 600,
		"end_minute":   720,
		"available":    true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad weekday: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPut, "/api/v1/admin/hours", token, map[string]any{
		"facility_id":  "main-hall",
		"weekday":      2,
		"start_minute": 720,
		"end_minute":   600,
		"available":    true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted window: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/admin/hours?facility_id=main-hall&weekday=1", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
}

func TestAdminTransition(t *testing.T) {
	store := newMemStore()
	seedFacility(store, "main-hall", nil)
	store.reservations["r1"] = &model.Reservation{
		ID:         "r1",
		FacilityID: "main-hall",
		Status:     model.StatusPending,
		StartTime:  time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC),
	}
	mux := testMux(t, store)
	token := adminToken(t, "admin")

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/admin/reservations/status", token, map[string]any{
		"reservation_id": "r1",
		"status":         model.StatusConfirmed,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/admin/reservations/status", token, map[string]any{
		"reservation_id": "r1",
		"status":         model.StatusPending,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("invalid transition: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/admin/reservations/status", token, map[string]any{
		"reservation_id": "missing",
		"status":         model.StatusCancelled,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", rec.Code)
	}
}
