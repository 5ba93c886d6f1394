package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/clinic-booking/internal/slot"
)

func TestValidateRange(t *testing.T) {
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	horizon := 7 * 24 * time.Hour

	cases := []struct {
		name string
		from time.Time
		to   time.Time
		ok   bool
	}{
		{"same day", now, now.Add(24 * time.Hour), true},
		{"full horizon", now, now.Add(horizon), true},
		{"reversed", now.Add(24 * time.Hour), now, false},
		{"equal bounds", now, now, false},
		{"beyond horizon end", now.Add(24 * time.Hour), now.Add(horizon + 25*time.Hour), false},
		{"span wider than horizon", now.Add(-8 * 24 * time.Hour), now.Add(time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRange(tc.from, tc.to, now, horizon)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errInvalidRange)
			}
		})
	}
}

func TestParseTimeParam(t *testing.T) {
	got, err := parseTimeParam("2026-03-02T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC), got)

	got, err = parseTimeParam("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 2, got.Day())

	_, err = parseTimeParam("next tuesday")
	assert.Error(t, err)
}

// stubRegistry records the range it was asked for and returns fixed slots.
type stubRegistry struct {
	from, to time.Time
	slots    []slot.Slot
	err      error
}

func (s *stubRegistry) Get(ctx context.Context, id uuid.UUID) (*slot.Slot, error) {
	return nil, slot.ErrNotFound
}

func (s *stubRegistry) ListAvailable(ctx context.Context, from, to time.Time) ([]slot.Slot, error) {
	s.from, s.to = from, to
	return s.slots, s.err
}

func (s *stubRegistry) MarkHeld(ctx context.Context, id uuid.UUID) error      { return nil }
func (s *stubRegistry) MarkAvailable(ctx context.Context, id uuid.UUID) error { return nil }

func TestListSlotsHandlerRequiresRange(t *testing.T) {
	handler := listSlotsHandler(&stubRegistry{}, 7*24*time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_RANGE")
}

func TestListSlotsHandlerRejectsReversedRange(t *testing.T) {
	handler := listSlotsHandler(&stubRegistry{}, 7*24*time.Hour)

	from := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	to := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, "/api/slots?from="+from+"&to="+to, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_RANGE")
}

func TestListSlotsHandlerReturnsSlots(t *testing.T) {
	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	reg := &stubRegistry{slots: []slot.Slot{{
		ID:      uuid.New(),
		StartAt: start,
		EndAt:   start.Add(slot.Duration),
	}}}
	handler := listSlotsHandler(reg, 7*24*time.Hour)

	from := time.Now().Add(time.Hour).Format(time.RFC3339)
	to := time.Now().Add(72 * time.Hour).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, "/api/slots?from="+from+"&to="+to, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SlotListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, 30, resp.Slots[0].DurationMinutes)
}

func TestTodaySlotsHandlerUsesCalendarDay(t *testing.T) {
	reg := &stubRegistry{}
	handler := todaySlotsHandler(reg)

	req := httptest.NewRequest(http.MethodGet, "/api/slots/today", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, reg.from.Hour())
	assert.Equal(t, 0, reg.from.Minute())
	assert.Equal(t, 24*time.Hour, reg.to.Sub(reg.from))
}

func TestNextWeekSlotsHandlerSpansHorizon(t *testing.T) {
	reg := &stubRegistry{}
	horizon := 7 * 24 * time.Hour
	handler := nextWeekSlotsHandler(reg, horizon)

	req := httptest.NewRequest(http.MethodGet, "/api/slots/next-week", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.WithinDuration(t, time.Now().Add(horizon), reg.to, time.Minute)
}
