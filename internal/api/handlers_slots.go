package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/clinicbook/clinic-booking/internal/slot"
)

var errInvalidRange = errors.New("invalid slot range")

// validateRange enforces the caller-side range rules of the slot listing:
// from before to, range end no further than the horizon from now, span no
// wider than the horizon. The registry itself does no range checking.
func validateRange(from, to, now time.Time, horizon time.Duration) error {
	if !from.Before(to) {
		return errInvalidRange
	}
	if to.After(now.Add(horizon)) {
		return errInvalidRange
	}
	if to.Sub(from) > horizon {
		return errInvalidRange
	}
	return nil
}

func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", v, time.Local)
}

func listSlotsHandler(reg slot.Registry, horizon time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fromParam := r.URL.Query().Get("from")
		toParam := r.URL.Query().Get("to")
		if fromParam == "" || toParam == "" {
			writeError(w, http.StatusBadRequest, "INVALID_RANGE", "from and to query parameters are required")
			return
		}

		from, err := parseTimeParam(fromParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_RANGE", "from must be a date or RFC3339 timestamp")
			return
		}
		to, err := parseTimeParam(toParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_RANGE", "to must be a date or RFC3339 timestamp")
			return
		}

		if err := validateRange(from, to, time.Now(), horizon); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_RANGE", "range must be ordered and within the booking horizon")
			return
		}

		slots, err := reg.ListAvailable(r.Context(), from, to)
		if err != nil {
			handleCoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotList(slots))
	}
}

func todaySlotsHandler(reg slot.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)

		slots, err := reg.ListAvailable(r.Context(), dayStart, dayEnd)
		if err != nil {
			handleCoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotList(slots))
	}
}

func nextWeekSlotsHandler(reg slot.Registry, horizon time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end := now.Add(horizon)

		slots, err := reg.ListAvailable(r.Context(), start, end)
		if err != nil {
			handleCoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotList(slots))
	}
}

func toSlotList(slots []slot.Slot) SlotListResponse {
	resp := SlotListResponse{
		Slots: make([]SlotResponse, 0, len(slots)),
		Count: len(slots),
	}
	for i := range slots {
		resp.Slots = append(resp.Slots, toSlotResponse(&slots[i]))
	}
	return resp
}
