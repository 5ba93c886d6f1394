package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicbook/clinic-booking/internal/auth"
	"github.com/clinicbook/clinic-booking/internal/booking"
	"github.com/clinicbook/clinic-booking/internal/metrics"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func bookHandler(svc *booking.Service, m *metrics.BookingMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}

		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SLOT_ID", "slot_id must be a valid UUID")
			return
		}

		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
			return
		}

		start := time.Now()
		detail, err := svc.Claim(r.Context(), principal.ID, slotID, req.Notes)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			status, code, message := mapCoreError(err)
			m.ObserveClaim(code, elapsed)
			writeError(w, status, code, message)
			return
		}
		m.ObserveClaim("ok", elapsed)

		writeJSON(w, http.StatusCreated, toBookingDetailResponse(detail))
	}
}

func myBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
			return
		}

		details, err := svc.ListForPatient(r.Context(), principal.ID)
		if err != nil {
			handleCoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingList(details))
	}
}

func allBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := svc.ListAll(r.Context())
		if err != nil {
			handleCoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingList(details))
	}
}

func cancelBookingHandler(svc *booking.Service, m *metrics.BookingMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BOOKING_ID", "id must be a valid UUID")
			return
		}

		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
			return
		}

		actor := booking.Actor{ID: principal.ID, Admin: principal.Admin()}
		updated, err := svc.Cancel(r.Context(), actor, bookingID)
		if err != nil {
			handleCoreError(w, err)
			return
		}
		m.ObserveLifecycle("cancelled")

		writeJSON(w, http.StatusOK, toBookingResponse(updated))
	}
}

func updateBookingStatusHandler(svc *booking.Service, m *metrics.BookingMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BOOKING_ID", "id must be a valid UUID")
			return
		}

		var req StatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_STATUS", "status is required")
			return
		}

		updated, err := svc.SetStatus(r.Context(), bookingID, booking.Status(req.Status))
		if err != nil {
			handleCoreError(w, err)
			return
		}
		m.ObserveLifecycle("status_" + req.Status)

		writeJSON(w, http.StatusOK, toBookingResponse(updated))
	}
}

func toBookingList(details []booking.Detail) BookingListResponse {
	resp := BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(details)),
		Count:    len(details),
	}
	for i := range details {
		resp.Bookings = append(resp.Bookings, toBookingDetailResponse(&details[i]))
	}
	return resp
}
