package api

import (
	"errors"
	"net/http"

	"github.com/clinicbook/clinic-booking/internal/auth"
	"github.com/clinicbook/clinic-booking/internal/booking"
	"github.com/clinicbook/clinic-booking/internal/patient"
	"github.com/clinicbook/clinic-booking/internal/slot"
)

// mapCoreError translates a typed core failure into a transport status and
// stable error code. Unknown errors surface as a generic 500.
func mapCoreError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, slot.ErrNotFound):
		return http.StatusNotFound, "SLOT_NOT_FOUND", "time slot not found"
	case errors.Is(err, booking.ErrSlotTaken):
		return http.StatusConflict, "SLOT_TAKEN", "this time slot is already booked"
	case errors.Is(err, slot.ErrAlreadyHeld):
		return http.StatusConflict, "SLOT_TAKEN", "this time slot is already booked"
	case errors.Is(err, booking.ErrSlotInPast):
		return http.StatusBadRequest, "SLOT_IN_PAST", "cannot book slots in the past"
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound, "BOOKING_NOT_FOUND", "booking not found"
	case errors.Is(err, booking.ErrAccessDenied):
		return http.StatusForbidden, "ACCESS_DENIED", "you can only cancel your own bookings"
	case errors.Is(err, booking.ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE", "booking state does not allow this transition"
	case errors.Is(err, booking.ErrInvalidStatus):
		return http.StatusBadRequest, "INVALID_STATUS", "status must be one of: confirmed, cancelled, completed"
	case errors.Is(err, booking.ErrNotesTooLong):
		return http.StatusBadRequest, "NOTES_TOO_LONG", "notes cannot exceed 500 characters"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password"
	case errors.Is(err, patient.ErrEmailTaken):
		return http.StatusConflict, "USER_EXISTS", "user with this email already exists"
	case errors.Is(err, patient.ErrNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", "user not found"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "something went wrong"
	}
}

func handleCoreError(w http.ResponseWriter, err error) {
	status, code, message := mapCoreError(err)
	writeError(w, status, code, message)
}
