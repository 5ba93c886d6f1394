package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/clinic-booking/internal/booking"
	"github.com/clinicbook/clinic-booking/internal/patient"
	"github.com/clinicbook/clinic-booking/internal/slot"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type BookRequest struct {
	SlotID string `json:"slot_id" validate:"required,uuid"`
	Notes  string `json:"notes" validate:"max=500"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

type SlotResponse struct {
	ID              uuid.UUID `json:"id"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

type SlotListResponse struct {
	Slots []SlotResponse `json:"slots"`
	Count int            `json:"count"`
}

type BookingResponse struct {
	ID        uuid.UUID     `json:"id"`
	Status    string        `json:"status"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Slot      *SlotResponse `json:"slot,omitempty"`
	Patient   *UserResponse `json:"patient,omitempty"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Count    int               `json:"count"`
}

func toUserResponse(p *patient.Patient) UserResponse {
	return UserResponse{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
		Role:  string(p.Role),
	}
}

func toSlotResponse(s *slot.Slot) SlotResponse {
	return SlotResponse{
		ID:              s.ID,
		StartAt:         s.StartAt,
		EndAt:           s.EndAt,
		DurationMinutes: int(s.EndAt.Sub(s.StartAt).Minutes()),
	}
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		Status:    string(b.Status),
		Notes:     b.Notes,
		CreatedAt: b.CreatedAt,
	}
}

func toBookingDetailResponse(d *booking.Detail) BookingResponse {
	resp := toBookingResponse(&d.Booking)
	if d.Slot != nil {
		sr := toSlotResponse(d.Slot)
		resp.Slot = &sr
	}
	if d.Patient != nil {
		resp.Patient = &UserResponse{
			ID:    d.Patient.ID,
			Name:  d.Patient.Name,
			Email: d.Patient.Email,
			Role:  string(d.Patient.Role),
		}
	}
	return resp
}
