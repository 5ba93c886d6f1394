package api

import (
	"encoding/json"
	"net/http"

	"github.com/clinicbook/clinic-booking/internal/auth"
	"github.com/clinicbook/clinic-booking/internal/patient"
)

func registerHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}

		p, token, err := svc.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			handleCoreError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{User: toUserResponse(p), Token: token})
	}
}

func loginHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}

		p, token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			handleCoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{User: toUserResponse(p), Token: token})
	}
}

func meHandler(patients patient.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
			return
		}

		p, err := patients.GetByID(r.Context(), principal.ID)
		if err != nil {
			handleCoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(p))
	}
}
