package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medbook/doctor-booking-platform/internal/directory"
	"github.com/medbook/doctor-booking-platform/internal/identity"
)

func patientSignupHandler(dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patient, err := dir.RegisterPatient(r.Context(), directory.NewPatient{
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			Age:            req.Age,
			Address:        req.Address,
			MedicalHistory: req.MedicalHistory,
			Password:       req.Password,
		})
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(patient))
	}
}

func patientLoginHandler(dir *directory.Service, tokens *identity.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patient, err := dir.AuthenticatePatient(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, directory.ErrBadCredentials) {
				writeError(w, http.StatusUnauthorized, "bad_credentials", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		token, err := tokens.Issue(identity.Actor{Role: identity.RolePatient, ID: patient.ID})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, TokenResponse{
			Token: token,
			Role:  string(identity.RolePatient),
			ID:    patient.ID.String(),
			Name:  patient.Name,
		})
	}
}

func getPatientHandler(dir *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.ActorFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing identity")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}
		if id != actor.ID {
			writeError(w, http.StatusForbidden, "not_owner", "cannot read another patient's record")
			return
		}

		patient, err := dir.GetPatient(r.Context(), id)
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(patient))
	}
}
