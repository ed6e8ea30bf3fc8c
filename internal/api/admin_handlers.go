package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/medbook/doctor-booking-platform/internal/identity"
)

// AdminCredentials is the configured admin identity. There is exactly one
// admin and it lives in configuration, never in the database and never with a
// built-in default.
type AdminCredentials struct {
	Username string
	Password string
}

func adminLoginHandler(creds AdminCredentials, tokens *identity.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(creds.Username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(creds.Password)) == 1
		if !userOK || !passOK {
			writeError(w, http.StatusUnauthorized, "bad_credentials", "invalid credentials")
			return
		}

		token, err := tokens.Issue(identity.Actor{Role: identity.RoleAdmin})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, TokenResponse{
			Token: token,
			Role:  string(identity.RoleAdmin),
			Name:  creds.Username,
		})
	}
}
