package main

import (
	"encoding/json"
	"net/http"
)

type LoginRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// LoginHandler issues a session token. Credential checking belongs to
// the platform's auth service; this stub trusts the user id so the
// realtime layer can be exercised standalone.
func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.validate.Struct(req); err != nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	token, err := a.tokens.GenerateToken(req.UserID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}
