package api

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/racecycles/go/internal/users"
)

// ListUsers returns the roster in registration order.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.users.List())
}

// RegisterUser adds a user to the roster.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req users.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, KindBadRequest, "invalid JSON body")
		return
	}

	user, err := h.users.Register(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusCreated, user)
}
