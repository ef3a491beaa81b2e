package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mcdev12/racecycles/go/internal/race"
)

// AssignmentRequest sets or, with a null user_id, clears a station's user.
type AssignmentRequest struct {
	UserID *string `json:"user_id"`
}

// ListStations returns every station snapshot.
func (h *Handler) ListStations(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.stations.Stations())
}

// GetStation returns one station snapshot.
func (h *Handler) GetStation(w http.ResponseWriter, r *http.Request) {
	id, ok := stationID(w, r)
	if !ok {
		return
	}
	h.respondStation(w, id)
}

// AssignUser updates a station's assignment.
func (h *Handler) AssignUser(w http.ResponseWriter, r *http.Request) {
	id, ok := stationID(w, r)
	if !ok {
		return
	}

	var req AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, KindBadRequest, "invalid JSON body")
		return
	}
	userID := ""
	if req.UserID != nil {
		userID = *req.UserID
	}

	if err := h.stations.AssignUser(id, userID); err != nil {
		writeError(w, err)
		return
	}
	h.respondStation(w, id)
}

// StartRace starts a race on the station.
func (h *Handler) StartRace(w http.ResponseWriter, r *http.Request) {
	id, ok := stationID(w, r)
	if !ok {
		return
	}
	if err := h.stations.StartRace(id); err != nil {
		writeError(w, err)
		return
	}
	h.respondStation(w, id)
}

// StopRace stops the station's race.
func (h *Handler) StopRace(w http.ResponseWriter, r *http.Request) {
	id, ok := stationID(w, r)
	if !ok {
		return
	}
	if err := h.stations.StopRace(id); err != nil {
		writeError(w, err)
		return
	}
	h.respondStation(w, id)
}

func (h *Handler) respondStation(w http.ResponseWriter, id int) {
	st, err := h.stations.Station(id)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, st)
}

// stationID parses the {id} path segment. Non-numeric ids are reported the
// same way as out-of-range ones.
func stationID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %q", race.ErrInvalidStation, raw))
		return 0, false
	}
	return id, true
}
