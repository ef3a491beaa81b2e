// Package api exposes the station and roster operations over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/racecycles/go/internal/models"
	"github.com/mcdev12/racecycles/go/internal/race"
	"github.com/mcdev12/racecycles/go/internal/users"
	"github.com/rs/zerolog/log"
)

// UserDirectory defines what the handlers need from the roster
type UserDirectory interface {
	List() []models.User
	Register(ctx context.Context, name string) (models.User, error)
}

// StationManager defines what the handlers need from the race manager
type StationManager interface {
	AssignUser(stationID int, userID string) error
	StartRace(stationID int) error
	StopRace(stationID int) error
	Station(stationID int) (models.Station, error)
	Stations() []models.Station
}

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API.
type Handler struct {
	users    UserDirectory
	stations StationManager
	health   HealthChecker
}

// NewHandler creates a new Handler. health may be nil.
func NewHandler(users UserDirectory, stations StationManager, health HealthChecker) *Handler {
	return &Handler{
		users:    users,
		stations: stations,
		health:   health,
	}
}

// Error kinds carried in the "error" field of error responses.
const (
	KindInvalidStation = "invalid_station"
	KindNoUserAssigned = "no_user_assigned"
	KindAlreadyRunning = "already_running"
	KindNotRunning     = "not_running"
	KindEmptyName      = "empty_name"
	KindBadRequest     = "bad_request"
	KindInternal       = "internal"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, ErrorResponse{Error: kind, Message: message})
}

// writeError maps domain errors onto status codes and kinds.
func writeError(w http.ResponseWriter, err error) {
	status, kind := http.StatusInternalServerError, KindInternal
	switch {
	case errors.Is(err, race.ErrInvalidStation):
		status, kind = http.StatusNotFound, KindInvalidStation
	case errors.Is(err, race.ErrNoUserAssigned):
		status, kind = http.StatusConflict, KindNoUserAssigned
	case errors.Is(err, race.ErrAlreadyRunning):
		status, kind = http.StatusConflict, KindAlreadyRunning
	case errors.Is(err, race.ErrNotRunning):
		status, kind = http.StatusConflict, KindNotRunning
	case errors.Is(err, users.ErrEmptyName):
		status, kind = http.StatusBadRequest, KindEmptyName
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		Error(w, status, kind, "internal error")
		return
	}
	Error(w, status, kind, err.Error())
}
