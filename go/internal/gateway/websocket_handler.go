package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for station events
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	numStations       int
}

// NewWebSocketHandler creates a new WebSocket handler. station_id query
// values are accepted in 1..numStations.
func NewWebSocketHandler(cm *ConnectionManager, numStations int) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		numStations:       numStations,
	}
}

// HandleStationConnection upgrades to a WebSocket following all stations,
// or one station when station_id is given.
func (h *WebSocketHandler) HandleStationConnection(w http.ResponseWriter, r *http.Request) {
	stationID := 0
	if raw := r.URL.Query().Get("station_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 || id > h.numStations {
			http.Error(w, "invalid station_id", http.StatusBadRequest)
			return
		}
		stationID = id
	}

	// Upgrade has already replied to the client on failure
	if err := h.connectionManager.UpgradeConnection(w, r, stationID); err != nil {
		log.Error().
			Err(err).
			Int("station_id", stationID).
			Msg("failed to upgrade websocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes on r
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/stations", h.HandleStationConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}
