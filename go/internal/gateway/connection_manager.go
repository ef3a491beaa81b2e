package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/racecycles/go/internal/events"
	"github.com/mcdev12/racecycles/go/internal/models"
	"github.com/rs/zerolog/log"
)

// StateProvider supplies the station snapshots sent to a client on connect
type StateProvider interface {
	Stations() []models.Station
}

// ConnectionManager fans station events out to WebSocket clients
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	state    StateProvider

	broadcastCh chan events.Event
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID string
	// StationID limits delivery to one station's events; 0 receives everything.
	StationID int
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, state StateProvider) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		state:       state,
		broadcastCh: make(chan events.Event, 1000),
	}
}

// Start processes broadcasts until ctx is done
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			cm.closeAll()
			log.Info().Msg("connection manager shutting down")
			return
		case event := <-cm.broadcastCh:
			cm.handleBroadcast(event)
		}
	}
}

// Emit queues an event for broadcast without blocking. A full queue drops the event.
func (cm *ConnectionManager) Emit(event events.Event) {
	select {
	case cm.broadcastCh <- event:
	default:
		log.Warn().
			Str("event_type", string(event.Type)).
			Int("station_id", event.StationID).
			Msg("broadcast channel full, dropping message")
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket. The first
// message the client receives is a StateSync of the stations it follows.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, stationID int) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		StationID:   stationID,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.registerWithStateSync(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Int("station_id", stationID).
		Msg("websocket connection established")

	return nil
}

func (cm *ConnectionManager) stateSync(stationID int) ([]byte, error) {
	var stations []models.Station
	if cm.state != nil {
		for _, st := range cm.state.Stations() {
			if stationID == 0 || st.ID == stationID {
				stations = append(stations, st)
			}
		}
	}
	ev, err := events.New(events.EventTypeStateSync, stationID, time.Now(), events.StateSyncPayload{Stations: stations})
	if err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

// registerWithStateSync queues the snapshot and registers the connection under
// one write lock, so every broadcast handled afterwards reaches it and nothing
// emitted after the snapshot is missed.
func (cm *ConnectionManager) registerWithStateSync(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if msg, err := cm.stateSync(conn.StationID); err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to build state sync")
	} else {
		conn.Send <- msg
	}
	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		close(conn.Send)

		log.Info().
			Str("connection_id", conn.ID).
			Int("station_id", conn.StationID).
			Msg("connection unregistered")
	}
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		cm.unregisterConnection(conn)
	}
}

func (cm *ConnectionManager) handleBroadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	// Sends happen under the read lock so Send cannot be closed underneath them.
	var delivered int
	var slow []*Connection
	cm.mu.RLock()
	for conn := range cm.connections {
		// station 0 events are roster-wide
		if conn.StationID != 0 && event.StationID != 0 && conn.StationID != event.StationID {
			continue
		}
		select {
		case conn.Send <- data:
			delivered++
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}

	log.Trace().
		Str("event_type", string(event.Type)).
		Int("station_id", event.StationID).
		Int("connections", delivered).
		Msg("event broadcasted")
}

// ConnectionStats summarizes active connections
type ConnectionStats struct {
	TotalConnections int         `json:"total_connections"`
	ByStation        map[int]int `json:"by_station"`
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{ByStation: make(map[int]int)}
	for conn := range cm.connections {
		stats.TotalConnections++
		stats.ByStation[conn.StationID]++
	}
	return stats
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump only services control frames; clients send commands over HTTP.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close error")
			}
			break
		}
		log.Debug().
			Str("connection_id", c.ID).
			Int("bytes", len(message)).
			Msg("ignoring client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
