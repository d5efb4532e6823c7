// Package live pushes result-slot changes to open pages over websockets.
package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Message is the envelope of everything written to a page.
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DisplayData mirrors estimation.Display for the page script.
type DisplayData struct {
	Source      domain.Method            `json:"source,omitempty"`
	SourceLabel string                   `json:"source_label,omitempty"`
	IsLoading   bool                     `json:"is_loading"`
	Error       string                   `json:"error,omitempty"`
	Result      *domain.EstimationResult `json:"result,omitempty"`
}

func displayData(d estimation.Display) DisplayData {
	return DisplayData{
		Source:      d.Source,
		SourceLabel: estimation.SourceLabel(d.Source),
		IsLoading:   d.IsLoading,
		Error:       d.Error,
		Result:      d.Result,
	}
}

// Hub tracks the open connections of every session.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.SessionID] == nil {
		h.clients[c.SessionID] = make(map[*Client]struct{})
	}
	h.clients[c.SessionID][c] = struct{}{}
	h.logger.Debug("websocket client registered", "session_id", c.SessionID, "session_connections", len(h.clients[c.SessionID]))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	clients, ok := h.clients[c.SessionID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.SessionID)
	}
	h.logger.Debug("websocket client unregistered", "session_id", c.SessionID, "remaining_connections", len(clients))
}

// SendToSession writes msg to every connection of sessionID. Connections
// whose buffer is full are dropped.
func (h *Hub) SendToSession(sessionID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "session_id", sessionID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[sessionID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("websocket send buffer full, closing connection", "session_id", sessionID)
			h.removeLocked(c)
		}
	}
}

// Notify implements session.Notifier.
func (h *Hub) Notify(sessionID string, d estimation.Display) {
	h.SendToSession(sessionID, Message{
		Type:      "display",
		Data:      displayData(d),
		Timestamp: time.Now(),
	})
}

func (h *Hub) ConnectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// ServeWS upgrades the request and attaches the connection to sessionID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection", "session_id", sessionID, "error", err)
		return
	}

	c := &Client{
		SessionID: sessionID,
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}
	h.register(c)

	go c.writePump()
	go c.readPump()
}
