package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kwv/floorview/plan"
)

const wsWriteTimeout = 2 * time.Second

// readoutMessage is pushed to WebSocket clients after each FPS flush
type readoutMessage struct {
	FPS       int    `json:"fps"`
	CameraPos string `json:"cameraPos"`
}

// statsHub fans stats out to WebSocket clients and forwards their events
// to the viewer
type statsHub struct {
	upgrader websocket.Upgrader
	post     func(plan.Event) error

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	last    readoutMessage
}

// newStatsHub returns a hub whose first readout is initial, so clients
// connecting before the first FPS flush still get the camera position
func newStatsHub(post func(plan.Event) error, initial plan.Stats) *statsHub {
	return &statsHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		post:    post,
		clients: make(map[*websocket.Conn]bool),
		last:    readoutMessage{FPS: initial.FPS, CameraPos: initial.CameraPos},
	}
}

// Broadcast sends the readout to every client, dropping clients that fail
func (h *statsHub) Broadcast(stats plan.Stats) {
	msg := readoutMessage{FPS: stats.FPS, CameraPos: stats.CameraPos}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] Error marshaling readout: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[WS] Write error, dropping client: %v", err)
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Clients returns the number of connected clients
func (h *statsHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection, sends the latest readout and reads
// events until the client goes away
func (h *statsHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	first := h.last
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	werr := conn.WriteJSON(first)
	h.mu.Unlock()
	if werr != nil {
		log.Printf("[WS] Initial write failed: %v", werr)
	}
	log.Printf("[WS] Client connected from %s", r.RemoteAddr)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close()
		log.Printf("[WS] Client disconnected")
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := plan.ParseEvent(msg)
		if err != nil {
			log.Printf("[WS] Dropping message: %v", err)
			continue
		}
		if err := h.post(ev); err != nil {
			log.Printf("[WS] Event %s not queued: %v", ev.Type, err)
		}
	}
}
