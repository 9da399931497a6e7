// Package live pushes session, table, queue and bill events to connected dashboards over
// websockets.
package live

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/snooker-cafe/utils"
)

// Event types
const (
	EventTableUpdate       = "table_update"
	EventSessionStart      = "session_start"
	EventSessionUpdate     = "session_update"
	EventSessionStop       = "session_stop"
	EventBillCreated       = "bill_created"
	EventAutoBill          = "auto_bill"
	EventQueueUpdate       = "queue_update"
	EventReservationUpdate = "reservation_update"
	EventWalletUpdate      = "wallet_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the part of a websocket connection the hub needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub keeps every connected dashboard.
type Hub struct {
	clients map[Conn]string // conn -> client label
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]string)}
}

// Register -> add a connection
func (h *Hub) Register(conn Conn, label string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = label
}

// Unregister -> drop and close a connection
func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
}

func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast sends msg to every client. Clients that fail a write are dropped.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling %s message: %v", event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	utils.InfoLogger.Debugf("Broadcasting %s to %d clients", event, len(h.clients))
	for conn, label := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to %s: %v", event, label, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
