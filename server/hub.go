package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mobile-next/rendershell/utils"
)

// Notification methods pushed to subscribers
const (
	notifyRenderCommand = "render.command"
	notifyRenderFrame   = "render.frame"
	notifyDeviceStart   = "device.start"
	notifyDeviceStop    = "device.stop"
	notifyDeviceState   = "device.state"
	notifySessionClosed = "session.closed"
)

// Hub fans server notifications out to the WebSocket connections
// subscribed to a session
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*wsConnection
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[string]*wsConnection),
	}
}

// Subscribe adds conn to a session and returns the subscription id
func (h *Hub) Subscribe(sessionID string, conn *wsConnection) string {
	id := uuid.New().String()

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[sessionID]
	if !ok {
		subs = make(map[string]*wsConnection)
		h.subscribers[sessionID] = subs
	}
	subs[id] = conn
	return id
}

func (h *Hub) Unsubscribe(sessionID, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[sessionID]
	delete(subs, id)
	if len(subs) == 0 {
		delete(h.subscribers, sessionID)
	}
}

// UnsubscribeConn removes every subscription held by conn
func (h *Hub) UnsubscribeConn(conn *wsConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sessionID, subs := range h.subscribers {
		for id, c := range subs {
			if c == conn {
				delete(subs, id)
			}
		}
		if len(subs) == 0 {
			delete(h.subscribers, sessionID)
		}
	}
}

// Drop forgets all subscribers of a session
func (h *Hub) Drop(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, sessionID)
}

func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionID])
}

// Publish sends a notification to every subscriber of a session and returns
// how many received it. A failed write does not stop delivery to the others.
func (h *Hub) Publish(sessionID, method string, params interface{}) int {
	h.mu.RLock()
	conns := make([]*wsConnection, 0, len(h.subscribers[sessionID]))
	for _, c := range h.subscribers[sessionID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	msg := JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}

	delivered := 0
	for _, c := range conns {
		if err := c.sendJSON(msg); err != nil {
			utils.Verbose("failed to deliver %s to subscriber: %v", method, err)
			continue
		}
		delivered++
	}
	return delivered
}
