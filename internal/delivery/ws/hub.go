package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Signaling message types are relayed point-to-point: everyone in the room
// except the sender.
var signalingTypes = map[string]struct{}{
	"offer":     {},
	"answer":    {},
	"candidate": {},
}

// Hub multiplexes the real-time channel of every consultation room. One
// logical room per consultation id, holding the set of live connections.
// Rooms are ephemeral: created on first join, discarded when empty.
//
// The hub is constructed at process start and injected where needed; Close
// shuts it down explicitly.
type Hub struct {
	mu     sync.Mutex
	rooms  map[uuid.UUID]map[*Client]bool
	log    *logrus.Logger
	closed bool
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		rooms: make(map[uuid.UUID]map[*Client]bool),
		log:   log,
	}
}

// Join adds a connection to its consultation room, creating the room entry
// if absent.
func (h *Hub) Join(roomID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		client.closeSend()
		return
	}

	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[roomID] = room
	}
	room[client] = true
}

// Leave removes a connection from its room; an emptied room is dropped.
func (h *Hub) Leave(roomID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, member := room[client]; member {
		delete(room, client)
		client.closeSend()
	}
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// Dispatch routes one raw frame from a room participant.
//
// Signaling frames (offer/answer/candidate) go to everyone except the
// sender. Chat frames get missing sender metadata filled in and are echoed
// to all members, sender included, so every client renders from one
// canonical copy. Other structured frames are broadcast as-is; unparseable
// frames are wrapped into a chat message attributed to the sender.
func (h *Hub) Dispatch(roomID uuid.UUID, sender *Client, raw []byte) {
	var msg map[string]interface{}
	if err := json.Unmarshal(raw, &msg); err != nil {
		fallback, err := json.Marshal(map[string]interface{}{
			"type":      "chat",
			"user_id":   sender.UserID,
			"text":      string(raw),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			h.log.Warnf("Failed to wrap plain-text frame for room %s: %+v", roomID, err)
			return
		}
		h.broadcast(roomID, fallback, nil)
		return
	}

	msgType, _ := msg["type"].(string)

	if _, isSignaling := signalingTypes[msgType]; isSignaling {
		h.broadcast(roomID, raw, sender)
		return
	}

	if msgType == "chat" {
		if _, ok := msg["user_id"]; !ok {
			msg["user_id"] = sender.UserID
		}
		if _, ok := msg["timestamp"]; !ok {
			msg["timestamp"] = time.Now().UTC().Format(time.RFC3339)
		}
		canonical, err := json.Marshal(msg)
		if err != nil {
			h.log.Warnf("Failed to re-encode chat frame for room %s: %+v", roomID, err)
			return
		}
		h.broadcast(roomID, canonical, nil)
		return
	}

	h.broadcast(roomID, raw, nil)
}

// BroadcastSystem injects a server-originated event (live transcript) into a
// room, delivered to all members.
func (h *Hub) BroadcastSystem(roomID uuid.UUID, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Warnf("Failed to encode system message for room %s: %+v", roomID, err)
		return
	}
	h.broadcast(roomID, data, nil)
}

// broadcast delivers data to every member of the room, skipping except when
// non-nil. Delivery enqueues onto each client's outbound queue without
// blocking: a client whose queue is full is treated as dead and pruned, so
// one slow peer never stalls the room. Per-sender ordering is preserved by
// the per-client FIFO queues.
func (h *Hub) broadcast(roomID uuid.UUID, data []byte, except *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return
	}

	for client := range room {
		if client == except {
			continue
		}
		select {
		case client.send <- data:
		default:
			delete(room, client)
			client.closeSend()
		}
	}
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// RoomSize reports the current number of live connections in a room.
func (h *Hub) RoomSize(roomID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// Close shuts the hub down: every connection's outbound queue is closed and
// all rooms are discarded. Subsequent joins are rejected.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for roomID, room := range h.rooms {
		for client := range room {
			client.closeSend()
		}
		delete(h.rooms, roomID)
	}
}
