// Package ws implements the realtime fan-out layer: a room-based hub that
// delivers chat events to connected websocket clients. The hub knows nothing
// about chat semantics; it moves opaque JSON frames between rooms and
// subscribers.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Frame is the wire envelope for every event delivered to subscribers.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Subscriber receives serialized frames for the rooms it has joined.
// Send must not block; implementations drop or buffer as they see fit.
type Subscriber interface {
	Send(frame []byte)
}

// Hub tracks room membership and fans frames out to subscribers.
// The zero value is not usable; call NewHub.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Subscriber]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Subscriber]struct{})}
}

// Join subscribes sub to a room. Joining twice is a no-op.
func (h *Hub) Join(room string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[Subscriber]struct{})
		h.rooms[room] = subs
	}
	subs[sub] = struct{}{}
}

// Leave unsubscribes sub from a room. Empty rooms are dropped.
func (h *Hub) Leave(room string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.rooms, room)
	}
}

// LeaveAll removes sub from every room it joined. Called on disconnect.
func (h *Hub) LeaveAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, subs := range h.rooms {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish serializes one event frame and delivers it to every current
// subscriber of the room. Delivery is best-effort and never blocks the
// caller.
func (h *Hub) Publish(room, event string, data any) {
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("room", room).Str("event", event).
			Msg("ws: marshal frame")
		return
	}

	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.rooms[room]))
	for sub := range h.rooms[room] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.Send(frame)
	}
}

// RoomSize reports the current number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
