package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"realtime-service/internal/observability"
)

// Hub owns the process-wide connection registry and room membership. All
// mutation goes through its synchronized API; rooms are rebuilt from join
// events within each connection's lifetime and never persisted.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]map[*Client]struct{}
	userClients map[int]map[*Client]struct{}
	clientRooms map[*Client]map[string]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]struct{}),
		userClients: make(map[int]map[*Client]struct{}),
		clientRooms: make(map[*Client]map[string]struct{}),
	}
}

// Register adds an authenticated client and auto-joins its personal room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.userClients[c.UserID] == nil {
		h.userClients[c.UserID] = make(map[*Client]struct{})
	}
	h.userClients[c.UserID][c] = struct{}{}
	h.clientRooms[c] = make(map[string]struct{})
	h.joinLocked(c, PersonalRoom(c.UserID))
	h.mu.Unlock()

	observability.IncWSActive()
	log.Info().Str("conn_id", c.ID).Int("user_id", c.UserID).Msg("ws: client registered")
}

// Unregister removes the client and releases all of its room memberships
// atomically.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for room := range h.clientRooms[c] {
		h.leaveLocked(c, room)
	}
	delete(h.clientRooms, c)
	if conns, ok := h.userClients[c.UserID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.userClients, c.UserID)
		}
	}
	h.mu.Unlock()

	observability.DecWSActive()
	log.Info().Str("conn_id", c.ID).Int("user_id", c.UserID).Msg("ws: client unregistered")
}

// Join adds the client to a room. Joining a room already joined is idempotent.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, registered := h.clientRooms[c]; !registered {
		return
	}
	h.joinLocked(c, room)
}

// Leave removes the client from a room. Leaving a room not joined is a no-op.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) joinLocked(c *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	if h.clientRooms[c] != nil {
		h.clientRooms[c][room] = struct{}{}
	}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.clientRooms[c]; ok {
		delete(rooms, room)
	}
}

// MembersOf returns a snapshot of the room's member connection ids.
func (h *Hub) MembersOf(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		ids = append(ids, c.ID)
	}
	return ids
}

// BroadcastRoom delivers an event to every member of a room and returns the
// number of connections it reached.
func (h *Hub) BroadcastRoom(room string, event string, data any) int {
	return h.broadcast(room, event, data, nil)
}

// BroadcastRoomExcept delivers to every member except one connection, used
// for typing indicators so the originator never sees its own event.
func (h *Hub) BroadcastRoomExcept(room string, event string, data any, except *Client) int {
	return h.broadcast(room, event, data, except)
}

func (h *Hub) broadcast(room string, event string, data any, except *Client) int {
	payload, err := json.Marshal(OutgoingEvent{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws: marshal broadcast failed")
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(payload) {
			delivered++
		}
	}
	observability.IncWSEvent(event)
	return delivered
}

// EmitUser delivers an event to all of the user's active connections via the
// personal room and reports how many received it. Zero means the user is
// offline; live pushes are never queued for later.
func (h *Hub) EmitUser(userID int, event string, data any) int {
	return h.broadcast(PersonalRoom(userID), event, data, nil)
}

// BroadcastAll delivers a feed-wide event to every connected client. These
// are intentionally not room-scoped.
func (h *Hub) BroadcastAll(event string, data any) int {
	payload, err := json.Marshal(OutgoingEvent{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws: marshal broadcast failed")
		return 0
	}

	h.mu.RLock()
	var targets []*Client
	for c := range h.clientRooms {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(payload) {
			delivered++
		}
	}
	observability.IncWSEvent(event)
	return delivered
}

// send delivers a pre-built event to a single client, used for acks and
// per-operation errors.
func (h *Hub) send(c *Client, event string, data any) {
	payload, err := json.Marshal(OutgoingEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	c.enqueue(payload)
}
