package realtime

import (
	"log/slog"
	"sync"

	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
)

// Subscriber is one live connection that can be placed in a user's room.
type Subscriber interface {
	ID() string
	// Deliver queues cart for the connection without blocking. It reports
	// false when the connection cannot keep up or is already gone.
	Deliver(cart domain.ResolvedCart) bool
	Close()
}

// Hub owns room membership. A subscriber belongs to at most one room, keyed
// by user id. Nothing here is persisted; rooms are rebuilt as clients join.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Subscriber
	member map[string]string // subscriber id -> user id
	log    *slog.Logger

	// fanout orders broadcasts so a room never sees a cart older than one
	// it was already sent.
	fanout sync.Mutex
	latest map[string]int64 // user id -> last revision broadcast
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]map[string]Subscriber),
		member: make(map[string]string),
		log:    log,
		latest: make(map[string]int64),
	}
}

// Join moves sub into userID's room, leaving any room it was in before.
func (h *Hub) Join(sub Subscriber, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(sub.ID())

	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[string]Subscriber)
		h.rooms[userID] = room
	}
	room[sub.ID()] = sub
	h.member[sub.ID()] = userID
}

// Leave drops sub from whatever room it is in.
func (h *Hub) Leave(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(sub.ID())
}

func (h *Hub) leaveLocked(subID string) {
	userID, ok := h.member[subID]
	if !ok {
		return
	}
	delete(h.member, subID)

	room := h.rooms[userID]
	delete(room, subID)
	if len(room) == 0 {
		delete(h.rooms, userID)
	}
}

// RoomOf returns the user whose room sub is in.
func (h *Hub) RoomOf(sub Subscriber) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	userID, ok := h.member[sub.ID()]
	return userID, ok
}

func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

func (h *Hub) CartUpdated(userID string, cart domain.ResolvedCart) {
	h.Broadcast(userID, cart)
}

// Broadcast pushes cart to every subscriber in userID's room and returns how
// many accepted it. Subscribers that cannot accept are closed and removed, so
// a slow reader never stalls the others. A cart whose revision is not newer
// than the last one broadcast for userID is stale and skipped.
func (h *Hub) Broadcast(userID string, cart domain.ResolvedCart) int {
	h.fanout.Lock()
	defer h.fanout.Unlock()

	if cart.Revision > 0 {
		if cart.Revision <= h.latest[userID] {
			h.log.Debug("skipping stale cart",
				slog.String("user_id", userID),
				slog.Int64("revision", cart.Revision),
				slog.Int64("latest", h.latest[userID]))
			return 0
		}
		h.latest[userID] = cart.Revision
	}

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.rooms[userID]))
	for _, sub := range h.rooms[userID] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	sent := 0
	for _, sub := range targets {
		if sub.Deliver(cart) {
			sent++
			continue
		}
		h.log.Warn("dropping slow subscriber",
			slog.String("session_id", sub.ID()),
			slog.String("user_id", userID))
		h.Leave(sub)
		sub.Close()
	}
	return sent
}
