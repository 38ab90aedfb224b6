// Package notify fans live events out to connected clients. Nothing is
// persisted; a client that is not connected misses the event.
package notify

import (
	"context"
	"sync"

	"orbitlend-backend/internal/domain/event"
	"orbitlend-backend/internal/infrastructure/logger"
)

const (
	RoomAdmin       = "admin"
	RoomMarketplace = "marketplace"
)

func UserRoom(userID string) string { return "user:" + userID }

// Rooms returns the rooms e is delivered to.
func Rooms(e event.Event) []string {
	var rooms []string
	if e.UserID != "" {
		rooms = append(rooms, UserRoom(e.UserID))
	}
	switch e.Type {
	case event.LoanSubmitted, event.LoanStatusChanged:
		rooms = append(rooms, RoomAdmin)
	case event.LoanFunded:
		rooms = append(rooms, RoomAdmin, RoomMarketplace)
	}
	return rooms
}

type Subscription struct {
	C      <-chan event.Event
	ch     chan event.Event
	rooms  []string
	UserID string
}

// Hub is the in-process room registry. It is lost on restart.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscription]struct{}
}

var _ event.Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Subscription]struct{})}
}

// Subscribe joins the user's room and the marketplace room, plus the admin
// room for admins.
func (h *Hub) Subscribe(userID string, admin bool, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan event.Event, buffer)
	s := &Subscription{C: ch, ch: ch, UserID: userID, rooms: []string{UserRoom(userID), RoomMarketplace}}
	if admin {
		s.rooms = append(s.rooms, RoomAdmin)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range s.rooms {
		if h.rooms[r] == nil {
			h.rooms[r] = make(map[*Subscription]struct{})
		}
		h.rooms[r][s] = struct{}{}
	}
	return s
}

func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := false
	for _, r := range s.rooms {
		if members, ok := h.rooms[r]; ok {
			if _, ok := members[s]; ok {
				delete(members, s)
				removed = true
			}
			if len(members) == 0 {
				delete(h.rooms, r)
			}
		}
	}
	if removed {
		close(s.ch)
	}
}

// Publish delivers e once to every subscriber in its rooms. Slow
// subscribers whose buffer is full miss the event.
func (h *Hub) Publish(ctx context.Context, e event.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := map[*Subscription]struct{}{}
	for _, r := range Rooms(e) {
		for s := range h.rooms[r] {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			select {
			case s.ch <- e:
			default:
				logger.FromContext(ctx).Warn("notification dropped", "type", e.Type, "user_id", s.UserID)
			}
		}
	}
}

// Count returns the number of subscribers in room.
func (h *Hub) Count(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
