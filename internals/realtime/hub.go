// Package realtime: hub websocket berbasis room (user:<id>, batch:<id>, enrollment:<id>).
// Hub dibuat sekali di main lalu di-inject ke service yang butuh publish.
package realtime

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Publisher: sink publish yang dipakai Session Manager & fan-out.
type Publisher interface {
	Publish(ctx context.Context, room, eventType string, payload any) error
}

func UserRoom(userID uuid.UUID) string             { return "user:" + userID.String() }
func BatchRoom(batchID uuid.UUID) string           { return "batch:" + batchID.String() }
func EnrollmentRoom(enrollmentID uuid.UUID) string { return "enrollment:" + enrollmentID.String() }

// Message: envelope yang dikirim ke client.
type Message struct {
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
	Data any    `json:"data,omitempty"`
}

var ErrHubClosed = errors.New("realtime hub sudah ditutup")

type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}
	closed  bool

	OnClientCount func(n int)
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(c.send)
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.reportCount(n)
}

// Unregister keluarkan client dari semua room dan tutup channel kirim.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	h.reportCount(n)
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// Publish non-blocking: client yang buffer-nya penuh dilewati (slow consumer).
func (h *Hub) Publish(ctx context.Context, room, eventType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	members := h.rooms[room]
	if len(members) == 0 {
		return nil
	}
	// urutan deterministik
	targets := make([]*Client, 0, len(members))
	for c := range members {
		targets = append(targets, c)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	msg := Message{Type: eventType, Room: room, Data: payload}
	dropped := 0
	for _, c := range targets {
		select {
		case c.send <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("[REALTIME] room=%s event=%s dropped=%d (buffer penuh)", room, eventType, dropped)
	}
	return nil
}

// reply: balasan langsung ke satu client (pong/joined/error). Dijaga h.mu karena
// Close/Unregister menutup c.send sementara readPump bisa masih berjalan.
func (h *Hub) reply(c *Client, msg Message) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return false
	}
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close memutus semua client; Publish setelahnya mengembalikan ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()
	h.reportCount(0)
}

func (h *Hub) reportCount(n int) {
	if h.OnClientCount != nil {
		h.OnClientCount(n)
	}
}
