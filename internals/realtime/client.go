package realtime

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

const (
	MessageTypeJoin   = "join"
	MessageTypeLeave  = "leave"
	MessageTypeJoined = "joined"
	MessageTypeError  = "error"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
)

var clientIDCounter atomic.Uint64

// Client: perantara koneksi websocket dan hub.
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	identity Identity
	// dijaga oleh hub.mu
	rooms map[string]struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, sendBuffer),
		identity: identity,
		rooms:    make(map[string]struct{}),
	}
}

func (c *Client) ID() uint64 { return c.id }

// inbound: pesan dari client (join/leave/ping).
type inbound struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

func (c *Client) reply(msg Message) {
	c.hub.reply(c, msg)
}

// readPump: baca pesan client sampai koneksi putus.
func (c *Client) readPump(access Access) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[REALTIME] client=%d unexpected close: %v", c.id, err)
			}
			return
		}
		var in inbound
		if err := sonic.Unmarshal(raw, &in); err != nil {
			c.reply(Message{Type: MessageTypeError, Data: "pesan tidak valid"})
			continue
		}

		room := strings.TrimSpace(in.Room)
		switch in.Type {
		case MessageTypePing:
			c.reply(Message{Type: MessageTypePong})
		case MessageTypeJoin:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			ok := access.CanJoin(ctx, c.identity, room)
			cancel()
			if !ok {
				c.reply(Message{Type: MessageTypeError, Room: room, Data: "tidak diizinkan join room"})
				continue
			}
			c.hub.Join(c, room)
			c.reply(Message{Type: MessageTypeJoined, Room: room})
		case MessageTypeLeave:
			c.hub.Leave(c, room)
		}
	}
}

// writePump: kirim pesan hub ke koneksi + ping berkala.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			b, err := sonic.Marshal(message)
			if err != nil {
				log.Printf("[REALTIME] marshal %s gagal: %v", message.Type, err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
