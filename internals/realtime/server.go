package realtime

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Server: endpoint upgrade websocket (/ws?token=<jwt>).
type Server struct {
	Hub      *Hub
	Access   Access
	Upgrader websocket.Upgrader
}

func NewServer(hub *Hub, access Access, allowedOrigins []string) *Server {
	s := &Server{Hub: hub, Access: access}
	s.Upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return s
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func tokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if c, err := r.Cookie("access_token"); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	identity, err := s.Access.Authenticate(ctx, tokenFromRequest(r))
	if err != nil {
		cancel()
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		log.Printf("[REALTIME] authenticate gagal: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	rooms, err := s.Access.InitialRooms(ctx, identity)
	cancel()
	if err != nil {
		log.Printf("[REALTIME] initial rooms user=%s gagal: %v", identity.UserID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrader sudah menulis response error
		log.Printf("[REALTIME] upgrade gagal: %v", err)
		return
	}

	client := NewClient(s.Hub, conn, identity)
	s.Hub.Register(client)
	for _, room := range rooms {
		s.Hub.Join(client, room)
	}
	log.Printf("[REALTIME] connect client=%d user=%s role=%s rooms=%d", client.ID(), identity.UserID, identity.Role, len(rooms))

	go client.writePump()
	go client.readPump(s.Access)
}

// NewHTTPServer: listener terpisah dari fiber (fasthttp tidak bisa dipakai gorilla).
func NewHTTPServer(addr string, ws http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
