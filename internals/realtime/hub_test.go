package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccess struct {
	tokens map[string]Identity
	rooms  map[uuid.UUID][]string
}

func (f *fakeAccess) Authenticate(_ context.Context, token string) (Identity, error) {
	id, ok := f.tokens[token]
	if !ok {
		return Identity{}, ErrUnauthorized
	}
	return id, nil
}

func (f *fakeAccess) InitialRooms(_ context.Context, id Identity) ([]string, error) {
	return append([]string{UserRoom(id.UserID)}, f.rooms[id.UserID]...), nil
}

func (f *fakeAccess) CanJoin(_ context.Context, id Identity, room string) bool {
	for _, r := range f.rooms[id.UserID] {
		if r == room {
			return true
		}
	}
	return room == UserRoom(id.UserID)
}

func TestHub_PublishOnlyReachesRoomMembers(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil, Identity{UserID: uuid.New()})
	b := NewClient(hub, nil, Identity{UserID: uuid.New()})
	hub.Register(a)
	hub.Register(b)

	room := BatchRoom(uuid.New())
	hub.Join(a, room)

	require.NoError(t, hub.Publish(context.Background(), room, "ATTENDANCE_MARKED", map[string]int{"markedCount": 3}))

	select {
	case msg := <-a.send:
		assert.Equal(t, "ATTENDANCE_MARKED", msg.Type)
		assert.Equal(t, room, msg.Room)
	default:
		t.Fatal("member tidak menerima pesan")
	}
	assert.Len(t, b.send, 0)
	assert.Equal(t, 1, hub.RoomSize(room))
}

func TestHub_UnregisterCleansRooms(t *testing.T) {
	hub := NewHub()
	var counts []int
	hub.OnClientCount = func(n int) { counts = append(counts, n) }

	c := NewClient(hub, nil, Identity{UserID: uuid.New()})
	hub.Register(c)
	room := EnrollmentRoom(uuid.New())
	hub.Join(c, room)
	hub.Unregister(c)

	assert.Equal(t, 0, hub.RoomSize(room))
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, []int{1, 0}, counts)

	_, open := <-c.send
	assert.False(t, open)
}

func TestHub_SlowConsumerDoesNotBlock(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, Identity{UserID: uuid.New()})
	hub.Register(c)
	room := UserRoom(c.identity.UserID)
	hub.Join(c, room)

	for i := 0; i < sendBuffer+10; i++ {
		require.NoError(t, hub.Publish(context.Background(), room, "PING", i))
	}
	assert.Len(t, c.send, sendBuffer)
}

func TestHub_PublishAfterClose(t *testing.T) {
	hub := NewHub()
	hub.Close()
	err := hub.Publish(context.Background(), "user:x", "X", nil)
	assert.ErrorIs(t, err, ErrHubClosed)

	// register setelah close langsung ditutup
	c := NewClient(hub, nil, Identity{})
	hub.Register(c)
	_, open := <-c.send
	assert.False(t, open)
}

func TestClient_ReplyAfterCloseIsDropped(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, Identity{UserID: uuid.New()})
	hub.Register(c)
	hub.Close()

	assert.NotPanics(t, func() { c.reply(Message{Type: MessageTypePong}) })

	gone := NewClient(hub, nil, Identity{UserID: uuid.New()})
	hub.Register(gone)
	assert.NotPanics(t, func() { gone.reply(Message{Type: MessageTypeJoined}) })
}

func TestClient_ReplyAfterUnregisterIsDropped(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, Identity{UserID: uuid.New()})
	hub.Register(c)

	c.reply(Message{Type: MessageTypePong})
	msg := <-c.send
	assert.Equal(t, MessageTypePong, msg.Type)

	hub.Unregister(c)
	assert.NotPanics(t, func() { c.reply(Message{Type: MessageTypePong}) })
}

func TestServer_RejectsUnknownToken(t *testing.T) {
	srv := NewServer(NewHub(), &fakeAccess{tokens: map[string]Identity{}}, nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "?token=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_DeliversRoomEvents(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	batch := BatchRoom(uuid.New())
	access := &fakeAccess{
		tokens: map[string]Identity{"good": {UserID: userID, Role: "student"}},
		rooms:  map[uuid.UUID][]string{userID: {batch}},
	}
	ts := httptest.NewServer(NewServer(hub, access, nil))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=good"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// tunggu register + join selesai
	require.Eventually(t, func() bool { return hub.RoomSize(batch) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), batch, "ATTENDANCE_MARKED", map[string]any{"markedCount": 2}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string         `json:"type"`
		Room string         `json:"room"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(raw, &msg))
	assert.Equal(t, "ATTENDANCE_MARKED", msg.Type)
	assert.Equal(t, batch, msg.Room)
	assert.EqualValues(t, 2, msg.Data["markedCount"])

	// join room yang tidak diizinkan → error
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "join", "room": "enrollment:" + uuid.NewString()}))
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	var reply Message
	require.NoError(t, sonic.Unmarshal(raw, &reply))
	assert.Equal(t, MessageTypeError, reply.Type)
}
