package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/domain"
	"skillswap/internal/service"
	"skillswap/internal/store/memory"
	"skillswap/internal/ws"
)

const testOrigin = "http://localhost:5173"

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsFixture struct {
	hub    *ws.Hub
	server *httptest.Server
	store  *memory.Store

	mu      sync.Mutex
	revoked map[string]bool
}

// revoke ends the session behind token.
func (f *wsFixture) revoke(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = true
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()

	st := memory.NewStore()
	require.NoError(t, st.Seed(context.Background(), time.Now()))
	hub := ws.NewHub(nil, nil)
	messages := service.NewMessageService(st.Conversations, st.Messages, st.Users,
		service.WithEvents(hub), service.WithPresence(hub))

	f := &wsFixture{hub: hub, store: st, revoked: map[string]bool{}}

	// The token is the user id.
	authenticate := func(ctx context.Context, token string) (*domain.User, error) {
		f.mu.Lock()
		revoked := f.revoked[token]
		f.mu.Unlock()
		if revoked {
			return nil, &domain.NotAuthenticatedError{Op: "resolve session"}
		}
		u, err := st.Users.GetByID(ctx, token)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, errors.New("unknown user")
		}
		return u, nil
	}

	f.server = httptest.NewServer(ws.MakeHandler(hub, authenticate, messages, []string{testOrigin}, nil))
	t.Cleanup(f.server.Close)
	return f
}

func (f *wsFixture) dial(t *testing.T, token string, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func (f *wsFixture) connect(t *testing.T, userID string) *websocket.Conn {
	t.Helper()

	conn, _, err := f.dial(t, userID, testOrigin)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.hub.IsOnline(userID) }, time.Second, 10*time.Millisecond)
	return conn
}

// readUntil skips events until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) received {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var ev received
		require.NoError(t, conn.ReadJSON(&ev), "waiting for %q", eventType)
		if ev.Type == eventType {
			return ev
		}
	}
}

func TestHandshakeRejections(t *testing.T) {
	f := newWSFixture(t)

	_, resp, err := f.dial(t, "", testOrigin)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = f.dial(t, "nobody", testOrigin)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = f.dial(t, "1", "http://evil.example")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPingPong(t *testing.T) {
	f := newWSFixture(t)
	conn := f.connect(t, "1")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	readUntil(t, conn, "pong")
}

func TestPresence(t *testing.T) {
	f := newWSFixture(t)
	alex := f.connect(t, "1")
	emma := f.connect(t, "3")

	ev := readUntil(t, alex, "presence")
	var p struct {
		UserID string `json:"userId"`
		Online bool   `json:"online"`
	}
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	if p.UserID == "1" {
		ev = readUntil(t, alex, "presence")
		require.NoError(t, json.Unmarshal(ev.Payload, &p))
	}
	assert.Equal(t, "3", p.UserID)
	assert.True(t, p.Online)

	require.NoError(t, emma.Close())
	require.Eventually(t, func() bool { return !f.hub.IsOnline("3") }, time.Second, 10*time.Millisecond)
	ev = readUntil(t, alex, "presence")
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	assert.Equal(t, "3", p.UserID)
	assert.False(t, p.Online)
}

func TestMessageDelivery(t *testing.T) {
	f := newWSFixture(t)
	alex := f.connect(t, "1")
	emma := f.connect(t, "3")

	require.NoError(t, alex.WriteJSON(map[string]string{
		"type":       "message",
		"receiverId": "3",
		"content":    "hello over the socket",
	}))

	ev := readUntil(t, emma, service.EventMessage)
	var msg domain.Message
	require.NoError(t, json.Unmarshal(ev.Payload, &msg))
	assert.Equal(t, "1", msg.SenderID)
	assert.Equal(t, "hello over the socket", msg.Content)
	assert.False(t, msg.Read)

	// The sender gets its own echo.
	readUntil(t, alex, service.EventMessage)

	require.NoError(t, emma.WriteJSON(map[string]string{
		"type":           "typing",
		"conversationId": msg.ConversationID,
	}))
	ev = readUntil(t, alex, "typing")
	assert.Contains(t, string(ev.Payload), `"userId":"3"`)

	require.NoError(t, emma.WriteJSON(map[string]string{
		"type":           "mark_read",
		"conversationId": msg.ConversationID,
	}))
	ev = readUntil(t, alex, service.EventMessagesRead)
	assert.Contains(t, string(ev.Payload), msg.ConversationID)
}

func TestInboundErrorsGoToSender(t *testing.T) {
	f := newWSFixture(t)
	emma := f.connect(t, "3")

	require.NoError(t, emma.WriteJSON(map[string]string{
		"type":           "mark_read",
		"conversationId": "conv-1",
	}))
	ev := readUntil(t, emma, "error")
	assert.Contains(t, string(ev.Payload), "not a participant")
}

func TestPublishToUsersDedupes(t *testing.T) {
	f := newWSFixture(t)
	alex := f.connect(t, "1")

	f.hub.PublishToUsers([]string{"1", "1", "2"}, "custom", "x")
	f.hub.PublishToUsers([]string{"1"}, "marker", nil)

	require.NoError(t, alex.SetReadDeadline(time.Now().Add(2*time.Second)))
	count := 0
	for {
		var ev received
		require.NoError(t, alex.ReadJSON(&ev))
		if ev.Type == "marker" {
			break
		}
		if ev.Type == "custom" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.False(t, f.hub.IsOnline("2"))
}

func TestEventsAfterSessionEndAreRefused(t *testing.T) {
	f := newWSFixture(t)
	alex := f.connect(t, "1")

	f.revoke("1")
	require.NoError(t, alex.WriteJSON(map[string]string{
		"type":       "message",
		"receiverId": "3",
		"content":    "sent after logout",
	}))

	ev := readUntil(t, alex, "error")
	assert.Contains(t, string(ev.Payload), "session ended")

	var next received
	assert.Error(t, alex.ReadJSON(&next), "connection is closed")
	require.Eventually(t, func() bool { return !f.hub.IsOnline("1") }, time.Second, 10*time.Millisecond)

	convs, err := f.store.Conversations.ListForUser(context.Background(), "3")
	require.NoError(t, err)
	assert.Empty(t, convs, "nothing was sent")
}

func TestRepliesGoToRequestingConnection(t *testing.T) {
	f := newWSFixture(t)
	first := f.connect(t, "1")
	second, _, err := f.dial(t, "1", testOrigin)
	require.NoError(t, err)

	// Wait until both connections are registered.
	readUntil(t, first, "presence")
	readUntil(t, first, "presence")

	require.NoError(t, first.WriteJSON(map[string]string{"type": "ping"}))
	readUntil(t, first, "pong")

	f.hub.PublishToUsers([]string{"1"}, "marker", nil)
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var ev received
		require.NoError(t, second.ReadJSON(&ev))
		assert.NotEqual(t, "pong", ev.Type)
		if ev.Type == "marker" {
			break
		}
	}
}
