package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/jobsearch/internal/chat"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
	"github.com/eldtechnologies/jobsearch/internal/store"
)

type gatewayFixture struct {
	url   string
	hub   *Hub
	svc   *chat.Service
	store *store.SQLiteStore
}

func newGatewayFixture(t *testing.T, limiter Limiter, opts Options) *gatewayFixture {
	t.Helper()
	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "ws.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	hub := NewHub(zerolog.Nop())
	svc := chat.NewService(s, hub, 5*time.Second, zerolog.Nop())
	srv := httptest.NewServer(NewGateway(hub, svc, limiter, opts, zerolog.Nop()))
	t.Cleanup(srv.Close)

	return &gatewayFixture{
		url:   "ws" + strings.TrimPrefix(srv.URL, "http"),
		hub:   hub,
		svc:   svc,
		store: s,
	}
}

func (f *gatewayFixture) user(t *testing.T, name, role string) *models.User {
	t.Helper()
	u := &models.User{FirstName: name, LastName: "Test", Email: name + "@example.com", Role: role}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *gatewayFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Frame{Event: event, Data: data}))
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func readMessage(t *testing.T, conn *websocket.Conn) chat.ReceivedMessage {
	t.Helper()
	f := readFrame(t, conn)
	require.Equal(t, EventReceiveMessage, f.Event)
	var msg chat.ReceivedMessage
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	return msg
}

func (f *gatewayFixture) join(t *testing.T, conn *websocket.Conn, a, b string, members int) {
	t.Helper()
	send(t, conn, EventJoinRoom, map[string]string{"senderId": a, "receiverId": b})
	id := room.NewPair(a, b).ID()
	require.Eventually(t, func() bool { return f.hub.Members(id) == members }, 2*time.Second, 5*time.Millisecond)
}

func TestGateway_SendMessageReachesBothParticipants(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, nil, Options{})
	hr := f.user(t, "hana", models.RoleHR)
	user := f.user(t, "paul", models.RoleUser)

	hrConn, userConn := f.dial(t), f.dial(t)
	f.join(t, hrConn, hr.ID, user.ID, 1)
	f.join(t, userConn, user.ID, hr.ID, 2)

	send(t, hrConn, EventSendMessage, map[string]string{"senderId": hr.ID, "receiverId": user.ID, "message": "hello"})

	for _, conn := range []*websocket.Conn{hrConn, userConn} {
		msg := readMessage(t, conn)
		req.Equal(hr.ID, msg.SenderID)
		req.Equal("hello", msg.Message)
	}

	thread, err := f.store.FindThread(context.Background(), room.NewPair(user.ID, hr.ID))
	req.NoError(err)
	req.Len(thread.Messages, 1)
}

func TestGateway_RejectedOriginationErrorsOnlyTheSender(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, nil, Options{})
	hr := f.user(t, "hana", models.RoleHR)
	user := f.user(t, "paul", models.RoleUser)

	hrConn, userConn := f.dial(t), f.dial(t)
	f.join(t, hrConn, hr.ID, user.ID, 1)
	f.join(t, userConn, user.ID, hr.ID, 2)

	send(t, userConn, EventSendMessage, map[string]string{"senderId": user.ID, "receiverId": hr.ID, "message": "hi"})

	frame := readFrame(t, userConn)
	req.Equal(EventError, frame.Event)
	var reason string
	req.NoError(json.Unmarshal(frame.Data, &reason))
	req.Contains(reason, "only HR or Company Owner")

	// The other member sees nothing; the next frame it gets is a later message.
	send(t, hrConn, EventSendMessage, map[string]string{"senderId": hr.ID, "receiverId": user.ID, "message": "welcome"})
	req.Equal("welcome", readMessage(t, hrConn).Message)

	thread, err := f.store.FindThread(context.Background(), room.NewPair(user.ID, hr.ID))
	req.NoError(err)
	req.Len(thread.Messages, 1)
}

func TestGateway_ReconnectRequiresRejoinAndHistoryFillsTheGap(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, nil, Options{})
	hr := f.user(t, "hana", models.RoleHR)
	user := f.user(t, "paul", models.RoleUser)
	id := room.NewPair(hr.ID, user.ID).ID()

	hrConn, userConn := f.dial(t), f.dial(t)
	f.join(t, hrConn, hr.ID, user.ID, 1)
	f.join(t, userConn, user.ID, hr.ID, 2)

	send(t, hrConn, EventSendMessage, map[string]string{"senderId": hr.ID, "receiverId": user.ID, "message": "one"})
	req.Equal("one", readMessage(t, hrConn).Message)
	req.Equal("one", readMessage(t, userConn).Message)

	req.NoError(userConn.Close())
	req.Eventually(func() bool { return f.hub.Members(id) == 1 }, 2*time.Second, 5*time.Millisecond)

	send(t, hrConn, EventSendMessage, map[string]string{"senderId": hr.ID, "receiverId": user.ID, "message": "missed"})
	req.Equal("missed", readMessage(t, hrConn).Message)

	// A new connection receives nothing until it joins, and nothing is replayed.
	reconnected := f.dial(t)
	req.Equal(1, f.hub.Members(id))
	f.join(t, reconnected, user.ID, hr.ID, 2)

	send(t, hrConn, EventSendMessage, map[string]string{"senderId": hr.ID, "receiverId": user.ID, "message": "three"})
	req.Equal("three", readMessage(t, reconnected).Message)

	view, err := f.svc.History(context.Background(), user.ID, hr.ID)
	req.NoError(err)
	req.Len(view.Messages, 3)
	req.Equal("missed", view.Messages[1].Message)
}

func TestGateway_JoinJobReceivesApplications(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, nil, Options{})

	conn := f.dial(t)
	send(t, conn, EventJoinJob, map[string]string{"jobId": "job-1"})
	req.Eventually(func() bool { return f.hub.Members(room.JobRoom("job-1")) == 1 }, 2*time.Second, 5*time.Millisecond)

	f.hub.Broadcast(room.JobRoom("job-1"), EventNewApplication, models.Application{ID: "a1", JobID: "job-1", UserID: "u9"})

	frame := readFrame(t, conn)
	req.Equal(EventNewApplication, frame.Event)
	var app models.Application
	req.NoError(json.Unmarshal(frame.Data, &app))
	req.Equal("u9", app.UserID)
}

func TestGateway_ProtocolErrors(t *testing.T) {
	f := newGatewayFixture(t, nil, Options{})
	conn := f.dial(t)

	cases := []struct {
		name  string
		frame string
		want  string
	}{
		{"garbage", `not json`, "invalid frame"},
		{"unknown event", `{"event":"dance"}`, "unknown event"},
		{"join without ids", `{"event":"joinRoom","data":{"senderId":"u1"}}`, "senderId and receiverId are required"},
		{"join job without id", `{"event":"joinJob","data":{}}`, "jobId is required"},
		{"empty message", `{"event":"sendMessage","data":{"senderId":"u1","receiverId":"u2","message":""}}`, "message is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tc.frame)))
			frame := readFrame(t, conn)
			require.Equal(t, EventError, frame.Event)
			var reason string
			require.NoError(t, json.Unmarshal(frame.Data, &reason))
			require.Equal(t, tc.want, reason)
		})
	}
}

type denyAll struct{ calls atomic.Int32 }

func (d *denyAll) AllowSocketMessage(context.Context, string, int, time.Duration) bool {
	d.calls.Add(1)
	return false
}

func TestGateway_RateLimitedSender(t *testing.T) {
	req := require.New(t)
	limiter := &denyAll{}
	f := newGatewayFixture(t, limiter, Options{MessageLimit: 1})
	conn := f.dial(t)

	send(t, conn, EventSendMessage, map[string]string{"senderId": "u1", "receiverId": "u2", "message": "spam"})
	frame := readFrame(t, conn)
	req.Equal(EventError, frame.Event)
	req.JSONEq(`"too many messages"`, string(frame.Data))
	req.Equal(int32(1), limiter.calls.Load())
}
