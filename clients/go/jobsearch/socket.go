package jobsearch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Socket events.
const (
	EventJoinRoom       = "joinRoom"
	EventJoinJob        = "joinJob"
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
	EventNewApplication = "newApplication"
	EventApplicationSet = "applicationStatus"
	EventError          = "error"
)

// Event is one frame received from the server.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// ReceivedMessage decodes a receiveMessage payload.
func (e Event) ReceivedMessage() (*Message, error) {
	if e.Name != EventReceiveMessage {
		return nil, errors.New("not a " + EventReceiveMessage + " event")
	}
	var m Message
	if err := json.Unmarshal(e.Data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Application decodes a newApplication or applicationStatus payload.
func (e Event) Application() (*Application, error) {
	if e.Name != EventNewApplication && e.Name != EventApplicationSet {
		return nil, errors.New("not an application event")
	}
	var a Application
	if err := json.Unmarshal(e.Data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ErrorReason decodes an error payload.
func (e Event) ErrorReason() string {
	var reason string
	_ = json.Unmarshal(e.Data, &reason)
	return reason
}

// Socket is a live connection to the real-time endpoint. Room memberships
// are lost when it closes and must be rejoined on a new Socket.
type Socket struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

// Connect opens a socket to the server's /ws endpoint.
func (c *Client) Connect(ctx context.Context) (*Socket, error) {
	wsURL := c.BaseURL
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL+"/ws", nil)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: err.Error()}
		}
		return nil, err
	}
	return &Socket{conn: conn}, nil
}

func (s *Socket) emit(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteJSON(Event{Name: event, Data: payload})
}

// JoinRoom subscribes to the conversation between senderID and receiverID.
func (s *Socket) JoinRoom(senderID, receiverID string) error {
	return s.emit(EventJoinRoom, map[string]string{"senderId": senderID, "receiverId": receiverID})
}

// JoinJob subscribes to application notifications for a job.
func (s *Socket) JoinJob(jobID string) error {
	return s.emit(EventJoinJob, map[string]string{"jobId": jobID})
}

// Send sends a message over the socket. Failures arrive as error events.
func (s *Socket) Send(senderID, receiverID, message string) error {
	return s.emit(EventSendMessage, SendMessageRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
	})
}

// Next blocks until the next event arrives or the connection fails.
func (s *Socket) Next() (Event, error) {
	var ev Event
	err := s.conn.ReadJSON(&ev)
	return ev, err
}

// Close sends a close frame and closes the connection.
func (s *Socket) Close() error {
	s.wmu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.wmu.Unlock()
	return s.conn.Close()
}
