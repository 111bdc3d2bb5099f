// Package chat turns "S wants to send a message to R" into a persisted message
// and a room broadcast.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/metrics"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

// EventReceiveMessage is broadcast to a pair's room after every append.
const EventReceiveMessage = "receiveMessage"

// MaxBodyBytes caps the size of a single message body.
const MaxBodyBytes = 4096

// DefaultStoreTimeout bounds each persistence call when none is configured.
const DefaultStoreTimeout = 5 * time.Second

// Transports, used as a metrics label.
const (
	TransportHTTP   = "http"
	TransportSocket = "socket"
)

// SendInput is a request to deliver Body from SenderID to ReceiverID.
type SendInput struct {
	SenderID   string
	ReceiverID string
	Body       string
	Transport  string
}

// Result is returned on a successful send.
type Result struct {
	Thread  *models.Thread
	Message *models.Message
	Created bool // the send opened the thread
}

// ReceivedMessage is the receiveMessage payload.
type ReceivedMessage struct {
	ID       string    `json:"id"`
	SenderID string    `json:"senderId"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}

// Service is the single entry point for sending messages and reading threads.
type Service struct {
	store     Store
	publisher Publisher
	timeout   time.Duration
	logger    zerolog.Logger
	seq       *sequencer
}

// NewService creates a conversation service. A non-positive timeout falls back
// to DefaultStoreTimeout.
func NewService(store Store, publisher Publisher, timeout time.Duration, logger zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Service{
		store:     store,
		publisher: publisher,
		timeout:   timeout,
		logger:    logger.With().Str("component", "chat").Logger(),
		seq:       newSequencer(),
	}
}

func (in SendInput) validate() error {
	if in.SenderID == "" || in.ReceiverID == "" {
		return apperr.Validation("senderId and receiverId are required")
	}
	if err := room.ValidParticipant(in.SenderID); err != nil {
		return apperr.New(apperr.CodeValidation, "invalid senderId", err)
	}
	if err := room.ValidParticipant(in.ReceiverID); err != nil {
		return apperr.New(apperr.CodeValidation, "invalid receiverId", err)
	}
	if room.NewPair(in.SenderID, in.ReceiverID).IsSelf() {
		return apperr.Validation("cannot send a message to yourself")
	}
	if strings.TrimSpace(in.Body) == "" {
		return apperr.Validation("message is required")
	}
	if len(in.Body) > MaxBodyBytes {
		return apperr.Validation("message too long")
	}
	return nil
}

// SendMessage authorizes the sender, finds or creates the pair's thread,
// appends the message and broadcasts it to the pair's room. Appends and
// broadcasts for one pair happen in a single critical section, so live
// recipients see messages in persistence order.
//
// Caller cancellation does not abort a send once it is accepted; each store
// call is still bounded by the service timeout.
func (s *Service) SendMessage(ctx context.Context, in SendInput) (*Result, error) {
	res, err := s.send(context.WithoutCancel(ctx), in)
	if err != nil {
		metrics.SendFailures.WithLabelValues(string(apperr.CodeOf(err))).Inc()
		return nil, err
	}
	transport := in.Transport
	if transport == "" {
		transport = TransportHTTP
	}
	metrics.MessagesSent.WithLabelValues(transport).Inc()
	if res.Created {
		metrics.ThreadsCreated.Inc()
	}
	return res, nil
}

func (s *Service) send(ctx context.Context, in SendInput) (*Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	pair := room.NewPair(in.SenderID, in.ReceiverID)

	sender, err := s.getUser(ctx, in.SenderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, apperr.NotFound("sender not found")
	}
	if sender.IsBanned() {
		return nil, apperr.NotAuthorized("sender is banned")
	}

	unlock := s.seq.lock(pair.ID())
	defer unlock()

	var thread *models.Thread
	err = s.call(ctx, "find_thread", func(ctx context.Context) error {
		var err error
		thread, err = s.store.FindThread(ctx, pair)
		return err
	})
	if err != nil {
		return nil, err
	}

	created := false
	if thread == nil {
		// Only organizations may open a conversation.
		if !sender.CanRecruit() {
			return nil, apperr.NotAuthorized("only HR or Company Owner can start a conversation")
		}
		err = s.call(ctx, "find_or_create_thread", func(ctx context.Context) error {
			var err error
			thread, created, err = s.store.FindOrCreateThread(ctx, pair, in.SenderID)
			return err
		})
		if err != nil {
			return nil, err
		}
		if created {
			s.logger.Info().Str("room", pair.ID().String()).Str("sender_id", in.SenderID).Msg("thread created")
		}
	}

	var msg *models.Message
	err = s.call(ctx, "append_message", func(ctx context.Context) error {
		var err error
		thread, msg, err = s.store.AppendMessage(ctx, thread.ID, in.SenderID, in.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	recipients := s.publisher.Broadcast(pair.ID(), EventReceiveMessage, ReceivedMessage{
		ID:       msg.ID,
		SenderID: msg.SenderID,
		Message:  msg.Body,
		SentAt:   msg.SentAt,
	})
	s.logger.Debug().
		Str("room", pair.ID().String()).
		Str("message_id", msg.ID).
		Int("recipients", recipients).
		Msg("message sent")

	return &Result{Thread: thread, Message: msg, Created: created}, nil
}

func (s *Service) getUser(ctx context.Context, id string) (*models.User, error) {
	var user *models.User
	err := s.call(ctx, "get_user", func(ctx context.Context) error {
		var err error
		user, err = s.store.GetUser(ctx, id)
		return err
	})
	return user, err
}

// call runs fn under the store timeout and normalizes its error to the
// apperr taxonomy. An expired deadline is a store failure.
func (s *Service) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.logger.Warn().Err(err).Str("op", op).Dur("timeout", s.timeout).Msg("store call timed out")
		return apperr.New(apperr.CodeStore, op+" timed out", err)
	}
	return apperr.Store(op, err)
}
