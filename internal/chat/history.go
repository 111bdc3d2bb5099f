package chat

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

// Participant is a user reference with the display fields resolved.
type Participant struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Name      string `json:"name,omitempty"`
}

// HistoryMessage is a message with its sender resolved.
type HistoryMessage struct {
	ID      string      `json:"id"`
	Sender  Participant `json:"sender"`
	Message string      `json:"message"`
	SentAt  time.Time   `json:"sentAt"`
}

// HistoryView is a thread as returned by the history lookup.
type HistoryView struct {
	ID        string           `json:"id"`
	RoomID    string           `json:"roomId"`
	Sender    Participant      `json:"sender"`
	Receiver  Participant      `json:"receiver"`
	Messages  []HistoryMessage `json:"messages"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// History returns the full thread between userID and otherID with sender ids
// resolved to display names. Users that no longer exist are returned with
// their id only.
func (s *Service) History(ctx context.Context, userID, otherID string) (*HistoryView, error) {
	if userID == "" || otherID == "" {
		return nil, apperr.Validation("userId and senderId are required")
	}
	pair := room.NewPair(userID, otherID)

	var thread *models.Thread
	err := s.call(ctx, "find_thread", func(ctx context.Context) error {
		var err error
		thread, err = s.store.FindThread(ctx, pair)
		return err
	})
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, apperr.NotFound("chat not found")
	}

	ids := lo.Uniq(append(
		[]string{thread.SenderID, thread.ReceiverID},
		lo.Map(thread.Messages, func(m models.Message, _ int) string { return m.SenderID })...,
	))
	people := make(map[string]Participant, len(ids))
	for _, id := range ids {
		user, err := s.getUser(ctx, id)
		if err != nil {
			return nil, err
		}
		people[id] = participantOf(id, user)
	}

	return &HistoryView{
		ID:       thread.ID,
		RoomID:   thread.PairKey,
		Sender:   people[thread.SenderID],
		Receiver: people[thread.ReceiverID],
		Messages: lo.Map(thread.Messages, func(m models.Message, _ int) HistoryMessage {
			return HistoryMessage{
				ID:      m.ID,
				Sender:  people[m.SenderID],
				Message: m.Body,
				SentAt:  m.SentAt,
			}
		}),
		CreatedAt: thread.CreatedAt,
		UpdatedAt: thread.UpdatedAt,
	}, nil
}

func participantOf(id string, user *models.User) Participant {
	if user == nil {
		return Participant{ID: id}
	}
	return Participant{
		ID:        id,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Name:      user.DisplayName(),
	}
}
