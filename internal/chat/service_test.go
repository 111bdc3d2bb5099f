package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
	"github.com/eldtechnologies/jobsearch/mocks"
)

var (
	hrUser    = &models.User{ID: "u1", FirstName: "Hana", LastName: "Reyes", Role: models.RoleHR}
	plainUser = &models.User{ID: "u2", FirstName: "Paul", LastName: "Ng", Role: models.RoleUser}
)

func newMockedService(t *testing.T) (*Service, *mocks.MockStore, *mocks.MockPublisher) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	return NewService(store, publisher, time.Second, zerolog.Nop()), store, publisher
}

func TestService_SendMessage(t *testing.T) {
	ctx := context.Background()
	pair := room.NewPair("u1", "u2")

	t.Run("should create the thread when HR opens a conversation", func(t *testing.T) {
		req := require.New(t)
		svc, store, publisher := newMockedService(t)

		empty := &models.Thread{ID: "t1", PairKey: "u1_u2", SenderID: "u1", ReceiverID: "u2"}
		msg := &models.Message{ID: "m1", SenderID: "u1", Body: "hello", SentAt: time.Now()}
		updated := &models.Thread{ID: "t1", PairKey: "u1_u2", SenderID: "u1", ReceiverID: "u2", Messages: []models.Message{*msg}}

		gomock.InOrder(
			store.EXPECT().GetUser(gomock.Any(), "u1").Return(hrUser, nil),
			store.EXPECT().FindThread(gomock.Any(), pair).Return(nil, nil),
			store.EXPECT().FindOrCreateThread(gomock.Any(), pair, "u1").Return(empty, true, nil),
			store.EXPECT().AppendMessage(gomock.Any(), "t1", "u1", "hello").Return(updated, msg, nil),
			publisher.EXPECT().Broadcast(room.ID("u1_u2"), EventReceiveMessage, ReceivedMessage{
				ID: "m1", SenderID: "u1", Message: "hello", SentAt: msg.SentAt,
			}).Return(2),
		)

		res, err := svc.SendMessage(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Body: "hello"})
		req.NoError(err)
		req.True(res.Created)
		req.Equal("m1", res.Message.ID)
		req.Len(res.Thread.Messages, 1)
		req.Equal("u1", res.Thread.Messages[0].SenderID)
	})

	t.Run("should reject a plain user opening a conversation", func(t *testing.T) {
		req := require.New(t)
		svc, store, _ := newMockedService(t)

		store.EXPECT().GetUser(gomock.Any(), "u2").Return(plainUser, nil)
		store.EXPECT().FindThread(gomock.Any(), pair).Return(nil, nil)

		_, err := svc.SendMessage(ctx, SendInput{SenderID: "u2", ReceiverID: "u1", Body: "hi"})
		req.Error(err)
		req.Equal(apperr.CodeNotAuthorized, apperr.CodeOf(err))
	})

	t.Run("should accept a plain user once the thread exists", func(t *testing.T) {
		req := require.New(t)
		svc, store, publisher := newMockedService(t)

		existing := &models.Thread{ID: "t1", PairKey: "u1_u2", SenderID: "u1", ReceiverID: "u2"}
		msg := &models.Message{ID: "m2", SenderID: "u2", Body: "thanks"}

		store.EXPECT().GetUser(gomock.Any(), "u2").Return(plainUser, nil)
		store.EXPECT().FindThread(gomock.Any(), pair).Return(existing, nil)
		store.EXPECT().AppendMessage(gomock.Any(), "t1", "u2", "thanks").Return(existing, msg, nil)
		publisher.EXPECT().Broadcast(room.ID("u1_u2"), EventReceiveMessage, gomock.Any()).Return(1)

		res, err := svc.SendMessage(ctx, SendInput{SenderID: "u2", ReceiverID: "u1", Body: "thanks"})
		req.NoError(err)
		req.False(res.Created)
		req.Equal("m2", res.Message.ID)
	})

	t.Run("should reject invalid input before touching the store", func(t *testing.T) {
		svc, _, _ := newMockedService(t)

		cases := map[string]SendInput{
			"missing sender":   {ReceiverID: "u2", Body: "hi"},
			"missing receiver": {SenderID: "u1", Body: "hi"},
			"empty body":       {SenderID: "u1", ReceiverID: "u2", Body: "   "},
			"self chat":        {SenderID: "u1", ReceiverID: "u1", Body: "hi"},
			"separator in id":  {SenderID: "u_1", ReceiverID: "u2", Body: "hi"},
			"body too long":    {SenderID: "u1", ReceiverID: "u2", Body: string(make([]byte, MaxBodyBytes+1))},
		}
		for name, in := range cases {
			_, err := svc.SendMessage(ctx, in)
			require.Equal(t, apperr.CodeValidation, apperr.CodeOf(err), name)
		}
	})

	t.Run("should reject an unknown sender", func(t *testing.T) {
		svc, store, _ := newMockedService(t)
		store.EXPECT().GetUser(gomock.Any(), "u1").Return(nil, nil)

		_, err := svc.SendMessage(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Body: "hi"})
		require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("should reject a banned sender", func(t *testing.T) {
		svc, store, _ := newMockedService(t)
		bannedAt := time.Now()
		banned := &models.User{ID: "u1", Role: models.RoleHR, BannedAt: &bannedAt}
		store.EXPECT().GetUser(gomock.Any(), "u1").Return(banned, nil)

		_, err := svc.SendMessage(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Body: "hi"})
		require.Equal(t, apperr.CodeNotAuthorized, apperr.CodeOf(err))
	})

	t.Run("should surface store failures without broadcasting", func(t *testing.T) {
		req := require.New(t)
		svc, store, _ := newMockedService(t)
		cause := errors.New("connection reset")

		existing := &models.Thread{ID: "t1", PairKey: "u1_u2"}
		store.EXPECT().GetUser(gomock.Any(), "u1").Return(hrUser, nil)
		store.EXPECT().FindThread(gomock.Any(), pair).Return(existing, nil)
		store.EXPECT().AppendMessage(gomock.Any(), "t1", "u1", "hi").Return(nil, nil, cause)

		_, err := svc.SendMessage(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Body: "hi"})
		req.Equal(apperr.CodeStore, apperr.CodeOf(err))
		req.ErrorIs(err, cause)
	})

	t.Run("should turn a slow store into a store error", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)
		svc := NewService(store, mocks.NewMockPublisher(ctrl), 20*time.Millisecond, zerolog.Nop())

		store.EXPECT().GetUser(gomock.Any(), "u1").DoAndReturn(
			func(ctx context.Context, _ string) (*models.User, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})

		_, err := svc.SendMessage(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Body: "hi"})
		req.Equal(apperr.CodeStore, apperr.CodeOf(err))
		req.ErrorIs(err, context.DeadlineExceeded)
	})

	t.Run("should finish an accepted send when the caller goes away", func(t *testing.T) {
		req := require.New(t)
		svc, store, publisher := newMockedService(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		existing := &models.Thread{ID: "t1", PairKey: "u1_u2"}
		msg := &models.Message{ID: "m3", SenderID: "u1", Body: "hi"}
		liveCtx := gomock.Cond(func(x any) bool { c, ok := x.(context.Context); return ok && c.Err() == nil })

		store.EXPECT().GetUser(liveCtx, "u1").Return(hrUser, nil)
		store.EXPECT().FindThread(liveCtx, pair).Return(existing, nil)
		store.EXPECT().AppendMessage(liveCtx, "t1", "u1", "hi").Return(existing, msg, nil)
		publisher.EXPECT().Broadcast(gomock.Any(), gomock.Any(), gomock.Any()).Return(0)

		_, err := svc.SendMessage(cancelled, SendInput{SenderID: "u1", ReceiverID: "u2", Body: "hi"})
		req.NoError(err)
	})
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	pair := room.NewPair("u1", "u2")

	t.Run("should resolve sender names", func(t *testing.T) {
		req := require.New(t)
		svc, store, _ := newMockedService(t)

		thread := &models.Thread{
			ID: "t1", PairKey: "u1_u2", SenderID: "u1", ReceiverID: "u2",
			Messages: []models.Message{
				{ID: "m1", SenderID: "u1", Body: "hello"},
				{ID: "m2", SenderID: "u2", Body: "hi"},
				{ID: "m3", SenderID: "u1", Body: "how are you"},
			},
		}
		store.EXPECT().FindThread(gomock.Any(), pair).Return(thread, nil)
		store.EXPECT().GetUser(gomock.Any(), "u1").Return(hrUser, nil).Times(1)
		store.EXPECT().GetUser(gomock.Any(), "u2").Return(nil, nil).Times(1)

		view, err := svc.History(ctx, "u2", "u1")
		req.NoError(err)
		req.Equal("u1_u2", view.RoomID)
		req.Len(view.Messages, 3)
		req.Equal("Hana Reyes", view.Messages[0].Sender.Name)
		req.Equal("Hana", view.Sender.FirstName)
		req.Equal(Participant{ID: "u2"}, view.Messages[1].Sender)
		req.Equal("how are you", view.Messages[2].Message)
	})

	t.Run("should return not found without a thread", func(t *testing.T) {
		svc, store, _ := newMockedService(t)
		store.EXPECT().FindThread(gomock.Any(), pair).Return(nil, nil)

		_, err := svc.History(ctx, "u1", "u2")
		require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("should require both ids", func(t *testing.T) {
		svc, _, _ := newMockedService(t)

		_, err := svc.History(ctx, "u1", "")
		require.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})
}

func TestSequencer_ReleasesSlots(t *testing.T) {
	req := require.New(t)
	seq := newSequencer()

	unlockA := seq.lock("a_b")
	unlockC := seq.lock("c_d")
	req.Equal(2, seq.size())

	acquired := make(chan struct{})
	go func() {
		unlock := seq.lock("a_b")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		req.Fail("second holder acquired a busy room")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		req.Fail("waiter was not released")
	}
	unlockC()

	req.Eventually(func() bool { return seq.size() == 0 }, time.Second, 5*time.Millisecond)
}
