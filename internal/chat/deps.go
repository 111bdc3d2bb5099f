//go:generate go run go.uber.org/mock/mockgen -source=deps.go -destination=../../mocks/mock_chat.go -package=mocks
package chat

import (
	"context"

	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

// Store is the slice of the data store the conversation service needs.
type Store interface {
	FindThread(ctx context.Context, pair room.Pair) (*models.Thread, error)
	FindOrCreateThread(ctx context.Context, pair room.Pair, senderID string) (*models.Thread, bool, error)
	AppendMessage(ctx context.Context, threadID, senderID, body string) (*models.Thread, *models.Message, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Publisher delivers an event to every connection currently joined to a room
// and returns the number of recipients.
type Publisher interface {
	Broadcast(roomID room.ID, event string, payload any) int
}
