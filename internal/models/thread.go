package models

import "time"

// Message is a single entry of a thread. Messages are immutable once appended.
type Message struct {
	ID       string    `json:"id" bson:"id"` // ULID
	SenderID string    `json:"senderId" bson:"sender_id"`
	Body     string    `json:"message" bson:"body"`
	SentAt   time.Time `json:"sentAt" bson:"sent_at"`
}

// Thread is the persisted conversation between two participants. PairKey is
// the canonical, order-independent room id of the pair and is unique.
type Thread struct {
	ID         string    `json:"id" bson:"-"`
	PairKey    string    `json:"pairKey" bson:"pair_key"`
	SenderID   string    `json:"senderId" bson:"sender_id"`     // participant that opened the thread
	ReceiverID string    `json:"receiverId" bson:"receiver_id"` // the other participant
	Messages   []Message `json:"messages" bson:"messages"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updated_at"`
}
