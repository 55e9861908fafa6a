// Package outbound hands SMS/email deliveries to an external worker.
package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message is one outbound delivery request. The delivery worker resolves
// the user's phone number / email address from UserID.
type Message struct {
	ID        string         `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Template  string         `json:"template"`
	AuctionID uuid.UUID      `json:"auction_id"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewMessage(userID, auctionID uuid.UUID, template string, data map[string]any) Message {
	return Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Template:  template,
		AuctionID: auctionID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier sends fire-and-forget SMS/email. Callers log and drop errors.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// NoopNotifier is used when no broker is configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, Message) error { return nil }
func (NoopNotifier) Close() error                        { return nil }
