package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types delivered to a single user.
const (
	NotificationNewBid          = "new_bid"
	NotificationOutbid          = "outbid"
	NotificationAuctionEnded    = "auction_ended"
	NotificationBidAccepted     = "bid_accepted"
	NotificationBidRejected     = "bid_rejected"
	NotificationAuctionClosed   = "auction_closed"
	NotificationCounterOffer    = "counter_offer"
	NotificationCounterAccepted = "counter_accepted"
	NotificationCounterRejected = "counter_rejected"
)

// Notification is write-once except for Read.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}
