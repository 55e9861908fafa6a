// Package realtime is the broadcast-only channel to connected sessions.
// Delivery is fire-and-forget: no queuing, no replay, no acknowledgement.
package realtime

import (
	"time"

	"github.com/shopspring/decimal"
)

// Message types sent to sessions.
const (
	TypeConnected      = "connected"
	TypeAuctionCreated = "auction:created"
	TypeAuctionLive    = "auction:live"
	TypeBidAccepted    = "bid:accepted"
	TypeAuctionEnded   = "auction:ended"
	TypeAuctionClosed  = "auction:closed"
	TypeNotification   = "notification"
)

// Message is the wire envelope. Clients filter notification messages by
// UserID themselves.
type Message struct {
	Type      string           `json:"type"`
	AuctionID string           `json:"auctionId,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	BidderID  string           `json:"bidderId,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	UserID    string           `json:"userId,omitempty"`
	Auction   any              `json:"auction,omitempty"`
	Payload   map[string]any   `json:"payload,omitempty"`
	TS        time.Time        `json:"ts"`
}

// Channel publishes to every connected session.
type Channel interface {
	Publish(msg Message)
}
