package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuctionStatus string

const (
	StatusScheduled AuctionStatus = "scheduled"
	StatusLive      AuctionStatus = "live"
	StatusEnded     AuctionStatus = "ended"
	StatusClosed    AuctionStatus = "closed"
)

var statusOrder = map[AuctionStatus]int{
	StatusScheduled: 0,
	StatusLive:      1,
	StatusEnded:     2,
	StatusClosed:    3,
}

// CanTransitionTo reports whether next is the immediate successor of s.
// Statuses only move forward one step at a time.
func (s AuctionStatus) CanTransitionTo(next AuctionStatus) bool {
	cur, ok := statusOrder[s]
	if !ok {
		return false
	}
	n, ok := statusOrder[next]
	return ok && n == cur+1
}

func (s AuctionStatus) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CloseReason records why an ended auction was closed.
type CloseReason string

const (
	ReasonAccepted        CloseReason = "accepted"
	ReasonRejected        CloseReason = "rejected"
	ReasonCounterAccepted CloseReason = "counter_accepted"
	ReasonCounterRejected CloseReason = "counter_rejected"
)

type Auction struct {
	ID            uuid.UUID       `json:"id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	Title         string          `json:"title"`
	Description   *string         `json:"description,omitempty"`
	ImageKeys     []string        `json:"image_keys"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	BidIncrement  decimal.Decimal `json:"bid_increment"`
	GoLiveAt      time.Time       `json:"go_live_at"`
	EndsAt        time.Time       `json:"ends_at"`
	Status        AuctionStatus   `json:"status"`
	ClosedReason  *CloseReason    `json:"closed_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewAuction builds a listing. An auction whose go-live time has already
// passed at creation starts live instead of waiting for the next sweep.
func NewAuction(sellerID uuid.UUID, title string, description *string, startingPrice, increment decimal.Decimal, goLiveAt time.Time, duration time.Duration, now time.Time) Auction {
	status := StatusScheduled
	if !goLiveAt.After(now) {
		status = StatusLive
	}
	return Auction{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Title:         title,
		Description:   description,
		ImageKeys:     []string{},
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		BidIncrement:  increment,
		GoLiveAt:      goLiveAt.UTC(),
		EndsAt:        goLiveAt.Add(duration).UTC(),
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MoneyScale is the number of decimal places money is stored with.
const MoneyScale = 2

// ValidMoney reports whether d fits MoneyScale without rounding.
func ValidMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// MinimumBid is the lowest amount the next bid may carry.
func (a Auction) MinimumBid() decimal.Decimal {
	return a.CurrentPrice.Add(a.BidIncrement)
}

// AcceptsBids derives activity from the clock as well as the stored status,
// so a live row that the sweep has not yet expired stops taking bids at EndsAt.
func (a Auction) AcceptsBids(now time.Time) bool {
	return a.Status == StatusLive && !now.After(a.EndsAt)
}

type Bid struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Outranks reports whether b beats other as top bid: greater amount first,
// then the later bid on equal amounts.
func (b Bid) Outranks(other Bid) bool {
	if c := b.Amount.Cmp(other.Amount); c != 0 {
		return c > 0
	}
	return b.CreatedAt.After(other.CreatedAt)
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

type CounterStatus string

const (
	CounterPending  CounterStatus = "pending"
	CounterAccepted CounterStatus = "accepted"
	CounterRejected CounterStatus = "rejected"
)

type CounterOffer struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	BuyerID   uuid.UUID       `json:"buyer_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    CounterStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CounterRole filters counter-offers by the caller's side of the deal.
type CounterRole string

const (
	RoleBuyer  CounterRole = "buyer"
	RoleSeller CounterRole = "seller"
	RoleBoth   CounterRole = "both"
)

func (r CounterRole) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleBoth:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
