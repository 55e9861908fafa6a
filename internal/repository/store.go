package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrPriceChanged    = errors.New("auction price changed concurrently")
	ErrDuplicate       = errors.New("record already exists")
	ErrAlreadyResolved = errors.New("counter offer already resolved")
	ErrPriceMismatch   = errors.New("stored price differs from bid amount")
	ErrNotEnded        = errors.New("auction is not awaiting a decision")
	ErrPendingCounter  = errors.New("auction has a pending counter offer")
)

// AuctionRepository owns auction rows. Status is only ever moved forward
// and only from the expected previous status.
type AuctionRepository interface {
	CreateAuction(ctx context.Context, a model.Auction) error
	GetAuction(ctx context.Context, id uuid.UUID) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	// PromoteDue moves scheduled auctions with go_live_at <= now to live.
	PromoteDue(ctx context.Context, now time.Time) ([]model.Auction, error)
	// ExpireDue moves live auctions with ends_at < now to ended.
	ExpireDue(ctx context.Context, now time.Time) ([]model.Auction, error)
	// CloseAuction moves an ended auction to closed. It reports false when
	// the auction was not in the ended status and fails with
	// ErrPendingCounter while a counter offer on it is still pending.
	CloseAuction(ctx context.Context, id uuid.UUID, reason model.CloseReason, now time.Time) (bool, error)
}

// BidCommit is the outcome of a committed bid.
type BidCommit struct {
	Auction  model.Auction
	Previous *model.Bid
}

type BidRepository interface {
	// CommitBid inserts bid and sets the auction's current price to its amount
	// as one atomic unit. The write only happens while the auction is live,
	// not past ends_at and its stored price still equals expectedPrice;
	// otherwise ErrPriceChanged is returned and nothing is written. An amount
	// that cannot be stored exactly fails with ErrPriceMismatch, also
	// without writing.
	CommitBid(ctx context.Context, bid model.Bid, expectedPrice decimal.Decimal) (BidCommit, error)
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]model.Bid, error)
	TopBid(ctx context.Context, auctionID uuid.UUID) (model.Bid, error)
}

type CounterOfferRepository interface {
	// CreateCounterOffer fails with ErrNotEnded unless the auction is ended
	// and with ErrDuplicate while another offer on it is still pending.
	CreateCounterOffer(ctx context.Context, c model.CounterOffer) error
	GetCounterOffer(ctx context.Context, id uuid.UUID) (model.CounterOffer, error)
	// ResolveCounterAndClose moves a pending offer to status and closes its
	// ended auction with reason, both or neither. It fails with
	// ErrAlreadyResolved or ErrNotEnded when either side has moved on.
	ResolveCounterAndClose(ctx context.Context, id uuid.UUID, status model.CounterStatus, reason model.CloseReason, now time.Time) (model.CounterOffer, error)
	ListCounterOffers(ctx context.Context, userID uuid.UUID, role model.CounterRole) ([]model.CounterOffer, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n model.Notification) error
	// ListNotifications returns newest first.
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

// Store is the single durable store selected at startup.
type Store interface {
	AuctionRepository
	BidRepository
	CounterOfferRepository
	NotificationRepository
	UserRepository
	Close()
}
