package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/cache"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/realtime"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/pkg/logger"
	"github.com/shopspring/decimal"
)

// a commit that loses the price race is re-validated and retried this many times
const maxCommitAttempts = 3

type BidServicer interface {
	PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, amount decimal.Decimal) (model.Bid, error)
	ListBids(ctx context.Context, auctionID, requesterID uuid.UUID) ([]model.Bid, error)
}

type BidOptions struct {
	LockTTL  time.Duration
	LockWait time.Duration
}

// BidService is the bid engine. The per-auction lock only reduces
// contention; the store's compare-and-set on the current price is what keeps
// concurrent bids from overwriting each other.
type BidService struct {
	auctions repository.AuctionRepository
	bids     repository.BidRepository
	locker   cache.Locker
	notifier Notifier
	channel  realtime.Channel
	log      *logger.Logger
	opts     BidOptions
	now      func() time.Time
}

func NewBidService(store repository.Store, locker cache.Locker, notifier Notifier, channel realtime.Channel, log *logger.Logger, opts BidOptions) *BidService {
	return &BidService{
		auctions: store,
		bids:     store,
		locker:   locker,
		notifier: notifier,
		channel:  channel,
		log:      log.Named("bids"),
		opts:     opts,
		now:      time.Now,
	}
}

func (s *BidService) PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, amount decimal.Decimal) (model.Bid, error) {
	if !amount.IsPositive() {
		return model.Bid{}, validationErr(ErrInvalidBid, "bid amount must be greater than zero")
	}
	if !model.ValidMoney(amount) {
		return model.Bid{}, validationErr(ErrInvalidBid, "bid amount must have at most 2 decimal places")
	}

	a, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return model.Bid{}, err
	}
	if err := checkBid(a, bidderID, amount, s.now()); err != nil {
		return model.Bid{}, err
	}

	release, locked := s.locker.TryLock(ctx, "auction:"+auctionID.String(), s.opts.LockTTL, s.opts.LockWait)
	if !locked {
		s.log.Debugw("bidding without auction lock", "auction_id", auctionID)
	}
	commit, bid, err := s.commit(ctx, a, bidderID, amount)
	release()
	if err != nil {
		return model.Bid{}, err
	}

	// the bid is durable; side effects must not be lost to a client hang-up
	s.announce(context.WithoutCancel(ctx), commit, bid)
	return bid, nil
}

// checkBid applies the acceptance rules in order: self-bidding, activity,
// then the minimum.
func checkBid(a model.Auction, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) error {
	if a.SellerID == bidderID {
		return forbidden(ErrSelfBidding)
	}
	if !a.AcceptsBids(now) {
		return conflict(ErrAuctionNotActive)
	}
	if minimum := a.MinimumBid(); amount.LessThan(minimum) {
		return bidTooLow(minimum)
	}
	return nil
}

func (s *BidService) commit(ctx context.Context, a model.Auction, bidderID uuid.UUID, amount decimal.Decimal) (repository.BidCommit, model.Bid, error) {
	for attempt := 1; ; attempt++ {
		bid := model.Bid{
			ID:        uuid.New(),
			AuctionID: a.ID,
			BidderID:  bidderID,
			Amount:    amount,
			CreatedAt: s.now().UTC(),
		}

		commit, err := s.bids.CommitBid(ctx, bid, a.CurrentPrice)
		if err == nil {
			return commit, bid, nil
		}
		if errors.Is(err, repository.ErrPriceMismatch) {
			// rolled back by the store; nothing was recorded
			s.log.Errorw("bid price could not be stored exactly",
				"auction_id", a.ID, "bid_id", bid.ID, "amount", amount.String(), "error", err)
			return repository.BidCommit{}, model.Bid{}, newError(KindIntegrity, ErrPriceMismatch, ErrPriceMismatch.Error())
		}
		if !errors.Is(err, repository.ErrPriceChanged) {
			return repository.BidCommit{}, model.Bid{}, unavailable("commit bid", err)
		}

		// someone else moved the auction first: re-check against fresh state
		a, err = s.loadAuction(ctx, a.ID)
		if err != nil {
			return repository.BidCommit{}, model.Bid{}, err
		}
		if err := checkBid(a, bidderID, amount, s.now()); err != nil {
			return repository.BidCommit{}, model.Bid{}, err
		}
		if attempt == maxCommitAttempts {
			return repository.BidCommit{}, model.Bid{}, conflict(ErrBidContention)
		}
	}
}

func (s *BidService) announce(ctx context.Context, commit repository.BidCommit, bid model.Bid) {
	amount := bid.Amount
	s.channel.Publish(realtime.Message{
		Type:      realtime.TypeBidAccepted,
		AuctionID: bid.AuctionID.String(),
		Amount:    &amount,
		BidderID:  bid.BidderID.String(),
		TS:        bid.CreatedAt,
	})

	s.notifier.Notify(ctx, commit.Auction.SellerID, model.NotificationNewBid, map[string]any{
		"auctionId": bid.AuctionID.String(),
		"title":     commit.Auction.Title,
		"amount":    amount.StringFixed(2),
		"bidderId":  bid.BidderID.String(),
	})

	prev := commit.Previous
	if prev == nil || prev.BidderID == bid.BidderID {
		return
	}
	s.notifier.Notify(ctx, prev.BidderID, model.NotificationOutbid, map[string]any{
		"auctionId": bid.AuctionID.String(),
		"title":     commit.Auction.Title,
		"amount":    amount.StringFixed(2),
		"yourBid":   prev.Amount.StringFixed(2),
	})
}

// ListBids is restricted to the auction's seller.
func (s *BidService) ListBids(ctx context.Context, auctionID, requesterID uuid.UUID) ([]model.Bid, error) {
	a, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.SellerID != requesterID {
		return nil, forbidden(ErrNotSeller)
	}
	bids, err := s.bids.ListBids(ctx, auctionID)
	if err != nil {
		return nil, unavailable("list bids", err)
	}
	return bids, nil
}

func (s *BidService) loadAuction(ctx context.Context, id uuid.UUID) (model.Auction, error) {
	return loadAuction(ctx, s.auctions, id)
}

func loadAuction(ctx context.Context, auctions repository.AuctionRepository, id uuid.UUID) (model.Auction, error) {
	a, err := auctions.GetAuction(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Auction{}, notFound(ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, unavailable("get auction", err)
	}
	return a, nil
}
