// Package scheduler advances auctions through their time-driven statuses.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/realtime"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/internal/service"
	"github.com/itsDrac/e-auc-live/pkg/logger"
)

// Result summarises one sweep.
type Result struct {
	Promoted int
	Ended    int
	// Skipped is set when another sweep was still running.
	Skipped bool
}

// Scheduler is the only writer of scheduled->live and live->ended.
type Scheduler struct {
	auctions repository.AuctionRepository
	bids     repository.BidRepository
	notifier service.Notifier
	channel  realtime.Channel
	log      *logger.Logger
	interval time.Duration
	now      func() time.Time

	running atomic.Bool
}

func New(store repository.Store, notifier service.Notifier, channel realtime.Channel, log *logger.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		auctions: store,
		bids:     store,
		notifier: notifier,
		channel:  channel,
		log:      log.Named("scheduler"),
		interval: interval,
		now:      time.Now,
	}
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Infow("scheduler started", "interval", s.interval.String())
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("sweep panicked", "panic", r)
		}
	}()

	res, err := s.Sweep(ctx, s.now().UTC())
	if err != nil {
		s.log.Errorw("sweep failed", "error", err)
	}
	if res.Promoted > 0 || res.Ended > 0 {
		s.log.Infow("sweep finished", "promoted", res.Promoted, "ended", res.Ended)
	}
}

// Sweep promotes due auctions to live and expires finished ones. Only
// auctions actually moved by the store are announced, so re-running a sweep
// with nothing newly due has no effect. Concurrent calls return Skipped.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) (Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Result{Skipped: true}, nil
	}
	defer s.running.Store(false)

	var res Result
	var errs []error

	promoted, err := s.auctions.PromoteDue(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("promote due auctions: %w", err))
	}
	for _, a := range promoted {
		s.isolate(a.ID, "promote", func() {
			s.channel.Publish(realtime.Message{Type: realtime.TypeAuctionLive, AuctionID: a.ID.String(), TS: now})
		})
	}
	res.Promoted = len(promoted)

	ended, err := s.auctions.ExpireDue(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire due auctions: %w", err))
	}
	for _, a := range ended {
		s.isolate(a.ID, "expire", func() { s.finish(ctx, a, now) })
	}
	res.Ended = len(ended)

	return res, errors.Join(errs...)
}

// finish announces an auction that just ended and tells the top bidder and
// the seller.
func (s *Scheduler) finish(ctx context.Context, a model.Auction, now time.Time) {
	s.channel.Publish(realtime.Message{Type: realtime.TypeAuctionEnded, AuctionID: a.ID.String(), TS: now})

	payload := map[string]any{
		"auctionId": a.ID.String(),
		"title":     a.Title,
	}

	top, err := s.bids.TopBid(ctx, a.ID)
	switch {
	case errors.Is(err, repository.ErrNoBids):
		payload["hasBids"] = false
	case err != nil:
		s.log.Warnw("failed to resolve top bid", "auction_id", a.ID, "error", err)
		payload["hasBids"] = false
	default:
		payload["hasBids"] = true
		payload["amount"] = top.Amount.StringFixed(2)
		s.notifier.Notify(ctx, top.BidderID, model.NotificationAuctionEnded, withRole(payload, "bidder"))
	}

	s.notifier.Notify(ctx, a.SellerID, model.NotificationAuctionEnded, withRole(payload, "seller"))
}

func withRole(payload map[string]any, role string) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["role"] = role
	return out
}

// isolate keeps a failure on one auction from aborting the rest of the batch.
func (s *Scheduler) isolate(id uuid.UUID, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("sweep step panicked", "step", step, "auction_id", id, "panic", r)
		}
	}()
	fn()
}
