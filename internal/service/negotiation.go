package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/outbound"
	"github.com/itsDrac/e-auc-live/internal/realtime"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/pkg/logger"
	"github.com/shopspring/decimal"
)

type NegotiationServicer interface {
	Decide(ctx context.Context, auctionID, sellerID uuid.UUID, decision model.Decision) (model.Auction, error)
	CreateCounterOffer(ctx context.Context, auctionID, sellerID uuid.UUID, amount decimal.Decimal) (model.CounterOffer, error)
	RespondCounterOffer(ctx context.Context, counterID, actorID uuid.UUID, decision model.Decision) (model.CounterOffer, error)
	ListCounterOffers(ctx context.Context, userID uuid.UUID, role model.CounterRole) ([]model.CounterOffer, error)
}

// NegotiationService runs the post-expiry workflow. Every terminal step is
// a conditional store transition, so a repeated or racing call observes a
// StateConflict instead of closing the auction twice.
type NegotiationService struct {
	auctions repository.AuctionRepository
	bids     repository.BidRepository
	counters repository.CounterOfferRepository
	notifier Notifier
	channel  realtime.Channel
	outbound outbound.Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewNegotiationService(store repository.Store, notifier Notifier, channel realtime.Channel, out outbound.Notifier, log *logger.Logger) *NegotiationService {
	return &NegotiationService{
		auctions: store,
		bids:     store,
		counters: store,
		notifier: notifier,
		channel:  channel,
		outbound: out,
		log:      log.Named("negotiation"),
		now:      time.Now,
	}
}

func (s *NegotiationService) Decide(ctx context.Context, auctionID, sellerID uuid.UUID, decision model.Decision) (model.Auction, error) {
	if !decision.Valid() {
		return model.Auction{}, validationErr(ErrInvalidDecision, ErrInvalidDecision.Error())
	}

	a, top, err := s.awaitingDecision(ctx, auctionID, sellerID)
	if err != nil {
		return model.Auction{}, err
	}

	reason, winnerType := model.ReasonAccepted, model.NotificationBidAccepted
	if decision == model.DecisionReject {
		reason, winnerType = model.ReasonRejected, model.NotificationBidRejected
	}

	now := s.now().UTC()
	closed, err := s.auctions.CloseAuction(ctx, a.ID, reason, now)
	if errors.Is(err, repository.ErrPendingCounter) {
		return model.Auction{}, conflict(ErrCounterPending)
	}
	if err != nil {
		return model.Auction{}, unavailable("close auction", err)
	}
	if !closed {
		return model.Auction{}, conflict(ErrAuctionClosed)
	}

	ctx = context.WithoutCancel(ctx)
	amount := top.Amount.StringFixed(2)
	s.notifier.Notify(ctx, top.BidderID, winnerType, map[string]any{
		"auctionId": a.ID.String(),
		"title":     a.Title,
		"amount":    amount,
	})
	s.notifier.Notify(ctx, a.SellerID, model.NotificationAuctionClosed, map[string]any{
		"auctionId": a.ID.String(),
		"title":     a.Title,
		"reason":    string(reason),
		"amount":    amount,
		"winnerId":  top.BidderID.String(),
	})
	s.publishClosed(a.ID, reason, now)

	data := map[string]any{"title": a.Title, "amount": amount, "reason": string(reason)}
	s.send(ctx, top.BidderID, a.ID, winnerType, data)
	s.send(ctx, a.SellerID, a.ID, model.NotificationAuctionClosed, data)

	a.Status = model.StatusClosed
	a.ClosedReason = &reason
	a.UpdatedAt = now
	return a, nil
}

func (s *NegotiationService) CreateCounterOffer(ctx context.Context, auctionID, sellerID uuid.UUID, amount decimal.Decimal) (model.CounterOffer, error) {
	if !amount.IsPositive() {
		return model.CounterOffer{}, validationErr(ErrInvalidCounter, "counter offer amount must be greater than zero")
	}
	if !model.ValidMoney(amount) {
		return model.CounterOffer{}, validationErr(ErrInvalidCounter, "counter offer amount must have at most 2 decimal places")
	}

	a, top, err := s.awaitingDecision(ctx, auctionID, sellerID)
	if err != nil {
		return model.CounterOffer{}, err
	}

	now := s.now().UTC()
	c := model.CounterOffer{
		ID:        uuid.New(),
		AuctionID: a.ID,
		SellerID:  a.SellerID,
		BuyerID:   top.BidderID,
		Amount:    amount,
		Status:    model.CounterPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.counters.CreateCounterOffer(ctx, c); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return model.CounterOffer{}, conflict(ErrCounterPending)
		case errors.Is(err, repository.ErrNotEnded):
			return model.CounterOffer{}, conflict(ErrAuctionClosed)
		}
		return model.CounterOffer{}, unavailable("create counter offer", err)
	}

	s.notifier.Notify(context.WithoutCancel(ctx), c.BuyerID, model.NotificationCounterOffer, map[string]any{
		"counterOfferId": c.ID.String(),
		"auctionId":      a.ID.String(),
		"title":          a.Title,
		"amount":         amount.StringFixed(2),
		"yourBid":        top.Amount.StringFixed(2),
	})
	return c, nil
}

// RespondCounterOffer resolves a pending counter offer. Either outcome
// closes the auction; a rejected counter leaves it closed with no winner.
func (s *NegotiationService) RespondCounterOffer(ctx context.Context, counterID, actorID uuid.UUID, decision model.Decision) (model.CounterOffer, error) {
	if !decision.Valid() {
		return model.CounterOffer{}, validationErr(ErrInvalidDecision, ErrInvalidDecision.Error())
	}

	c, err := s.counters.GetCounterOffer(ctx, counterID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.CounterOffer{}, notFound(ErrCounterNotFound)
	}
	if err != nil {
		return model.CounterOffer{}, unavailable("get counter offer", err)
	}
	if actorID != c.BuyerID && actorID != c.SellerID {
		return model.CounterOffer{}, forbidden(ErrNotCounterParty)
	}
	if c.Status != model.CounterPending {
		return model.CounterOffer{}, conflict(ErrCounterResolved)
	}

	a, err := loadAuction(ctx, s.auctions, c.AuctionID)
	if err != nil {
		return model.CounterOffer{}, err
	}
	if a.Status != model.StatusEnded {
		return model.CounterOffer{}, conflict(ErrAuctionClosed)
	}

	status, reason, kind := model.CounterAccepted, model.ReasonCounterAccepted, model.NotificationCounterAccepted
	if decision == model.DecisionReject {
		status, reason, kind = model.CounterRejected, model.ReasonCounterRejected, model.NotificationCounterRejected
	}

	now := s.now().UTC()
	c, err = s.counters.ResolveCounterAndClose(ctx, counterID, status, reason, now)
	switch {
	case errors.Is(err, repository.ErrAlreadyResolved):
		return model.CounterOffer{}, conflict(ErrCounterResolved)
	case errors.Is(err, repository.ErrNotEnded):
		return model.CounterOffer{}, conflict(ErrAuctionClosed)
	case errors.Is(err, repository.ErrNotFound):
		return model.CounterOffer{}, notFound(ErrCounterNotFound)
	case err != nil:
		return model.CounterOffer{}, unavailable("resolve counter offer", err)
	}

	ctx = context.WithoutCancel(ctx)
	payload := map[string]any{
		"counterOfferId": c.ID.String(),
		"auctionId":      a.ID.String(),
		"title":          a.Title,
		"amount":         c.Amount.StringFixed(2),
	}
	s.notifier.Notify(ctx, c.BuyerID, kind, payload)
	s.notifier.Notify(ctx, c.SellerID, kind, payload)
	s.publishClosed(a.ID, reason, now)

	data := map[string]any{"title": a.Title, "amount": c.Amount.StringFixed(2), "reason": string(reason)}
	s.send(ctx, c.BuyerID, a.ID, kind, data)
	s.send(ctx, c.SellerID, a.ID, kind, data)
	return c, nil
}

func (s *NegotiationService) ListCounterOffers(ctx context.Context, userID uuid.UUID, role model.CounterRole) ([]model.CounterOffer, error) {
	if role == "" {
		role = model.RoleBoth
	}
	if !role.Valid() {
		return nil, validationErr(ErrInvalidRole, ErrInvalidRole.Error())
	}
	list, err := s.counters.ListCounterOffers(ctx, userID, role)
	if err != nil {
		return nil, unavailable("list counter offers", err)
	}
	return list, nil
}

// awaitingDecision loads an auction the seller can still decide on, along
// with its top bid.
func (s *NegotiationService) awaitingDecision(ctx context.Context, auctionID, sellerID uuid.UUID) (model.Auction, model.Bid, error) {
	a, err := loadAuction(ctx, s.auctions, auctionID)
	if err != nil {
		return model.Auction{}, model.Bid{}, err
	}
	if a.SellerID != sellerID {
		return model.Auction{}, model.Bid{}, forbidden(ErrNotSeller)
	}
	switch a.Status {
	case model.StatusEnded:
	case model.StatusClosed:
		return model.Auction{}, model.Bid{}, conflict(ErrAuctionClosed)
	default:
		return model.Auction{}, model.Bid{}, conflict(ErrAuctionNotEnded)
	}

	top, err := s.bids.TopBid(ctx, a.ID)
	if errors.Is(err, repository.ErrNoBids) {
		return model.Auction{}, model.Bid{}, conflict(ErrNoBids)
	}
	if err != nil {
		return model.Auction{}, model.Bid{}, unavailable("top bid", err)
	}
	return a, top, nil
}

func (s *NegotiationService) publishClosed(auctionID uuid.UUID, reason model.CloseReason, now time.Time) {
	s.channel.Publish(realtime.Message{
		Type:      realtime.TypeAuctionClosed,
		AuctionID: auctionID.String(),
		Reason:    string(reason),
		TS:        now,
	})
}

// send hands an SMS/email to the outbound worker. Failures are logged only.
func (s *NegotiationService) send(ctx context.Context, userID, auctionID uuid.UUID, template string, data map[string]any) {
	msg := outbound.NewMessage(userID, auctionID, template, data)
	if err := s.outbound.Send(ctx, msg); err != nil {
		s.log.Warnw("outbound notification failed", "user_id", userID, "auction_id", auctionID, "template", template, "error", err)
	}
}
