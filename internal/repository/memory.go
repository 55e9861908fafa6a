package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/shopspring/decimal"
)

// MemoryStore is a concurrency-safe in-memory Store. Every multi-row write
// happens under one lock, which gives CommitBid the same atomicity the
// Postgres transaction does.
type MemoryStore struct {
	mu            sync.RWMutex
	auctions      map[uuid.UUID]model.Auction
	bids          map[uuid.UUID][]model.Bid // key: auctionID
	counters      map[uuid.UUID]model.CounterOffer
	notifications map[uuid.UUID][]model.Notification // key: userID
	users         map[uuid.UUID]model.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions:      make(map[uuid.UUID]model.Auction),
		bids:          make(map[uuid.UUID][]model.Bid),
		counters:      make(map[uuid.UUID]model.CounterOffer),
		notifications: make(map[uuid.UUID][]model.Notification),
		users:         make(map[uuid.UUID]model.User),
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) CreateAuction(_ context.Context, a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.ID]; ok {
		return fmt.Errorf("create auction %s: %w", a.ID, ErrDuplicate)
	}
	s.auctions[a.ID] = cloneAuction(a)
	return nil
}

func (s *MemoryStore) GetAuction(_ context.Context, id uuid.UUID) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[id]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", id, ErrNotFound)
	}
	return cloneAuction(a), nil
}

func (s *MemoryStore) ListAuctions(_ context.Context) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		out = append(out, cloneAuction(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) PromoteDue(_ context.Context, now time.Time) ([]model.Auction, error) {
	return s.advance(model.StatusScheduled, model.StatusLive, now, func(a model.Auction) bool {
		return !a.GoLiveAt.After(now)
	}), nil
}

func (s *MemoryStore) ExpireDue(_ context.Context, now time.Time) ([]model.Auction, error) {
	return s.advance(model.StatusLive, model.StatusEnded, now, func(a model.Auction) bool {
		return a.EndsAt.Before(now)
	}), nil
}

func (s *MemoryStore) advance(from, to model.AuctionStatus, now time.Time, due func(model.Auction) bool) []model.Auction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var moved []model.Auction
	for id, a := range s.auctions {
		if a.Status != from || !due(a) {
			continue
		}
		a.Status = to
		a.UpdatedAt = now
		s.auctions[id] = a
		moved = append(moved, cloneAuction(a))
	}
	return moved
}

func (s *MemoryStore) CloseAuction(_ context.Context, id uuid.UUID, reason model.CloseReason, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[id]
	if !ok {
		return false, fmt.Errorf("close auction %s: %w", id, ErrNotFound)
	}
	if a.Status != model.StatusEnded {
		return false, nil
	}
	if s.hasPendingCounter(id) {
		return false, fmt.Errorf("close auction %s: %w", id, ErrPendingCounter)
	}
	s.closeLocked(a, reason, now)
	return true, nil
}

// closeLocked must be called with mu held.
func (s *MemoryStore) closeLocked(a model.Auction, reason model.CloseReason, now time.Time) {
	a.Status = model.StatusClosed
	a.ClosedReason = &reason
	a.UpdatedAt = now
	s.auctions[a.ID] = a
}

// hasPendingCounter must be called with mu held.
func (s *MemoryStore) hasPendingCounter(auctionID uuid.UUID) bool {
	for _, c := range s.counters {
		if c.AuctionID == auctionID && c.Status == model.CounterPending {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CommitBid(_ context.Context, bid model.Bid, expectedPrice decimal.Decimal) (BidCommit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[bid.AuctionID]
	if !ok {
		return BidCommit{}, fmt.Errorf("commit bid on %s: %w", bid.AuctionID, ErrNotFound)
	}
	if !a.AcceptsBids(bid.CreatedAt) || !a.CurrentPrice.Equal(expectedPrice) {
		return BidCommit{}, fmt.Errorf("commit bid on %s: %w", bid.AuctionID, ErrPriceChanged)
	}
	// amounts are kept at the same scale as the Postgres NUMERIC columns
	if !model.ValidMoney(bid.Amount) {
		return BidCommit{}, fmt.Errorf("commit bid on %s: %w", bid.AuctionID, ErrPriceMismatch)
	}

	var previous *model.Bid
	if top, ok := topBid(s.bids[bid.AuctionID]); ok {
		previous = &top
	}

	a.CurrentPrice = bid.Amount
	a.UpdatedAt = bid.CreatedAt
	s.auctions[a.ID] = a
	s.bids[a.ID] = append(s.bids[a.ID], bid)

	return BidCommit{Auction: cloneAuction(a), Previous: previous}, nil
}

func (s *MemoryStore) ListBids(_ context.Context, auctionID uuid.UUID) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := append([]model.Bid(nil), s.bids[auctionID]...)
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Outranks(bids[j]) })
	return bids, nil
}

func (s *MemoryStore) TopBid(_ context.Context, auctionID uuid.UUID) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top, ok := topBid(s.bids[auctionID])
	if !ok {
		return model.Bid{}, fmt.Errorf("top bid for auction %s: %w", auctionID, ErrNoBids)
	}
	return top, nil
}

func topBid(bids []model.Bid) (model.Bid, bool) {
	if len(bids) == 0 {
		return model.Bid{}, false
	}
	top := bids[0]
	for _, b := range bids[1:] {
		if b.Outranks(top) {
			top = b
		}
	}
	return top, true
}

func (s *MemoryStore) CreateCounterOffer(_ context.Context, c model.CounterOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[c.AuctionID]
	if !ok {
		return fmt.Errorf("create counter offer on %s: %w", c.AuctionID, ErrNotFound)
	}
	if a.Status != model.StatusEnded {
		return fmt.Errorf("create counter offer on %s: %w", c.AuctionID, ErrNotEnded)
	}
	if s.hasPendingCounter(c.AuctionID) {
		return fmt.Errorf("create counter offer on %s: %w", c.AuctionID, ErrDuplicate)
	}
	s.counters[c.ID] = c
	return nil
}

func (s *MemoryStore) GetCounterOffer(_ context.Context, id uuid.UUID) (model.CounterOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.counters[id]
	if !ok {
		return model.CounterOffer{}, fmt.Errorf("get counter offer %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) ResolveCounterAndClose(_ context.Context, id uuid.UUID, status model.CounterStatus, reason model.CloseReason, now time.Time) (model.CounterOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[id]
	if !ok {
		return model.CounterOffer{}, fmt.Errorf("resolve counter offer %s: %w", id, ErrNotFound)
	}
	if c.Status != model.CounterPending {
		return model.CounterOffer{}, fmt.Errorf("resolve counter offer %s: %w", id, ErrAlreadyResolved)
	}
	a, ok := s.auctions[c.AuctionID]
	if !ok || a.Status != model.StatusEnded {
		return model.CounterOffer{}, fmt.Errorf("resolve counter offer %s: %w", id, ErrNotEnded)
	}

	c.Status = status
	c.UpdatedAt = now
	s.counters[id] = c
	s.closeLocked(a, reason, now)
	return c, nil
}

func (s *MemoryStore) ListCounterOffers(_ context.Context, userID uuid.UUID, role model.CounterRole) ([]model.CounterOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.CounterOffer{}
	for _, c := range s.counters {
		asBuyer := c.BuyerID == userID && role != model.RoleSeller
		asSeller := c.SellerID == userID && role != model.RoleBuyer
		if asBuyer || asSeller {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateNotification(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.Payload = maps.Clone(n.Payload)
	s.notifications[n.UserID] = append(s.notifications[n.UserID], n)
	return nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.notifications[userID]
	out := make([]model.Notification, 0, min(len(list), limit))
	// appended in creation order, so walk backwards for newest first
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		n := list[i]
		n.Payload = maps.Clone(n.Payload)
		out = append(out, n)
	}
	return out, nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.notifications[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("mark notification %s read: %w", id, ErrNotFound)
}

func (s *MemoryStore) CreateUser(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return fmt.Errorf("create user %s: %w", u.Username, ErrDuplicate)
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	return u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("get user %s: %w", username, ErrNotFound)
}

func cloneAuction(a model.Auction) model.Auction {
	a.ImageKeys = slices.Clone(a.ImageKeys)
	if a.ImageKeys == nil {
		a.ImageKeys = []string{}
	}
	if a.Description != nil {
		d := *a.Description
		a.Description = &d
	}
	if a.ClosedReason != nil {
		r := *a.ClosedReason
		a.ClosedReason = &r
	}
	return a
}
