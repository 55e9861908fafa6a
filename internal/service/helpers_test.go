package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/cache"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/outbound"
	"github.com/itsDrac/e-auc-live/internal/realtime"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/internal/storage"
	"github.com/itsDrac/e-auc-live/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (c *recordingChannel) Publish(msg realtime.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *recordingChannel) ofType(typ string) []realtime.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []realtime.Message
	for _, m := range c.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

type mockOutbound struct {
	mock.Mock
}

func (m *mockOutbound) Send(ctx context.Context, msg outbound.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutbound) Close() error { return nil }

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl, wait time.Duration) (func(), bool) {
	args := m.Called(ctx, key, ttl, wait)
	return args.Get(0).(func()), args.Bool(1)
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// failingNotificationStore loses every notification write.
type failingNotificationStore struct {
	*repository.MemoryStore
}

func (failingNotificationStore) CreateNotification(context.Context, model.Notification) error {
	return errors.New(`relation "notifications" does not exist`)
}

type fixture struct {
	store         repository.Store
	mem           *repository.MemoryStore
	channel       *recordingChannel
	out           *mockOutbound
	clock         *testClock
	notifications *NotificationService
	auctions      *AuctionService
	bids          *BidService
	negotiation   *NegotiationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repository.NewMemoryStore()
	return newFixtureWithStore(t, mem, mem)
}

func newFixtureWithStore(t *testing.T, store repository.Store, mem *repository.MemoryStore) *fixture {
	t.Helper()
	log := logger.NewNop()
	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	channel := &recordingChannel{}
	out := &mockOutbound{}
	out.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()

	notifications := NewNotificationService(store, channel, log, 50)
	notifications.now = clock.Now

	auctions := NewAuctionService(store, storage.DisabledStorage{}, cache.NoopCache{}, channel, log)
	auctions.now = clock.Now

	bids := NewBidService(store, cache.NoopLocker{}, notifications, channel, log, BidOptions{LockTTL: 5 * time.Second, LockWait: 10 * time.Millisecond})
	bids.now = clock.Now

	negotiation := NewNegotiationService(store, notifications, channel, out, log)
	negotiation.now = clock.Now

	return &fixture{
		store:         store,
		mem:           mem,
		channel:       channel,
		out:           out,
		clock:         clock,
		notifications: notifications,
		auctions:      auctions,
		bids:          bids,
		negotiation:   negotiation,
	}
}

func (f *fixture) createAuction(t *testing.T, seller uuid.UUID, starting, increment int64, goLiveIn time.Duration, minutes int) model.Auction {
	t.Helper()
	a, err := f.auctions.CreateAuction(context.Background(), seller, model.CreateAuctionRequest{
		Title:           "Vintage camera",
		StartingPrice:   decimal.NewFromInt(starting),
		BidIncrement:    decimal.NewFromInt(increment),
		GoLiveAt:        f.clock.Now().Add(goLiveIn),
		DurationMinutes: minutes,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) bid(t *testing.T, auctionID, bidder uuid.UUID, amount int64) model.Bid {
	t.Helper()
	b, err := f.bids.PlaceBid(context.Background(), auctionID, bidder, decimal.NewFromInt(amount))
	require.NoError(t, err)
	return b
}

// endAuction moves the clock past endsAt and expires the auction the way a
// sweep would.
func (f *fixture) endAuction(t *testing.T, a model.Auction) {
	t.Helper()
	f.clock.Advance(a.EndsAt.Sub(f.clock.Now()) + time.Second)
	_, err := f.store.ExpireDue(context.Background(), f.clock.Now())
	require.NoError(t, err)
}

func (f *fixture) notificationsOf(t *testing.T, userID uuid.UUID, kind string) []model.Notification {
	t.Helper()
	list, err := f.store.ListNotifications(context.Background(), userID, 100)
	require.NoError(t, err)
	var out []model.Notification
	for _, n := range list {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, kind, svcErr.Kind, "unexpected kind for %v", err)
	return svcErr
}
