package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newAuction(t *testing.T, s Store, goLiveIn time.Duration) model.Auction {
	t.Helper()
	a := model.NewAuction(uuid.New(), "Vintage camera", nil, dec("50"), dec("5"), epoch.Add(goLiveIn), time.Hour, epoch)
	require.NoError(t, s.CreateAuction(context.Background(), a))
	return a
}

func ids(auctions []model.Auction) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, a.ID)
	}
	return out
}

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("auction lifecycle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := newAuction(t, s, 10*time.Minute)
		assert.Equal(t, model.StatusScheduled, a.Status)

		moved, err := s.PromoteDue(ctx, epoch)
		require.NoError(t, err)
		assert.NotContains(t, ids(moved), a.ID)

		moved, err = s.PromoteDue(ctx, a.GoLiveAt)
		require.NoError(t, err)
		assert.Contains(t, ids(moved), a.ID)

		// ends_at itself is still live
		moved, err = s.ExpireDue(ctx, a.EndsAt)
		require.NoError(t, err)
		assert.NotContains(t, ids(moved), a.ID)

		moved, err = s.ExpireDue(ctx, a.EndsAt.Add(time.Second))
		require.NoError(t, err)
		assert.Contains(t, ids(moved), a.ID)

		moved, err = s.ExpireDue(ctx, a.EndsAt.Add(time.Minute))
		require.NoError(t, err)
		assert.NotContains(t, ids(moved), a.ID, "an auction ends exactly once")

		closed, err := s.CloseAuction(ctx, a.ID, model.ReasonAccepted, a.EndsAt.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, closed)

		closed, err = s.CloseAuction(ctx, a.ID, model.ReasonRejected, a.EndsAt.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, closed)

		got, err := s.GetAuction(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusClosed, got.Status)
		require.NotNil(t, got.ClosedReason)
		assert.Equal(t, model.ReasonAccepted, *got.ClosedReason)
	})

	t.Run("missing auction", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetAuction(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("commit bid compares and swaps the price", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := newAuction(t, s, 0)
		at := epoch.Add(time.Minute)

		first := model.Bid{ID: uuid.New(), AuctionID: a.ID, BidderID: uuid.New(), Amount: dec("55"), CreatedAt: at}
		commit, err := s.CommitBid(ctx, first, dec("50"))
		require.NoError(t, err)
		assert.Nil(t, commit.Previous)
		assert.True(t, commit.Auction.CurrentPrice.Equal(dec("55")))

		stale := model.Bid{ID: uuid.New(), AuctionID: a.ID, BidderID: uuid.New(), Amount: dec("60"), CreatedAt: at}
		_, err = s.CommitBid(ctx, stale, dec("50"))
		assert.ErrorIs(t, err, ErrPriceChanged)

		second := model.Bid{ID: uuid.New(), AuctionID: a.ID, BidderID: uuid.New(), Amount: dec("60"), CreatedAt: at.Add(time.Second)}
		commit, err = s.CommitBid(ctx, second, dec("55"))
		require.NoError(t, err)
		require.NotNil(t, commit.Previous)
		assert.Equal(t, first.ID, commit.Previous.ID)

		bids, err := s.ListBids(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, bids, 2)
		assert.Equal(t, second.ID, bids[0].ID)

		top, err := s.TopBid(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, top.ID)
	})

	t.Run("commit bid rejects once past ends_at", func(t *testing.T) {
		s := newStore(t)
		a := newAuction(t, s, 0)
		late := model.Bid{ID: uuid.New(), AuctionID: a.ID, BidderID: uuid.New(), Amount: dec("55"), CreatedAt: a.EndsAt.Add(time.Second)}

		_, err := s.CommitBid(context.Background(), late, dec("50"))
		assert.ErrorIs(t, err, ErrPriceChanged)

		_, err = s.TopBid(context.Background(), a.ID)
		assert.ErrorIs(t, err, ErrNoBids)
	})

	t.Run("commit bid refuses amounts the price column would round", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := newAuction(t, s, 0)

		odd := model.Bid{ID: uuid.New(), AuctionID: a.ID, BidderID: uuid.New(), Amount: dec("55.005"), CreatedAt: epoch.Add(time.Minute)}
		_, err := s.CommitBid(ctx, odd, dec("50"))
		assert.ErrorIs(t, err, ErrPriceMismatch)

		got, err := s.GetAuction(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, got.CurrentPrice.Equal(dec("50")), "price moved to %s", got.CurrentPrice)
		_, err = s.TopBid(ctx, a.ID)
		assert.ErrorIs(t, err, ErrNoBids)
	})

	t.Run("counter offers", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := newAuction(t, s, 0)
		buyer := uuid.New()
		offer := model.CounterOffer{
			ID: uuid.New(), AuctionID: a.ID, SellerID: a.SellerID, BuyerID: buyer,
			Amount: dec("70"), Status: model.CounterPending, CreatedAt: epoch, UpdatedAt: epoch,
		}
		assert.ErrorIs(t, s.CreateCounterOffer(ctx, offer), ErrNotEnded)

		ended, err := s.ExpireDue(ctx, a.EndsAt.Add(time.Second))
		require.NoError(t, err)
		require.Len(t, ended, 1)
		require.NoError(t, s.CreateCounterOffer(ctx, offer))

		second := offer
		second.ID = uuid.New()
		assert.ErrorIs(t, s.CreateCounterOffer(ctx, second), ErrDuplicate)

		closed, err := s.CloseAuction(ctx, a.ID, model.ReasonAccepted, epoch.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrPendingCounter)
		assert.False(t, closed)
		got, err := s.GetAuction(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusEnded, got.Status)

		resolved, err := s.ResolveCounterAndClose(ctx, offer.ID, model.CounterAccepted, model.ReasonCounterAccepted, epoch.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, model.CounterAccepted, resolved.Status)

		got, err = s.GetAuction(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusClosed, got.Status)
		require.NotNil(t, got.ClosedReason)
		assert.Equal(t, model.ReasonCounterAccepted, *got.ClosedReason)

		_, err = s.ResolveCounterAndClose(ctx, offer.ID, model.CounterRejected, model.ReasonCounterRejected, epoch.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrAlreadyResolved)
		_, err = s.ResolveCounterAndClose(ctx, uuid.New(), model.CounterRejected, model.ReasonCounterRejected, epoch.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.CreateCounterOffer(ctx, second), ErrNotEnded)

		asBuyer, err := s.ListCounterOffers(ctx, buyer, model.RoleBuyer)
		require.NoError(t, err)
		assert.Len(t, asBuyer, 1)

		asSeller, err := s.ListCounterOffers(ctx, buyer, model.RoleSeller)
		require.NoError(t, err)
		assert.Empty(t, asSeller)

		both, err := s.ListCounterOffers(ctx, a.SellerID, model.RoleBoth)
		require.NoError(t, err)
		assert.Len(t, both, 1)
	})

	t.Run("rejecting a counter closes the auction", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := newAuction(t, s, 0)
		_, err := s.ExpireDue(ctx, a.EndsAt.Add(time.Second))
		require.NoError(t, err)
		offer := model.CounterOffer{
			ID: uuid.New(), AuctionID: a.ID, SellerID: a.SellerID, BuyerID: uuid.New(),
			Amount: dec("70"), Status: model.CounterPending, CreatedAt: epoch, UpdatedAt: epoch,
		}
		require.NoError(t, s.CreateCounterOffer(ctx, offer))

		_, err = s.ResolveCounterAndClose(ctx, offer.ID, model.CounterRejected, model.ReasonCounterRejected, epoch.Add(2*time.Hour))
		require.NoError(t, err)
		got, err := s.GetAuction(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusClosed, got.Status)
		assert.Equal(t, model.ReasonCounterRejected, *got.ClosedReason)
	})

	t.Run("notifications", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := uuid.New()
		var last model.Notification
		for i := 0; i < 3; i++ {
			last = model.Notification{
				ID: uuid.New(), UserID: user, Type: model.NotificationNewBid,
				Payload:   map[string]any{"amount": "55.00"},
				CreatedAt: epoch.Add(time.Duration(i) * time.Second),
			}
			require.NoError(t, s.CreateNotification(ctx, last))
		}

		list, err := s.ListNotifications(ctx, user, 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, last.ID, list[0].ID)
		assert.Equal(t, "55.00", list[0].Payload["amount"])

		assert.ErrorIs(t, s.MarkNotificationRead(ctx, last.ID, uuid.New()), ErrNotFound)
		require.NoError(t, s.MarkNotificationRead(ctx, last.ID, user))

		list, err = s.ListNotifications(ctx, user, 1)
		require.NoError(t, err)
		assert.True(t, list[0].Read)
	})

	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		name := "user-" + uuid.NewString()[:8]
		u := model.User{ID: uuid.New(), Email: name + "@example.com", Username: name, Password: "hash", CreatedAt: epoch}
		require.NoError(t, s.CreateUser(ctx, u))

		dup := u
		dup.ID = uuid.New()
		assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrDuplicate)

		got, err := s.GetUserByUsername(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = s.GetUserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
