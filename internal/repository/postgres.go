package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/db"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// PostgresStore implements Store on top of a pgx pool.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(d *db.DB) *PostgresStore {
	return &PostgresStore{db: d}
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

const auctionColumns = `
	id, seller_id, title, description, image_keys, starting_price, current_price,
	bid_increment, go_live_at, ends_at, status, closed_reason, created_at, updated_at`

func scanAuction(row pgx.Row) (model.Auction, error) {
	var (
		a      model.Auction
		status string
		reason *string
	)
	err := row.Scan(
		&a.ID,
		&a.SellerID,
		&a.Title,
		&a.Description,
		&a.ImageKeys,
		&a.StartingPrice,
		&a.CurrentPrice,
		&a.BidIncrement,
		&a.GoLiveAt,
		&a.EndsAt,
		&status,
		&reason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return model.Auction{}, err
	}
	a.Status = model.AuctionStatus(status)
	if reason != nil {
		r := model.CloseReason(*reason)
		a.ClosedReason = &r
	}
	if a.ImageKeys == nil {
		a.ImageKeys = []string{}
	}
	return a, nil
}

func collectAuctions(rows pgx.Rows) ([]model.Auction, error) {
	defer rows.Close()

	out := []model.Auction{}
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateAuction(ctx context.Context, a model.Auction) error {
	const q = `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	_, err := s.db.Pool.Exec(ctx, q,
		a.ID, a.SellerID, a.Title, a.Description, a.ImageKeys, a.StartingPrice, a.CurrentPrice,
		a.BidIncrement, a.GoLiveAt, a.EndsAt, string(a.Status), a.ClosedReason, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("create auction %s: %w", a.ID, ErrDuplicate)
	}
	return err
}

func (s *PostgresStore) GetAuction(ctx context.Context, id uuid.UUID) (model.Auction, error) {
	const q = `SELECT` + auctionColumns + ` FROM auctions WHERE id = $1;`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	a, err := scanAuction(s.db.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (s *PostgresStore) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	const q = `SELECT` + auctionColumns + ` FROM auctions ORDER BY created_at DESC;`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectAuctions(rows)
}

// PromoteDue and ExpireDue are single UPDATE ... RETURNING statements, so a
// row is transitioned and reported by at most one sweep.
func (s *PostgresStore) PromoteDue(ctx context.Context, now time.Time) ([]model.Auction, error) {
	const q = `
		UPDATE auctions SET status = 'live', updated_at = $1
		WHERE status = 'scheduled' AND go_live_at <= $1
		RETURNING` + auctionColumns + `;`
	return s.transition(ctx, q, now)
}

func (s *PostgresStore) ExpireDue(ctx context.Context, now time.Time) ([]model.Auction, error) {
	const q = `
		UPDATE auctions SET status = 'ended', updated_at = $1
		WHERE status = 'live' AND ends_at < $1
		RETURNING` + auctionColumns + `;`
	return s.transition(ctx, q, now)
}

func (s *PostgresStore) transition(ctx context.Context, q string, now time.Time) ([]model.Auction, error) {
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.Pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	return collectAuctions(rows)
}

// CloseAuction locks the auction row first, so counter offers created or
// resolved concurrently are serialised against the close.
func (s *PostgresStore) CloseAuction(ctx context.Context, id uuid.UUID, reason model.CloseReason, now time.Time) (bool, error) {
	const pendingQ = `
		SELECT EXISTS (
			SELECT 1 FROM counter_offers WHERE auction_id = $1 AND status = 'pending'
		);`

	var closed bool
	err := s.db.RunTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		status, err := lockAuctionStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if status != model.StatusEnded {
			return nil
		}

		var pending bool
		if err := tx.QueryRow(ctx, pendingQ, id).Scan(&pending); err != nil {
			return err
		}
		if pending {
			return fmt.Errorf("close auction %s: %w", id, ErrPendingCounter)
		}

		if err := closeAuction(ctx, tx, id, reason, now); err != nil {
			return err
		}
		closed = true
		return nil
	})
	return closed, err
}

// lockAuctionStatus takes the auction row lock for the rest of tx.
func lockAuctionStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID) (model.AuctionStatus, error) {
	const q = `SELECT status FROM auctions WHERE id = $1 FOR UPDATE;`

	var status string
	err := tx.QueryRow(ctx, q, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("lock auction %s: %w", id, ErrNotFound)
	}
	return model.AuctionStatus(status), err
}

func closeAuction(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason model.CloseReason, now time.Time) error {
	const q = `
		UPDATE auctions SET status = 'closed', closed_reason = $2, updated_at = $3
		WHERE id = $1;`
	_, err := tx.Exec(ctx, q, id, string(reason), now)
	return err
}

// CommitBid performs the conditional price update and the bid insert in one
// transaction. The UPDATE takes the row lock, so the previous top bid read
// afterwards cannot change underneath us.
func (s *PostgresStore) CommitBid(ctx context.Context, bid model.Bid, expectedPrice decimal.Decimal) (BidCommit, error) {
	const updateQ = `
		UPDATE auctions SET current_price = $2, updated_at = $3
		WHERE id = $1 AND current_price = $4 AND status = 'live' AND ends_at >= $3
		RETURNING` + auctionColumns + `;`
	const topQ = `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids WHERE auction_id = $1
		ORDER BY amount DESC, created_at DESC
		LIMIT 1;`
	const insertQ = `
		INSERT INTO bids (id, auction_id, bidder_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5);`

	var commit BidCommit
	err := s.db.RunTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		a, err := scanAuction(tx.QueryRow(ctx, updateQ, bid.AuctionID, bid.Amount, bid.CreatedAt, expectedPrice))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("commit bid on %s: %w", bid.AuctionID, ErrPriceChanged)
		}
		if err != nil {
			return err
		}
		// NUMERIC(14,2) rounds; a rounded price must not be committed
		if !a.CurrentPrice.Equal(bid.Amount) {
			return fmt.Errorf("commit bid on %s: stored %s for %s: %w",
				bid.AuctionID, a.CurrentPrice, bid.Amount, ErrPriceMismatch)
		}
		commit.Auction = a

		prev, err := scanBid(tx.QueryRow(ctx, topQ, bid.AuctionID))
		switch {
		case err == nil:
			commit.Previous = &prev
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		_, err = tx.Exec(ctx, insertQ, bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, bid.CreatedAt)
		return err
	})
	if err != nil {
		return BidCommit{}, err
	}
	return commit, nil
}

func scanBid(row pgx.Row) (model.Bid, error) {
	var b model.Bid
	err := row.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.CreatedAt)
	return b, err
}

func (s *PostgresStore) ListBids(ctx context.Context, auctionID uuid.UUID) ([]model.Bid, error) {
	const q = `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids WHERE auction_id = $1
		ORDER BY amount DESC, created_at DESC;`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.Pool.Query(ctx, q, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (s *PostgresStore) TopBid(ctx context.Context, auctionID uuid.UUID) (model.Bid, error) {
	const q = `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids WHERE auction_id = $1
		ORDER BY amount DESC, created_at DESC
		LIMIT 1;`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	b, err := scanBid(s.db.Pool.QueryRow(ctx, q, auctionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("top bid for auction %s: %w", auctionID, ErrNoBids)
	}
	return b, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
