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
)

const counterColumns = `id, auction_id, seller_id, buyer_id, amount, status, created_at, updated_at`

func scanCounter(row pgx.Row) (model.CounterOffer, error) {
	var (
		c      model.CounterOffer
		status string
	)
	err := row.Scan(&c.ID, &c.AuctionID, &c.SellerID, &c.BuyerID, &c.Amount, &status, &c.CreatedAt, &c.UpdatedAt)
	c.Status = model.CounterStatus(status)
	return c, err
}

func (s *PostgresStore) CreateCounterOffer(ctx context.Context, c model.CounterOffer) error {
	const q = `
		INSERT INTO counter_offers (` + counterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	return s.db.RunTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		status, err := lockAuctionStatus(ctx, tx, c.AuctionID)
		if err != nil {
			return err
		}
		if status != model.StatusEnded {
			return fmt.Errorf("create counter offer on %s: %w", c.AuctionID, ErrNotEnded)
		}

		_, err = tx.Exec(ctx, q, c.ID, c.AuctionID, c.SellerID, c.BuyerID, c.Amount, string(c.Status), c.CreatedAt, c.UpdatedAt)
		if isUniqueViolation(err) {
			// counter_offers_one_pending_idx
			return fmt.Errorf("create counter offer on %s: %w", c.AuctionID, ErrDuplicate)
		}
		return err
	})
}

func (s *PostgresStore) GetCounterOffer(ctx context.Context, id uuid.UUID) (model.CounterOffer, error) {
	const q = `SELECT ` + counterColumns + ` FROM counter_offers WHERE id = $1;`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	c, err := scanCounter(s.db.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CounterOffer{}, fmt.Errorf("get counter offer %s: %w", id, ErrNotFound)
	}
	return c, err
}

// ResolveCounterAndClose locks the parent auction before the offer, in the
// same order CloseAuction and CreateCounterOffer use.
func (s *PostgresStore) ResolveCounterAndClose(ctx context.Context, id uuid.UUID, status model.CounterStatus, reason model.CloseReason, now time.Time) (model.CounterOffer, error) {
	const auctionQ = `SELECT auction_id FROM counter_offers WHERE id = $1;`
	const resolveQ = `
		UPDATE counter_offers SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + counterColumns + `;`

	var c model.CounterOffer
	err := s.db.RunTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var auctionID uuid.UUID
		err := tx.QueryRow(ctx, auctionQ, id).Scan(&auctionID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("resolve counter offer %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}

		auctionStatus, err := lockAuctionStatus(ctx, tx, auctionID)
		if err != nil {
			return err
		}

		c, err = scanCounter(tx.QueryRow(ctx, resolveQ, id, string(status), now))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("resolve counter offer %s: %w", id, ErrAlreadyResolved)
		}
		if err != nil {
			return err
		}
		if auctionStatus != model.StatusEnded {
			return fmt.Errorf("resolve counter offer %s: %w", id, ErrNotEnded)
		}
		return closeAuction(ctx, tx, auctionID, reason, now)
	})
	if err != nil {
		return model.CounterOffer{}, err
	}
	return c, nil
}

func (s *PostgresStore) ListCounterOffers(ctx context.Context, userID uuid.UUID, role model.CounterRole) ([]model.CounterOffer, error) {
	var where string
	switch role {
	case model.RoleBuyer:
		where = `buyer_id = $1`
	case model.RoleSeller:
		where = `seller_id = $1`
	default:
		where = `(buyer_id = $1 OR seller_id = $1)`
	}
	q := `SELECT ` + counterColumns + ` FROM counter_offers WHERE ` + where + ` ORDER BY created_at DESC;`

	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CounterOffer{}
	for rows.Next() {
		c, err := scanCounter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n model.Notification) error {
	const q = `
		INSERT INTO notifications (id, user_id, type, payload, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	payload := n.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	_, err := s.db.Pool.Exec(ctx, q, n.ID, n.UserID, n.Type, payload, n.Read, n.CreatedAt)
	return err
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	const q = `
		SELECT id, user_id, type, payload, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2;`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Payload, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	const q = `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2;`
	ctx, cancel := db.WithTimeout(ctx)
	defer cancel()

	tag, err := s.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark notification %s read: %w", id, ErrNotFound)
	}
	return nil
}
