package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/cache"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/realtime"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/internal/storage"
	"github.com/itsDrac/e-auc-live/pkg/logger"
)

type AuctionServicer interface {
	CreateAuction(ctx context.Context, sellerID uuid.UUID, req model.CreateAuctionRequest) (model.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (model.Auction, error)
	ListAuctions(ctx context.Context, status model.AuctionStatus) ([]model.Auction, error)
	UploadImage(ctx context.Context, filename string, data []byte, contentType string) (string, error)
	GetImageURLs(ctx context.Context, auctionID uuid.UUID) ([]string, error)
}

type AuctionService struct {
	auctions repository.AuctionRepository
	storage  storage.Storager
	cache    cache.Cacher
	channel  realtime.Channel
	log      *logger.Logger
	now      func() time.Time
}

func NewAuctionService(auctions repository.AuctionRepository, s storage.Storager, c cache.Cacher, channel realtime.Channel, log *logger.Logger) *AuctionService {
	return &AuctionService{
		auctions: auctions,
		storage:  s,
		cache:    c,
		channel:  channel,
		log:      log.Named("auctions"),
		now:      time.Now,
	}
}

// CreateAuction inserts the listing and announces it. A go-live time that
// has already passed makes the auction live immediately.
func (as *AuctionService) CreateAuction(ctx context.Context, sellerID uuid.UUID, req model.CreateAuctionRequest) (model.Auction, error) {
	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return model.Auction{}, validationErr(ErrInvalidAuction, "title is required")
	case req.StartingPrice.IsNegative():
		return model.Auction{}, validationErr(ErrInvalidAuction, "starting price must not be negative")
	case !req.BidIncrement.IsPositive():
		return model.Auction{}, validationErr(ErrInvalidAuction, "bid increment must be greater than zero")
	case !model.ValidMoney(req.StartingPrice) || !model.ValidMoney(req.BidIncrement):
		return model.Auction{}, validationErr(ErrInvalidAuction, "prices must have at most 2 decimal places")
	case req.GoLiveAt.IsZero():
		return model.Auction{}, validationErr(ErrInvalidAuction, "go live time is required")
	case req.DurationMinutes <= 0:
		return model.Auction{}, validationErr(ErrInvalidAuction, "duration must be greater than zero")
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	a := model.NewAuction(sellerID, title, req.Description, req.StartingPrice, req.BidIncrement, req.GoLiveAt, duration, as.now().UTC())
	if len(req.Images) > 0 {
		a.ImageKeys = append([]string(nil), req.Images...)
	}

	if err := as.auctions.CreateAuction(ctx, a); err != nil {
		return model.Auction{}, unavailable("create auction", err)
	}

	for _, key := range a.ImageKeys {
		if err := as.cache.RemoveImageNameFromTempList(ctx, key); err != nil {
			as.log.Warnw("failed to untrack attached image", "key", key, "error", err)
		}
	}

	as.channel.Publish(realtime.Message{
		Type:      realtime.TypeAuctionCreated,
		AuctionID: a.ID.String(),
		Auction:   a,
		TS:        a.CreatedAt,
	})
	return a, nil
}

func (as *AuctionService) GetAuction(ctx context.Context, id uuid.UUID) (model.Auction, error) {
	return loadAuction(ctx, as.auctions, id)
}

// ListAuctions returns every auction, or only those in status when given.
func (as *AuctionService) ListAuctions(ctx context.Context, status model.AuctionStatus) ([]model.Auction, error) {
	if status != "" && !status.Valid() {
		return nil, validationErr(ErrInvalidAuction, "unknown auction status")
	}
	list, err := as.auctions.ListAuctions(ctx)
	if err != nil {
		return nil, unavailable("list auctions", err)
	}
	if status == "" {
		return list, nil
	}
	out := make([]model.Auction, 0, len(list))
	for _, a := range list {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

// UploadImage stores an image and tracks it as unattached until an auction
// references it.
func (as *AuctionService) UploadImage(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	key := "auctions/" + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	key, err := as.storage.SaveImage(ctx, key, data, contentType)
	if errors.Is(err, storage.ErrStorageDisabled) {
		return "", newError(KindUnavailable, err, "image storage is not configured")
	}
	if err != nil {
		return "", unavailable("save image", err)
	}
	if err := as.cache.AddImageNameToTempList(ctx, key); err != nil {
		as.log.Warnw("failed to track uploaded image", "key", key, "error", err)
	}
	return key, nil
}

func (as *AuctionService) GetImageURLs(ctx context.Context, auctionID uuid.UUID) ([]string, error) {
	a, err := loadAuction(ctx, as.auctions, auctionID)
	if err != nil {
		return nil, err
	}
	if len(a.ImageKeys) == 0 {
		return nil, notFound(ErrImagesNotFound)
	}
	urls := make([]string, 0, len(a.ImageKeys))
	for _, key := range a.ImageKeys {
		url, err := as.storage.GetFileUrl(ctx, key)
		if errors.Is(err, storage.ErrStorageDisabled) {
			return nil, newError(KindUnavailable, err, "image storage is not configured")
		}
		if err != nil {
			return nil, unavailable("presign image", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}
