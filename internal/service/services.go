package service

import (
	"github.com/itsDrac/e-auc-live/internal/cache"
	"github.com/itsDrac/e-auc-live/internal/outbound"
	"github.com/itsDrac/e-auc-live/internal/realtime"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/internal/storage"
	"github.com/itsDrac/e-auc-live/pkg/jwt"
	"github.com/itsDrac/e-auc-live/pkg/logger"
)

type Services struct {
	UserService         UserServicer
	AuthService         AuthServicer
	AuctionService      AuctionServicer
	BidService          BidServicer
	NegotiationService  NegotiationServicer
	NotificationService NotificationServicer
}

// Collaborators are the infrastructure pieces every service is built from.
// Optional ones hold their no-op implementation when unconfigured.
type Collaborators struct {
	Store    repository.Store
	Cache    cache.Cacher
	Locker   cache.Locker
	Storage  storage.Storager
	Channel  realtime.Channel
	Outbound outbound.Notifier
	JWT      *jwt.JwtManager
	Log      *logger.Logger
}

type Options struct {
	Bid               BidOptions
	NotificationLimit int
}

func NewServices(c Collaborators, opts Options) *Services {
	notifications := NewNotificationService(c.Store, c.Channel, c.Log, opts.NotificationLimit)

	return &Services{
		UserService:         NewUserService(c.Store),
		AuthService:         NewAuthService(c.Store, c.Cache, c.JWT, c.Log),
		AuctionService:      NewAuctionService(c.Store, c.Storage, c.Cache, c.Channel, c.Log),
		BidService:          NewBidService(c.Store, c.Locker, notifications, c.Channel, c.Log, opts.Bid),
		NegotiationService:  NewNegotiationService(c.Store, notifications, c.Channel, c.Outbound, c.Log),
		NotificationService: notifications,
	}
}
