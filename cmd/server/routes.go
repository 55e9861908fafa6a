package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/itsDrac/e-auc-live/internal/cache"
	"github.com/itsDrac/e-auc-live/internal/handlers"
	authmw "github.com/itsDrac/e-auc-live/internal/middleware"
)

func (s *Server) routes() *chi.Mux {
	mux := chi.NewMux()
	deps := s.Dependencies

	// global middlewares
	mux.Use(middleware.RequestID)
	mux.Use(s.LoggerMiddleware())
	mux.Use(middleware.Recoverer)

	requireAuth := authmw.AuthMiddleware(deps.Services.AuthService)

	mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthCheck(deps.Cache))
		r.Handle("/ws", deps.Hub)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", deps.UserHandler.RegisterUser)
			ar.Post("/login", deps.UserHandler.LoginUser)
			ar.Post("/refresh", deps.UserHandler.RefreshToken)
			ar.Post("/logout", deps.UserHandler.LogoutUser)
		})

		r.With(requireAuth).Get("/users/me", deps.UserHandler.Profile)

		r.Route("/auctions", func(ar chi.Router) {
			ar.Get("/", deps.AuctionHandler.ListAuctions)
			ar.Get("/{auctionId}", deps.AuctionHandler.GetAuctionByID)
			ar.Get("/{auctionId}/images", deps.AuctionHandler.GetAuctionImageUrls)

			ar.Group(func(pr chi.Router) {
				pr.Use(requireAuth)
				pr.Post("/", deps.AuctionHandler.CreateAuction)
				pr.Post("/images", deps.AuctionHandler.UploadImages)
				pr.Post("/{auctionId}/bids", deps.BidHandler.PlaceBid)
				pr.Get("/{auctionId}/bids", deps.BidHandler.ListBids)
				pr.Post("/{auctionId}/decision", deps.NegotiationHandler.Decide)
				pr.Post("/{auctionId}/counter-offers", deps.NegotiationHandler.CreateCounterOffer)
			})
		})

		r.Route("/counter-offers", func(cr chi.Router) {
			cr.Use(requireAuth)
			cr.Get("/", deps.NegotiationHandler.ListCounterOffers)
			cr.Post("/{counterId}/respond", deps.NegotiationHandler.RespondCounterOffer)
		})

		r.Route("/notifications", func(nr chi.Router) {
			nr.Use(requireAuth)
			nr.Get("/", deps.NotificationHandler.ListNotifications)
			nr.Patch("/{notificationId}/read", deps.NotificationHandler.MarkRead)
		})
	})

	return mux
}

func healthCheck(c cache.Cacher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.Ping(r.Context()); err != nil {
			slog.Warn("[Health] cache ping failed", "error", err.Error())
			handlers.RespondErrorJSON(w, r, http.StatusServiceUnavailable, handlers.ErrUnavailable.Error(), "cache unreachable", nil)
			return
		}
		resp := map[string]any{
			"message": "ok",
			"time":    time.Now().Format(time.RFC3339),
		}
		handlers.RespondSuccessJSON(w, r, http.StatusOK, "healthy", resp)
	}
}
