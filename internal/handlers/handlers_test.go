package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itsDrac/e-auc-live/internal/cache"
	"github.com/itsDrac/e-auc-live/internal/handlers"
	"github.com/itsDrac/e-auc-live/internal/middleware"
	"github.com/itsDrac/e-auc-live/internal/outbound"
	"github.com/itsDrac/e-auc-live/internal/realtime"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/internal/service"
	"github.com/itsDrac/e-auc-live/internal/storage"
	"github.com/itsDrac/e-auc-live/pkg/jwt"
	"github.com/itsDrac/e-auc-live/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopChannel struct{}

func (nopChannel) Publish(realtime.Message) {}

type testEnv struct {
	router http.Handler
	store  *repository.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	jm, err := jwt.NewJwtManager("access-secret", "refresh-secret")
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	svcs := service.NewServices(service.Collaborators{
		Store:    store,
		Cache:    cache.NoopCache{},
		Locker:   cache.NoopLocker{},
		Storage:  storage.DisabledStorage{},
		Channel:  nopChannel{},
		Outbound: outbound.NoopNotifier{},
		JWT:      jm,
		Log:      logger.NewNop(),
	}, service.Options{
		Bid:               service.BidOptions{LockTTL: time.Second},
		NotificationLimit: 50,
	})

	users, _ := handlers.NewUserHandler(svcs.UserService, svcs.AuthService, true)
	auctions, _ := handlers.NewAuctionHandler(svcs.AuctionService, true)
	bids, _ := handlers.NewBidHandler(svcs.BidService, true)
	negotiation, _ := handlers.NewNegotiationHandler(svcs.NegotiationService, true)
	notifications, _ := handlers.NewNotificationHandler(svcs.NotificationService, true)

	requireAuth := middleware.AuthMiddleware(svcs.AuthService)
	mux := chi.NewMux()
	mux.Post("/auth/register", users.RegisterUser)
	mux.Post("/auth/login", users.LoginUser)
	mux.Post("/auth/logout", users.LogoutUser)
	mux.Get("/auctions/{auctionId}", auctions.GetAuctionByID)
	mux.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/users/me", users.Profile)
		r.Post("/auctions", auctions.CreateAuction)
		r.Post("/auctions/{auctionId}/bids", bids.PlaceBid)
		r.Get("/auctions/{auctionId}/bids", bids.ListBids)
		r.Post("/auctions/{auctionId}/decision", negotiation.Decide)
		r.Get("/counter-offers", negotiation.ListCounterOffers)
		r.Get("/notifications", notifications.ListNotifications)
	})

	return &testEnv{router: mux, store: store}
}

type envelope struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
	Error  *struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		MinimumBid string `json:"minimum_bid"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w.Code, resp
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	code, _ := e.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    username + "@example.com",
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, code)

	code, resp := e.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, code)
	return resp.Data["access_token"].(string)
}

func (e *testEnv) createAuction(t *testing.T, token string) string {
	t.Helper()
	code, resp := e.do(t, http.MethodPost, "/auctions", token, map[string]any{
		"title":            "Vintage camera",
		"starting_price":   50,
		"bid_increment":    5,
		"go_live_at":       time.Now().UTC().Format(time.RFC3339),
		"duration_minutes": 60,
	})
	require.Equal(t, http.StatusCreated, code, "%+v", resp.Error)
	auction := resp.Data["auction"].(map[string]any)
	assert.Equal(t, "live", auction["status"])
	return auction["id"].(string)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "alice")

	code, resp := env.do(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", resp.Data["username"])
	assert.NotContains(t, resp.Data, "password")

	code, resp = env.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"email": "alice@example.com", "username": "alice", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, handlers.ErrUserExists.Error(), resp.Error.Code)

	code, resp = env.do(t, http.MethodPost, "/auth/login", "", map[string]any{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, handlers.ErrAuthFailed.Error(), resp.Error.Code)

	code, _ = env.do(t, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = env.do(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, handlers.ErrToken.Error(), resp.Error.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/auctions", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, handlers.ErrMissingToken.Error(), resp.Error.Code)

	code, resp = env.do(t, http.MethodGet, "/notifications", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, handlers.ErrToken.Error(), resp.Error.Code)
}

func TestPlaceBidResponses(t *testing.T) {
	env := newTestEnv(t)
	seller := env.login(t, "seller")
	buyer := env.login(t, "buyer")
	auctionID := env.createAuction(t, seller)
	bidsPath := fmt.Sprintf("/auctions/%s/bids", auctionID)

	code, resp := env.do(t, http.MethodPost, bidsPath, buyer, map[string]any{"amount": 55})
	require.Equal(t, http.StatusCreated, code, "%+v", resp.Error)
	assert.Equal(t, "55", resp.Data["bid"].(map[string]any)["amount"])

	code, resp = env.do(t, http.MethodPost, bidsPath, buyer, map[string]any{"amount": 56})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, handlers.ErrBidLow.Error(), resp.Error.Code)
	assert.Equal(t, "Minimum bid is 60.00", resp.Error.Message)
	assert.Equal(t, "60.00", resp.Error.MinimumBid)

	code, resp = env.do(t, http.MethodPost, bidsPath, seller, map[string]any{"amount": 100})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, handlers.ErrSelfBidding.Error(), resp.Error.Code)
	assert.Equal(t, "sellers cannot bid on their own auction", resp.Error.Message)

	code, resp = env.do(t, http.MethodPost, bidsPath, buyer, map[string]any{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, handlers.ErrInvalidRequest.Error(), resp.Error.Code)

	code, resp = env.do(t, http.MethodPost, bidsPath, buyer, map[string]any{"amount": 60.555})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, handlers.ErrInvalidRequest.Error(), resp.Error.Code)

	code, resp = env.do(t, http.MethodGet, "/auctions/"+auctionID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "55", resp.Data["auction"].(map[string]any)["current_price"])

	code, resp = env.do(t, http.MethodGet, bidsPath, buyer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = env.do(t, http.MethodGet, bidsPath, seller, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data["bids"], 1)

	code, resp = env.do(t, http.MethodGet, "/notifications", seller, nil)
	require.Equal(t, http.StatusOK, code)
	notes := resp.Data["notifications"].([]any)
	require.Len(t, notes, 1)
	assert.Equal(t, "new_bid", notes[0].(map[string]any)["type"])
}

func TestDecisionBeforeEnd(t *testing.T) {
	env := newTestEnv(t)
	seller := env.login(t, "seller")
	auctionID := env.createAuction(t, seller)

	code, resp := env.do(t, http.MethodPost, "/auctions/"+auctionID+"/decision", seller, map[string]any{"decision": "accept"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, handlers.ErrAuctionNotEnded.Error(), resp.Error.Code)

	code, resp = env.do(t, http.MethodPost, "/auctions/"+auctionID+"/decision", seller, map[string]any{"decision": "maybe"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, handlers.ErrInvalidRequest.Error(), resp.Error.Code)
}

func TestPathAndQueryValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "carol")

	code, resp := env.do(t, http.MethodGet, "/auctions/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, handlers.ErrInvalidParam.Error(), resp.Error.Code)

	code, resp = env.do(t, http.MethodGet, "/auctions/7b0c6c8e-7c1b-4c55-9d59-4a3f3c1d2e10", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, handlers.ErrAuctionNotFound.Error(), resp.Error.Code)

	code, _ = env.do(t, http.MethodGet, "/counter-offers?role=owner", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRespondServiceErrorHidesCauseInProduction(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.7:5432: connection refused")
	svcErr := &service.Error{Kind: service.KindUnavailable, Message: "service temporarily unavailable", Err: cause}

	for _, debug := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodGet, "/auctions", nil)
		w := httptest.NewRecorder()
		handlers.RespondServiceError(w, req, svcErr, debug)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		if debug {
			assert.Contains(t, w.Body.String(), "connection refused")
		} else {
			assert.NotContains(t, w.Body.String(), "connection refused")
		}
	}
}
