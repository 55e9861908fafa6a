package service

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/pkg/jwt"
	"github.com/itsDrac/e-auc-live/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache is an in-process Cacher without expiry.
type mapCache struct {
	mu     sync.Mutex
	values map[string]string
	images []string
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string]string{}}
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, val string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = val
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error               { return nil }

func (c *mapCache) AddImageNameToTempList(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, name)
	return nil
}

func (c *mapCache) RemoveImageNameFromTempList(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = slices.DeleteFunc(c.images, func(s string) bool { return s == name })
	return nil
}

func (c *mapCache) tempImages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.images)
}

func newAuthService(t *testing.T) (*AuthService, *repository.MemoryStore) {
	t.Helper()
	jm, err := jwt.NewJwtManager("access-secret", "refresh-secret")
	require.NoError(t, err)
	store := repository.NewMemoryStore()
	return NewAuthService(store, newMapCache(), jm, logger.NewNop()), store
}

func register(t *testing.T, as *AuthService) uuid.UUID {
	t.Helper()
	id, err := as.Register(context.Background(), model.CreateUserRequest{
		Email:    "Seller@Example.com",
		Username: "seller",
		Password: "password123",
	})
	require.NoError(t, err)
	return id
}

func TestRegisterAndLogin(t *testing.T) {
	as, store := newAuthService(t)
	ctx := context.Background()

	id := register(t, as)
	user, err := store.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", user.Email)
	assert.NotEqual(t, "password123", user.Password)

	_, err = as.Register(ctx, model.CreateUserRequest{Email: "other@example.com", Username: "seller", Password: "password123"})
	requireKind(t, err, KindConflict)

	tokens, err := as.Login(ctx, "seller", "password123")
	require.NoError(t, err)
	claims, err := as.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	_, err = as.Login(ctx, "seller", "wrong-password")
	requireKind(t, err, KindAuthentication)

	_, err = as.Login(ctx, "nobody", "password123")
	requireKind(t, err, KindAuthentication)
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	as, _ := newAuthService(t)
	ctx := context.Background()
	id := register(t, as)

	tokens, err := as.Login(ctx, "seller", "password123")
	require.NoError(t, err)

	rotated, err := as.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	claims, err := as.ValidateAccessToken(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	_, err = as.Refresh(ctx, tokens.RefreshToken)
	requireKind(t, err, KindAuthentication)

	_, err = as.Refresh(ctx, "not-a-token")
	requireKind(t, err, KindAuthentication)
}

func TestLogoutRevokesTokens(t *testing.T) {
	as, _ := newAuthService(t)
	ctx := context.Background()
	register(t, as)

	tokens, err := as.Login(ctx, "seller", "password123")
	require.NoError(t, err)

	require.NoError(t, as.Logout(ctx, tokens.AccessToken, tokens.RefreshToken))

	_, err = as.ValidateAccessToken(tokens.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrTokenRevoked)

	_, err = as.Refresh(ctx, tokens.RefreshToken)
	requireKind(t, err, KindAuthentication)

	err = as.Logout(ctx, tokens.AccessToken, "")
	requireKind(t, err, KindAuthentication)
}

func TestGetUser(t *testing.T) {
	as, store := newAuthService(t)
	id := register(t, as)
	us := NewUserService(store)

	user, err := us.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "seller", user.Username)

	_, err = us.GetUser(context.Background(), uuid.New())
	requireKind(t, err, KindNotFound)
}
