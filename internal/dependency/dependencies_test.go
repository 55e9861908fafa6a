package dependency

import (
	"context"
	"testing"
	"time"

	"github.com/itsDrac/e-auc-live/internal/cache"
	"github.com/itsDrac/e-auc-live/internal/outbound"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/internal/storage"
	"github.com/itsDrac/e-auc-live/pkg/config"
	"github.com/itsDrac/e-auc-live/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.Config {
	return config.Config{
		Env:               "test",
		AccessSecret:      "access-secret",
		RefreshSecret:     "refresh-secret",
		SweepInterval:     time.Second,
		BidLockTTL:        time.Second,
		NotificationLimit: 50,
	}
}

func TestNewDependenciesFallsBackWithoutBackends(t *testing.T) {
	deps, err := NewDependencies(context.Background(), baseConfig(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	assert.IsType(t, &repository.MemoryStore{}, deps.Store)
	assert.IsType(t, cache.NoopCache{}, deps.Cache)
	assert.IsType(t, storage.DisabledStorage{}, deps.Storage)
	assert.IsType(t, outbound.NoopNotifier{}, deps.Outbound)

	assert.NotNil(t, deps.Services)
	assert.NotNil(t, deps.Scheduler)
	assert.NotNil(t, deps.UserHandler)
	assert.NotNil(t, deps.AuctionHandler)
	assert.NotNil(t, deps.BidHandler)
	assert.NotNil(t, deps.NegotiationHandler)
	assert.NotNil(t, deps.NotificationHandler)
}

func TestNewDependenciesRequiresSecrets(t *testing.T) {
	cfg := baseConfig()
	cfg.AccessSecret = ""

	_, err := NewDependencies(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestCloseIsSafeOnPartialDependencies(t *testing.T) {
	d := &Dependencies{}
	assert.NoError(t, d.Close())
}
