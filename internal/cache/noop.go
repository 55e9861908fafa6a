package cache

import (
	"context"
	"time"
)

// NoopCache stands in for Redis when REDIS_ADDR is empty. Every read is a
// miss and every write is dropped.
type NoopCache struct {
	NoopLocker
}

func (NoopCache) Get(context.Context, string) (string, bool, error)         { return "", false, nil }
func (NoopCache) Set(context.Context, string, string, time.Duration) error { return nil }
func (NoopCache) Ping(context.Context) error                               { return nil }
func (NoopCache) Close() error                                             { return nil }

func (NoopCache) AddImageNameToTempList(context.Context, string) error      { return nil }
func (NoopCache) RemoveImageNameFromTempList(context.Context, string) error { return nil }
