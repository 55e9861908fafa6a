package db

import (
	"context"
	"time"
)

const queryTimeout = 5 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// WithTimeout bounds a single query issued outside RunTx.
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx)
}
