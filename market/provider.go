package market

import (
	"context"
	"time"
)

// Provider supplies historical bars for a symbol and an inclusive date range.
// Implementations may block and may fail; retry, caching and rate limiting
// belong to the implementation, never to the engine.
type Provider interface {
	Bars(ctx context.Context, symbol string, start, end time.Time) (Series, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, symbol string, start, end time.Time) (Series, error)

func (f ProviderFunc) Bars(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	return f(ctx, symbol, start, end)
}
