package eventhandlers

import (
	"context"
	"log/slog"

	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
)

// CacheEvicter removes cached product views.
type CacheEvicter interface {
	Delete(ctx context.Context, ids ...string) error
}

// CacheInvalidator evicts product views whose stock or details changed.
// Orders move stock without going through catalog commands, so order
// events evict the purchased products as well.
type CacheInvalidator struct {
	cache  CacheEvicter
	logger *slog.Logger
}

func NewCacheInvalidator(cache CacheEvicter, logger *slog.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, logger: logger}
}

func (h *CacheInvalidator) Handle(ctx context.Context, event events.Event) error {
	var ids []string
	switch e := event.(type) {
	case contracts.ProductChangedEvent:
		ids = []string{e.ProductID}
	case contracts.OrderPlacedEvent:
		ids = productIDs(e.Lines)
	case contracts.OrderCancelledEvent:
		ids = productIDs(e.Lines)
	default:
		return nil
	}
	if len(ids) == 0 {
		return nil
	}

	if err := h.cache.Delete(ctx, ids...); err != nil {
		h.logger.Warn("product cache eviction failed", slog.Any("product_ids", ids), slog.Any("error", err))
	}
	return nil
}

func productIDs(lines []contracts.OrderLine) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
