package service

import (
	"context"
	"time"

	"fulfillment-service/internal/models"
)

// EventPublisher is the slice of the broker the services publish
// through. Publishes happen after the database transaction commits and
// are best-effort: failures are logged, never returned to the caller.
type EventPublisher interface {
	PublishBagCreated(ctx context.Context, event *models.BagCreatedEvent) error
	PublishBagStatusChanged(ctx context.Context, event *models.BagStatusChangedEvent) error
	PublishPickCompleted(ctx context.Context, event *models.PickCompletedEvent) error
	PublishBatchStatusChanged(ctx context.Context, event *models.BatchStatusChangedEvent) error
	PublishLowStock(ctx context.Context, event *models.LowStockEvent) error
}

// CountCache caches dashboard count maps with a short TTL.
type CountCache interface {
	GetCounts(ctx context.Context, key string) (map[string]int, bool, error)
	SetCounts(ctx context.Context, key string, counts map[string]int, ttl time.Duration) error
	InvalidateCounts(ctx context.Context, key string) error
}

// LevelMirror mirrors inventory levels into Redis for cheap reads. The
// database is the source of truth; mirror writes are best-effort.
type LevelMirror interface {
	SetLevel(ctx context.Context, categoryID string, onHand, qtyNew, qtyUsed int, totalValue int64) error
	AdjustLevel(ctx context.Context, categoryID string, deltaNew, deltaUsed int, deltaValue int64) error
}
