package worker

import (
	"context"
	"log"

	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/service"
)

// ReorderWorker consumes pick events and raises low-stock alerts for
// the categories each pick touched.
type ReorderWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	inventory    *service.InventoryService
}

// NewReorderWorker creates a new reorder worker
func NewReorderWorker(
	consumer *broker.Consumer,
	inventory *service.InventoryService,
) *ReorderWorker {
	eventHandler := broker.NewEventHandler()

	w := &ReorderWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		inventory:    inventory,
	}

	eventHandler.OnPickCompleted(w.handlePickCompleted)

	return w
}

func (w *ReorderWorker) handlePickCompleted(ctx context.Context, event *models.PickCompletedEvent) error {
	seen := make(map[string]bool, len(event.Items))
	for _, item := range event.Items {
		if seen[item.CategoryID] {
			continue
		}
		seen[item.CategoryID] = true
		if err := w.inventory.LowStockCheck(ctx, item.CategoryID); err != nil {
			log.Printf("Low stock check failed for category %s: %v", item.CategoryID, err)
		}
	}
	return nil
}

// Start starts the worker
func (w *ReorderWorker) Start(ctx context.Context) error {
	log.Println("Starting reorder worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReorderWorker) Stop() error {
	log.Println("Stopping reorder worker...")
	return w.consumer.Close()
}

// CacheWorker consumes status-change events and drops the cached
// dashboard counts so reads observe the change promptly instead of
// waiting out the TTL.
type CacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	queries      *service.QueryService
}

// NewCacheWorker creates a new cache invalidation worker
func NewCacheWorker(
	consumer *broker.Consumer,
	queries *service.QueryService,
) *CacheWorker {
	eventHandler := broker.NewEventHandler()

	w := &CacheWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		queries:      queries,
	}

	eventHandler.OnBagStatusChanged(func(ctx context.Context, event *models.BagStatusChangedEvent) error {
		w.queries.InvalidateCounts(ctx)
		return nil
	})
	eventHandler.OnBatchStatusChanged(func(ctx context.Context, event *models.BatchStatusChangedEvent) error {
		w.queries.InvalidateCounts(ctx)
		return nil
	})

	return w
}

// Start starts the worker
func (w *CacheWorker) Start(ctx context.Context) error {
	log.Println("Starting cache worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CacheWorker) Stop() error {
	log.Println("Stopping cache worker...")
	return w.consumer.Close()
}
