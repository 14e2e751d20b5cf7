package service

import (
	"context"
	"errors"
	"time"

	"fulfillment-service/internal/models"
)

var errInjected = errors.New("injected failure")

// fakePublisher records published events
type fakePublisher struct {
	bagCreated    []*models.BagCreatedEvent
	bagChanged    []*models.BagStatusChangedEvent
	picks         []*models.PickCompletedEvent
	batchChanged  []*models.BatchStatusChangedEvent
	lowStock      []*models.LowStockEvent
	failPublishes bool
}

func (p *fakePublisher) PublishBagCreated(ctx context.Context, e *models.BagCreatedEvent) error {
	if p.failPublishes {
		return errInjected
	}
	p.bagCreated = append(p.bagCreated, e)
	return nil
}

func (p *fakePublisher) PublishBagStatusChanged(ctx context.Context, e *models.BagStatusChangedEvent) error {
	if p.failPublishes {
		return errInjected
	}
	p.bagChanged = append(p.bagChanged, e)
	return nil
}

func (p *fakePublisher) PublishPickCompleted(ctx context.Context, e *models.PickCompletedEvent) error {
	if p.failPublishes {
		return errInjected
	}
	p.picks = append(p.picks, e)
	return nil
}

func (p *fakePublisher) PublishBatchStatusChanged(ctx context.Context, e *models.BatchStatusChangedEvent) error {
	if p.failPublishes {
		return errInjected
	}
	p.batchChanged = append(p.batchChanged, e)
	return nil
}

func (p *fakePublisher) PublishLowStock(ctx context.Context, e *models.LowStockEvent) error {
	if p.failPublishes {
		return errInjected
	}
	p.lowStock = append(p.lowStock, e)
	return nil
}

// fakeMirror records level mirror writes
type fakeMirror struct {
	sets    int
	adjusts int
}

func (m *fakeMirror) SetLevel(ctx context.Context, categoryID string, onHand, qtyNew, qtyUsed int, totalValue int64) error {
	m.sets++
	return nil
}

func (m *fakeMirror) AdjustLevel(ctx context.Context, categoryID string, deltaNew, deltaUsed int, deltaValue int64) error {
	m.adjusts++
	return nil
}

// fakeCache is an in-memory CountCache without TTL expiry
type fakeCache struct {
	data map[string]map[string]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]map[string]int)}
}

func (c *fakeCache) GetCounts(ctx context.Context, key string) (map[string]int, bool, error) {
	counts, ok := c.data[key]
	return counts, ok, nil
}

func (c *fakeCache) SetCounts(ctx context.Context, key string, counts map[string]int, ttl time.Duration) error {
	c.data[key] = counts
	return nil
}

func (c *fakeCache) InvalidateCounts(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

// seedCategory inserts an active category with the given values
func seedCategory(f *fakeStore, name string, valueNew int64, reorderPoint int) *models.Category {
	c := &models.Category{
		Name:              name,
		AgeGroup:          models.AgeGroupToddler,
		Gender:            models.GenderNeutral,
		ItemType:          "clothing",
		StandardValueNew:  valueNew,
		StandardValueUsed: models.UsedValueCents(valueNew),
		ReorderPoint:      reorderPoint,
		IsActive:          true,
	}
	_ = f.CreateCategory(context.Background(), c)
	return c
}

// seedBag inserts a bag in the given status
func seedBag(f *fakeStore, status string) *models.BagOfHope {
	b := &models.BagOfHope{
		ChildAgeGroup: models.AgeGroupToddler,
		ChildGender:   models.GenderBoy,
		Status:        status,
	}
	_ = f.CreateBag(context.Background(), b)
	return b
}

// seedIntake records an intake through the service so levels stay
// consistent with the ledger
func seedIntake(inv *InventoryService, categoryID string, qty int, condition string) error {
	_, err := inv.RecordTransaction(context.Background(), &RecordTransactionRequest{
		CategoryID: categoryID,
		Type:       models.TransactionTypeIntake,
		Quantity:   qty,
		Condition:  condition,
		SourceType: models.SourceTypeDonation,
	})
	return err
}
