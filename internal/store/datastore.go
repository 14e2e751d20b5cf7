package store

import (
	"context"
	"time"

	"fulfillment-service/internal/models"
)

// Datastore is the persistence surface the service layer depends on.
// *Store is the Postgres implementation; tests substitute in-memory
// fakes. ExecTx hands fn a Datastore bound to one transaction, so a
// lifecycle operation's reads, writes and status gates commit or roll
// back as a unit.
type Datastore interface {
	ExecTx(ctx context.Context, fn func(Datastore) error) error

	// Categories
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
	GetCategoriesByIDs(ctx context.Context, ids []string) ([]models.Category, error)
	ListCategories(ctx context.Context, filters CategoryFilters) ([]models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeactivateCategory(ctx context.Context, id string) error

	// Inventory ledger and levels
	InsertTransaction(ctx context.Context, t *models.InventoryTransaction) error
	ListTransactions(ctx context.Context, categoryID string, limit int) ([]models.InventoryTransaction, error)
	ListTransactionsByBag(ctx context.Context, bagID string) ([]models.InventoryTransaction, error)
	GetLevel(ctx context.Context, categoryID string) (*models.InventoryLevel, error)
	GetLevelForUpdate(ctx context.Context, categoryID string) (*models.InventoryLevel, error)
	ListLevels(ctx context.Context) ([]models.InventoryLevel, error)
	ApplyLevelDelta(ctx context.Context, categoryID string, deltaNew, deltaUsed int, deltaValue int64, intakeAt, pickAt *time.Time) error
	RecomputeLevel(ctx context.Context, categoryID string) error

	// Bags
	CreateBag(ctx context.Context, b *models.BagOfHope) error
	GetBagByID(ctx context.Context, id string) (*models.BagOfHope, error)
	GetBagByIDForUpdate(ctx context.Context, id string) (*models.BagOfHope, error)
	ListBags(ctx context.Context, statuses []string) ([]models.BagOfHope, error)
	ListBagsByBatchID(ctx context.Context, batchID string) ([]models.BagOfHope, error)
	ListAvailableBagsForBatch(ctx context.Context) ([]models.BagOfHope, error)
	UpdateBagStatus(ctx context.Context, id, status string, pickedAt, packedAt, shippedAt, deliveredAt *time.Time) error
	UpdateBagShippingInfo(ctx context.Context, id string, trackingNumber, shippingCarrier, recipientName, recipientPhone, deliveryAddress, deliveryNotes *string) error
	SetBagsBatchID(ctx context.Context, bagIDs []string, batchID string) error
	ClearBagBatchID(ctx context.Context, bagID string) error
	ClearBatchMembers(ctx context.Context, batchID string) (int64, error)
	CascadeBatchBagStatus(ctx context.Context, batchID, status string, shippedAt, deliveredAt *time.Time) (int64, error)
	CountBagsByStatus(ctx context.Context) (map[string]int, error)

	// Batches
	CreateBatch(ctx context.Context, b *models.ShippingBatch) error
	GetBatchByID(ctx context.Context, id string) (*models.ShippingBatch, error)
	GetBatchByIDForUpdate(ctx context.Context, id string) (*models.ShippingBatch, error)
	GetBatchByNumber(ctx context.Context, batchNumber string) (*models.ShippingBatch, error)
	ListBatches(ctx context.Context, statuses []string) ([]models.ShippingBatch, error)
	UpdateBatchStatus(ctx context.Context, id, status string, courierName, trackingNumber *string, pickedUpAt, deliveredAt *time.Time) error
	DeleteBatch(ctx context.Context, id string) error
	CountBatchesByStatus(ctx context.Context) (map[string]int, error)

	// Submissions
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, status string) ([]models.Submission, error)
	MarkSubmissionProcessed(ctx context.Context, id string, processedAt time.Time) error
	LinkSubmissionToBag(ctx context.Context, id, bagID string) error
}
