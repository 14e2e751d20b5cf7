package service

import (
	"context"
	"errors"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService owns the append-only transaction ledger and the
// derived per-category level cache. Every ledger insert updates the
// level row in the same database transaction, so a read after a write
// on the same category always reflects the just-written transaction.
type InventoryService struct {
	store     store.Datastore
	mirror    LevelMirror
	publisher EventPublisher
	logger    *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store store.Datastore, mirror LevelMirror, publisher EventPublisher) *InventoryService {
	return &InventoryService{
		store:     store,
		mirror:    mirror,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// RecordTransactionRequest describes a ledger entry to append. Quantity
// is a positive magnitude for every type except adjustment, where it is
// signed. Condition is required; UnitValue overrides the category's
// standard value when set (intake receipts), otherwise the standard
// value for the condition is frozen onto the entry.
type RecordTransactionRequest struct {
	CategoryID string  `json:"category_id" binding:"required"`
	Type       string  `json:"transaction_type" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required"`
	Condition  string  `json:"condition" binding:"required"`
	SourceType string  `json:"source_type,omitempty"`
	UnitValue  *int64  `json:"unit_value,omitempty"`
	BagID      *string `json:"bag_id,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// RecordTransaction appends a ledger entry and updates the level cache
// atomically
func (s *InventoryService) RecordTransaction(ctx context.Context, req *RecordTransactionRequest) (*models.InventoryTransaction, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.RecordTransaction")
	defer span.End()

	var txn *models.InventoryTransaction
	err := s.store.ExecTx(ctx, func(ds store.Datastore) error {
		var txErr error
		txn, txErr = s.recordTx(ctx, ds, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.mirrorTransaction(ctx, txn)
	return txn, nil
}

// RecordIntakeRequest carries an intake receipt
type RecordIntakeRequest struct {
	CategoryID string  `json:"category_id" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required"`
	Condition  string  `json:"condition" binding:"required"`
	SourceType string  `json:"source_type" binding:"required"`
	UnitValue  *int64  `json:"unit_value,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// RecordIntake appends an intake transaction, the receiving-side
// shorthand for RecordTransaction
func (s *InventoryService) RecordIntake(ctx context.Context, req *RecordIntakeRequest) (*models.InventoryTransaction, error) {
	return s.RecordTransaction(ctx, &RecordTransactionRequest{
		CategoryID: req.CategoryID,
		Type:       models.TransactionTypeIntake,
		Quantity:   req.Quantity,
		Condition:  req.Condition,
		SourceType: req.SourceType,
		UnitValue:  req.UnitValue,
		Notes:      req.Notes,
	})
}

// RecordPick appends a pick transaction for a bag, freezing the
// category's standard value for the given condition at pick time
func (s *InventoryService) RecordPick(ctx context.Context, categoryID, bagID string, quantity int, condition string) (*models.InventoryTransaction, error) {
	return s.RecordTransaction(ctx, &RecordTransactionRequest{
		CategoryID: categoryID,
		Type:       models.TransactionTypePick,
		Quantity:   quantity,
		Condition:  condition,
		BagID:      &bagID,
	})
}

// RecordPickTx appends a pick transaction inside an already-open
// transaction. Used by the bag lifecycle so a complete pick list and
// the bag's status advance commit as one unit.
func (s *InventoryService) RecordPickTx(ctx context.Context, ds store.Datastore, categoryID, bagID string, quantity int, condition string) (*models.InventoryTransaction, error) {
	return s.recordTx(ctx, ds, &RecordTransactionRequest{
		CategoryID: categoryID,
		Type:       models.TransactionTypePick,
		Quantity:   quantity,
		Condition:  condition,
		BagID:      &bagID,
	})
}

// recordTx validates, gates on-hand availability, inserts the ledger
// entry and applies the level delta, all against ds
func (s *InventoryService) recordTx(ctx context.Context, ds store.Datastore, req *RecordTransactionRequest) (*models.InventoryTransaction, error) {
	signed, err := signedQuantity(req)
	if err != nil {
		return nil, err
	}
	if req.Condition != models.ConditionNew && req.Condition != models.ConditionUsed {
		return nil, models.NewValidationError("condition", "must be new or used")
	}

	var sourceType *string
	switch req.Type {
	case models.TransactionTypeIntake:
		if req.SourceType != models.SourceTypeDonation &&
			req.SourceType != models.SourceTypePurchase &&
			req.SourceType != models.SourceTypeTransfer {
			return nil, models.NewValidationError("source_type", "must be donation, purchase or transfer")
		}
		sourceType = &req.SourceType
	default:
		if req.SourceType != "" {
			return nil, models.NewValidationError("source_type", "only valid for intake transactions")
		}
	}

	category, err := ds.GetCategoryByID(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, models.NewValidationError("category_id", "category is inactive")
	}

	unitValue := standardValueFor(category, req.Condition)
	if req.UnitValue != nil {
		if *req.UnitValue < 0 {
			return nil, models.NewValidationError("unit_value", "must be non-negative")
		}
		unitValue = *req.UnitValue
	}

	deltaNew, deltaUsed := 0, 0
	if req.Condition == models.ConditionNew {
		deltaNew = signed
	} else {
		deltaUsed = signed
	}

	// Consumption may not drive the condition split below zero.
	if signed < 0 {
		available := 0
		level, err := ds.GetLevelForUpdate(ctx, req.CategoryID)
		var notFound *models.NotFoundError
		if err != nil && !errors.As(err, &notFound) {
			return nil, err
		}
		if level != nil {
			if req.Condition == models.ConditionNew {
				available = level.QuantityNew
			} else {
				available = level.QuantityUsed
			}
		}
		if available < -signed {
			util.InsufficientInventoryTotal.Inc()
			return nil, &models.InsufficientInventoryError{
				CategoryID: req.CategoryID,
				Condition:  req.Condition,
				Requested:  -signed,
				Available:  available,
			}
		}
	}

	condition := req.Condition
	txn := &models.InventoryTransaction{
		CategoryID:      req.CategoryID,
		TransactionType: req.Type,
		SourceType:      sourceType,
		Condition:       &condition,
		Quantity:        signed,
		UnitValue:       unitValue,
		TotalValue:      unitValue * int64(signed),
		BagOfHopeID:     req.BagID,
		Notes:           req.Notes,
	}

	if err := ds.InsertTransaction(ctx, txn); err != nil {
		return nil, err
	}

	now := time.Now()
	var intakeAt, pickAt *time.Time
	switch req.Type {
	case models.TransactionTypeIntake:
		intakeAt = &now
	case models.TransactionTypePick:
		pickAt = &now
	}

	if err := ds.ApplyLevelDelta(ctx, req.CategoryID, deltaNew, deltaUsed, txn.TotalValue, intakeAt, pickAt); err != nil {
		return nil, err
	}

	util.InventoryTransactionsTotal.WithLabelValues(req.Type).Inc()
	return txn, nil
}

// signedQuantity converts a request quantity into the ledger's signed
// form: positive for intake, negative for consumption, as-given for
// adjustments
func signedQuantity(req *RecordTransactionRequest) (int, error) {
	switch req.Type {
	case models.TransactionTypeIntake:
		if req.Quantity <= 0 {
			return 0, models.NewValidationError("quantity", "must be positive for intake")
		}
		return req.Quantity, nil
	case models.TransactionTypePick, models.TransactionTypeThriftOut, models.TransactionTypeDisposal:
		if req.Quantity <= 0 {
			return 0, models.NewValidationError("quantity", "must be positive")
		}
		return -req.Quantity, nil
	case models.TransactionTypeAdjustment:
		if req.Quantity == 0 {
			return 0, models.NewValidationError("quantity", "must be non-zero")
		}
		return req.Quantity, nil
	default:
		return 0, models.NewValidationError("transaction_type", "unknown transaction type")
	}
}

func standardValueFor(category *models.Category, condition string) int64 {
	if condition == models.ConditionUsed {
		return category.StandardValueUsed
	}
	return category.StandardValueNew
}

// mirrorTransaction applies a committed transaction to the Redis level
// mirror, best-effort
func (s *InventoryService) mirrorTransaction(ctx context.Context, txn *models.InventoryTransaction) {
	deltaNew, deltaUsed := 0, 0
	if txn.Condition != nil && *txn.Condition == models.ConditionUsed {
		deltaUsed = txn.Quantity
	} else {
		deltaNew = txn.Quantity
	}

	if err := s.mirror.AdjustLevel(ctx, txn.CategoryID, deltaNew, deltaUsed, txn.TotalValue); err != nil {
		s.logger.Warn("Failed to mirror inventory level",
			zap.String("category_id", txn.CategoryID),
			zap.Error(err))
	}
}

// GetLevel retrieves the derived level for a category
func (s *InventoryService) GetLevel(ctx context.Context, categoryID string) (*models.InventoryLevel, error) {
	return s.store.GetLevel(ctx, categoryID)
}

// GetLevels retrieves all level rows
func (s *InventoryService) GetLevels(ctx context.Context) ([]models.InventoryLevel, error) {
	return s.store.ListLevels(ctx)
}

// ListTransactions retrieves recent ledger entries for a category
func (s *InventoryService) ListTransactions(ctx context.Context, categoryID string, limit int) ([]models.InventoryTransaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListTransactions(ctx, categoryID, limit)
}

// ListPicksForBag retrieves the pick transactions recorded against a bag
func (s *InventoryService) ListPicksForBag(ctx context.Context, bagID string) ([]models.InventoryTransaction, error) {
	return s.store.ListTransactionsByBag(ctx, bagID)
}

// SyncLevelsToMirror pushes every level row into the Redis mirror.
// Called at startup; failures are logged and skipped.
func (s *InventoryService) SyncLevelsToMirror(ctx context.Context) error {
	s.logger.Info("Starting inventory level sync to Redis")

	levels, err := s.store.ListLevels(ctx)
	if err != nil {
		return err
	}

	for _, lvl := range levels {
		if err := s.mirror.SetLevel(ctx, lvl.CategoryID, lvl.QuantityOnHand, lvl.QuantityNew, lvl.QuantityUsed, lvl.TotalValue); err != nil {
			s.logger.Error("Failed to mirror level",
				zap.String("category_id", lvl.CategoryID),
				zap.Error(err))
		}
	}

	s.logger.Info("Inventory level sync completed", zap.Int("count", len(levels)))
	return nil
}

// LowStockCheck compares a category's on-hand quantity to its reorder
// point and publishes a low stock event when at or below it
func (s *InventoryService) LowStockCheck(ctx context.Context, categoryID string) error {
	category, err := s.store.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return err
	}

	onHand := 0
	level, err := s.store.GetLevel(ctx, categoryID)
	var notFound *models.NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}
	if level != nil {
		onHand = level.QuantityOnHand
	}

	if onHand > category.ReorderPoint {
		return nil
	}

	util.LowStockAlertsTotal.Inc()
	s.logger.Warn("Category at or below reorder point",
		zap.String("category_id", categoryID),
		zap.String("name", category.Name),
		zap.Int("on_hand", onHand),
		zap.Int("reorder_point", category.ReorderPoint))

	event := &models.LowStockEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeLowStock,
			Timestamp: time.Now(),
		},
		CategoryID:     categoryID,
		CategoryName:   category.Name,
		QuantityOnHand: onHand,
		ReorderPoint:   category.ReorderPoint,
	}

	if err := s.publisher.PublishLowStock(ctx, event); err != nil {
		s.logger.Error("Failed to publish LowStock event", zap.Error(err))
	}
	return nil
}
