package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchService manages shipping batches: grouping ready bags for a
// courier handoff and cascading batch status changes onto members.
type BatchService struct {
	store       store.Datastore
	publisher   EventPublisher
	logger      *zap.Logger
	batchPrefix string
}

// NewBatchService creates a new batch service. batchPrefix is the
// human-readable batch number prefix, e.g. "BOH".
func NewBatchService(store store.Datastore, publisher EventPublisher, batchPrefix string) *BatchService {
	if batchPrefix == "" {
		batchPrefix = "BOH"
	}
	return &BatchService{
		store:       store,
		publisher:   publisher,
		logger:      util.GetLogger(),
		batchPrefix: batchPrefix,
	}
}

// CreateBatchRequest carries the fields for a new shipping batch
type CreateBatchRequest struct {
	CourierName       *string    `json:"courier_name,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	ScheduledPickupAt *time.Time `json:"scheduled_pickup_at,omitempty"`
	BagIDs            []string   `json:"bag_ids,omitempty"`
}

// BatchStatusUpdate carries the fields recorded alongside a batch
// status change
type BatchStatusUpdate struct {
	CourierName    *string `json:"courier_name,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

// newBatchNumber generates a human-readable unique batch number like
// BOH-20260829-3F2A91BC
func (s *BatchService) newBatchNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", s.batchPrefix, time.Now().Format("20060102"), suffix)
}

// CreateBatch creates an open batch and optionally assigns an initial
// set of bags to it in the same transaction
func (s *BatchService) CreateBatch(ctx context.Context, req *CreateBatchRequest) (*models.ShippingBatch, error) {
	ctx, span := util.StartSpan(ctx, "BatchService.CreateBatch")
	defer span.End()

	batch := &models.ShippingBatch{
		BatchNumber:       s.newBatchNumber(),
		Status:            models.BatchStatusOpen,
		CourierName:       req.CourierName,
		Notes:             req.Notes,
		ScheduledPickupAt: req.ScheduledPickupAt,
	}

	err := s.store.ExecTx(ctx, func(ds store.Datastore) error {
		if err := ds.CreateBatch(ctx, batch); err != nil {
			return err
		}
		if len(req.BagIDs) > 0 {
			return s.assignBags(ctx, ds, batch.ID, req.BagIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.BatchesCreatedTotal.Inc()
	s.logger.Info("Batch created",
		zap.String("batch_id", batch.ID),
		zap.String("batch_number", batch.BatchNumber))

	return batch, nil
}

// GetBatch retrieves a batch with its member bags
func (s *BatchService) GetBatch(ctx context.Context, batchID string) (*models.BatchWithBags, error) {
	batch, err := s.store.GetBatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return s.withBags(ctx, batch)
}

// GetBatchByNumber retrieves a batch by its batch number
func (s *BatchService) GetBatchByNumber(ctx context.Context, batchNumber string) (*models.BatchWithBags, error) {
	batch, err := s.store.GetBatchByNumber(ctx, batchNumber)
	if err != nil {
		return nil, err
	}
	return s.withBags(ctx, batch)
}

func (s *BatchService) withBags(ctx context.Context, batch *models.ShippingBatch) (*models.BatchWithBags, error) {
	bags, err := s.store.ListBagsByBatchID(ctx, batch.ID)
	if err != nil {
		return nil, err
	}
	return &models.BatchWithBags{ShippingBatch: *batch, Bags: bags}, nil
}

// ListBatches retrieves batches, optionally filtered to a status set
func (s *BatchService) ListBatches(ctx context.Context, statuses []string) ([]models.ShippingBatch, error) {
	for _, status := range statuses {
		if !models.IsValidBatchStatus(status) {
			return nil, models.NewValidationError("status", "unknown batch status: "+status)
		}
	}
	return s.store.ListBatches(ctx, statuses)
}

// assignBags verifies every bag is unassigned and links the set to the
// batch. Runs against ds so callers control the transaction boundary.
func (s *BatchService) assignBags(ctx context.Context, ds store.Datastore, batchID string, bagIDs []string) error {
	for _, bagID := range bagIDs {
		bag, err := ds.GetBagByIDForUpdate(ctx, bagID)
		if err != nil {
			return err
		}
		if bag.BatchID != nil {
			return models.NewValidationError("bag_ids", "bag "+bagID+" already belongs to a batch")
		}
	}
	return ds.SetBagsBatchID(ctx, bagIDs, batchID)
}

// AddBagsToBatch assigns unassigned bags to an open batch. The batch
// row is locked so a concurrent close cannot race the assignment.
func (s *BatchService) AddBagsToBatch(ctx context.Context, batchID string, bagIDs []string) (*models.BatchWithBags, error) {
	ctx, span := util.StartSpan(ctx, "BatchService.AddBagsToBatch")
	defer span.End()

	if len(bagIDs) == 0 {
		return nil, models.NewValidationError("bag_ids", "must not be empty")
	}

	err := s.store.ExecTx(ctx, func(ds store.Datastore) error {
		batch, err := ds.GetBatchByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != models.BatchStatusOpen {
			return models.NewValidationError("batch_id", "bags can only be added while the batch is open")
		}
		return s.assignBags(ctx, ds, batchID, bagIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bags added to batch",
		zap.String("batch_id", batchID),
		zap.Int("count", len(bagIDs)))

	return s.GetBatch(ctx, batchID)
}

// RemoveBagFromBatch detaches a bag from an open batch
func (s *BatchService) RemoveBagFromBatch(ctx context.Context, batchID, bagID string) error {
	ctx, span := util.StartSpan(ctx, "BatchService.RemoveBagFromBatch")
	defer span.End()

	return s.store.ExecTx(ctx, func(ds store.Datastore) error {
		batch, err := ds.GetBatchByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != models.BatchStatusOpen {
			return models.NewValidationError("batch_id", "bags can only be removed while the batch is open")
		}
		bag, err := ds.GetBagByIDForUpdate(ctx, bagID)
		if err != nil {
			return err
		}
		if bag.BatchID == nil || *bag.BatchID != batchID {
			return models.NewValidationError("bag_id", "bag does not belong to this batch")
		}
		return ds.ClearBagBatchID(ctx, bagID)
	})
}

// UpdateBatchStatus moves a batch to newStatus if the batch transition
// table allows it, and cascades the mapped bag status onto every member
// in the same transaction. in_transit stamps picked_up_at; delivered
// stamps delivered_at on both the batch and its bags.
func (s *BatchService) UpdateBatchStatus(ctx context.Context, batchID, newStatus string, update *BatchStatusUpdate) (*models.BatchWithBags, error) {
	ctx, span := util.StartSpan(ctx, "BatchService.UpdateBatchStatus")
	defer span.End()

	if !models.IsValidBatchStatus(newStatus) {
		return nil, models.NewValidationError("status", "unknown batch status: "+newStatus)
	}

	var from, batchNumber string
	var bagsUpdated int64
	err := s.store.ExecTx(ctx, func(ds store.Datastore) error {
		batch, err := ds.GetBatchByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		from = batch.Status
		batchNumber = batch.BatchNumber

		if !models.CanBatchTransition(batch.Status, newStatus) {
			return models.NewInvalidTransitionError("batch", batch.Status, newStatus)
		}

		var courierName, trackingNumber *string
		if update != nil {
			courierName = update.CourierName
			trackingNumber = update.TrackingNumber
		}

		now := time.Now()
		var pickedUpAt, deliveredAt *time.Time
		switch newStatus {
		case models.BatchStatusInTransit:
			pickedUpAt = &now
		case models.BatchStatusDelivered:
			deliveredAt = &now
		}

		if err := ds.UpdateBatchStatus(ctx, batchID, newStatus, courierName, trackingNumber, pickedUpAt, deliveredAt); err != nil {
			return err
		}

		if bagStatus := models.BatchToBagStatus[newStatus]; bagStatus != "" {
			var shippedAt, bagDeliveredAt *time.Time
			switch bagStatus {
			case models.BagStatusInTransit:
				shippedAt = &now
			case models.BagStatusDelivered:
				bagDeliveredAt = &now
			}
			bagsUpdated, err = ds.CascadeBatchBagStatus(ctx, batchID, bagStatus, shippedAt, bagDeliveredAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.BatchCascadesTotal.WithLabelValues(newStatus).Inc()
	util.BatchCascadeBagsUpdated.Add(float64(bagsUpdated))
	s.logger.Info("Batch status changed",
		zap.String("batch_id", batchID),
		zap.String("from", from),
		zap.String("to", newStatus),
		zap.Int64("bags_updated", bagsUpdated))

	event := &models.BatchStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBatchStatusChanged,
			Timestamp: time.Now(),
		},
		BatchID:     batchID,
		BatchNumber: batchNumber,
		FromStatus:  from,
		ToStatus:    newStatus,
		BagsUpdated: int(bagsUpdated),
	}
	if err := s.publisher.PublishBatchStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish BatchStatusChanged event", zap.Error(err))
	}

	return s.GetBatch(ctx, batchID)
}

// CloseBatch marks an open batch ready_to_ship
func (s *BatchService) CloseBatch(ctx context.Context, batchID string, update *BatchStatusUpdate) (*models.BatchWithBags, error) {
	return s.UpdateBatchStatus(ctx, batchID, models.BatchStatusReadyToShip, update)
}

// MarkBatchPickedUp records the courier pickup, moving the batch and
// its bags to in_transit
func (s *BatchService) MarkBatchPickedUp(ctx context.Context, batchID string, update *BatchStatusUpdate) (*models.BatchWithBags, error) {
	return s.UpdateBatchStatus(ctx, batchID, models.BatchStatusInTransit, update)
}

// MarkBatchReadyForPickup moves the batch and its bags to
// ready_for_pickup at the destination
func (s *BatchService) MarkBatchReadyForPickup(ctx context.Context, batchID string) (*models.BatchWithBags, error) {
	return s.UpdateBatchStatus(ctx, batchID, models.BatchStatusReadyForPickup, nil)
}

// MarkBatchDelivered records delivery for the batch and its bags
func (s *BatchService) MarkBatchDelivered(ctx context.Context, batchID string) (*models.BatchWithBags, error) {
	return s.UpdateBatchStatus(ctx, batchID, models.BatchStatusDelivered, nil)
}

// CancelBatch cancels a batch. Members stay in their current bag
// status but are detached so they can be re-batched.
func (s *BatchService) CancelBatch(ctx context.Context, batchID string) (*models.BatchWithBags, error) {
	ctx, span := util.StartSpan(ctx, "BatchService.CancelBatch")
	defer span.End()

	var from string
	err := s.store.ExecTx(ctx, func(ds store.Datastore) error {
		batch, err := ds.GetBatchByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		from = batch.Status
		if !models.CanBatchTransition(batch.Status, models.BatchStatusCancelled) {
			return models.NewInvalidTransitionError("batch", batch.Status, models.BatchStatusCancelled)
		}
		if err := ds.UpdateBatchStatus(ctx, batchID, models.BatchStatusCancelled, nil, nil, nil, nil); err != nil {
			return err
		}
		_, err = ds.ClearBatchMembers(ctx, batchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Batch cancelled",
		zap.String("batch_id", batchID),
		zap.String("from", from))

	return s.GetBatch(ctx, batchID)
}

// DeleteBatch removes a batch record. Only open or cancelled batches
// can be deleted; members are detached first.
func (s *BatchService) DeleteBatch(ctx context.Context, batchID string) error {
	ctx, span := util.StartSpan(ctx, "BatchService.DeleteBatch")
	defer span.End()

	return s.store.ExecTx(ctx, func(ds store.Datastore) error {
		batch, err := ds.GetBatchByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != models.BatchStatusOpen && batch.Status != models.BatchStatusCancelled {
			return models.NewValidationError("batch_id", "only open or cancelled batches can be deleted")
		}
		if _, err := ds.ClearBatchMembers(ctx, batchID); err != nil {
			return err
		}
		return ds.DeleteBatch(ctx, batchID)
	})
}
