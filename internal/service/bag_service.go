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

// BagService owns the bag status state machine. Every transition runs
// in one database transaction that locks the bag row, validates the
// move against the transition table and writes the new status with its
// milestone timestamps.
type BagService struct {
	store     store.Datastore
	inventory *InventoryService
	publisher EventPublisher
	logger    *zap.Logger
}

// NewBagService creates a new bag service
func NewBagService(store store.Datastore, inventory *InventoryService, publisher EventPublisher) *BagService {
	return &BagService{
		store:     store,
		inventory: inventory,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CreateBagRequest carries the fields for a new bag of hope
type CreateBagRequest struct {
	RequestID      *string `json:"request_id,omitempty"`
	ChildFirstName *string `json:"child_first_name,omitempty"`
	ChildLastName  *string `json:"child_last_name,omitempty"`
	ChildAgeGroup  string  `json:"child_age_group" binding:"required"`
	ChildGender    string  `json:"child_gender" binding:"required"`
	Ethnicity      *string `json:"ethnicity,omitempty"`
	PickupLocation *string `json:"pickup_location,omitempty"`

	BagEmbroideryColor *string `json:"bag_embroidery_color,omitempty"`
	ToiletryBagColor   *string `json:"toiletry_bag_color,omitempty"`

	Tops         *string `json:"tops,omitempty"`
	Bottoms      *string `json:"bottoms,omitempty"`
	Pajamas      *string `json:"pajamas,omitempty"`
	Underwear    *string `json:"underwear,omitempty"`
	DiaperPullup *string `json:"diaper_pullup,omitempty"`
	Shoes        *string `json:"shoes,omitempty"`
	Coat         *string `json:"coat,omitempty"`
	ToyActivity  *string `json:"toy_activity,omitempty"`

	Notes *string `json:"notes,omitempty"`
}

// PickItem is one line of a bag's pick list
type PickItem struct {
	CategoryID string `json:"category_id" binding:"required"`
	Quantity   int    `json:"quantity"`
	Condition  string `json:"condition" binding:"required"`
}

// ShippingInfo carries optional tracking and recipient fields recorded
// when a bag ships
type ShippingInfo struct {
	TrackingNumber  *string `json:"tracking_number,omitempty"`
	ShippingCarrier *string `json:"shipping_carrier,omitempty"`
	RecipientName   *string `json:"recipient_name,omitempty"`
	RecipientPhone  *string `json:"recipient_phone,omitempty"`
	DeliveryAddress *string `json:"delivery_address,omitempty"`
	DeliveryNotes   *string `json:"delivery_notes,omitempty"`
}

// CreateBag creates a new bag in pending status
func (s *BagService) CreateBag(ctx context.Context, req *CreateBagRequest) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.CreateBag")
	defer span.End()

	if err := validAgeGroup(req.ChildAgeGroup); err != nil {
		return nil, err
	}
	if err := validGender(req.ChildGender); err != nil {
		return nil, err
	}

	bag := &models.BagOfHope{
		RequestID:          req.RequestID,
		ChildFirstName:     req.ChildFirstName,
		ChildLastName:      req.ChildLastName,
		ChildAgeGroup:      req.ChildAgeGroup,
		ChildGender:        req.ChildGender,
		Ethnicity:          req.Ethnicity,
		PickupLocation:     req.PickupLocation,
		BagEmbroideryColor: req.BagEmbroideryColor,
		ToiletryBagColor:   req.ToiletryBagColor,
		Tops:               req.Tops,
		Bottoms:            req.Bottoms,
		Pajamas:            req.Pajamas,
		Underwear:          req.Underwear,
		DiaperPullup:       req.DiaperPullup,
		Shoes:              req.Shoes,
		Coat:               req.Coat,
		ToyActivity:        req.ToyActivity,
		Notes:              req.Notes,
		Status:             models.BagStatusPending,
	}

	if err := s.store.CreateBag(ctx, bag); err != nil {
		return nil, err
	}

	util.BagsCreatedTotal.Inc()
	s.logger.Info("Bag created", zap.String("bag_id", bag.ID))

	event := &models.BagCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBagCreated,
			Timestamp: time.Now(),
		},
		BagID:         bag.ID,
		ChildAgeGroup: bag.ChildAgeGroup,
		ChildGender:   bag.ChildGender,
	}
	if err := s.publisher.PublishBagCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish BagCreated event", zap.Error(err))
	}

	return bag, nil
}

// GetBag retrieves a bag by ID
func (s *BagService) GetBag(ctx context.Context, bagID string) (*models.BagOfHope, error) {
	return s.store.GetBagByID(ctx, bagID)
}

// ListBags retrieves bags, optionally filtered to a status set
func (s *BagService) ListBags(ctx context.Context, statuses []string) ([]models.BagOfHope, error) {
	for _, status := range statuses {
		if !models.IsValidBagStatus(status) {
			return nil, models.NewValidationError("status", "unknown bag status: "+status)
		}
	}
	return s.store.ListBags(ctx, statuses)
}

// milestones holds the timestamp columns a transition stamps
type milestones struct {
	pickedAt    *time.Time
	packedAt    *time.Time
	shippedAt   *time.Time
	deliveredAt *time.Time
}

// transition is the single authoritative gate for bag status changes.
// It locks the bag row, validates against the transition table, writes
// the new status and stamps, runs any extra work in the same
// transaction and publishes the change after commit.
func (s *BagService) transition(ctx context.Context, bagID, to string, stamps milestones, extra func(store.Datastore) error) (*models.BagOfHope, error) {
	if !models.IsValidBagStatus(to) {
		return nil, models.NewValidationError("status", "unknown bag status: "+to)
	}

	var from string
	var updated *models.BagOfHope
	err := s.store.ExecTx(ctx, func(ds store.Datastore) error {
		bag, err := ds.GetBagByIDForUpdate(ctx, bagID)
		if err != nil {
			return err
		}
		from = bag.Status

		if !models.CanBagTransition(bag.Status, to) {
			util.BagTransitionsRejected.WithLabelValues(bag.Status, to).Inc()
			return models.NewInvalidTransitionError("bag", bag.Status, to)
		}

		if err := ds.UpdateBagStatus(ctx, bagID, to, stamps.pickedAt, stamps.packedAt, stamps.shippedAt, stamps.deliveredAt); err != nil {
			return err
		}

		if extra != nil {
			if err := extra(ds); err != nil {
				return err
			}
		}

		updated, err = ds.GetBagByID(ctx, bagID)
		return err
	})
	if err != nil {
		return nil, err
	}

	util.BagTransitionsTotal.WithLabelValues(from, to).Inc()
	s.logger.Info("Bag status changed",
		zap.String("bag_id", bagID),
		zap.String("from", from),
		zap.String("to", to))

	event := &models.BagStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBagStatusChanged,
			Timestamp: time.Now(),
		},
		BagID:      bagID,
		FromStatus: from,
		ToStatus:   to,
	}
	if err := s.publisher.PublishBagStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish BagStatusChanged event", zap.Error(err))
	}

	return updated, nil
}

// UpdateStatus moves a bag to newStatus if the transition table allows
// it. Named operations stamp milestones; this generic form does not.
func (s *BagService) UpdateStatus(ctx context.Context, bagID, newStatus string) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.UpdateStatus")
	defer span.End()

	return s.transition(ctx, bagID, newStatus, milestones{}, nil)
}

// StartPicking moves a pending bag into picking
func (s *BagService) StartPicking(ctx context.Context, bagID string) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.StartPicking")
	defer span.End()

	return s.transition(ctx, bagID, models.BagStatusPicking, milestones{}, nil)
}

// CompletePick records every pick line on the inventory ledger and
// advances the bag to packing, stamping picked_at. The pick
// transactions and the status change commit as one unit: if any line
// fails (unknown category, insufficient on-hand), nothing is applied.
func (s *BagService) CompletePick(ctx context.Context, bagID string, picks []PickItem) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.CompletePick")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PickLatency.Observe(time.Since(start).Seconds())
	}()

	now := time.Now()
	var recorded []*models.InventoryTransaction

	bag, err := s.transition(ctx, bagID, models.BagStatusPacking, milestones{pickedAt: &now}, func(ds store.Datastore) error {
		for _, pick := range picks {
			if pick.Quantity <= 0 {
				continue
			}
			txn, err := s.inventory.RecordPickTx(ctx, ds, pick.CategoryID, bagID, pick.Quantity, pick.Condition)
			if err != nil {
				return err
			}
			recorded = append(recorded, txn)
		}
		return nil
	})
	if err != nil {
		var insufficient *models.InsufficientInventoryError
		if errors.As(err, &insufficient) {
			util.PicksFailedTotal.WithLabelValues("insufficient_inventory").Inc()
		} else {
			util.PicksFailedTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	util.PicksCompletedTotal.Inc()

	items := make([]models.PickItemData, 0, len(recorded))
	var totalValue int64
	for _, txn := range recorded {
		s.inventory.mirrorTransaction(ctx, txn)

		condition := models.ConditionNew
		if txn.Condition != nil {
			condition = *txn.Condition
		}
		items = append(items, models.PickItemData{
			CategoryID: txn.CategoryID,
			Condition:  condition,
			Quantity:   -txn.Quantity,
			UnitValue:  txn.UnitValue,
		})
		totalValue -= txn.TotalValue
		util.PickItemsRecordedTotal.Inc()
	}

	event := &models.PickCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePickCompleted,
			Timestamp: time.Now(),
		},
		BagID:      bagID,
		Items:      items,
		TotalValue: totalValue,
	}
	if err := s.publisher.PublishPickCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish PickCompleted event", zap.Error(err))
	}

	return bag, nil
}

// CompletePacking moves a bag from packing to ready_to_ship, stamping
// packed_at
func (s *BagService) CompletePacking(ctx context.Context, bagID string) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.CompletePacking")
	defer span.End()

	now := time.Now()
	return s.transition(ctx, bagID, models.BagStatusReadyToShip, milestones{packedAt: &now}, nil)
}

// ShipBag moves a bag into in_transit, stamping shipped_at and
// recording any tracking/recipient fields in the same transaction
func (s *BagService) ShipBag(ctx context.Context, bagID string, info *ShippingInfo) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.ShipBag")
	defer span.End()

	now := time.Now()
	var extra func(store.Datastore) error
	if info != nil {
		extra = func(ds store.Datastore) error {
			return ds.UpdateBagShippingInfo(ctx, bagID,
				info.TrackingNumber, info.ShippingCarrier,
				info.RecipientName, info.RecipientPhone,
				info.DeliveryAddress, info.DeliveryNotes)
		}
	}
	return s.transition(ctx, bagID, models.BagStatusInTransit, milestones{shippedAt: &now}, extra)
}

// MarkReadyForPickup moves an in_transit bag to ready_for_pickup
func (s *BagService) MarkReadyForPickup(ctx context.Context, bagID string) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.MarkReadyForPickup")
	defer span.End()

	return s.transition(ctx, bagID, models.BagStatusReadyForPickup, milestones{}, nil)
}

// MarkDelivered moves a bag to delivered, stamping delivered_at
func (s *BagService) MarkDelivered(ctx context.Context, bagID string) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.MarkDelivered")
	defer span.End()

	now := time.Now()
	return s.transition(ctx, bagID, models.BagStatusDelivered, milestones{deliveredAt: &now}, nil)
}

// CancelBag cancels a bag. Cancelled bags can be re-opened with
// ReopenBag.
func (s *BagService) CancelBag(ctx context.Context, bagID string) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.CancelBag")
	defer span.End()

	return s.transition(ctx, bagID, models.BagStatusCancelled, milestones{}, nil)
}

// ReopenBag returns a cancelled bag to pending
func (s *BagService) ReopenBag(ctx context.Context, bagID string) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "BagService.ReopenBag")
	defer span.End()

	return s.transition(ctx, bagID, models.BagStatusPending, milestones{}, nil)
}

func validAgeGroup(ageGroup string) error {
	switch ageGroup {
	case models.AgeGroupBaby, models.AgeGroupToddler, models.AgeGroupSchoolAge, models.AgeGroupTeen, models.AgeGroupNeutral:
		return nil
	}
	return models.NewValidationError("child_age_group", "unknown age group: "+ageGroup)
}

func validGender(gender string) error {
	switch gender {
	case models.GenderBoy, models.GenderGirl, models.GenderNeutral:
		return nil
	}
	return models.NewValidationError("child_gender", "unknown gender: "+gender)
}
