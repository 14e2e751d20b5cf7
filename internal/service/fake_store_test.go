package service

import (
	"context"
	"sort"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"

	"github.com/google/uuid"
)

// fakeStore is an in-memory store.Datastore. ExecTx snapshots all
// state and restores it when fn fails, mirroring transaction rollback.
type fakeStore struct {
	inTx         bool
	categories   map[string]*models.Category
	transactions []*models.InventoryTransaction
	levels       map[string]*models.InventoryLevel
	bags         map[string]*models.BagOfHope
	batches      map[string]*models.ShippingBatch
	submissions  map[string]*models.Submission

	// failInsertAfter aborts InsertTransaction once this many entries
	// exist, for rollback tests. Zero disables it.
	failInsertAfter int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories:  make(map[string]*models.Category),
		levels:      make(map[string]*models.InventoryLevel),
		bags:        make(map[string]*models.BagOfHope),
		batches:     make(map[string]*models.ShippingBatch),
		submissions: make(map[string]*models.Submission),
	}
}

type fakeSnapshot struct {
	categories   map[string]*models.Category
	transactions []*models.InventoryTransaction
	levels       map[string]*models.InventoryLevel
	bags         map[string]*models.BagOfHope
	batches      map[string]*models.ShippingBatch
	submissions  map[string]*models.Submission
}

func (f *fakeStore) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		categories:  make(map[string]*models.Category, len(f.categories)),
		levels:      make(map[string]*models.InventoryLevel, len(f.levels)),
		bags:        make(map[string]*models.BagOfHope, len(f.bags)),
		batches:     make(map[string]*models.ShippingBatch, len(f.batches)),
		submissions: make(map[string]*models.Submission, len(f.submissions)),
	}
	for id, c := range f.categories {
		cp := *c
		snap.categories[id] = &cp
	}
	for _, t := range f.transactions {
		cp := *t
		snap.transactions = append(snap.transactions, &cp)
	}
	for id, l := range f.levels {
		cp := *l
		snap.levels[id] = &cp
	}
	for id, b := range f.bags {
		cp := *b
		snap.bags[id] = &cp
	}
	for id, b := range f.batches {
		cp := *b
		snap.batches[id] = &cp
	}
	for id, s := range f.submissions {
		cp := *s
		snap.submissions[id] = &cp
	}
	return snap
}

func (f *fakeStore) restore(snap fakeSnapshot) {
	f.categories = snap.categories
	f.transactions = snap.transactions
	f.levels = snap.levels
	f.bags = snap.bags
	f.batches = snap.batches
	f.submissions = snap.submissions
}

func (f *fakeStore) ExecTx(ctx context.Context, fn func(store.Datastore) error) error {
	if f.inTx {
		return fn(f)
	}
	f.inTx = true
	snap := f.snapshot()
	err := fn(f)
	f.inTx = false
	if err != nil {
		f.restore(snap)
	}
	return err
}

// Categories

func (f *fakeStore) CreateCategory(ctx context.Context, c *models.Category) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, models.NewNotFoundError("category", id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) GetCategoriesByIDs(ctx context.Context, ids []string) ([]models.Category, error) {
	var out []models.Category
	for _, id := range ids {
		if c, ok := f.categories[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCategories(ctx context.Context, filters store.CategoryFilters) ([]models.Category, error) {
	active := true
	if filters.IsActive != nil {
		active = *filters.IsActive
	}
	var out []models.Category
	for _, c := range f.categories {
		if c.IsActive != active {
			continue
		}
		if len(filters.AgeGroups) > 0 && !contains(filters.AgeGroups, c.AgeGroup) {
			continue
		}
		if len(filters.Genders) > 0 && !contains(filters.Genders, c.Gender) {
			continue
		}
		if filters.ItemType != "" && c.ItemType != filters.ItemType {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (f *fakeStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	if _, ok := f.categories[c.ID]; !ok {
		return models.NewNotFoundError("category", c.ID)
	}
	c.UpdatedAt = time.Now()
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeStore) DeactivateCategory(ctx context.Context, id string) error {
	c, ok := f.categories[id]
	if !ok {
		return models.NewNotFoundError("category", id)
	}
	c.IsActive = false
	return nil
}

// Inventory

func (f *fakeStore) InsertTransaction(ctx context.Context, t *models.InventoryTransaction) error {
	if f.failInsertAfter > 0 && len(f.transactions) >= f.failInsertAfter {
		return errInjected
	}
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now()
	cp := *t
	f.transactions = append(f.transactions, &cp)
	return nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, categoryID string, limit int) ([]models.InventoryTransaction, error) {
	var out []models.InventoryTransaction
	for i := len(f.transactions) - 1; i >= 0; i-- {
		t := f.transactions[i]
		if categoryID != "" && t.CategoryID != categoryID {
			continue
		}
		out = append(out, *t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) ListTransactionsByBag(ctx context.Context, bagID string) ([]models.InventoryTransaction, error) {
	var out []models.InventoryTransaction
	for _, t := range f.transactions {
		if t.BagOfHopeID != nil && *t.BagOfHopeID == bagID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLevel(ctx context.Context, categoryID string) (*models.InventoryLevel, error) {
	l, ok := f.levels[categoryID]
	if !ok {
		return nil, models.NewNotFoundError("inventory level", categoryID)
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) GetLevelForUpdate(ctx context.Context, categoryID string) (*models.InventoryLevel, error) {
	return f.GetLevel(ctx, categoryID)
}

func (f *fakeStore) ListLevels(ctx context.Context) ([]models.InventoryLevel, error) {
	var out []models.InventoryLevel
	for _, l := range f.levels {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeStore) ApplyLevelDelta(ctx context.Context, categoryID string, deltaNew, deltaUsed int, deltaValue int64, intakeAt, pickAt *time.Time) error {
	l, ok := f.levels[categoryID]
	if !ok {
		l = &models.InventoryLevel{CategoryID: categoryID}
		f.levels[categoryID] = l
	}
	l.QuantityNew += deltaNew
	l.QuantityUsed += deltaUsed
	l.QuantityOnHand = l.QuantityNew + l.QuantityUsed
	l.TotalValue += deltaValue
	if intakeAt != nil {
		l.LastIntakeDate = intakeAt
	}
	if pickAt != nil {
		l.LastPickDate = pickAt
	}
	l.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) RecomputeLevel(ctx context.Context, categoryID string) error {
	l := &models.InventoryLevel{CategoryID: categoryID}
	for _, t := range f.transactions {
		if t.CategoryID != categoryID {
			continue
		}
		if t.Condition != nil && *t.Condition == models.ConditionUsed {
			l.QuantityUsed += t.Quantity
		} else {
			l.QuantityNew += t.Quantity
		}
		l.TotalValue += t.TotalValue
	}
	l.QuantityOnHand = l.QuantityNew + l.QuantityUsed
	f.levels[categoryID] = l
	return nil
}

// Bags

func (f *fakeStore) CreateBag(ctx context.Context, b *models.BagOfHope) error {
	b.ID = uuid.New().String()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	f.bags[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetBagByID(ctx context.Context, id string) (*models.BagOfHope, error) {
	b, ok := f.bags[id]
	if !ok {
		return nil, models.NewNotFoundError("bag", id)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) GetBagByIDForUpdate(ctx context.Context, id string) (*models.BagOfHope, error) {
	return f.GetBagByID(ctx, id)
}

func (f *fakeStore) ListBags(ctx context.Context, statuses []string) ([]models.BagOfHope, error) {
	var out []models.BagOfHope
	for _, b := range f.bags {
		if len(statuses) > 0 && !contains(statuses, b.Status) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) ListBagsByBatchID(ctx context.Context, batchID string) ([]models.BagOfHope, error) {
	var out []models.BagOfHope
	for _, b := range f.bags {
		if b.BatchID != nil && *b.BatchID == batchID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAvailableBagsForBatch(ctx context.Context) ([]models.BagOfHope, error) {
	var out []models.BagOfHope
	for _, b := range f.bags {
		if b.Status == models.BagStatusReadyToShip && b.BatchID == nil {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateBagStatus(ctx context.Context, id, status string, pickedAt, packedAt, shippedAt, deliveredAt *time.Time) error {
	b, ok := f.bags[id]
	if !ok {
		return models.NewNotFoundError("bag", id)
	}
	b.Status = status
	if pickedAt != nil {
		b.PickedAt = pickedAt
	}
	if packedAt != nil {
		b.PackedAt = packedAt
	}
	if shippedAt != nil {
		b.ShippedAt = shippedAt
	}
	if deliveredAt != nil {
		b.DeliveredAt = deliveredAt
	}
	b.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) UpdateBagShippingInfo(ctx context.Context, id string, trackingNumber, shippingCarrier, recipientName, recipientPhone, deliveryAddress, deliveryNotes *string) error {
	b, ok := f.bags[id]
	if !ok {
		return models.NewNotFoundError("bag", id)
	}
	if trackingNumber != nil {
		b.TrackingNumber = trackingNumber
	}
	if shippingCarrier != nil {
		b.ShippingCarrier = shippingCarrier
	}
	if recipientName != nil {
		b.RecipientName = recipientName
	}
	if recipientPhone != nil {
		b.RecipientPhone = recipientPhone
	}
	if deliveryAddress != nil {
		b.DeliveryAddress = deliveryAddress
	}
	if deliveryNotes != nil {
		b.DeliveryNotes = deliveryNotes
	}
	return nil
}

func (f *fakeStore) SetBagsBatchID(ctx context.Context, bagIDs []string, batchID string) error {
	for _, id := range bagIDs {
		b, ok := f.bags[id]
		if !ok {
			return models.NewNotFoundError("bag", id)
		}
		bid := batchID
		b.BatchID = &bid
	}
	return nil
}

func (f *fakeStore) ClearBagBatchID(ctx context.Context, bagID string) error {
	b, ok := f.bags[bagID]
	if !ok {
		return models.NewNotFoundError("bag", bagID)
	}
	b.BatchID = nil
	return nil
}

func (f *fakeStore) ClearBatchMembers(ctx context.Context, batchID string) (int64, error) {
	var n int64
	for _, b := range f.bags {
		if b.BatchID != nil && *b.BatchID == batchID {
			b.BatchID = nil
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CascadeBatchBagStatus(ctx context.Context, batchID, status string, shippedAt, deliveredAt *time.Time) (int64, error) {
	var n int64
	for _, b := range f.bags {
		if b.BatchID == nil || *b.BatchID != batchID {
			continue
		}
		b.Status = status
		if shippedAt != nil {
			b.ShippedAt = shippedAt
		}
		if deliveredAt != nil {
			b.DeliveredAt = deliveredAt
		}
		n++
	}
	return n, nil
}

func (f *fakeStore) CountBagsByStatus(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, b := range f.bags {
		counts[b.Status]++
	}
	return counts, nil
}

// Batches

func (f *fakeStore) CreateBatch(ctx context.Context, b *models.ShippingBatch) error {
	b.ID = uuid.New().String()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	f.batches[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetBatchByID(ctx context.Context, id string) (*models.ShippingBatch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, models.NewNotFoundError("batch", id)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) GetBatchByIDForUpdate(ctx context.Context, id string) (*models.ShippingBatch, error) {
	return f.GetBatchByID(ctx, id)
}

func (f *fakeStore) GetBatchByNumber(ctx context.Context, batchNumber string) (*models.ShippingBatch, error) {
	for _, b := range f.batches {
		if b.BatchNumber == batchNumber {
			cp := *b
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("batch", batchNumber)
}

func (f *fakeStore) ListBatches(ctx context.Context, statuses []string) ([]models.ShippingBatch, error) {
	var out []models.ShippingBatch
	for _, b := range f.batches {
		if len(statuses) > 0 && !contains(statuses, b.Status) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeStore) UpdateBatchStatus(ctx context.Context, id, status string, courierName, trackingNumber *string, pickedUpAt, deliveredAt *time.Time) error {
	b, ok := f.batches[id]
	if !ok {
		return models.NewNotFoundError("batch", id)
	}
	b.Status = status
	if courierName != nil {
		b.CourierName = courierName
	}
	if trackingNumber != nil {
		b.TrackingNumber = trackingNumber
	}
	if pickedUpAt != nil {
		b.PickedUpAt = pickedUpAt
	}
	if deliveredAt != nil {
		b.DeliveredAt = deliveredAt
	}
	b.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) DeleteBatch(ctx context.Context, id string) error {
	if _, ok := f.batches[id]; !ok {
		return models.NewNotFoundError("batch", id)
	}
	delete(f.batches, id)
	return nil
}

func (f *fakeStore) CountBatchesByStatus(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, b := range f.batches {
		counts[b.Status]++
	}
	return counts, nil
}

// Submissions

func (f *fakeStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	sub.ID = uuid.New().String()
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	cp := *sub
	f.submissions[sub.ID] = &cp
	return nil
}

func (f *fakeStore) GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error) {
	s, ok := f.submissions[id]
	if !ok {
		return nil, models.NewNotFoundError("submission", id)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) ListSubmissions(ctx context.Context, status string) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range f.submissions {
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) MarkSubmissionProcessed(ctx context.Context, id string, processedAt time.Time) error {
	s, ok := f.submissions[id]
	if !ok {
		return models.NewNotFoundError("submission", id)
	}
	s.Status = models.SubmissionStatusProcessed
	s.ProcessedAt = &processedAt
	return nil
}

func (f *fakeStore) LinkSubmissionToBag(ctx context.Context, id, bagID string) error {
	s, ok := f.submissions[id]
	if !ok {
		return models.NewNotFoundError("submission", id)
	}
	s.BagOfHopeID = &bagID
	return nil
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
