package service

import (
	"context"
	"strings"
	"testing"

	"fulfillment-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatchFixture() (*BatchService, *fakeStore, *fakePublisher) {
	f := newFakeStore()
	pub := &fakePublisher{}
	return NewBatchService(f, pub, "BOH"), f, pub
}

func TestCreateBatch(t *testing.T) {
	batches, _, _ := newBatchFixture()

	batch, err := batches.CreateBatch(context.Background(), &CreateBatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusOpen, batch.Status)
	assert.True(t, strings.HasPrefix(batch.BatchNumber, "BOH-"))
}

func TestCreateBatchWithInitialBags(t *testing.T) {
	batches, f, _ := newBatchFixture()
	ctx := context.Background()
	a := seedBag(f, models.BagStatusReadyToShip)
	b := seedBag(f, models.BagStatusReadyToShip)

	batch, err := batches.CreateBatch(ctx, &CreateBatchRequest{BagIDs: []string{a.ID, b.ID}})
	require.NoError(t, err)

	full, err := batches.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Len(t, full.Bags, 2)
}

func TestAddBagsRequiresOpenBatch(t *testing.T) {
	batches, f, _ := newBatchFixture()
	ctx := context.Background()
	batch, err := batches.CreateBatch(ctx, &CreateBatchRequest{})
	require.NoError(t, err)

	_, err = batches.CloseBatch(ctx, batch.ID, nil)
	require.NoError(t, err)

	bag := seedBag(f, models.BagStatusReadyToShip)
	_, err = batches.AddBagsToBatch(ctx, batch.ID, []string{bag.ID})
	var validation *models.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestAddBagAlreadyBatchedRejected(t *testing.T) {
	batches, f, _ := newBatchFixture()
	ctx := context.Background()
	bag := seedBag(f, models.BagStatusReadyToShip)

	first, err := batches.CreateBatch(ctx, &CreateBatchRequest{BagIDs: []string{bag.ID}})
	require.NoError(t, err)

	second, err := batches.CreateBatch(ctx, &CreateBatchRequest{})
	require.NoError(t, err)

	_, err = batches.AddBagsToBatch(ctx, second.ID, []string{bag.ID})
	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)

	// The bag still belongs to the first batch.
	stored, err := f.GetBagByID(ctx, bag.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.BatchID)
	assert.Equal(t, first.ID, *stored.BatchID)
}

func TestAddBagsRollsBackOnPartialFailure(t *testing.T) {
	batches, f, _ := newBatchFixture()
	ctx := context.Background()
	good := seedBag(f, models.BagStatusReadyToShip)
	taken := seedBag(f, models.BagStatusReadyToShip)
	_, err := batches.CreateBatch(ctx, &CreateBatchRequest{BagIDs: []string{taken.ID}})
	require.NoError(t, err)

	batch, err := batches.CreateBatch(ctx, &CreateBatchRequest{})
	require.NoError(t, err)

	_, err = batches.AddBagsToBatch(ctx, batch.ID, []string{good.ID, taken.ID})
	require.Error(t, err)

	stored, err := f.GetBagByID(ctx, good.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.BatchID)
}

func TestBatchLifecycleCascades(t *testing.T) {
	batches, f, pub := newBatchFixture()
	ctx := context.Background()
	a := seedBag(f, models.BagStatusReadyToShip)
	b := seedBag(f, models.BagStatusReadyToShip)

	batch, err := batches.CreateBatch(ctx, &CreateBatchRequest{BagIDs: []string{a.ID, b.ID}})
	require.NoError(t, err)

	_, err = batches.CloseBatch(ctx, batch.ID, nil)
	require.NoError(t, err)

	courier := "FastFreight"
	full, err := batches.MarkBatchPickedUp(ctx, batch.ID, &BatchStatusUpdate{CourierName: &courier})
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusInTransit, full.Status)
	assert.NotNil(t, full.PickedUpAt)
	require.NotNil(t, full.CourierName)
	assert.Equal(t, courier, *full.CourierName)

	// Members moved with the batch and got shipped_at stamped.
	for _, bag := range full.Bags {
		assert.Equal(t, models.BagStatusInTransit, bag.Status)
		assert.NotNil(t, bag.ShippedAt)
	}

	full, err = batches.MarkBatchReadyForPickup(ctx, batch.ID)
	require.NoError(t, err)
	for _, bag := range full.Bags {
		assert.Equal(t, models.BagStatusReadyForPickup, bag.Status)
	}

	full, err = batches.MarkBatchDelivered(ctx, batch.ID)
	require.NoError(t, err)
	assert.NotNil(t, full.DeliveredAt)
	for _, bag := range full.Bags {
		assert.Equal(t, models.BagStatusDelivered, bag.Status)
		assert.NotNil(t, bag.DeliveredAt)
	}

	require.NotEmpty(t, pub.batchChanged)
	last := pub.batchChanged[len(pub.batchChanged)-1]
	assert.Equal(t, models.BatchStatusDelivered, last.ToStatus)
	assert.Equal(t, 2, last.BagsUpdated)
}

func TestBatchSkipLevelRejected(t *testing.T) {
	batches, _, _ := newBatchFixture()
	ctx := context.Background()
	batch, err := batches.CreateBatch(ctx, &CreateBatchRequest{})
	require.NoError(t, err)

	_, err = batches.MarkBatchDelivered(ctx, batch.ID)
	var invalid *models.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.BatchStatusOpen, invalid.From)
}

func TestCancelBatchDetachesMembers(t *testing.T) {
	batches, f, _ := newBatchFixture()
	ctx := context.Background()
	bag := seedBag(f, models.BagStatusReadyToShip)
	batch, err := batches.CreateBatch(ctx, &CreateBatchRequest{BagIDs: []string{bag.ID}})
	require.NoError(t, err)

	full, err := batches.CancelBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusCancelled, full.Status)
	assert.Empty(t, full.Bags)

	// The bag keeps its own status and is free to re-batch.
	stored, err := f.GetBagByID(ctx, bag.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BagStatusReadyToShip, stored.Status)
	assert.Nil(t, stored.BatchID)
}

func TestCancelDeliveredBatchRejected(t *testing.T) {
	batches, f, _ := newBatchFixture()
	ctx := context.Background()
	bag := seedBag(f, models.BagStatusReadyToShip)
	batch, err := batches.CreateBatch(ctx, &CreateBatchRequest{BagIDs: []string{bag.ID}})
	require.NoError(t, err)

	for _, status := range []string{models.BatchStatusReadyToShip, models.BatchStatusInTransit, models.BatchStatusReadyForPickup, models.BatchStatusDelivered} {
		_, err = batches.UpdateBatchStatus(ctx, batch.ID, status, nil)
		require.NoError(t, err)
	}

	_, err = batches.CancelBatch(ctx, batch.ID)
	var invalid *models.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestDeleteBatchOnlyWhenOpenOrCancelled(t *testing.T) {
	batches, _, _ := newBatchFixture()
	ctx := context.Background()

	batch, err := batches.CreateBatch(ctx, &CreateBatchRequest{})
	require.NoError(t, err)
	_, err = batches.CloseBatch(ctx, batch.ID, nil)
	require.NoError(t, err)

	err = batches.DeleteBatch(ctx, batch.ID)
	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = batches.CancelBatch(ctx, batch.ID)
	require.NoError(t, err)
	require.NoError(t, batches.DeleteBatch(ctx, batch.ID))

	_, err = batches.GetBatch(ctx, batch.ID)
	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestGetBatchByNumber(t *testing.T) {
	batches, _, _ := newBatchFixture()
	ctx := context.Background()
	batch, err := batches.CreateBatch(ctx, &CreateBatchRequest{})
	require.NoError(t, err)

	found, err := batches.GetBatchByNumber(ctx, batch.BatchNumber)
	require.NoError(t, err)
	assert.Equal(t, batch.ID, found.ID)
}
