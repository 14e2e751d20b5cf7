package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBagTransitions(t *testing.T) {
	allowed := [][2]string{
		{BagStatusPending, BagStatusPicking},
		{BagStatusPending, BagStatusCancelled},
		{BagStatusPicking, BagStatusPacking},
		{BagStatusPicking, BagStatusCancelled},
		{BagStatusPacking, BagStatusReadyToShip},
		{BagStatusPacking, BagStatusCancelled},
		{BagStatusReadyToShip, BagStatusInTransit},
		{BagStatusReadyToShip, BagStatusCancelled},
		{BagStatusInTransit, BagStatusReadyForPickup},
		{BagStatusInTransit, BagStatusDelivered},
		{BagStatusReadyForPickup, BagStatusDelivered},
		{BagStatusCancelled, BagStatusPending},

		// Backward moves to correct staff mistakes.
		{BagStatusPicking, BagStatusPending},
		{BagStatusPacking, BagStatusPicking},
		{BagStatusReadyToShip, BagStatusPacking},
		{BagStatusInTransit, BagStatusReadyToShip},
		{BagStatusReadyForPickup, BagStatusInTransit},
	}
	for _, tr := range allowed {
		assert.True(t, CanBagTransition(tr[0], tr[1]), "%s -> %s should be allowed", tr[0], tr[1])
	}

	denied := [][2]string{
		{BagStatusPending, BagStatusPacking},
		{BagStatusPending, BagStatusDelivered},
		{BagStatusInTransit, BagStatusCancelled},
		{BagStatusReadyToShip, BagStatusDelivered},
		{BagStatusDelivered, BagStatusPending},
		{BagStatusDelivered, BagStatusCancelled},
		{BagStatusCancelled, BagStatusPicking},
	}
	for _, tr := range denied {
		assert.False(t, CanBagTransition(tr[0], tr[1]), "%s -> %s should be denied", tr[0], tr[1])
	}
}

func TestBagTransitionsNoSelfLoops(t *testing.T) {
	for _, status := range AllBagStatuses {
		assert.False(t, CanBagTransition(status, status), "%s -> %s", status, status)
	}
}

func TestDeliveredIsTerminal(t *testing.T) {
	for _, to := range AllBagStatuses {
		assert.False(t, CanBagTransition(BagStatusDelivered, to))
	}
	for _, to := range AllBatchStatuses {
		assert.False(t, CanBatchTransition(BatchStatusDelivered, to))
		assert.False(t, CanBatchTransition(BatchStatusCancelled, to))
	}
}

func TestBatchTransitions(t *testing.T) {
	assert.True(t, CanBatchTransition(BatchStatusOpen, BatchStatusReadyToShip))
	assert.True(t, CanBatchTransition(BatchStatusReadyToShip, BatchStatusInTransit))
	assert.True(t, CanBatchTransition(BatchStatusInTransit, BatchStatusReadyForPickup))
	assert.True(t, CanBatchTransition(BatchStatusReadyForPickup, BatchStatusDelivered))

	// Cancel is allowed from every non-terminal status.
	for _, from := range []string{BatchStatusOpen, BatchStatusReadyToShip, BatchStatusInTransit, BatchStatusReadyForPickup} {
		assert.True(t, CanBatchTransition(from, BatchStatusCancelled), "cancel from %s", from)
	}

	assert.False(t, CanBatchTransition(BatchStatusOpen, BatchStatusInTransit))
	assert.False(t, CanBatchTransition(BatchStatusOpen, BatchStatusDelivered))
	assert.False(t, CanBatchTransition(BatchStatusInTransit, BatchStatusOpen))
	assert.False(t, CanBatchTransition(BatchStatusReadyToShip, BatchStatusDelivered))
}

func TestBatchToBagStatus(t *testing.T) {
	assert.Equal(t, BagStatusInTransit, BatchToBagStatus[BatchStatusInTransit])
	assert.Equal(t, BagStatusReadyForPickup, BatchToBagStatus[BatchStatusReadyForPickup])
	assert.Equal(t, BagStatusDelivered, BatchToBagStatus[BatchStatusDelivered])
	assert.Equal(t, BagStatusReadyToShip, BatchToBagStatus[BatchStatusReadyToShip])

	// Opening or cancelling a batch never touches its bags.
	assert.Empty(t, BatchToBagStatus[BatchStatusOpen])
	assert.Empty(t, BatchToBagStatus[BatchStatusCancelled])
}

func TestStageForStatus(t *testing.T) {
	assert.Equal(t, StagePick, StageForStatus(BagStatusPending))
	assert.Equal(t, StagePick, StageForStatus(BagStatusPicking))
	assert.Equal(t, StagePack, StageForStatus(BagStatusPacking))
	assert.Equal(t, StageShip, StageForStatus(BagStatusReadyToShip))
	assert.Equal(t, StageShip, StageForStatus(BagStatusInTransit))
	assert.Equal(t, StageShip, StageForStatus(BagStatusReadyForPickup))
	assert.Empty(t, StageForStatus(BagStatusCancelled))
}

func TestUsedValueCents(t *testing.T) {
	assert.Equal(t, int64(500), UsedValueCents(1000))
	assert.Equal(t, int64(0), UsedValueCents(0))
	assert.Equal(t, int64(0), UsedValueCents(1))
	assert.Equal(t, int64(637), UsedValueCents(1275))
}
