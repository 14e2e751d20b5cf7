package models

// Bag statuses
const (
	BagStatusPending        = "pending"
	BagStatusPicking        = "picking"
	BagStatusPacking        = "packing"
	BagStatusReadyToShip    = "ready_to_ship"
	BagStatusInTransit      = "in_transit"
	BagStatusReadyForPickup = "ready_for_pickup"
	BagStatusDelivered      = "delivered"
	BagStatusCancelled      = "cancelled"
)

// Batch statuses
const (
	BatchStatusOpen           = "open"
	BatchStatusReadyToShip    = "ready_to_ship"
	BatchStatusInTransit      = "in_transit"
	BatchStatusReadyForPickup = "ready_for_pickup"
	BatchStatusDelivered      = "delivered"
	BatchStatusCancelled      = "cancelled"
)

// Fulfillment stages for queue displays
const (
	StagePick = "pick"
	StagePack = "pack"
	StageShip = "ship"
)

// BagStatusTransitions maps each bag status to the set of statuses it
// may move to. Delivered is terminal; cancelled bags may only be
// re-opened to pending.
var BagStatusTransitions = map[string][]string{
	BagStatusPending:        {BagStatusPicking, BagStatusCancelled},
	BagStatusPicking:        {BagStatusPacking, BagStatusPending, BagStatusCancelled},
	BagStatusPacking:        {BagStatusReadyToShip, BagStatusPicking, BagStatusCancelled},
	BagStatusReadyToShip:    {BagStatusInTransit, BagStatusPacking, BagStatusCancelled},
	BagStatusInTransit:      {BagStatusReadyForPickup, BagStatusDelivered, BagStatusReadyToShip},
	BagStatusReadyForPickup: {BagStatusDelivered, BagStatusInTransit},
	BagStatusDelivered:      {},
	BagStatusCancelled:      {BagStatusPending},
}

// BatchStatusTransitions maps each batch status to the set of statuses
// it may move to. The batch machine mirrors the bag machine's shipping
// leg; delivered and cancelled are terminal.
var BatchStatusTransitions = map[string][]string{
	BatchStatusOpen:           {BatchStatusReadyToShip, BatchStatusCancelled},
	BatchStatusReadyToShip:    {BatchStatusInTransit, BatchStatusCancelled},
	BatchStatusInTransit:      {BatchStatusReadyForPickup, BatchStatusCancelled},
	BatchStatusReadyForPickup: {BatchStatusDelivered, BatchStatusCancelled},
	BatchStatusDelivered:      {},
	BatchStatusCancelled:      {},
}

// BatchToBagStatus maps a batch status to the bag status cascaded onto
// member bags. Statuses mapped to "" do not touch member bags.
var BatchToBagStatus = map[string]string{
	BatchStatusOpen:           "",
	BatchStatusReadyToShip:    BagStatusReadyToShip,
	BatchStatusInTransit:      BagStatusInTransit,
	BatchStatusReadyForPickup: BagStatusReadyForPickup,
	BatchStatusDelivered:      BagStatusDelivered,
	BatchStatusCancelled:      "",
}

// FulfillmentStageStatuses buckets bag statuses into the pick, pack and
// ship dashboard queues. Cancelled bags belong to no stage.
var FulfillmentStageStatuses = map[string][]string{
	StagePick: {BagStatusPending, BagStatusPicking},
	StagePack: {BagStatusPacking},
	StageShip: {BagStatusReadyToShip, BagStatusInTransit, BagStatusReadyForPickup, BagStatusDelivered},
}

// AllBagStatuses lists every bag status.
var AllBagStatuses = []string{
	BagStatusPending,
	BagStatusPicking,
	BagStatusPacking,
	BagStatusReadyToShip,
	BagStatusInTransit,
	BagStatusReadyForPickup,
	BagStatusDelivered,
	BagStatusCancelled,
}

// AllBatchStatuses lists every batch status.
var AllBatchStatuses = []string{
	BatchStatusOpen,
	BatchStatusReadyToShip,
	BatchStatusInTransit,
	BatchStatusReadyForPickup,
	BatchStatusDelivered,
	BatchStatusCancelled,
}

// IsValidBagStatus reports whether s is a known bag status.
func IsValidBagStatus(s string) bool {
	_, ok := BagStatusTransitions[s]
	return ok
}

// IsValidBatchStatus reports whether s is a known batch status.
func IsValidBatchStatus(s string) bool {
	_, ok := BatchStatusTransitions[s]
	return ok
}

// CanBagTransition reports whether a bag may move from one status to
// another. This is the single source of truth for bag transitions; all
// lifecycle operations validate through it.
func CanBagTransition(from, to string) bool {
	for _, allowed := range BagStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanBatchTransition reports whether a batch may move from one status
// to another.
func CanBatchTransition(from, to string) bool {
	for _, allowed := range BatchStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StageForStatus returns the fulfillment stage a bag status belongs to,
// or "" for statuses outside the queue view (cancelled).
func StageForStatus(status string) string {
	for _, stage := range []string{StagePick, StagePack, StageShip} {
		for _, s := range FulfillmentStageStatuses[stage] {
			if s == status {
				return stage
			}
		}
	}
	return ""
}
