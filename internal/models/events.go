package models

import "time"

// Event types
const (
	EventTypeBagCreated         = "BAG_CREATED"
	EventTypeBagStatusChanged   = "BAG_STATUS_CHANGED"
	EventTypePickCompleted      = "PICK_COMPLETED"
	EventTypeBatchStatusChanged = "BATCH_STATUS_CHANGED"
	EventTypeLowStock           = "LOW_STOCK"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BagCreatedEvent published when a bag is created
type BagCreatedEvent struct {
	BaseEvent
	BagID         string  `json:"bag_id"`
	ChildAgeGroup string  `json:"child_age_group"`
	ChildGender   string  `json:"child_gender"`
	SubmissionID  *string `json:"submission_id,omitempty"`
}

// BagStatusChangedEvent published on every bag status transition
type BagStatusChangedEvent struct {
	BaseEvent
	BagID      string `json:"bag_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// PickItemData represents one picked line in events
type PickItemData struct {
	CategoryID string `json:"category_id"`
	Condition  string `json:"condition"`
	Quantity   int    `json:"quantity"`
	UnitValue  int64  `json:"unit_value"`
}

// PickCompletedEvent published when a bag's pick list is recorded
type PickCompletedEvent struct {
	BaseEvent
	BagID      string         `json:"bag_id"`
	Items      []PickItemData `json:"items"`
	TotalValue int64          `json:"total_value"`
}

// BatchStatusChangedEvent published on every batch status transition,
// including the number of member bags the cascade touched
type BatchStatusChangedEvent struct {
	BaseEvent
	BatchID     string `json:"batch_id"`
	BatchNumber string `json:"batch_number"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
	BagsUpdated int    `json:"bags_updated"`
}

// LowStockEvent published when a category's on-hand quantity falls to
// or below its reorder point
type LowStockEvent struct {
	BaseEvent
	CategoryID     string `json:"category_id"`
	CategoryName   string `json:"category_name"`
	QuantityOnHand int    `json:"quantity_on_hand"`
	ReorderPoint   int    `json:"reorder_point"`
}
