package models

import "time"

// Age groups for categories and children
const (
	AgeGroupBaby      = "baby"
	AgeGroupToddler   = "toddler"
	AgeGroupSchoolAge = "school_age"
	AgeGroupTeen      = "teen"
	AgeGroupNeutral   = "neutral"
)

// Genders for categories and children
const (
	GenderBoy     = "boy"
	GenderGirl    = "girl"
	GenderNeutral = "neutral"
)

// Item conditions
const (
	ConditionNew  = "new"
	ConditionUsed = "used"
)

// Inventory transaction types
const (
	TransactionTypeIntake     = "intake"
	TransactionTypePick       = "pick"
	TransactionTypeAdjustment = "adjustment"
	TransactionTypeThriftOut  = "thrift_out"
	TransactionTypeDisposal   = "disposal"
)

// Intake source types
const (
	SourceTypeDonation = "donation"
	SourceTypePurchase = "purchase"
	SourceTypeTransfer = "transfer"
)

// Category classifies donated items by age group, gender and item type.
// Monetary values are stored in integer cents. Categories are never
// hard-deleted, only deactivated.
type Category struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	AgeGroup          string    `db:"age_group" json:"age_group"`
	Gender            string    `db:"gender" json:"gender"`
	ItemType          string    `db:"item_type" json:"item_type"`
	StandardValueNew  int64     `db:"standard_value_new" json:"standard_value_new"`
	StandardValueUsed int64     `db:"standard_value_used" json:"standard_value_used"`
	ReorderPoint      int       `db:"reorder_point" json:"reorder_point"`
	DisplayOrder      int       `db:"display_order" json:"display_order"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// InventoryTransaction is an immutable ledger entry. Quantity is signed:
// positive for intake, negative for consumption (pick, thrift_out,
// disposal) and either sign for adjustments. Unit and total values are
// frozen at write time.
type InventoryTransaction struct {
	ID              string    `db:"id" json:"id"`
	CategoryID      string    `db:"category_id" json:"category_id"`
	TransactionType string    `db:"transaction_type" json:"transaction_type"`
	SourceType      *string   `db:"source_type" json:"source_type,omitempty"`
	Condition       *string   `db:"condition" json:"condition,omitempty"`
	Quantity        int       `db:"quantity" json:"quantity"`
	UnitValue       int64     `db:"unit_value" json:"unit_value"`
	TotalValue      int64     `db:"total_value" json:"total_value"`
	BagOfHopeID     *string   `db:"bag_of_hope_id" json:"bag_of_hope_id,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// InventoryLevel is the derived per-category aggregate. It is updated
// in the same database transaction as every ledger insert, so
// QuantityOnHand always equals QuantityNew + QuantityUsed and both
// equal the signed sum of the ledger partitioned by condition.
type InventoryLevel struct {
	CategoryID     string     `db:"category_id" json:"category_id"`
	QuantityOnHand int        `db:"quantity_on_hand" json:"quantity_on_hand"`
	QuantityNew    int        `db:"quantity_new" json:"quantity_new"`
	QuantityUsed   int        `db:"quantity_used" json:"quantity_used"`
	TotalValue     int64      `db:"total_value" json:"total_value"`
	LastIntakeDate *time.Time `db:"last_intake_date" json:"last_intake_date,omitempty"`
	LastPickDate   *time.Time `db:"last_pick_date" json:"last_pick_date,omitempty"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// BagOfHope is one fulfillment unit: a packed donation request for a
// single child, moving through pick -> pack -> ship -> deliver.
type BagOfHope struct {
	ID        string  `db:"id" json:"id"`
	RequestID *string `db:"request_id" json:"request_id,omitempty"`

	// Child information
	ChildFirstName *string `db:"child_first_name" json:"child_first_name,omitempty"`
	ChildLastName  *string `db:"child_last_name" json:"child_last_name,omitempty"`
	ChildAgeGroup  string  `db:"child_age_group" json:"child_age_group"`
	ChildGender    string  `db:"child_gender" json:"child_gender"`
	Ethnicity      *string `db:"ethnicity" json:"ethnicity,omitempty"`

	// Pickup / delivery
	PickupLocation  *string `db:"pickup_location" json:"pickup_location,omitempty"`
	RecipientName   *string `db:"recipient_name" json:"recipient_name,omitempty"`
	RecipientPhone  *string `db:"recipient_phone" json:"recipient_phone,omitempty"`
	DeliveryAddress *string `db:"delivery_address" json:"delivery_address,omitempty"`
	DeliveryNotes   *string `db:"delivery_notes" json:"delivery_notes,omitempty"`

	// Bag customization
	BagEmbroideryColor *string `db:"bag_embroidery_color" json:"bag_embroidery_color,omitempty"`
	ToiletryBagColor   *string `db:"toiletry_bag_color" json:"toiletry_bag_color,omitempty"`

	// Requested items (free text, drives category filtering during pick)
	Tops         *string `db:"tops" json:"tops,omitempty"`
	Bottoms      *string `db:"bottoms" json:"bottoms,omitempty"`
	Pajamas      *string `db:"pajamas" json:"pajamas,omitempty"`
	Underwear    *string `db:"underwear" json:"underwear,omitempty"`
	DiaperPullup *string `db:"diaper_pullup" json:"diaper_pullup,omitempty"`
	Shoes        *string `db:"shoes" json:"shoes,omitempty"`
	Coat         *string `db:"coat" json:"coat,omitempty"`
	ToyActivity  *string `db:"toy_activity" json:"toy_activity,omitempty"`

	// Status and tracking
	Status          string     `db:"status" json:"status"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	TrackingNumber  *string    `db:"tracking_number" json:"tracking_number,omitempty"`
	ShippingCarrier *string    `db:"shipping_carrier" json:"shipping_carrier,omitempty"`
	BatchID         *string    `db:"batch_id" json:"batch_id,omitempty"`
	PickedAt        *time.Time `db:"picked_at" json:"picked_at,omitempty"`
	PackedAt        *time.Time `db:"packed_at" json:"packed_at,omitempty"`
	ShippedAt       *time.Time `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ShippingBatch groups bags for one courier run. A bag belongs to at
// most one batch at a time via BagOfHope.BatchID.
type ShippingBatch struct {
	ID                string     `db:"id" json:"id"`
	BatchNumber       string     `db:"batch_number" json:"batch_number"`
	Status            string     `db:"status" json:"status"`
	CourierName       *string    `db:"courier_name" json:"courier_name,omitempty"`
	TrackingNumber    *string    `db:"tracking_number" json:"tracking_number,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	ScheduledPickupAt *time.Time `db:"scheduled_pickup_at" json:"scheduled_pickup_at,omitempty"`
	PickedUpAt        *time.Time `db:"picked_up_at" json:"picked_up_at,omitempty"`
	DeliveredAt       *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// BatchWithBags is a batch together with its current members.
type BatchWithBags struct {
	ShippingBatch
	Bags []BagOfHope `json:"bags"`
}

// Submission statuses
const (
	SubmissionStatusPending   = "pending"
	SubmissionStatusProcessed = "processed"
	SubmissionStatusCancelled = "cancelled"
)

// Submission is an intake record from the public request form. Staff
// process a submission into a pending BagOfHope.
type Submission struct {
	ID             string     `db:"id" json:"id"`
	ChildFirstName string     `db:"child_first_name" json:"child_first_name"`
	ChildLastName  string     `db:"child_last_name" json:"child_last_name"`
	ChildAgeGroup  string     `db:"child_age_group" json:"child_age_group"`
	ChildGender    string     `db:"child_gender" json:"child_gender"`
	Ethnicity      *string    `db:"ethnicity" json:"ethnicity,omitempty"`
	PickupLocation string     `db:"pickup_location" json:"pickup_location"`
	ClothingNeeds  *string    `db:"clothing_needs" json:"clothing_needs,omitempty"`
	ToyPreferences *string    `db:"toy_preferences" json:"toy_preferences,omitempty"`
	SpecialNotes   *string    `db:"special_notes" json:"special_notes,omitempty"`
	CaregiverName  *string    `db:"caregiver_name" json:"caregiver_name,omitempty"`
	CaregiverPhone *string    `db:"caregiver_phone" json:"caregiver_phone,omitempty"`
	Status         string     `db:"status" json:"status"`
	BagOfHopeID    *string    `db:"bag_of_hope_id" json:"bag_of_hope_id,omitempty"`
	ProcessedAt    *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// UsedValueCents derives the used-condition value from a new-condition
// value. Used items are valued at half the standard new value; the
// result is frozen onto pick transactions at write time.
func UsedValueCents(newValue int64) int64 {
	return newValue / 2
}
