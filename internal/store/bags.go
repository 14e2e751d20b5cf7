package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateBag inserts a new bag of hope
func (s *Store) CreateBag(ctx context.Context, b *models.BagOfHope) error {
	query := `
		INSERT INTO bags_of_hope (request_id, child_first_name, child_last_name,
			child_age_group, child_gender, ethnicity, pickup_location,
			recipient_name, recipient_phone, delivery_address, delivery_notes,
			bag_embroidery_color, toiletry_bag_color,
			tops, bottoms, pajamas, underwear, diaper_pullup, shoes, coat, toy_activity,
			status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id, created_at, updated_at`

	return sqlx.GetContext(ctx, s.ext, b, query,
		b.RequestID, b.ChildFirstName, b.ChildLastName,
		b.ChildAgeGroup, b.ChildGender, b.Ethnicity, b.PickupLocation,
		b.RecipientName, b.RecipientPhone, b.DeliveryAddress, b.DeliveryNotes,
		b.BagEmbroideryColor, b.ToiletryBagColor,
		b.Tops, b.Bottoms, b.Pajamas, b.Underwear, b.DiaperPullup, b.Shoes, b.Coat, b.ToyActivity,
		b.Status, b.Notes)
}

// GetBagByID retrieves a bag by ID
func (s *Store) GetBagByID(ctx context.Context, id string) (*models.BagOfHope, error) {
	var b models.BagOfHope
	err := sqlx.GetContext(ctx, s.ext, &b, "SELECT * FROM bags_of_hope WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("bag", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBagByIDForUpdate retrieves a bag and locks its row for the
// duration of the surrounding transaction, serializing concurrent
// status transitions on the same bag
func (s *Store) GetBagByIDForUpdate(ctx context.Context, id string) (*models.BagOfHope, error) {
	var b models.BagOfHope
	err := sqlx.GetContext(ctx, s.ext, &b, "SELECT * FROM bags_of_hope WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("bag", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBags retrieves bags, optionally filtered to a status set, newest
// first
func (s *Store) ListBags(ctx context.Context, statuses []string) ([]models.BagOfHope, error) {
	var bags []models.BagOfHope

	if len(statuses) == 0 {
		err := sqlx.SelectContext(ctx, s.ext, &bags,
			"SELECT * FROM bags_of_hope ORDER BY created_at DESC")
		return bags, err
	}

	query, args, err := sqlx.In(
		"SELECT * FROM bags_of_hope WHERE status IN (?) ORDER BY created_at DESC", statuses)
	if err != nil {
		return nil, err
	}
	query = s.ext.Rebind(query)

	err = sqlx.SelectContext(ctx, s.ext, &bags, query, args...)
	return bags, err
}

// ListBagsByBatchID retrieves all bags currently in a batch
func (s *Store) ListBagsByBatchID(ctx context.Context, batchID string) ([]models.BagOfHope, error) {
	var bags []models.BagOfHope
	err := sqlx.SelectContext(ctx, s.ext, &bags,
		"SELECT * FROM bags_of_hope WHERE batch_id = $1 ORDER BY created_at DESC", batchID)
	return bags, err
}

// ListAvailableBagsForBatch retrieves bags eligible for batch assembly:
// ready_to_ship and unassigned, oldest first
func (s *Store) ListAvailableBagsForBatch(ctx context.Context) ([]models.BagOfHope, error) {
	var bags []models.BagOfHope
	err := sqlx.SelectContext(ctx, s.ext, &bags,
		"SELECT * FROM bags_of_hope WHERE status = $1 AND batch_id IS NULL ORDER BY created_at ASC",
		models.BagStatusReadyToShip)
	return bags, err
}

// UpdateBagStatus sets a bag's status and any milestone timestamps
// passed as non-nil. Existing milestones are preserved.
func (s *Store) UpdateBagStatus(ctx context.Context, id, status string, pickedAt, packedAt, shippedAt, deliveredAt *time.Time) error {
	query := `
		UPDATE bags_of_hope
		SET status = $1,
			picked_at = COALESCE($2, picked_at),
			packed_at = COALESCE($3, packed_at),
			shipped_at = COALESCE($4, shipped_at),
			delivered_at = COALESCE($5, delivered_at),
			updated_at = NOW()
		WHERE id = $6`

	res, err := s.ext.ExecContext(ctx, query, status, pickedAt, packedAt, shippedAt, deliveredAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewNotFoundError("bag", id)
	}
	return nil
}

// UpdateBagShippingInfo sets tracking and recipient fields passed as
// non-nil
func (s *Store) UpdateBagShippingInfo(ctx context.Context, id string, trackingNumber, shippingCarrier, recipientName, recipientPhone, deliveryAddress, deliveryNotes *string) error {
	query := `
		UPDATE bags_of_hope
		SET tracking_number = COALESCE($1, tracking_number),
			shipping_carrier = COALESCE($2, shipping_carrier),
			recipient_name = COALESCE($3, recipient_name),
			recipient_phone = COALESCE($4, recipient_phone),
			delivery_address = COALESCE($5, delivery_address),
			delivery_notes = COALESCE($6, delivery_notes),
			updated_at = NOW()
		WHERE id = $7`

	_, err := s.ext.ExecContext(ctx, query,
		trackingNumber, shippingCarrier, recipientName, recipientPhone, deliveryAddress, deliveryNotes, id)
	return err
}

// SetBagsBatchID assigns the given bags to a batch
func (s *Store) SetBagsBatchID(ctx context.Context, bagIDs []string, batchID string) error {
	if len(bagIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(
		"UPDATE bags_of_hope SET batch_id = ?, updated_at = NOW() WHERE id IN (?)", batchID, bagIDs)
	if err != nil {
		return err
	}
	query = s.ext.Rebind(query)

	_, err = s.ext.ExecContext(ctx, query, args...)
	return err
}

// ClearBagBatchID detaches a single bag from its batch
func (s *Store) ClearBagBatchID(ctx context.Context, bagID string) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE bags_of_hope SET batch_id = NULL, updated_at = NOW() WHERE id = $1", bagID)
	return err
}

// ClearBatchMembers detaches every bag from a batch and returns how
// many were detached
func (s *Store) ClearBatchMembers(ctx context.Context, batchID string) (int64, error) {
	res, err := s.ext.ExecContext(ctx,
		"UPDATE bags_of_hope SET batch_id = NULL, updated_at = NOW() WHERE batch_id = $1", batchID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CascadeBatchBagStatus bulk-updates every bag in a batch to the given
// status, stamping shipped/delivered milestones when provided. Returns
// the number of bags updated.
func (s *Store) CascadeBatchBagStatus(ctx context.Context, batchID, status string, shippedAt, deliveredAt *time.Time) (int64, error) {
	query := `
		UPDATE bags_of_hope
		SET status = $1,
			shipped_at = COALESCE($2, shipped_at),
			delivered_at = COALESCE($3, delivered_at),
			updated_at = NOW()
		WHERE batch_id = $4`

	res, err := s.ext.ExecContext(ctx, query, status, shippedAt, deliveredAt, batchID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountBagsByStatus returns bag counts grouped by status
func (s *Store) CountBagsByStatus(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}

	err := sqlx.SelectContext(ctx, s.ext, &rows,
		"SELECT status, COUNT(*) AS count FROM bags_of_hope GROUP BY status")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
