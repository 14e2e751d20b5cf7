package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateBatch inserts a new shipping batch
func (s *Store) CreateBatch(ctx context.Context, b *models.ShippingBatch) error {
	query := `
		INSERT INTO shipping_batches (batch_number, status, courier_name, notes, scheduled_pickup_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return sqlx.GetContext(ctx, s.ext, b, query,
		b.BatchNumber, b.Status, b.CourierName, b.Notes, b.ScheduledPickupAt)
}

// GetBatchByID retrieves a batch by ID
func (s *Store) GetBatchByID(ctx context.Context, id string) (*models.ShippingBatch, error) {
	var b models.ShippingBatch
	err := sqlx.GetContext(ctx, s.ext, &b, "SELECT * FROM shipping_batches WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("batch", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBatchByIDForUpdate retrieves a batch and locks its row for the
// duration of the surrounding transaction
func (s *Store) GetBatchByIDForUpdate(ctx context.Context, id string) (*models.ShippingBatch, error) {
	var b models.ShippingBatch
	err := sqlx.GetContext(ctx, s.ext, &b, "SELECT * FROM shipping_batches WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("batch", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBatchByNumber retrieves a batch by its human-readable batch number
func (s *Store) GetBatchByNumber(ctx context.Context, batchNumber string) (*models.ShippingBatch, error) {
	var b models.ShippingBatch
	err := sqlx.GetContext(ctx, s.ext, &b,
		"SELECT * FROM shipping_batches WHERE batch_number = $1", batchNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("batch", batchNumber)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBatches retrieves batches, optionally filtered to a status set,
// newest first
func (s *Store) ListBatches(ctx context.Context, statuses []string) ([]models.ShippingBatch, error) {
	var batches []models.ShippingBatch

	if len(statuses) == 0 {
		err := sqlx.SelectContext(ctx, s.ext, &batches,
			"SELECT * FROM shipping_batches ORDER BY created_at DESC")
		return batches, err
	}

	query, args, err := sqlx.In(
		"SELECT * FROM shipping_batches WHERE status IN (?) ORDER BY created_at DESC", statuses)
	if err != nil {
		return nil, err
	}
	query = s.ext.Rebind(query)

	err = sqlx.SelectContext(ctx, s.ext, &batches, query, args...)
	return batches, err
}

// UpdateBatchStatus sets a batch's status, optional courier/tracking
// fields and milestone timestamps passed as non-nil
func (s *Store) UpdateBatchStatus(ctx context.Context, id, status string, courierName, trackingNumber *string, pickedUpAt, deliveredAt *time.Time) error {
	query := `
		UPDATE shipping_batches
		SET status = $1,
			courier_name = COALESCE($2, courier_name),
			tracking_number = COALESCE($3, tracking_number),
			picked_up_at = COALESCE($4, picked_up_at),
			delivered_at = COALESCE($5, delivered_at),
			updated_at = NOW()
		WHERE id = $6`

	res, err := s.ext.ExecContext(ctx, query, status, courierName, trackingNumber, pickedUpAt, deliveredAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewNotFoundError("batch", id)
	}
	return nil
}

// DeleteBatch removes a batch row. Members must be detached first.
func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	res, err := s.ext.ExecContext(ctx, "DELETE FROM shipping_batches WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewNotFoundError("batch", id)
	}
	return nil
}

// CountBatchesByStatus returns batch counts grouped by status
func (s *Store) CountBatchesByStatus(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}

	err := sqlx.SelectContext(ctx, s.ext, &rows,
		"SELECT status, COUNT(*) AS count FROM shipping_batches GROUP BY status")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
