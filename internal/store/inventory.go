package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// InsertTransaction appends an immutable ledger entry
func (s *Store) InsertTransaction(ctx context.Context, t *models.InventoryTransaction) error {
	query := `
		INSERT INTO inventory_transactions (category_id, transaction_type, source_type,
			condition, quantity, unit_value, total_value, bag_of_hope_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	return sqlx.GetContext(ctx, s.ext, t, query,
		t.CategoryID, t.TransactionType, t.SourceType,
		t.Condition, t.Quantity, t.UnitValue, t.TotalValue, t.BagOfHopeID, t.Notes)
}

// ListTransactions retrieves ledger entries for a category, newest first
func (s *Store) ListTransactions(ctx context.Context, categoryID string, limit int) ([]models.InventoryTransaction, error) {
	var txns []models.InventoryTransaction
	err := sqlx.SelectContext(ctx, s.ext, &txns,
		"SELECT * FROM inventory_transactions WHERE category_id = $1 ORDER BY created_at DESC LIMIT $2",
		categoryID, limit)
	return txns, err
}

// ListTransactionsByBag retrieves the pick transactions recorded
// against a bag
func (s *Store) ListTransactionsByBag(ctx context.Context, bagID string) ([]models.InventoryTransaction, error) {
	var txns []models.InventoryTransaction
	err := sqlx.SelectContext(ctx, s.ext, &txns,
		"SELECT * FROM inventory_transactions WHERE bag_of_hope_id = $1 ORDER BY created_at ASC", bagID)
	return txns, err
}

// GetLevel retrieves the derived level for a category. A category with
// no transactions yet has no level row; callers treat that as zero.
func (s *Store) GetLevel(ctx context.Context, categoryID string) (*models.InventoryLevel, error) {
	var lvl models.InventoryLevel
	err := sqlx.GetContext(ctx, s.ext, &lvl,
		"SELECT * FROM inventory_levels WHERE category_id = $1", categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("inventory level", categoryID)
	}
	if err != nil {
		return nil, err
	}
	return &lvl, nil
}

// GetLevelForUpdate retrieves and locks the level row so concurrent
// picks on the same category serialize. Missing rows map to NotFound;
// callers treat that as zero on-hand.
func (s *Store) GetLevelForUpdate(ctx context.Context, categoryID string) (*models.InventoryLevel, error) {
	var lvl models.InventoryLevel
	err := sqlx.GetContext(ctx, s.ext, &lvl,
		"SELECT * FROM inventory_levels WHERE category_id = $1 FOR UPDATE", categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("inventory level", categoryID)
	}
	if err != nil {
		return nil, err
	}
	return &lvl, nil
}

// ListLevels retrieves all level rows
func (s *Store) ListLevels(ctx context.Context) ([]models.InventoryLevel, error) {
	var levels []models.InventoryLevel
	err := sqlx.SelectContext(ctx, s.ext, &levels,
		"SELECT * FROM inventory_levels ORDER BY category_id")
	return levels, err
}

// ApplyLevelDelta incrementally updates the cached level for a
// category, creating the row on first use. Deltas are signed; intake
// and pick timestamps are stamped when provided.
func (s *Store) ApplyLevelDelta(ctx context.Context, categoryID string, deltaNew, deltaUsed int, deltaValue int64, intakeAt, pickAt *time.Time) error {
	query := `
		INSERT INTO inventory_levels (category_id, quantity_on_hand, quantity_new, quantity_used,
			total_value, last_intake_date, last_pick_date, updated_at)
		VALUES ($1, $2 + $3, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (category_id) DO UPDATE SET
			quantity_on_hand = inventory_levels.quantity_on_hand + $2 + $3,
			quantity_new = inventory_levels.quantity_new + $2,
			quantity_used = inventory_levels.quantity_used + $3,
			total_value = inventory_levels.total_value + $4,
			last_intake_date = COALESCE($5, inventory_levels.last_intake_date),
			last_pick_date = COALESCE($6, inventory_levels.last_pick_date),
			updated_at = NOW()`

	_, err := s.ext.ExecContext(ctx, query, categoryID, deltaNew, deltaUsed, deltaValue, intakeAt, pickAt)
	return err
}

// RecomputeLevel rebuilds a category's level row from the full ledger.
// Used as a consistency repair; normal writes go through
// ApplyLevelDelta inside the same transaction as the ledger insert.
func (s *Store) RecomputeLevel(ctx context.Context, categoryID string) error {
	query := `
		INSERT INTO inventory_levels (category_id, quantity_on_hand, quantity_new, quantity_used,
			total_value, last_intake_date, last_pick_date, updated_at)
		SELECT
			$1,
			COALESCE(SUM(quantity), 0),
			COALESCE(SUM(quantity) FILTER (WHERE condition = 'new'), 0),
			COALESCE(SUM(quantity) FILTER (WHERE condition = 'used'), 0),
			COALESCE(SUM(total_value), 0),
			MAX(created_at) FILTER (WHERE transaction_type = 'intake'),
			MAX(created_at) FILTER (WHERE transaction_type = 'pick'),
			NOW()
		FROM inventory_transactions
		WHERE category_id = $1
		ON CONFLICT (category_id) DO UPDATE SET
			quantity_on_hand = EXCLUDED.quantity_on_hand,
			quantity_new = EXCLUDED.quantity_new,
			quantity_used = EXCLUDED.quantity_used,
			total_value = EXCLUDED.total_value,
			last_intake_date = EXCLUDED.last_intake_date,
			last_pick_date = EXCLUDED.last_pick_date,
			updated_at = NOW()`

	_, err := s.ext.ExecContext(ctx, query, categoryID)
	return err
}
