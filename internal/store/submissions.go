package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateSubmission inserts a new intake submission
func (s *Store) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	query := `
		INSERT INTO submissions (child_first_name, child_last_name, child_age_group,
			child_gender, ethnicity, pickup_location, clothing_needs, toy_preferences,
			special_notes, caregiver_name, caregiver_phone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	return sqlx.GetContext(ctx, s.ext, sub, query,
		sub.ChildFirstName, sub.ChildLastName, sub.ChildAgeGroup,
		sub.ChildGender, sub.Ethnicity, sub.PickupLocation, sub.ClothingNeeds, sub.ToyPreferences,
		sub.SpecialNotes, sub.CaregiverName, sub.CaregiverPhone, sub.Status)
}

// GetSubmissionByID retrieves a submission by ID
func (s *Store) GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	err := sqlx.GetContext(ctx, s.ext, &sub, "SELECT * FROM submissions WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("submission", id)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissions retrieves submissions, optionally filtered by status,
// newest first
func (s *Store) ListSubmissions(ctx context.Context, status string) ([]models.Submission, error) {
	var subs []models.Submission

	if status == "" {
		err := sqlx.SelectContext(ctx, s.ext, &subs,
			"SELECT * FROM submissions ORDER BY created_at DESC")
		return subs, err
	}

	err := sqlx.SelectContext(ctx, s.ext, &subs,
		"SELECT * FROM submissions WHERE status = $1 ORDER BY created_at DESC", status)
	return subs, err
}

// MarkSubmissionProcessed stamps a submission as processed
func (s *Store) MarkSubmissionProcessed(ctx context.Context, id string, processedAt time.Time) error {
	res, err := s.ext.ExecContext(ctx,
		"UPDATE submissions SET status = $1, processed_at = $2, updated_at = NOW() WHERE id = $3",
		models.SubmissionStatusProcessed, processedAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewNotFoundError("submission", id)
	}
	return nil
}

// LinkSubmissionToBag records the bag created from a submission. Kept
// separate from MarkSubmissionProcessed so callers can treat the link
// as best-effort.
func (s *Store) LinkSubmissionToBag(ctx context.Context, id, bagID string) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE submissions SET bag_of_hope_id = $1, updated_at = NOW() WHERE id = $2", bagID, id)
	return err
}
