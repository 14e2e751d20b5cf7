package service

import (
	"context"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"go.uber.org/zap"
)

// SubmissionService handles request-form intake: recording submissions
// and turning them into pending bags.
type SubmissionService struct {
	store  store.Datastore
	bags   *BagService
	logger *zap.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(store store.Datastore, bags *BagService) *SubmissionService {
	return &SubmissionService{
		store:  store,
		bags:   bags,
		logger: util.GetLogger(),
	}
}

// CreateSubmissionRequest carries the public request-form fields
type CreateSubmissionRequest struct {
	ChildFirstName string  `json:"child_first_name" binding:"required"`
	ChildLastName  string  `json:"child_last_name" binding:"required"`
	ChildAgeGroup  string  `json:"child_age_group" binding:"required"`
	ChildGender    string  `json:"child_gender" binding:"required"`
	Ethnicity      *string `json:"ethnicity,omitempty"`
	PickupLocation string  `json:"pickup_location" binding:"required"`
	ClothingNeeds  *string `json:"clothing_needs,omitempty"`
	ToyPreferences *string `json:"toy_preferences,omitempty"`
	SpecialNotes   *string `json:"special_notes,omitempty"`
	CaregiverName  *string `json:"caregiver_name,omitempty"`
	CaregiverPhone *string `json:"caregiver_phone,omitempty"`
}

// CreateSubmission records a pending submission from the request form
func (s *SubmissionService) CreateSubmission(ctx context.Context, req *CreateSubmissionRequest) (*models.Submission, error) {
	ctx, span := util.StartSpan(ctx, "SubmissionService.CreateSubmission")
	defer span.End()

	if err := validAgeGroup(req.ChildAgeGroup); err != nil {
		return nil, err
	}
	if err := validGender(req.ChildGender); err != nil {
		return nil, err
	}

	sub := &models.Submission{
		ChildFirstName: req.ChildFirstName,
		ChildLastName:  req.ChildLastName,
		ChildAgeGroup:  req.ChildAgeGroup,
		ChildGender:    req.ChildGender,
		Ethnicity:      req.Ethnicity,
		PickupLocation: req.PickupLocation,
		ClothingNeeds:  req.ClothingNeeds,
		ToyPreferences: req.ToyPreferences,
		SpecialNotes:   req.SpecialNotes,
		CaregiverName:  req.CaregiverName,
		CaregiverPhone: req.CaregiverPhone,
		Status:         models.SubmissionStatusPending,
	}

	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("Submission received", zap.String("submission_id", sub.ID))
	return sub, nil
}

// GetSubmission retrieves a submission by ID
func (s *SubmissionService) GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	return s.store.GetSubmissionByID(ctx, submissionID)
}

// ListSubmissions retrieves submissions, optionally filtered by status
func (s *SubmissionService) ListSubmissions(ctx context.Context, status string) ([]models.Submission, error) {
	if status != "" && status != models.SubmissionStatusPending &&
		status != models.SubmissionStatusProcessed && status != models.SubmissionStatusCancelled {
		return nil, models.NewValidationError("status", "unknown submission status: "+status)
	}
	return s.store.ListSubmissions(ctx, status)
}

// ProcessSubmission turns a pending submission into a pending bag. The
// bag creation and the processed mark commit together; linking the bag
// back onto the submission row is best-effort.
func (s *SubmissionService) ProcessSubmission(ctx context.Context, submissionID string) (*models.BagOfHope, error) {
	ctx, span := util.StartSpan(ctx, "SubmissionService.ProcessSubmission")
	defer span.End()

	var bag *models.BagOfHope
	err := s.store.ExecTx(ctx, func(ds store.Datastore) error {
		sub, err := ds.GetSubmissionByID(ctx, submissionID)
		if err != nil {
			return err
		}
		if sub.Status != models.SubmissionStatusPending {
			return models.NewValidationError("submission_id", "submission already "+sub.Status)
		}

		bag = &models.BagOfHope{
			ChildFirstName: &sub.ChildFirstName,
			ChildLastName:  &sub.ChildLastName,
			ChildAgeGroup:  sub.ChildAgeGroup,
			ChildGender:    sub.ChildGender,
			Ethnicity:      sub.Ethnicity,
			PickupLocation: &sub.PickupLocation,
			Notes:          sub.SpecialNotes,
			Status:         models.BagStatusPending,
		}
		if err := ds.CreateBag(ctx, bag); err != nil {
			return err
		}

		return ds.MarkSubmissionProcessed(ctx, submissionID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.LinkSubmissionToBag(ctx, submissionID, bag.ID); err != nil {
		s.logger.Warn("Failed to link submission to bag",
			zap.String("submission_id", submissionID),
			zap.String("bag_id", bag.ID),
			zap.Error(err))
	}

	util.BagsCreatedTotal.Inc()
	s.logger.Info("Submission processed",
		zap.String("submission_id", submissionID),
		zap.String("bag_id", bag.ID))

	return bag, nil
}
