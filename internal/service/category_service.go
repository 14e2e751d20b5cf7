package service

import (
	"context"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"go.uber.org/zap"
)

// CategoryService manages the inventory category catalog. The used
// standard value is always derived from the new value, never set
// directly.
type CategoryService struct {
	store  store.Datastore
	logger *zap.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(store store.Datastore) *CategoryService {
	return &CategoryService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateCategoryRequest carries the fields for a new category
type CreateCategoryRequest struct {
	Name             string `json:"name" binding:"required"`
	AgeGroup         string `json:"age_group" binding:"required"`
	Gender           string `json:"gender" binding:"required"`
	ItemType         string `json:"item_type" binding:"required"`
	StandardValueNew int64  `json:"standard_value_new"`
	ReorderPoint     int    `json:"reorder_point"`
	DisplayOrder     int    `json:"display_order"`
}

// UpdateCategoryRequest carries optional field updates for a category
type UpdateCategoryRequest struct {
	Name             *string `json:"name,omitempty"`
	StandardValueNew *int64  `json:"standard_value_new,omitempty"`
	ReorderPoint     *int    `json:"reorder_point,omitempty"`
	DisplayOrder     *int    `json:"display_order,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

// CreateCategory creates an active category with the derived used value
func (s *CategoryService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CategoryService.CreateCategory")
	defer span.End()

	if err := validAgeGroup(req.AgeGroup); err != nil {
		return nil, err
	}
	if err := validGender(req.Gender); err != nil {
		return nil, err
	}
	if req.StandardValueNew < 0 {
		return nil, models.NewValidationError("standard_value_new", "must be non-negative")
	}
	if req.ReorderPoint < 0 {
		return nil, models.NewValidationError("reorder_point", "must be non-negative")
	}

	category := &models.Category{
		Name:              req.Name,
		AgeGroup:          req.AgeGroup,
		Gender:            req.Gender,
		ItemType:          req.ItemType,
		StandardValueNew:  req.StandardValueNew,
		StandardValueUsed: models.UsedValueCents(req.StandardValueNew),
		ReorderPoint:      req.ReorderPoint,
		DisplayOrder:      req.DisplayOrder,
		IsActive:          true,
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("Category created",
		zap.String("category_id", category.ID),
		zap.String("name", category.Name))

	return category, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryService) GetCategory(ctx context.Context, categoryID string) (*models.Category, error) {
	return s.store.GetCategoryByID(ctx, categoryID)
}

// ListCategories retrieves categories matching the filters
func (s *CategoryService) ListCategories(ctx context.Context, filters store.CategoryFilters) ([]models.Category, error) {
	return s.store.ListCategories(ctx, filters)
}

// CategoriesForChild lists the active categories applicable to a
// child: those matching the child's age group or neutral, and the
// child's gender or neutral
func (s *CategoryService) CategoriesForChild(ctx context.Context, ageGroup, gender string) ([]models.Category, error) {
	if err := validAgeGroup(ageGroup); err != nil {
		return nil, err
	}
	if err := validGender(gender); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, store.CategoryFilters{
		AgeGroups: []string{ageGroup, models.AgeGroupNeutral},
		Genders:   []string{gender, models.GenderNeutral},
	})
}

// GroupCategoriesByType buckets the matching categories by item type,
// preserving display order within each bucket
func (s *CategoryService) GroupCategoriesByType(ctx context.Context, filters store.CategoryFilters) (map[string][]models.Category, error) {
	categories, err := s.store.ListCategories(ctx, filters)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.Category)
	for _, c := range categories {
		grouped[c.ItemType] = append(grouped[c.ItemType], c)
	}
	return grouped, nil
}

// UpdateCategory applies the non-nil fields of req. Changing the new
// standard value re-derives the used value; values already frozen on
// past ledger entries are untouched.
func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID string, req *UpdateCategoryRequest) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CategoryService.UpdateCategory")
	defer span.End()

	var updated *models.Category
	err := s.store.ExecTx(ctx, func(ds store.Datastore) error {
		category, err := ds.GetCategoryByID(ctx, categoryID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			category.Name = *req.Name
		}
		if req.StandardValueNew != nil {
			if *req.StandardValueNew < 0 {
				return models.NewValidationError("standard_value_new", "must be non-negative")
			}
			category.StandardValueNew = *req.StandardValueNew
			category.StandardValueUsed = models.UsedValueCents(*req.StandardValueNew)
		}
		if req.ReorderPoint != nil {
			if *req.ReorderPoint < 0 {
				return models.NewValidationError("reorder_point", "must be non-negative")
			}
			category.ReorderPoint = *req.ReorderPoint
		}
		if req.DisplayOrder != nil {
			category.DisplayOrder = *req.DisplayOrder
		}
		if req.IsActive != nil {
			category.IsActive = *req.IsActive
		}

		if err := ds.UpdateCategory(ctx, category); err != nil {
			return err
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeactivateCategory soft-deletes a category. Its ledger history and
// derived level remain readable.
func (s *CategoryService) DeactivateCategory(ctx context.Context, categoryID string) error {
	ctx, span := util.StartSpan(ctx, "CategoryService.DeactivateCategory")
	defer span.End()

	if err := s.store.DeactivateCategory(ctx, categoryID); err != nil {
		return err
	}
	s.logger.Info("Category deactivated", zap.String("category_id", categoryID))
	return nil
}
