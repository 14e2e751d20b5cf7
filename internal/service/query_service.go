package service

import (
	"context"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"go.uber.org/zap"
)

// QueryService serves the fulfillment dashboard reads: stage views,
// status counts and batching candidates. Counts go through the Redis
// cache; everything else reads the database directly.
type QueryService struct {
	store    store.Datastore
	cache    CountCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewQueryService creates a new query service. cacheTTL bounds the
// staleness of the two count queries; zero or negative falls back to
// the default.
func NewQueryService(store store.Datastore, cache CountCache, cacheTTL time.Duration) *QueryService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCountsCacheTTL
	}
	return &QueryService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

const (
	bagCountsCacheKey     = "bags:status"
	batchCountsCacheKey   = "batches:status"
	defaultCountsCacheTTL = 30 * time.Second
)

// FulfillmentCounts is the dashboard summary: bags per pipeline stage
// and per status. Cancelled and delivered bags are outside the active
// pipeline and only appear in ByStatus.
type FulfillmentCounts struct {
	Pick     int            `json:"pick"`
	Pack     int            `json:"pack"`
	Ship     int            `json:"ship"`
	ByStatus map[string]int `json:"by_status"`
}

// GetBagsByStage lists the bags currently sitting in one fulfillment
// stage (pick, pack or ship)
func (s *QueryService) GetBagsByStage(ctx context.Context, stage string) ([]models.BagOfHope, error) {
	statuses, ok := models.FulfillmentStageStatuses[stage]
	if !ok {
		return nil, models.NewValidationError("stage", "unknown fulfillment stage: "+stage)
	}
	return s.store.ListBags(ctx, statuses)
}

// GetFulfillmentCounts returns bag counts per stage and per status in
// a single pass over the status tallies. The per-status map is cached
// briefly; stage sums are derived from it.
func (s *QueryService) GetFulfillmentCounts(ctx context.Context) (*FulfillmentCounts, error) {
	ctx, span := util.StartSpan(ctx, "QueryService.GetFulfillmentCounts")
	defer span.End()

	if byStatus, hit, err := s.cache.GetCounts(ctx, bagCountsCacheKey); err != nil {
		s.logger.Warn("Failed to read counts cache", zap.Error(err))
	} else if hit {
		return buildFulfillmentCounts(byStatus), nil
	}

	tallies, err := s.store.CountBagsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int, len(models.AllBagStatuses))
	for _, status := range models.AllBagStatuses {
		byStatus[status] = tallies[status]
	}

	if err := s.cache.SetCounts(ctx, bagCountsCacheKey, byStatus, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to write counts cache", zap.Error(err))
	}
	return buildFulfillmentCounts(byStatus), nil
}

func buildFulfillmentCounts(byStatus map[string]int) *FulfillmentCounts {
	counts := &FulfillmentCounts{ByStatus: byStatus}
	for status, n := range byStatus {
		switch models.StageForStatus(status) {
		case models.StagePick:
			counts.Pick += n
		case models.StagePack:
			counts.Pack += n
		case models.StageShip:
			counts.Ship += n
		}
	}
	// Delivered bags are done, not in the ship queue.
	counts.Ship -= byStatus[models.BagStatusDelivered]
	return counts
}

// GetBatchCounts returns batch counts per status, with every status
// present even when zero
func (s *QueryService) GetBatchCounts(ctx context.Context) (map[string]int, error) {
	ctx, span := util.StartSpan(ctx, "QueryService.GetBatchCounts")
	defer span.End()

	if cached, hit, err := s.cache.GetCounts(ctx, batchCountsCacheKey); err != nil {
		s.logger.Warn("Failed to read counts cache", zap.Error(err))
	} else if hit {
		return cached, nil
	}

	tallies, err := s.store.CountBatchesByStatus(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(models.AllBatchStatuses))
	for _, status := range models.AllBatchStatuses {
		counts[status] = tallies[status]
	}

	if err := s.cache.SetCounts(ctx, batchCountsCacheKey, counts, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to write counts cache", zap.Error(err))
	}
	return counts, nil
}

// GetAvailableBagsForBatch lists ready_to_ship bags not yet assigned
// to any batch, oldest first
func (s *QueryService) GetAvailableBagsForBatch(ctx context.Context) ([]models.BagOfHope, error) {
	return s.store.ListAvailableBagsForBatch(ctx)
}

// InvalidateCounts drops the cached status counts. Called when a bag
// or batch status changes.
func (s *QueryService) InvalidateCounts(ctx context.Context) {
	for _, key := range []string{bagCountsCacheKey, batchCountsCacheKey} {
		if err := s.cache.InvalidateCounts(ctx, key); err != nil {
			s.logger.Warn("Failed to invalidate counts cache",
				zap.String("key", key), zap.Error(err))
		}
	}
}
