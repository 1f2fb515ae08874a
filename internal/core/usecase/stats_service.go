package usecase

import (
	"context"

	"github.com/socialstats/engage/internal/core/domain"
	"github.com/socialstats/engage/internal/core/ports"
)

const defaultTopLimit = 10

// StatsService is the stateless query layer over the analytical store.
type StatsService struct {
	store ports.AnalyticsStore
}

func NewStatsService(store ports.AnalyticsStore) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) PostStats(ctx context.Context, postID int64) (domain.PostStats, error) {
	return s.store.PostStats(ctx, postID)
}

func (s *StatsService) Dynamics(ctx context.Context, postID int64, metric string, dates domain.DateRange) ([]domain.DailyCount, error) {
	m, err := domain.ParseMetric(metric)
	if err != nil {
		return nil, err
	}
	if err := dates.Validate(); err != nil {
		return nil, err
	}
	return s.store.Dynamics(ctx, postID, m, dates)
}

func (s *StatsService) TopPosts(ctx context.Context, metric string, limit int) ([]domain.TopPost, error) {
	m, err := domain.ParseMetric(metric)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	return s.store.TopPosts(ctx, m, limit)
}

func (s *StatsService) TopUsers(ctx context.Context, metric string, limit int) ([]domain.TopUser, error) {
	m, err := domain.ParseMetric(metric)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	return s.store.TopUsers(ctx, m, limit)
}
