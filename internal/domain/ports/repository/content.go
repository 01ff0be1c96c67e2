package repository

import (
	"context"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
)

type ContentRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Content, error)
	ListApprovedEpisodes(ctx context.Context, tx Tx, seriesID string) ([]*model.Content, error)
	ListTiers(ctx context.Context, tx Tx, seriesID string) ([]*model.SeriesTier, error)
	FindTier(ctx context.Context, tx Tx, seriesID string, period model.AccessPeriod) (*model.SeriesTier, error)
	// AddRevenue atomically bumps the revenue and view counters.
	AddRevenue(ctx context.Context, tx Tx, id string, amount int64, views int64) error
}
