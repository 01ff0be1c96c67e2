package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/repository"
)

var _ repository.ContentRepository = (*contentRepo)(nil)

type contentRepo struct{ pool *pgxpool.Pool }

func NewContentRepo(pool *pgxpool.Pool) *contentRepo {
	return &contentRepo{pool: pool}
}

const contentColumns = `id, filmmaker_id, title, type, series_id, approved,
view_price_rwf, download_price_rwf, total_views, total_revenue_rwf`

func scanContent(row pgx.Row) (*model.Content, error) {
	c := &model.Content{}
	err := row.Scan(&c.ID, &c.FilmmakerID, &c.Title, &c.Type, &c.SeriesID, &c.Approved,
		&c.ViewPriceRWF, &c.DownloadPriceRWF, &c.TotalViews, &c.TotalRevenueRWF)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContentMissing
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

func (r *contentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Content, error) {
	q := `SELECT ` + contentColumns + ` FROM contents WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanContent(row)
}

func (r *contentRepo) ListApprovedEpisodes(ctx context.Context, tx repository.Tx, seriesID string) ([]*model.Content, error) {
	q := `SELECT ` + contentColumns + ` FROM contents WHERE series_id=$1 AND type='episode' AND approved ORDER BY id;`
	rows, err := queryRows(ctx, r.pool, tx, q, seriesID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *contentRepo) ListTiers(ctx context.Context, tx repository.Tx, seriesID string) ([]*model.SeriesTier, error) {
	const q = `SELECT series_id, period, price_rwf FROM series_tiers WHERE series_id=$1 ORDER BY price_rwf;`
	rows, err := queryRows(ctx, r.pool, tx, q, seriesID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.SeriesTier
	for rows.Next() {
		t := &model.SeriesTier{}
		if err := rows.Scan(&t.SeriesID, &t.Period, &t.PriceRWF); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *contentRepo) FindTier(ctx context.Context, tx repository.Tx, seriesID string, period model.AccessPeriod) (*model.SeriesTier, error) {
	const q = `SELECT series_id, period, price_rwf FROM series_tiers WHERE series_id=$1 AND period=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, seriesID, period)
	if err != nil {
		return nil, err
	}
	t := &model.SeriesTier{}
	if err := row.Scan(&t.SeriesID, &t.Period, &t.PriceRWF); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

func (r *contentRepo) AddRevenue(ctx context.Context, tx repository.Tx, id string, amount int64, views int64) error {
	const q = `UPDATE contents SET total_revenue_rwf = total_revenue_rwf + $2, total_views = total_views + $3 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, amount, views)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrContentMissing
	}
	return nil
}
