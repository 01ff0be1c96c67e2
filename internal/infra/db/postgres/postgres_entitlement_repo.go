package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/repository"
)

var _ repository.EntitlementRepository = (*entitlementRepo)(nil)

type entitlementRepo struct{ pool *pgxpool.Pool }

func NewEntitlementRepo(pool *pgxpool.Pool) *entitlementRepo {
	return &entitlementRepo{pool: pool}
}

const entitlementColumns = `id, user_id, content_id, series_id, scope, payment_id, granted_at, expires_at`

func scanEntitlement(row pgx.Row) (*model.Entitlement, error) {
	e := &model.Entitlement{}
	err := row.Scan(&e.ID, &e.UserID, &e.ContentID, &e.SeriesID, &e.Scope, &e.PaymentID, &e.GrantedAt, &e.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}

func (r *entitlementRepo) Save(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	const q = `
INSERT INTO entitlements (id, user_id, content_id, series_id, scope, payment_id, granted_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET expires_at=$8;`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.ContentID, e.SeriesID, e.Scope, e.PaymentID, e.GrantedAt, e.ExpiresAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *entitlementRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.Entitlement, error) {
	q := `SELECT ` + entitlementColumns + ` FROM entitlements WHERE payment_id=$1;`
	rows, err := queryRows(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectEntitlements(rows)
}

func (r *entitlementRepo) FindActiveSeries(ctx context.Context, tx repository.Tx, userID, seriesID string) (*model.Entitlement, error) {
	q := `SELECT ` + entitlementColumns + ` FROM entitlements
 WHERE user_id=$1 AND series_id=$2 AND scope='series'
   AND (expires_at IS NULL OR expires_at > NOW())
 ORDER BY granted_at DESC LIMIT 1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", userID, seriesID)
	if err != nil {
		return nil, err
	}
	return scanEntitlement(row)
}

func (r *entitlementRepo) FindActiveContent(ctx context.Context, tx repository.Tx, userID, contentID string) (*model.Entitlement, error) {
	q := `SELECT ` + entitlementColumns + ` FROM entitlements
 WHERE user_id=$1 AND content_id=$2
   AND (expires_at IS NULL OR expires_at > NOW())
 ORDER BY granted_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, contentID)
	if err != nil {
		return nil, err
	}
	return scanEntitlement(row)
}

func (r *entitlementRepo) ExtendExpiry(ctx context.Context, tx repository.Tx, id string, expiresAt time.Time) error {
	// GREATEST keeps the extension from ever shortening an entitlement.
	const q = `UPDATE entitlements SET expires_at=GREATEST(COALESCE(expires_at, 'epoch'::timestamptz), $2) WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id, expiresAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *entitlementRepo) ExtendSeries(ctx context.Context, tx repository.Tx, userID, seriesID string, expiresAt time.Time) error {
	const q = `
UPDATE entitlements
   SET expires_at=GREATEST(COALESCE(expires_at, 'epoch'::timestamptz), $3)
 WHERE user_id=$1 AND series_id=$2;`
	if _, err := execSQL(ctx, r.pool, tx, q, userID, seriesID, expiresAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *entitlementRepo) DeleteExpired(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	const q = `DELETE FROM entitlements WHERE expires_at IS NOT NULL AND expires_at < $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, before)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func collectEntitlements(rows pgx.Rows) ([]*model.Entitlement, error) {
	var out []*model.Entitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
