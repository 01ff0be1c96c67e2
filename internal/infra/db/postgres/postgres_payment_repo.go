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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, movie_id, series_id, class, access_period, amount_rwf,
original_amount, original_currency, exchange_rate, filmmaker_share, platform_share,
phone, provider, reference_id, fin_tx_id, status, failure_reason, subscription_plan,
expires_at, ledger_applied, meta, created_at, updated_at, paid_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.MovieID, &p.SeriesID, &p.Class, &p.AccessPeriod, &p.AmountRWF,
		&p.OriginalAmount, &p.OriginalCurrency, &p.ExchangeRate, &p.FilmmakerShare, &p.PlatformShare,
		&p.Phone, &p.Provider, &p.ReferenceID, &p.FinTxID, &p.Status, &p.FailureReason, &p.SubscriptionPlan,
		&p.ExpiresAt, &p.LedgerApplied, &p.Meta, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, movie_id, series_id, class, access_period, amount_rwf,
  original_amount, original_currency, exchange_rate, filmmaker_share, platform_share,
  phone, provider, reference_id, fin_tx_id, status, failure_reason, subscription_plan,
  expires_at, ledger_applied, meta, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25
) ON CONFLICT (id) DO UPDATE SET
  reference_id=$15, fin_tx_id=$16, status=$17, failure_reason=$18,
  expires_at=$20, ledger_applied=$21, meta=$22, updated_at=$24, paid_at=$25;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.MovieID, p.SeriesID, p.Class, p.AccessPeriod, p.AmountRWF,
		p.OriginalAmount, p.OriginalCurrency, p.ExchangeRate, p.FilmmakerShare, p.PlatformShare,
		p.Phone, p.Provider, p.ReferenceID, p.FinTxID, p.Status, p.FailureReason, p.SubscriptionPlan,
		p.ExpiresAt, p.LedgerApplied, p.Meta, p.CreatedAt, p.UpdatedAt, p.PaidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByReference(ctx context.Context, tx repository.Tx, referenceID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE reference_id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", referenceID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// UpdateStatusIfPending transitions only non-terminal rows; the caller learns
// from the false return that another path already resolved the payment.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, finTxID, reason string, paidAt *time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET status=$2,
       fin_tx_id=COALESCE(NULLIF($3,''), fin_tx_id),
       failure_reason=$4,
       paid_at=COALESCE($5, paid_at),
       updated_at=NOW()
 WHERE id=$1 AND status='pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, status, finTxID, reason, paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkLedgerApplied(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE payments SET ledger_applied=TRUE, updated_at=NOW() WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, offset, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]*model.Payment, error) {
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
