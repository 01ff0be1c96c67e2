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

var _ repository.WithdrawalRepository = (*withdrawalRepo)(nil)

type withdrawalRepo struct{ pool *pgxpool.Pool }

func NewWithdrawalRepo(pool *pgxpool.Pool) *withdrawalRepo {
	return &withdrawalRepo{pool: pool}
}

const withdrawalColumns = `id, user_id, amount_rwf, currency, phone, status, payment_id, type,
external_id, reference_id, failure_reason, created_at, processed_at, completed_at`

func scanWithdrawal(row pgx.Row) (*model.Withdrawal, error) {
	w := &model.Withdrawal{}
	err := row.Scan(
		&w.ID, &w.UserID, &w.AmountRWF, &w.Currency, &w.Phone, &w.Status, &w.PaymentID, &w.Type,
		&w.ExternalID, &w.ReferenceID, &w.FailureReason, &w.CreatedAt, &w.ProcessedAt, &w.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return w, nil
}

func (r *withdrawalRepo) Save(ctx context.Context, tx repository.Tx, w *model.Withdrawal) error {
	const q = `
INSERT INTO withdrawals (
  id, user_id, amount_rwf, currency, phone, status, payment_id, type,
  external_id, reference_id, failure_reason, created_at, processed_at, completed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
  status=$6, reference_id=$10, failure_reason=$11, processed_at=$13, completed_at=$14;`

	_, err := execSQL(ctx, r.pool, tx, q,
		w.ID, w.UserID, w.AmountRWF, w.Currency, w.Phone, w.Status, w.PaymentID, w.Type,
		w.ExternalID, w.ReferenceID, w.FailureReason, w.CreatedAt, w.ProcessedAt, w.CompletedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *withdrawalRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Withdrawal, error) {
	q := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanWithdrawal(row)
}

func (r *withdrawalRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.WithdrawalStatus, referenceID, reason string) error {
	const q = `
UPDATE withdrawals
   SET status=$2,
       reference_id=COALESCE(NULLIF($3,''), reference_id),
       failure_reason=$4,
       processed_at=COALESCE(processed_at, NOW()),
       completed_at=CASE WHEN $2='completed' THEN NOW() ELSE completed_at END
 WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id, status, referenceID, reason); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *withdrawalRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, offset, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *withdrawalRepo) SumByPaymentAndType(ctx context.Context, tx repository.Tx, paymentID string, wt model.WithdrawalType) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_rwf),0) FROM withdrawals WHERE payment_id=$1 AND type=$2 AND status NOT IN ('failed','cancelled','rejected');`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID, wt)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
