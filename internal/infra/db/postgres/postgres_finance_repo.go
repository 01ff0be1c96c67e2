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

var _ repository.FinanceRepository = (*financeRepo)(nil)

// financeRepo serializes balance writes through a row lock: every debit and
// the pending→available move reads the row FOR UPDATE first.
type financeRepo struct{ pool *pgxpool.Pool }

func NewFinanceRepo(pool *pgxpool.Pool) *financeRepo {
	return &financeRepo{pool: pool}
}

const financeColumns = `user_id, pending_balance, available_balance, withdrawn_balance,
total_earned, payout_method, payout_phone, updated_at`

func scanFinance(row pgx.Row) (*model.FilmmakerFinance, error) {
	f := &model.FilmmakerFinance{}
	err := row.Scan(&f.UserID, &f.PendingBalance, &f.AvailableBalance, &f.WithdrawnBalance,
		&f.TotalEarned, &f.PayoutMethod, &f.PayoutPhone, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return f, nil
}

func (r *financeRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.FilmmakerFinance, error) {
	q := `SELECT ` + financeColumns + ` FROM filmmaker_finance WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanFinance(row)
}

func (r *financeRepo) FindForUpdate(ctx context.Context, tx repository.Tx, userID string) (*model.FilmmakerFinance, error) {
	q := `SELECT ` + financeColumns + ` FROM filmmaker_finance WHERE user_id=$1 FOR UPDATE;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanFinance(row)
}

func (r *financeRepo) CreditPending(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	if amount < 0 {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO filmmaker_finance (user_id, pending_balance, available_balance, withdrawn_balance, total_earned, payout_method, payout_phone, updated_at)
VALUES ($1, $2, 0, 0, $2, 'mobile_money', '', NOW())
ON CONFLICT (user_id) DO UPDATE SET
  pending_balance = filmmaker_finance.pending_balance + $2,
  total_earned = filmmaker_finance.total_earned + $2,
  updated_at = NOW();`
	if _, err := execSQL(ctx, r.pool, tx, q, userID, amount); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *financeRepo) MovePendingToAvailable(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	if amount < 0 {
		return domain.ErrInvalidArgument
	}
	// GREATEST floors pending at 0; the amount moved never exceeds what is
	// pending, so the available side gets the actually-moved value.
	const q = `
UPDATE filmmaker_finance
   SET available_balance = available_balance + LEAST(pending_balance, $2),
       pending_balance = GREATEST(pending_balance - $2, 0),
       updated_at = NOW()
 WHERE user_id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, amount)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *financeRepo) DebitAvailable(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	if amount < 0 {
		return domain.ErrInvalidArgument
	}
	const q = `
UPDATE filmmaker_finance
   SET available_balance = available_balance - $2,
       withdrawn_balance = withdrawn_balance + $2,
       updated_at = NOW()
 WHERE user_id=$1 AND available_balance >= $2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, amount)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNegativeBalance
	}
	return nil
}
