package repository

import (
	"context"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
)

type FinanceRepository interface {
	// FindForUpdate locks the filmmaker's row for the duration of the
	// transaction. All balance writes go through this lock.
	FindForUpdate(ctx context.Context, tx Tx, userID string) (*model.FilmmakerFinance, error)
	Find(ctx context.Context, tx Tx, userID string) (*model.FilmmakerFinance, error)
	// CreditPending adds a sale's filmmaker share to pending_balance and
	// total_earned. Creates the row when absent.
	CreditPending(ctx context.Context, tx Tx, userID string, amount int64) error
	// MovePendingToAvailable shifts amount after a completed payout.
	MovePendingToAvailable(ctx context.Context, tx Tx, userID string, amount int64) error
	// DebitAvailable removes amount on a manual withdrawal, adding it to
	// withdrawn_balance.
	DebitAvailable(ctx context.Context, tx Tx, userID string, amount int64) error
}
