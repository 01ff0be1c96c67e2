package repository

import (
	"context"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
)

type WithdrawalRepository interface {
	Save(ctx context.Context, tx Tx, w *model.Withdrawal) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Withdrawal, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.WithdrawalStatus, referenceID, reason string) error
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Withdrawal, error)
	// SumByPaymentAndType supports the per-share ceiling check: total
	// transfers per (payment, type) never exceed that share.
	SumByPaymentAndType(ctx context.Context, tx Tx, paymentID string, wt model.WithdrawalType) (int64, error)
}
