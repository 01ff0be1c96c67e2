package repository

import (
	"context"
	"time"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	// FindByID locks the row (FOR UPDATE) when tx is a live transaction.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByReference(ctx context.Context, tx Tx, referenceID string) (*model.Payment, error)
	// UpdateStatusIfPending transitions the row only when it is still
	// pending; returns false when another path already resolved it.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, finTxID, reason string, paidAt *time.Time) (bool, error)
	MarkLedgerApplied(ctx context.Context, tx Tx, id string) error
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Payment, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}

type PaymentEventRepository interface {
	Append(ctx context.Context, tx Tx, ev *model.PaymentEvent) error
	ListByPayment(ctx context.Context, tx Tx, paymentID string) ([]*model.PaymentEvent, error)
}
