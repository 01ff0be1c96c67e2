package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/repository"
)

var _ repository.PaymentEventRepository = (*eventRepo)(nil)

// eventRepo is append-only; transitions are never rewritten.
type eventRepo struct{ pool *pgxpool.Pool }

func NewEventRepo(pool *pgxpool.Pool) *eventRepo {
	return &eventRepo{pool: pool}
}

func (r *eventRepo) Append(ctx context.Context, tx repository.Tx, ev *model.PaymentEvent) error {
	const q = `
INSERT INTO payment_events (id, payment_id, actor, from_status, to_status, reason, at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	if _, err := execSQL(ctx, r.pool, tx, q, ev.ID, ev.PaymentID, ev.Actor, ev.FromStatus, ev.ToStatus, ev.Reason, ev.At); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *eventRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.PaymentEvent, error) {
	const q = `SELECT id, payment_id, actor, from_status, to_status, reason, at FROM payment_events WHERE payment_id=$1 ORDER BY at;`
	rows, err := queryRows(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PaymentEvent
	for rows.Next() {
		ev := &model.PaymentEvent{}
		if err := rows.Scan(&ev.ID, &ev.PaymentID, &ev.Actor, &ev.FromStatus, &ev.ToStatus, &ev.Reason, &ev.At); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, ev)
	}
	return out, nil
}
