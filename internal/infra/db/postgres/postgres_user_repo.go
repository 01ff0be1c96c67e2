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

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `
SELECT id, name, phone, verified,
       subscription_plan, subscription_max_devices, subscription_end_date, subscription_devices,
       created_at
  FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	var plan *string
	err = row.Scan(&u.ID, &u.Name, &u.Phone, &u.Verified,
		&plan, &u.Subscription.MaxDevices, &u.Subscription.EndDate, &u.Subscription.Devices,
		&u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if plan != nil {
		u.Subscription.Plan = model.SubscriptionPlan(*plan)
	}
	return u, nil
}

func (r *userRepo) UpdateSubscription(ctx context.Context, tx repository.Tx, userID string, sub model.Subscription) error {
	const q = `
UPDATE users
   SET subscription_plan=$2,
       subscription_max_devices=$3,
       subscription_end_date=$4,
       subscription_devices=$5
 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, sub.Plan, sub.MaxDevices, sub.EndDate, sub.Devices)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
