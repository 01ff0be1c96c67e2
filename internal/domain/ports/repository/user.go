package repository

import (
	"context"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	UpdateSubscription(ctx context.Context, tx Tx, userID string, sub model.Subscription) error
}
