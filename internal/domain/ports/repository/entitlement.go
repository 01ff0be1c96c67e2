package repository

import (
	"context"
	"time"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
)

type EntitlementRepository interface {
	Save(ctx context.Context, tx Tx, e *model.Entitlement) error
	ListByPayment(ctx context.Context, tx Tx, paymentID string) ([]*model.Entitlement, error)
	// FindActiveSeries returns the viewer's live series-scope entitlement,
	// used to extend instead of duplicating.
	FindActiveSeries(ctx context.Context, tx Tx, userID, seriesID string) (*model.Entitlement, error)
	FindActiveContent(ctx context.Context, tx Tx, userID, contentID string) (*model.Entitlement, error)
	ExtendExpiry(ctx context.Context, tx Tx, id string, expiresAt time.Time) error
	// ExtendSeries pushes the expiry of every entitlement tied to the series
	// (series row plus episode rows) for the viewer.
	ExtendSeries(ctx context.Context, tx Tx, userID, seriesID string, expiresAt time.Time) error
	DeleteExpired(ctx context.Context, tx Tx, before time.Time) (int64, error)
}
