package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/repository"
)

// watchFloor is the minimum validity of a watch purchase. A 24h access
// period still yields 48h of playback.
const watchFloor = 48 * time.Hour

// AccessUseCase creates viewer entitlements when a payment succeeds. All
// writes run inside the caller's transaction so the grant commits or rolls
// back together with the payment transition.
type AccessUseCase struct {
	entitlements repository.EntitlementRepository
	contents     repository.ContentRepository
	users        repository.UserRepository
	log          *zerolog.Logger
}

func NewAccessUseCase(
	entitlements repository.EntitlementRepository,
	contents repository.ContentRepository,
	users repository.UserRepository,
	logger *zerolog.Logger,
) *AccessUseCase {
	l := logger.With().Str("component", "AccessUC").Logger()
	return &AccessUseCase{entitlements: entitlements, contents: contents, users: users, log: &l}
}

// Grant applies the class policy for p and returns the entitlement expiry
// (nil = permanent). Invoking it twice for the same payment is a no-op:
// existing rows for the payment id short-circuit the grant.
func (uc *AccessUseCase) Grant(ctx context.Context, tx repository.Tx, p *model.Payment) (*time.Time, error) {
	existing, err := uc.entitlements.ListByPayment(ctx, tx, p.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		uc.log.Debug().Str("payment_id", p.ID).Msg("grant already applied")
		return existing[0].ExpiresAt, nil
	}

	switch p.Class {
	case model.PaymentClassWatch:
		return uc.grantWatch(ctx, tx, p)
	case model.PaymentClassDownload:
		return uc.grantDownload(ctx, tx, p)
	case model.PaymentClassSeriesAccess:
		return uc.grantSeries(ctx, tx, p)
	case model.PaymentClassSubscriptionUpgrade, model.PaymentClassSubscriptionRenewal:
		return uc.grantSubscription(ctx, tx, p)
	default:
		return nil, domain.ErrInvalidArgument
	}
}

func (uc *AccessUseCase) grantWatch(ctx context.Context, tx repository.Tx, p *model.Payment) (*time.Time, error) {
	window := watchFloor
	if d, ok := p.AccessPeriod.Duration(); ok && d > window {
		window = d
	}
	expires := time.Now().Add(window)
	e := model.NewEntitlement(p.UserID, p.MovieID, p.SeriesID, p.ID, scopeFor(p), &expires)
	if err := uc.entitlements.Save(ctx, tx, e); err != nil {
		return nil, err
	}
	return &expires, nil
}

func (uc *AccessUseCase) grantDownload(ctx context.Context, tx repository.Tx, p *model.Payment) (*time.Time, error) {
	// downloads never expire
	e := model.NewEntitlement(p.UserID, p.MovieID, p.SeriesID, p.ID, scopeFor(p), nil)
	if err := uc.entitlements.Save(ctx, tx, e); err != nil {
		return nil, err
	}
	return nil, nil
}

func (uc *AccessUseCase) grantSeries(ctx context.Context, tx repository.Tx, p *model.Payment) (*time.Time, error) {
	window, ok := p.AccessPeriod.Duration()
	if !ok {
		window = watchFloor
	}
	expires := time.Now().Add(window)

	// An active series entitlement is extended instead of duplicated, and
	// the extension never shortens what the viewer already has.
	if current, err := uc.entitlements.FindActiveSeries(ctx, tx, p.UserID, p.SeriesID); err == nil {
		if current.ExpiresAt != nil && current.ExpiresAt.After(expires) {
			expires = *current.ExpiresAt
		}
		if err := uc.entitlements.ExtendSeries(ctx, tx, p.UserID, p.SeriesID, expires); err != nil {
			return nil, err
		}
		return &expires, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	series := model.NewEntitlement(p.UserID, p.SeriesID, p.SeriesID, p.ID, model.EntitlementScopeSeries, &expires)
	if err := uc.entitlements.Save(ctx, tx, series); err != nil {
		return nil, err
	}

	episodes, err := uc.contents.ListApprovedEpisodes(ctx, tx, p.SeriesID)
	if err != nil {
		return nil, err
	}
	for _, ep := range episodes {
		e := model.NewEntitlement(p.UserID, ep.ID, p.SeriesID, p.ID, model.EntitlementScopeEpisode, &expires)
		if err := uc.entitlements.Save(ctx, tx, e); err != nil {
			return nil, err
		}
	}
	return &expires, nil
}

func (uc *AccessUseCase) grantSubscription(ctx context.Context, tx repository.Tx, p *model.Payment) (*time.Time, error) {
	u, err := uc.users.FindByID(ctx, tx, p.UserID)
	if err != nil {
		return nil, err
	}

	plan := model.SubscriptionPlan(p.SubscriptionPlan)
	if !plan.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	window, ok := p.AccessPeriod.Duration()
	if !ok {
		window = 30 * 24 * time.Hour
	}

	start := time.Now()
	if p.Class == model.PaymentClassSubscriptionRenewal && u.Subscription.EndDate != nil && u.Subscription.EndDate.After(start) {
		// renewals stack onto the remaining time
		start = *u.Subscription.EndDate
	}
	end := start.Add(window)

	sub := model.Subscription{
		Plan:       plan,
		MaxDevices: plan.MaxDevices(),
		EndDate:    &end,
		Devices:    u.Subscription.Devices,
	}
	if len(sub.Devices) > sub.MaxDevices {
		sub.Devices = sub.Devices[:sub.MaxDevices]
	}
	if err := uc.users.UpdateSubscription(ctx, tx, p.UserID, sub); err != nil {
		return nil, err
	}
	return &end, nil
}

// HasSeriesAccess answers the public entitlement query.
func (uc *AccessUseCase) HasSeriesAccess(ctx context.Context, userID, seriesID string) (bool, *time.Time, error) {
	e, err := uc.entitlements.FindActiveSeries(ctx, nil, userID, seriesID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return true, e.ExpiresAt, nil
}

// PurgeExpired removes entitlement rows past their expiry. Called by the
// sweeper; returns how many rows went away.
func (uc *AccessUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	return uc.entitlements.DeleteExpired(ctx, nil, time.Now())
}

func scopeFor(p *model.Payment) model.EntitlementScope {
	if p.SeriesID != "" {
		return model.EntitlementScopeEpisode
	}
	return model.EntitlementScopeMovie
}
