//go:build !integration

package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/repository"
)

func newAccessFixture() (*AccessUseCase, *memEntitlementRepo, *memContentRepo, *memUserRepo) {
	ents := newMemEntitlementRepo()
	contents := newMemContentRepo()
	users := newMemUserRepo()
	uc := NewAccessUseCase(ents, contents, users, newTestLogger())
	return uc, ents, contents, users
}

func succeededPayment(class model.PaymentClass, movieID, seriesID, plan string) *model.Payment {
	p, err := model.NewPayment("u-1", class, movieID, seriesID, plan)
	if err != nil {
		panic(err)
	}
	p.Status = model.PaymentStatusSucceeded
	return p
}

func TestGrant_WatchFloor(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newAccessFixture()

	p := succeededPayment(model.PaymentClassWatch, "movie-1", "", "")
	p.AccessPeriod = model.AccessPeriod24h

	exp, err := uc.Grant(ctx, nil, p)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	// 24h purchases still get the 48h playback window
	wantExpiryNear(t, exp, 48*time.Hour)
}

func TestGrant_WatchLongerPeriodWins(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newAccessFixture()

	p := succeededPayment(model.PaymentClassWatch, "movie-1", "", "")
	p.AccessPeriod = model.AccessPeriod7d

	exp, err := uc.Grant(ctx, nil, p)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	wantExpiryNear(t, exp, 7*24*time.Hour)
}

func TestGrant_Idempotent(t *testing.T) {
	ctx := context.Background()
	uc, ents, _, _ := newAccessFixture()

	p := succeededPayment(model.PaymentClassWatch, "movie-1", "", "")
	if _, err := uc.Grant(ctx, nil, p); err != nil {
		t.Fatalf("first Grant: %v", err)
	}
	if _, err := uc.Grant(ctx, nil, p); err != nil {
		t.Fatalf("second Grant: %v", err)
	}
	rows, _ := ents.ListByPayment(ctx, nil, p.ID)
	if len(rows) != 1 {
		t.Errorf("entitlements = %d, want 1 after repeated grant", len(rows))
	}
}

func TestGrant_SeriesExtensionNeverShortens(t *testing.T) {
	ctx := context.Background()
	uc, ents, contents, _ := newAccessFixture()

	contents.add(&model.Content{ID: "series-1", Type: model.ContentTypeSeries, Approved: true})
	contents.add(&model.Content{ID: "ep-1", Type: model.ContentTypeEpisode, SeriesID: "series-1", Approved: true})

	long := succeededPayment(model.PaymentClassSeriesAccess, "", "series-1", "")
	long.AccessPeriod = model.AccessPeriod90d
	if _, err := uc.Grant(ctx, nil, long); err != nil {
		t.Fatalf("90d Grant: %v", err)
	}

	short := succeededPayment(model.PaymentClassSeriesAccess, "", "series-1", "")
	short.AccessPeriod = model.AccessPeriod7d
	exp, err := uc.Grant(ctx, nil, short)
	if err != nil {
		t.Fatalf("7d Grant: %v", err)
	}
	// remaining 90d window wins over the fresh 7d one
	wantExpiryNear(t, exp, 90*24*time.Hour)

	active, err := ents.FindActiveSeries(ctx, nil, "u-1", "series-1")
	if err != nil {
		t.Fatalf("FindActiveSeries: %v", err)
	}
	wantExpiryNear(t, active.ExpiresAt, 90*24*time.Hour)
}

func TestGrant_SeriesCoversNewEpisodesViaSeriesRow(t *testing.T) {
	ctx := context.Background()
	uc, ents, contents, _ := newAccessFixture()

	contents.add(&model.Content{ID: "series-1", Type: model.ContentTypeSeries, Approved: true})
	contents.add(&model.Content{ID: "ep-1", Type: model.ContentTypeEpisode, SeriesID: "series-1", Approved: true})
	contents.add(&model.Content{ID: "ep-2", Type: model.ContentTypeEpisode, SeriesID: "series-1", Approved: false})

	p := succeededPayment(model.PaymentClassSeriesAccess, "", "series-1", "")
	p.AccessPeriod = model.AccessPeriod30d
	if _, err := uc.Grant(ctx, nil, p); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	// only approved episodes get rows; the series row carries the access
	rows, _ := ents.ListByPayment(ctx, nil, p.ID)
	if len(rows) != 2 {
		t.Fatalf("entitlements = %d, want series + 1 approved episode", len(rows))
	}

	ok, _, err := uc.HasSeriesAccess(ctx, "u-1", "series-1")
	if err != nil || !ok {
		t.Errorf("HasSeriesAccess = %v, %v; want true", ok, err)
	}
	ok, _, _ = uc.HasSeriesAccess(ctx, "u-2", "series-1")
	if ok {
		t.Error("HasSeriesAccess leaked to another user")
	}
}

func TestGrant_SubscriptionRenewalStacks(t *testing.T) {
	ctx := context.Background()
	uc, _, _, users := newAccessFixture()

	remaining := time.Now().Add(10 * 24 * time.Hour)
	users.put(&model.User{
		ID: "u-1",
		Subscription: model.Subscription{
			Plan:       model.SubscriptionPlanBasic,
			MaxDevices: 1,
			EndDate:    &remaining,
		},
	})

	p := succeededPayment(model.PaymentClassSubscriptionRenewal, "", "", "basic")
	p.AccessPeriod = model.AccessPeriod30d
	exp, err := uc.Grant(ctx, nil, p)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	// 10 days remaining + 30 purchased
	wantExpiryNear(t, exp, 40*24*time.Hour)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	uc, ents, _, _ := newAccessFixture()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	ents.Save(ctx, nil, model.NewEntitlement("u-1", "m-1", "", "p-1", model.EntitlementScopeMovie, &past))
	ents.Save(ctx, nil, model.NewEntitlement("u-1", "m-2", "", "p-2", model.EntitlementScopeMovie, &future))
	ents.Save(ctx, nil, model.NewEntitlement("u-1", "m-3", "", "p-3", model.EntitlementScopeMovie, nil))

	n, err := uc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if _, err := ents.FindActiveContent(ctx, nil, "u-1", "m-2"); err != nil {
		t.Error("future entitlement purged")
	}
	if _, err := ents.FindActiveContent(ctx, nil, "u-1", "m-3"); err != nil {
		t.Error("permanent entitlement purged")
	}
}

// Postgres repos wrap ErrNotFound with scan context; both the grant path and
// the public query must still read a wrapped miss as "no active series row".
func TestSeriesAccess_WrappedNotFound(t *testing.T) {
	ctx := context.Background()
	uc, ents, contents, _ := newAccessFixture()

	contents.add(&model.Content{ID: "series-1", Type: model.ContentTypeSeries, Approved: true})
	ents.FindActiveSeriesFunc = func(ctx context.Context, tx repository.Tx, userID, seriesID string) (*model.Entitlement, error) {
		return nil, fmt.Errorf("find active series: %w", domain.ErrNotFound)
	}

	ok, _, err := uc.HasSeriesAccess(ctx, "u-1", "series-1")
	if err != nil {
		t.Fatalf("HasSeriesAccess: %v", err)
	}
	if ok {
		t.Error("access reported with no series row")
	}

	p := succeededPayment(model.PaymentClassSeriesAccess, "", "series-1", "")
	p.AccessPeriod = model.AccessPeriod30d
	if _, err := uc.Grant(ctx, nil, p); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	ents.FindActiveSeriesFunc = nil
	ok, _, err = uc.HasSeriesAccess(ctx, "u-1", "series-1")
	if err != nil || !ok {
		t.Errorf("HasSeriesAccess after grant = %v, %v; want true", ok, err)
	}
}
