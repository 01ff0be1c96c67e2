package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // charge issued; awaiting gateway resolution
	PaymentStatusSucceeded PaymentStatus = "succeeded" // gateway confirmed the charge
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway rejected or charge timed out
)

// IsTerminal reports whether no further transitions may occur.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusFailed
}

// PaymentClass drives the share split and the access policy.
type PaymentClass string

const (
	PaymentClassWatch               PaymentClass = "watch"
	PaymentClassDownload            PaymentClass = "download"
	PaymentClassSeriesAccess        PaymentClass = "series_access"
	PaymentClassSubscriptionUpgrade PaymentClass = "subscription_upgrade"
	PaymentClassSubscriptionRenewal PaymentClass = "subscription_renewal"
)

func (c PaymentClass) Valid() bool {
	switch c {
	case PaymentClassWatch, PaymentClassDownload, PaymentClassSeriesAccess,
		PaymentClassSubscriptionUpgrade, PaymentClassSubscriptionRenewal:
		return true
	}
	return false
}

// IsSubscription reports whether the platform keeps the full amount.
func (c PaymentClass) IsSubscription() bool {
	return c == PaymentClassSubscriptionUpgrade || c == PaymentClassSubscriptionRenewal
}

// AccessPeriod is the validity window a purchase buys.
type AccessPeriod string

const (
	AccessPeriodOneTime AccessPeriod = "one-time"
	AccessPeriod24h     AccessPeriod = "24h"
	AccessPeriod7d      AccessPeriod = "7d"
	AccessPeriod30d     AccessPeriod = "30d"
	AccessPeriod90d     AccessPeriod = "90d"
	AccessPeriod180d    AccessPeriod = "180d"
	AccessPeriod365d    AccessPeriod = "365d"
)

var accessPeriodDurations = map[AccessPeriod]time.Duration{
	AccessPeriod24h:  24 * time.Hour,
	AccessPeriod7d:   7 * 24 * time.Hour,
	AccessPeriod30d:  30 * 24 * time.Hour,
	AccessPeriod90d:  90 * 24 * time.Hour,
	AccessPeriod180d: 180 * 24 * time.Hour,
	AccessPeriod365d: 365 * 24 * time.Hour,
}

// Duration returns the fixed window for the period. ok is false for
// "one-time" and unknown values, which carry no fixed duration.
func (p AccessPeriod) Duration() (time.Duration, bool) {
	d, ok := accessPeriodDurations[p]
	return d, ok
}

func (p AccessPeriod) Valid() bool {
	if p == AccessPeriodOneTime {
		return true
	}
	_, ok := accessPeriodDurations[p]
	return ok
}

// Payment records one charge against a viewer's mobile-money wallet and the
// split owed to the filmmaker and the platform. Amounts are whole RWF.
type Payment struct {
	ID               string
	UserID           string
	MovieID          string // empty for series and subscription purchases
	SeriesID         string // empty unless series access or an episode of a series
	Class            PaymentClass
	AccessPeriod     AccessPeriod
	AmountRWF        int64
	OriginalAmount   float64 // as submitted by the client, in OriginalCurrency
	OriginalCurrency string
	ExchangeRate     int64 // RWF per unit of OriginalCurrency; 1 for RWF
	FilmmakerShare   int64
	PlatformShare    int64
	Phone            string // normalized 0XXXXXXXXX payer phone
	Provider         string // "lanari-pay" | "stripe"
	ReferenceID      string // gateway reference; unique, the idempotency key
	FinTxID          string // gateway financial-transaction id
	Status           PaymentStatus
	FailureReason    string
	SubscriptionPlan string     // basic|pro|enterprise, subscription classes only
	ExpiresAt        *time.Time // entitlement expiry snapshot, nil = permanent
	LedgerApplied    bool       // guards re-application of ledger deltas
	Meta             map[string]interface{}
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PaidAt           *time.Time
}

// NewPayment validates the class-specific target fields. Watch and download
// need a movie, series access a series, subscription classes a plan.
func NewPayment(userID string, class PaymentClass, movieID, seriesID, plan string) (*Payment, error) {
	if userID == "" || !class.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	switch class {
	case PaymentClassWatch, PaymentClassDownload:
		if movieID == "" {
			return nil, domain.ErrMissingField
		}
	case PaymentClassSeriesAccess:
		if seriesID == "" {
			return nil, domain.ErrMissingField
		}
	default:
		if plan == "" {
			return nil, domain.ErrMissingField
		}
	}
	now := time.Now()
	return &Payment{
		ID:               uuid.NewString(),
		UserID:           userID,
		MovieID:          movieID,
		SeriesID:         seriesID,
		Class:            class,
		SubscriptionPlan: plan,
		Status:           PaymentStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// CheckSplit enforces the exact-sum invariant on succeeded payments.
func (p *Payment) CheckSplit() error {
	if p.FilmmakerShare+p.PlatformShare != p.AmountRWF {
		return domain.ErrSplitMismatch
	}
	return nil
}
