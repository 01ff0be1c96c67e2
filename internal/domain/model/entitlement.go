package model

import (
	"time"

	"github.com/google/uuid"
)

// EntitlementScope distinguishes what the row unlocks.
type EntitlementScope string

const (
	EntitlementScopeMovie   EntitlementScope = "movie"
	EntitlementScopeEpisode EntitlementScope = "episode"
	EntitlementScopeSeries  EntitlementScope = "series"
)

// Entitlement grants a viewer the right to stream or download content.
// ExpiresAt nil means permanent (downloads).
type Entitlement struct {
	ID        string
	UserID    string
	ContentID string // movie or episode id; series id for series scope
	SeriesID  string // set on series and episode scopes
	Scope     EntitlementScope
	PaymentID string
	GrantedAt time.Time
	ExpiresAt *time.Time
}

func NewEntitlement(userID, contentID, seriesID, paymentID string, scope EntitlementScope, expiresAt *time.Time) *Entitlement {
	return &Entitlement{
		ID:        uuid.NewString(),
		UserID:    userID,
		ContentID: contentID,
		SeriesID:  seriesID,
		Scope:     scope,
		PaymentID: paymentID,
		GrantedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
}

// Active reports whether the entitlement is usable at t.
func (e *Entitlement) Active(t time.Time) bool {
	return e.ExpiresAt == nil || e.ExpiresAt.After(t)
}
