package model

import "time"

type SubscriptionPlan string

const (
	SubscriptionPlanBasic      SubscriptionPlan = "basic"
	SubscriptionPlanPro        SubscriptionPlan = "pro"
	SubscriptionPlanEnterprise SubscriptionPlan = "enterprise"
)

// MaxDevices returns the device cap for the plan. Unknown plans get 1.
func (p SubscriptionPlan) MaxDevices() int {
	switch p {
	case SubscriptionPlanPro:
		return 4
	case SubscriptionPlanEnterprise:
		return 10
	default:
		return 1
	}
}

func (p SubscriptionPlan) Valid() bool {
	switch p {
	case SubscriptionPlanBasic, SubscriptionPlanPro, SubscriptionPlanEnterprise:
		return true
	}
	return false
}

// Subscription is the viewer's current plan state, flipped by subscription
// purchases. Devices beyond MaxDevices are truncated on plan change.
type Subscription struct {
	Plan       SubscriptionPlan
	MaxDevices int
	EndDate    *time.Time
	Devices    []string
}

// User carries only what the payment core needs: identity and subscription
// state. Registration, auth and profiles live elsewhere.
type User struct {
	ID           string
	Name         string
	Phone        string
	Verified     bool
	Subscription Subscription
	CreatedAt    time.Time
}
