package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is one row in the append-only status audit trail. Every
// transition records who drove it (charge reply, webhook, poll, admin).
type PaymentEvent struct {
	ID         string
	PaymentID  string
	Actor      string // "charge" | "webhook" | "poll" | "reconciler" | "admin"
	FromStatus PaymentStatus
	ToStatus   PaymentStatus
	Reason     string
	At         time.Time
}

func NewPaymentEvent(paymentID, actor string, from, to PaymentStatus, reason string) *PaymentEvent {
	return &PaymentEvent{
		ID:         uuid.NewString(),
		PaymentID:  paymentID,
		Actor:      actor,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		At:         time.Now(),
	}
}
